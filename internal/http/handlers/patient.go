package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// PatientAPI is the remote surface behind the patient proxy endpoints.
type PatientAPI interface {
	PatientAppointments(ctx context.Context, patientID string) (healthapi.ListResult[healthapi.Appointment], error)
	PatientDashboard(ctx context.Context, patientID string) (*healthapi.Dashboard, error)
	BookAppointment(ctx context.Context, patientID string, req healthapi.BookingRequest) (*healthapi.BookingResult, error)
}

// PatientHandler proxies patient reads and bookings to the ERP using the
// caller's own credentials.
type PatientHandler struct {
	api    PatientAPI
	ledger bookings.Recorder
	logger *logging.Logger
}

// NewPatientHandler creates a patient proxy handler.
func NewPatientHandler(api PatientAPI, ledger bookings.Recorder, logger *logging.Logger) *PatientHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if ledger == nil {
		ledger = bookings.NewMemoryLedger()
	}
	return &PatientHandler{api: api, ledger: ledger, logger: logger}
}

// CreateAppointmentRequest is the POST /appointments body.
type CreateAppointmentRequest struct {
	PatientID  string `json:"patient_id" validate:"required"`
	DoctorID   string `json:"doctor_id" validate:"required"`
	HospitalID string `json:"hospital_id"`
	DateTime   string `json:"date_time" validate:"required"`
	Symptoms   string `json:"symptoms" validate:"max=500"`
}

// withCallerIdentity carries the request's bearer token and cookies to the
// remote client for the given patient.
func withCallerIdentity(r *http.Request, patientID string) context.Context {
	id := identity.Identity{Kind: identity.KindPatient, ID: patientID}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		id.Token = strings.TrimSpace(token)
	}
	if cookie := strings.TrimSpace(r.Header.Get("Cookie")); cookie != "" {
		id.Cookies = []string{cookie}
	}
	return identity.WithIdentity(r.Context(), id)
}

// ListAppointments handles GET /appointments/{patientID}.
func (h *PatientHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(chi.URLParam(r, "patientID"))
	if patientID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Patient ID is required")
		return
	}
	res, err := h.api.PatientAppointments(withCallerIdentity(r, patientID), patientID)
	if err != nil {
		h.writeUpstreamError(w, "Failed to fetch appointments", err)
		return
	}
	items := res.Items
	if items == nil {
		items = []healthapi.Appointment{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"appointments": items,
		"count":        len(items),
		"degraded":     res.Degraded,
	})
}

// CreateAppointment handles POST /appointments.
func (h *PatientHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Patient ID is required")
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.FirstValidationError(err))
		return
	}

	booking := healthapi.BookingRequest{
		DoctorID:   req.DoctorID,
		HospitalID: req.HospitalID,
		DateTime:   req.DateTime,
		Symptoms:   req.Symptoms,
	}
	if strings.TrimSpace(booking.Symptoms) == "" {
		booking.Symptoms = "General consultation"
	}
	attempt := bookings.Attempt{
		ID:         uuid.New(),
		PatientID:  req.PatientID,
		DoctorID:   booking.DoctorID,
		HospitalID: booking.HospitalID,
		DateTime:   booking.DateTime,
		Symptoms:   booking.Symptoms,
		CreatedAt:  time.Now().UTC(),
	}

	res, err := h.api.BookAppointment(withCallerIdentity(r, req.PatientID), req.PatientID, booking)
	if err != nil {
		attempt.Status = bookings.StatusFailed
		attempt.Error = err.Error()
		h.record(r.Context(), attempt)
		if errors.Is(err, healthapi.ErrBookingRejected) {
			middleware.WriteError(w, http.StatusBadRequest, "Failed to book appointment")
			return
		}
		h.writeUpstreamError(w, "Failed to book appointment", err)
		return
	}
	attempt.Status = bookings.StatusBooked
	attempt.AppointmentID = res.AppointmentID
	h.record(r.Context(), attempt)

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"appointment_id": res.AppointmentID,
		"message":        "Appointment booked successfully",
	})
}

// GetPatient handles GET /patient/{patientID}.
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(chi.URLParam(r, "patientID"))
	if patientID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Patient ID is required")
		return
	}
	dash, err := h.api.PatientDashboard(withCallerIdentity(r, patientID), patientID)
	if errors.Is(err, healthapi.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Patient not found")
		return
	}
	if err != nil {
		h.writeUpstreamError(w, "Failed to fetch patient data", err)
		return
	}
	if dash == nil || (dash.Patient.Identifier() == "" && dash.Patient.Name == "") {
		middleware.WriteError(w, http.StatusNotFound, "Patient not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"patient": dash.Patient,
	})
}

func (h *PatientHandler) record(ctx context.Context, attempt bookings.Attempt) {
	if err := h.ledger.Record(ctx, attempt); err != nil {
		h.logger.Error("failed to record booking attempt", "attempt_id", attempt.ID, "error", err)
	}
}

func (h *PatientHandler) writeUpstreamError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, healthapi.ErrUnauthorized) {
		middleware.WriteError(w, http.StatusUnauthorized, "Session expired")
		return
	}
	h.logger.Error(msg, "error", err)
	middleware.WriteJSON(w, http.StatusBadGateway, middleware.ErrorBody{Success: false, Error: msg, Message: "Upstream service unavailable"})
}

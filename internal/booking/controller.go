// Package booking drives the appointment booking conversation: doctor
// selection, symptom capture, time-slot selection, confirmation and
// submission to the remote API.
package booking

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// Booking actions.
const (
	ActionGeneral        = "general_appointment"
	ActionVaccination    = "vaccination_appointment"
	ActionSpecialist     = "specialist_appointment"
	ActionBackToSymptoms = "back_to_symptoms"
	ActionFinalConfirm   = "final_confirm_appointment"
	ActionSymptomOther   = "symptom_other"

	prefixDoctor     = "book_doctor_"
	prefixSpecialist = "book_specialist_"
	prefixSlot       = "confirm_"

	defaultSymptoms  = "General consultation"
	defaultFee       = 500
	defaultLocation  = "Clinic"
	defaultHospital  = "Healthcare Center"
	maxDoctors       = 5
	maxSpecialties   = 6
	minSymptomLength = 3
)

var symptomTexts = map[string]string{
	"symptom_regular":  "Regular check-up/consultation",
	"symptom_fever":    "Fever and related symptoms",
	"symptom_cold":     "Cold, cough, and respiratory issues",
	"symptom_headache": "Headache and related pain",
	"symptom_stomach":  "Stomach pain, digestive issues",
}

// API is the subset of the remote client used for booking.
type API interface {
	ListDoctors(ctx context.Context, hospitalID string) ([]healthapi.Doctor, error)
	BookAppointment(ctx context.Context, patientID string, req healthapi.BookingRequest) (*healthapi.BookingResult, error)
}

// Config tunes the controller.
type Config struct {
	Location *time.Location
	// PlaceholderDrafts creates a stand-in draft when a symptom or time-slot
	// step arrives with no draft, instead of asking the user to restart.
	PlaceholderDrafts bool
	Now               func() time.Time
}

// Controller implements the booking state machine over session drafts.
// It mutates the session passed in; the caller persists it.
type Controller struct {
	api         API
	ledger      bookings.Recorder
	loc         *time.Location
	placeholder bool
	now         func() time.Time
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics
}

// NewController wires a booking controller.
func NewController(api API, ledger bookings.Recorder, cfg Config, logger *logging.Logger, m *metrics.ChatMetrics) *Controller {
	if api == nil {
		panic("booking: api required")
	}
	if ledger == nil {
		ledger = bookings.NewMemoryLedger()
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		api:         api,
		ledger:      ledger,
		loc:         loc,
		placeholder: cfg.PlaceholderDrafts,
		now:         now,
		logger:      logger,
		metrics:     m,
	}
}

// Handles reports whether action belongs to the booking flow.
func (c *Controller) Handles(action string) bool {
	switch action {
	case ActionGeneral, ActionVaccination, ActionSpecialist, ActionBackToSymptoms, ActionFinalConfirm, ActionSymptomOther:
		return true
	}
	if _, ok := symptomTexts[action]; ok {
		return true
	}
	if strings.HasPrefix(action, prefixDoctor) || strings.HasPrefix(action, prefixSpecialist) {
		return true
	}
	return IsTimeSlotAction(action)
}

// IsTimeSlotAction reports whether action has the time-slot shape. Unknown
// slots still route here so they can be rejected as invalid input.
func IsTimeSlotAction(action string) bool {
	if !strings.HasPrefix(action, prefixSlot) {
		return false
	}
	rest := strings.TrimPrefix(action, prefixSlot)
	return strings.HasPrefix(rest, "today_") || strings.HasPrefix(rest, "tomorrow_")
}

// Handle routes a booking action.
func (c *Controller) Handle(ctx context.Context, sess *session.Session, action string) (menu.Response, error) {
	switch {
	case action == ActionGeneral || action == ActionVaccination:
		return c.ListDoctors(ctx, sess, "")
	case action == ActionSpecialist:
		return c.ListSpecialties(ctx, sess)
	case strings.HasPrefix(action, prefixSpecialist):
		return c.ListDoctors(ctx, sess, strings.TrimPrefix(action, prefixSpecialist))
	case strings.HasPrefix(action, prefixDoctor):
		return c.SelectDoctor(ctx, sess, strings.TrimPrefix(action, prefixDoctor))
	case action == ActionBackToSymptoms:
		return c.BackToSymptoms(sess), nil
	case action == ActionFinalConfirm:
		return c.Submit(ctx, sess)
	case IsTimeSlotAction(action):
		return c.SelectTimeSlot(sess, action), nil
	default:
		return c.SelectSymptom(sess, action), nil
	}
}

// ListDoctors offers up to five doctors, optionally restricted to the
// specialization whose slug matches.
func (c *Controller) ListDoctors(ctx context.Context, sess *session.Session, specialtySlug string) (menu.Response, error) {
	doctors, err := c.api.ListDoctors(ctx, "")
	if err != nil {
		return menu.Response{}, err
	}
	if specialtySlug != "" {
		filtered := doctors[:0:0]
		for _, d := range doctors {
			if slugify(specialtyOf(d)) == specialtySlug {
				filtered = append(filtered, d)
			}
		}
		doctors = filtered
	}
	if len(doctors) == 0 {
		return noDoctorsResponse(), nil
	}

	sess.Draft = nil
	sess.State = session.StateAwaitingDoctor
	if len(doctors) > maxDoctors {
		doctors = doctors[:maxDoctors]
	}
	return doctorListResponse(doctors, specialtySlug), nil
}

// ListSpecialties groups the available doctors by specialization.
func (c *Controller) ListSpecialties(ctx context.Context, sess *session.Session) (menu.Response, error) {
	doctors, err := c.api.ListDoctors(ctx, "")
	if err != nil {
		return menu.Response{}, err
	}
	if len(doctors) == 0 {
		return noDoctorsResponse(), nil
	}

	groups := map[string][]healthapi.Doctor{}
	var order []string
	for _, d := range doctors {
		spec := specialtyOf(d)
		if _, ok := groups[spec]; !ok {
			order = append(order, spec)
		}
		groups[spec] = append(groups[spec], d)
	}
	sort.Strings(order)
	if len(order) > maxSpecialties {
		order = order[:maxSpecialties]
	}

	sess.State = session.StateAwaitingDoctor
	return specialtyListResponse(order, groups), nil
}

// SelectDoctor starts a fresh draft for the doctor with the given id. An id
// missing from the current doctor list yields a corrective response.
func (c *Controller) SelectDoctor(ctx context.Context, sess *session.Session, doctorID string) (menu.Response, error) {
	doctors, err := c.api.ListDoctors(ctx, "")
	if err != nil {
		return menu.Response{}, err
	}
	var selected *healthapi.Doctor
	for i := range doctors {
		if doctors[i].DoctorID.String() == doctorID {
			selected = &doctors[i]
			break
		}
	}
	if selected == nil || doctorID == "" {
		c.logger.Info("doctor selection not found", "user_id", sess.UserID, "doctor_id", doctorID)
		return doctorNotFoundResponse(), nil
	}

	sess.Draft = &session.Draft{
		ID:           uuid.NewString(),
		DoctorID:     selected.DoctorID.String(),
		DoctorName:   selected.Name,
		HospitalID:   selected.HospitalID.String(),
		HospitalName: orDefault(selected.HospitalName, defaultHospital),
		Specialty:    specialtyOf(*selected),
		Fee:          cleanFee(selected.ConsultationFee.String()),
		Location:     orDefault(selected.Location, defaultLocation),
		CreatedAt:    c.now(),
	}
	sess.State = session.StateAwaitingSymptom
	return symptomMenuResponse(selected.Name), nil
}

// SelectSymptom stores a fixed symptom category, or switches the session
// into free-text capture for symptom_other.
func (c *Controller) SelectSymptom(sess *session.Session, action string) menu.Response {
	if !c.ensureDraft(sess) {
		return menu.BookingExpired()
	}
	if action == ActionSymptomOther {
		sess.State = session.StateAwaitingSymptomText
		return freeTextPromptResponse()
	}
	text, ok := symptomTexts[action]
	if !ok {
		return menu.Fallback()
	}
	sess.Draft.Symptoms = text
	sess.State = session.StateAwaitingTimeSlot
	return timeSlotMenuResponse(sess.Draft.DoctorName, "")
}

// SubmitFreeText consumes the message that follows symptom_other. Input
// shorter than three characters re-prompts and keeps the session waiting.
func (c *Controller) SubmitFreeText(sess *session.Session, text string) menu.Response {
	if sess.Draft == nil {
		sess.ResetBooking()
		return menu.BookingExpired()
	}
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minSymptomLength {
		sess.State = session.StateAwaitingSymptomText
		return freeTextRetryResponse()
	}
	sess.Draft.Symptoms = trimmed
	sess.State = session.StateAwaitingTimeSlot
	return timeSlotMenuResponse(sess.Draft.DoctorName, "")
}

// BackToSymptoms leaves free-text capture and shows the symptom menu again.
func (c *Controller) BackToSymptoms(sess *session.Session) menu.Response {
	if sess.Draft == nil {
		sess.ResetBooking()
		return menu.BookingExpired()
	}
	sess.State = session.StateAwaitingSymptom
	return symptomMenuResponse(sess.Draft.DoctorName)
}

// SelectTimeSlot resolves the slot to a date and presents the summary.
func (c *Controller) SelectTimeSlot(sess *session.Session, action string) menu.Response {
	if !c.ensureDraft(sess) {
		return menu.BookingExpired()
	}
	slot, ok := LookupSlot(action)
	if !ok {
		c.logger.Info("invalid time slot", "user_id", sess.UserID, "action", action)
		return timeSlotMenuResponse(sess.Draft.DoctorName, "⚠️ That time slot is not available. ")
	}
	display, api, err := slot.Resolve(c.now(), c.loc)
	if err != nil {
		c.logger.Error("time slot resolve failed", "action", action, "error", err)
		return timeSlotMenuResponse(sess.Draft.DoctorName, "⚠️ That time slot is not available. ")
	}

	d := sess.Draft
	d.SlotAction = slot.Action
	d.SlotDay = slot.Day
	d.SlotTime = slot.Label
	d.DisplayDateTime = display
	d.APIDateTime = api
	sess.State = session.StateAwaitingConfirmation
	return confirmationResponse(d)
}

// Submit sends the confirmed draft to the remote API. It only acts while the
// summary is being shown; anything else re-prompts. On success the draft is
// discarded; on failure it is kept so the user can retry. Every call is
// recorded as a separate attempt.
func (c *Controller) Submit(ctx context.Context, sess *session.Session) (menu.Response, error) {
	d := sess.Draft
	if d == nil {
		sess.ResetBooking()
		return menu.BookingExpired(), nil
	}
	switch {
	case sess.State == session.StateAwaitingConfirmation && d.HasTimeSlot():
	case sess.State == session.StateAwaitingSymptom:
		return symptomMenuResponse(d.DoctorName), nil
	default:
		// A slot picked before the draft changed has not been confirmed.
		sess.State = session.StateAwaitingTimeSlot
		return timeSlotMenuResponse(d.DoctorName, "Please pick a time first. "), nil
	}
	patient, ok := identity.PatientFromContext(ctx)
	if !ok {
		return menu.AuthenticationRequired(), nil
	}
	if d.Placeholder {
		c.logger.Warn("submitting placeholder draft", "user_id", sess.UserID, "draft_id", d.ID)
	}

	req := healthapi.BookingRequest{
		DoctorID:   d.DoctorID,
		HospitalID: d.HospitalID,
		DateTime:   d.APIDateTime,
		Symptoms:   orDefault(d.Symptoms, defaultSymptoms),
	}
	attempt := bookings.Attempt{
		ID:         uuid.New(),
		UserID:     sess.UserID,
		PatientID:  patient.ID,
		DoctorID:   req.DoctorID,
		HospitalID: req.HospitalID,
		DateTime:   req.DateTime,
		Symptoms:   req.Symptoms,
		CreatedAt:  c.now().UTC(),
	}

	res, err := c.api.BookAppointment(ctx, patient.ID, req)
	if err != nil {
		attempt.Status = bookings.StatusFailed
		attempt.Error = err.Error()
		c.record(ctx, attempt)
		if errors.Is(err, healthapi.ErrBookingRejected) {
			c.metrics.ObserveBooking("rejected")
		} else {
			c.metrics.ObserveBooking("failed")
		}
		c.logger.Warn("appointment booking failed", "user_id", sess.UserID, "attempt_id", attempt.ID, "error", err)
		return menu.Response{}, err
	}

	attempt.Status = bookings.StatusBooked
	attempt.AppointmentID = res.AppointmentID
	c.record(ctx, attempt)
	c.metrics.ObserveBooking("booked")
	c.logger.Info("appointment booked", "user_id", sess.UserID, "attempt_id", attempt.ID, "appointment_id", res.AppointmentID)

	booked := *d
	sess.ResetBooking()
	return bookedResponse(&booked, res.AppointmentID), nil
}

func (c *Controller) record(ctx context.Context, attempt bookings.Attempt) {
	if err := c.ledger.Record(ctx, attempt); err != nil {
		c.logger.Error("failed to record booking attempt", "attempt_id", attempt.ID, "error", err)
	}
}

// ensureDraft reports whether the session has a draft, creating a
// placeholder one when that behaviour is enabled.
func (c *Controller) ensureDraft(sess *session.Session) bool {
	if sess.Draft != nil {
		return true
	}
	if !c.placeholder {
		sess.ResetBooking()
		return false
	}
	c.logger.Warn("creating placeholder booking draft", "user_id", sess.UserID)
	sess.Draft = &session.Draft{
		ID:          uuid.NewString(),
		DoctorID:    "temp_doctor",
		DoctorName:  "Test Doctor",
		Specialty:   "General Medicine",
		Fee:         defaultFee,
		Location:    defaultLocation,
		Placeholder: true,
		CreatedAt:   c.now(),
	}
	return true
}

func specialtyOf(d healthapi.Doctor) string {
	return orDefault(d.Specialization, "General Medicine")
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// cleanFee keeps only the digits of a fee string, defaulting to 500.
func cleanFee(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	fee, err := strconv.Atoi(digits)
	if err != nil || fee <= 0 {
		return defaultFee
	}
	return fee
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

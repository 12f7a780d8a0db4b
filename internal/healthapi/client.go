package healthapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 300
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Token      string
	Timeout    time.Duration
	RPS        float64
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.ChatMetrics
	Tracer     trace.Tracer
}

// Client wraps REST calls to the healthcare ERP. Credentials for each call
// come from the identity stored in the request context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	token      string
	limiter    *rate.Limiter
	logger     *logging.Logger
	metrics    *metrics.ChatMetrics
	tracer     trace.Tracer
}

// NewClient constructs an ERP REST client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("healthbot.internal.healthapi")
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		token:      opts.Token,
		limiter:    limiter,
		logger:     logger,
		metrics:    opts.Metrics,
		tracer:     tracer,
	}
}

// AuthenticatePatient signs a patient in with email and password.
func (c *Client) AuthenticatePatient(ctx context.Context, email, password string) (*AuthResult, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
		PatientProfile
	}
	headers, err := c.doJSON(ctx, "patient_signin", http.MethodPost, "/patient/signin", credentials{email, password}, &resp)
	if err != nil {
		return nil, signinError(err)
	}
	if !resp.Success || resp.PatientProfile.Identifier() == "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, firstNonEmpty(resp.Message, resp.Error, "invalid credentials"))
	}
	profile := resp.PatientProfile
	return &AuthResult{Patient: &profile, Cookies: sessionCookies(headers)}, nil
}

// AuthenticateDoctor signs a doctor in with email and password.
func (c *Client) AuthenticateDoctor(ctx context.Context, email, password string) (*AuthResult, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
		Doctor
	}
	headers, err := c.doJSON(ctx, "doctor_signin", http.MethodPost, "/doctor/signin", credentials{email, password}, &resp)
	if err != nil {
		return nil, signinError(err)
	}
	if !resp.Success || resp.Doctor.DoctorID == "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, firstNonEmpty(resp.Message, resp.Error, "invalid credentials"))
	}
	doctor := resp.Doctor
	return &AuthResult{Doctor: &doctor, Cookies: sessionCookies(headers)}, nil
}

// ListDoctors returns doctors, optionally filtered by hospital.
func (c *Client) ListDoctors(ctx context.Context, hospitalID string) ([]Doctor, error) {
	path := "/doctors"
	if hospitalID != "" {
		path += "?" + url.Values{"hospital_id": {hospitalID}}.Encode()
	}
	var doctors []Doctor
	if err := c.getCollection(ctx, "list_doctors", path, "doctors", &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// ListHospitals returns all hospitals.
func (c *Client) ListHospitals(ctx context.Context) ([]Hospital, error) {
	var hospitals []Hospital
	if err := c.getCollection(ctx, "list_hospitals", "/hospitals", "hospitals", &hospitals); err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	return hospitals, nil
}

// PatientDashboard returns the dashboard for a patient.
func (c *Client) PatientDashboard(ctx context.Context, patientID string) (*Dashboard, error) {
	var dash Dashboard
	if _, err := c.doJSON(ctx, "patient_dashboard", http.MethodGet, "/patient/"+url.PathEscape(patientID)+"/dashboard", nil, &dash); err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	return &dash, nil
}

// DoctorDashboard returns the dashboard for a doctor.
func (c *Client) DoctorDashboard(ctx context.Context, doctorID string) (*DoctorDashboard, error) {
	var dash DoctorDashboard
	if _, err := c.doJSON(ctx, "doctor_dashboard", http.MethodGet, "/doctor/"+url.PathEscape(doctorID)+"/dashboard", nil, &dash); err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	return &dash, nil
}

// PatientAppointments lists a patient's appointments.
func (c *Client) PatientAppointments(ctx context.Context, patientID string) (ListResult[Appointment], error) {
	return fetchList[Appointment](ctx, c, "patient_appointments", "/patient/"+url.PathEscape(patientID)+"/appointments", "appointments")
}

// PatientPrescriptions lists a patient's prescriptions.
func (c *Client) PatientPrescriptions(ctx context.Context, patientID string) (ListResult[Prescription], error) {
	return fetchList[Prescription](ctx, c, "patient_prescriptions", "/patient/"+url.PathEscape(patientID)+"/prescriptions", "prescriptions")
}

// PatientLabTests lists a patient's lab tests.
func (c *Client) PatientLabTests(ctx context.Context, patientID string) (ListResult[LabTest], error) {
	return fetchList[LabTest](ctx, c, "patient_lab_tests", "/patient/"+url.PathEscape(patientID)+"/lab-tests", "lab_tests")
}

// PatientReports lists a patient's reports.
func (c *Client) PatientReports(ctx context.Context, patientID string) (ListResult[Report], error) {
	return fetchList[Report](ctx, c, "patient_reports", "/patient/"+url.PathEscape(patientID)+"/reports", "reports")
}

// PrescriptionDetails fetches a single prescription.
func (c *Client) PrescriptionDetails(ctx context.Context, prescriptionID string) (*Prescription, error) {
	var resp struct {
		Prescription *Prescription `json:"prescription"`
	}
	if _, err := c.doJSON(ctx, "prescription_details", http.MethodGet, "/prescriptions/"+url.PathEscape(prescriptionID), nil, &resp); err != nil {
		return nil, fmt.Errorf("prescription details: %w", err)
	}
	if resp.Prescription == nil {
		return nil, fmt.Errorf("prescription details: %w", ErrNotFound)
	}
	return resp.Prescription, nil
}

// PrescriptionDownloadURL is the PDF download location for a prescription.
func (c *Client) PrescriptionDownloadURL(prescriptionID string) string {
	return c.baseURL + "/prescriptions/" + url.PathEscape(prescriptionID) + "/download"
}

// LabTestFileURL is the file location for an uploaded lab test.
func (c *Client) LabTestFileURL(testID string) string {
	return c.baseURL + "/lab-tests/" + url.PathEscape(testID) + "/file"
}

// BookAppointment creates an appointment for the patient. The ERP signals
// success either with a success flag or by returning an identifier; both are
// folded into BookingResult here.
func (c *Client) BookAppointment(ctx context.Context, patientID string, req BookingRequest) (*BookingResult, error) {
	var resp struct {
		Success       *bool      `json:"success"`
		AppointmentID FlexString `json:"appointment_id"`
		ID            FlexString `json:"id"`
		Message       string     `json:"message"`
		Error         string     `json:"error"`
		Appointment   *struct {
			ID            FlexString `json:"id"`
			AppointmentID FlexString `json:"appointment_id"`
		} `json:"appointment"`
	}
	if _, err := c.doJSON(ctx, "book_appointment", http.MethodPost, "/patient/"+url.PathEscape(patientID)+"/appointments", req, &resp); err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	var nested string
	if resp.Appointment != nil {
		nested = firstNonEmpty(resp.Appointment.ID.String(), resp.Appointment.AppointmentID.String())
	}
	id := firstNonEmpty(nested, resp.AppointmentID.String(), resp.ID.String())
	succeeded := resp.Success != nil && *resp.Success
	if !succeeded && id == "" {
		return nil, fmt.Errorf("%w: %s", ErrBookingRejected, firstNonEmpty(resp.Error, resp.Message, "no booking reference returned"))
	}
	return &BookingResult{AppointmentID: id, Message: resp.Message}, nil
}

// ShareReport shares a report with one or more doctors.
func (c *Client) ShareReport(ctx context.Context, patientID, reportID string, doctorIDs []string, notes string) (*ShareResult, error) {
	body := struct {
		DoctorIDs []string `json:"doctor_ids"`
		Notes     string   `json:"notes"`
	}{doctorIDs, notes}
	path := "/patient/" + url.PathEscape(patientID) + "/reports/" + url.PathEscape(reportID) + "/share"
	var resp ShareResult
	if _, err := c.doJSON(ctx, "share_report", http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("share report: %w", err)
	}
	return &resp, nil
}

// ShareLabTest shares a lab test with a doctor.
func (c *Client) ShareLabTest(ctx context.Context, patientID, testID, doctorID, notes string) (*ShareResult, error) {
	body := struct {
		DoctorID string `json:"doctor_id"`
		Notes    string `json:"notes"`
	}{doctorID, notes}
	path := "/patient/" + url.PathEscape(patientID) + "/lab-tests/" + url.PathEscape(testID) + "/share"
	var resp ShareResult
	if _, err := c.doJSON(ctx, "share_lab_test", http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("share lab test: %w", err)
	}
	return &resp, nil
}

// Ping checks that the ERP is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.doJSON(ctx, "ping", http.MethodGet, "/hospitals", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// fetchList loads a collection and degrades to an empty result on any
// failure except an authentication rejection.
func fetchList[T any](ctx context.Context, c *Client, op, path, key string) (ListResult[T], error) {
	var items []T
	err := c.getCollection(ctx, op, path, key, &items)
	if err == nil {
		return ListResult[T]{Items: items}, nil
	}
	if errors.Is(err, ErrUnauthorized) {
		return ListResult[T]{}, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Warn("healthapi list degraded", "operation", op, "error", err)
	return ListResult[T]{Items: []T{}, Degraded: true}, nil
}

// getCollection decodes either {"<key>": [...]} or a bare array.
func (c *Client) getCollection(ctx context.Context, op, path, key string, out any) error {
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, op, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return decodeInto(raw, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	for _, k := range []string{key, "data"} {
		if v, ok := wrapped[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return decodeInto(v, out)
		}
	}
	return nil
}

func decodeInto(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body interface{}, out interface{}) (http.Header, error) {
	ctx, span := c.tracer.Start(ctx, "healthapi."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("healthapi.path", path),
	))
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.ObserveUpstream(op, status, time.Since(start).Seconds())
	}()

	fail := func(err error) (http.Header, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fail(fmt.Errorf("build request: %w", err))
	}
	c.applyHeaders(ctx, req, body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(respBody)
		c.logger.Warn("healthapi non-2xx response", "status", resp.StatusCode, "operation", op, "path", path, "body", msg)
		return fail(&StatusError{Operation: op, StatusCode: resp.StatusCode, Message: msg})
	}

	if len(respBody) == 0 || out == nil {
		return resp.Header, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	return resp.Header, nil
}

// applyHeaders sets the API key and the caller's credentials. A bearer
// token wins over cookies; the static token is used only when the request
// carries no identity credentials.
func (c *Client) applyHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	if id, ok := identity.FromContext(ctx); ok {
		if id.Token != "" {
			req.Header.Set("Authorization", "Bearer "+id.Token)
			return
		}
		if cookie := id.CookieHeader(); cookie != "" {
			req.Header.Set("Cookie", cookie)
			return
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := firstNonEmpty(payload.Error, payload.Message); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

// sessionCookies reduces Set-Cookie headers to name=value pairs.
func sessionCookies(headers http.Header) []string {
	resp := http.Response{Header: headers}
	var out []string
	for _, c := range resp.Cookies() {
		out = append(out, c.Name+"="+c.Value)
	}
	return out
}

func signinError(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusBadRequest) {
		return fmt.Errorf("%w: %s", ErrAuthFailed, statusErr.Message)
	}
	return fmt.Errorf("signin: %w", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

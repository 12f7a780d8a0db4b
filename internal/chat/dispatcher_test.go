package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/health-erp-chatbot/internal/booking"
	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	doctors       []healthapi.Doctor
	hospitals     []healthapi.Hospital
	hospitalsErr  error
	dashboard     *healthapi.Dashboard
	doctorDash    *healthapi.DoctorDashboard
	appointments  healthapi.ListResult[healthapi.Appointment]
	prescriptions healthapi.ListResult[healthapi.Prescription]
	labTests      healthapi.ListResult[healthapi.LabTest]
	reports       healthapi.ListResult[healthapi.Report]
	prescription  *healthapi.Prescription
	err           error
	bookErr       error
	shared        []string
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) ListDoctors(context.Context, string) ([]healthapi.Doctor, error) {
	f.record("ListDoctors")
	return f.doctors, f.err
}

func (f *fakeAPI) BookAppointment(_ context.Context, patientID string, req healthapi.BookingRequest) (*healthapi.BookingResult, error) {
	f.record("BookAppointment")
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &healthapi.BookingResult{AppointmentID: "A-100"}, nil
}

func (f *fakeAPI) ListHospitals(context.Context) ([]healthapi.Hospital, error) {
	f.record("ListHospitals")
	return f.hospitals, f.hospitalsErr
}

func (f *fakeAPI) PatientDashboard(context.Context, string) (*healthapi.Dashboard, error) {
	f.record("PatientDashboard")
	return f.dashboard, f.err
}

func (f *fakeAPI) DoctorDashboard(context.Context, string) (*healthapi.DoctorDashboard, error) {
	f.record("DoctorDashboard")
	return f.doctorDash, f.err
}

func (f *fakeAPI) PatientAppointments(context.Context, string) (healthapi.ListResult[healthapi.Appointment], error) {
	f.record("PatientAppointments")
	return f.appointments, f.err
}

func (f *fakeAPI) PatientPrescriptions(context.Context, string) (healthapi.ListResult[healthapi.Prescription], error) {
	f.record("PatientPrescriptions")
	return f.prescriptions, f.err
}

func (f *fakeAPI) PatientLabTests(context.Context, string) (healthapi.ListResult[healthapi.LabTest], error) {
	f.record("PatientLabTests")
	return f.labTests, f.err
}

func (f *fakeAPI) PatientReports(context.Context, string) (healthapi.ListResult[healthapi.Report], error) {
	f.record("PatientReports")
	return f.reports, f.err
}

func (f *fakeAPI) PrescriptionDetails(context.Context, string) (*healthapi.Prescription, error) {
	f.record("PrescriptionDetails")
	if f.err != nil {
		return nil, f.err
	}
	if f.prescription == nil {
		return nil, healthapi.ErrNotFound
	}
	return f.prescription, nil
}

func (f *fakeAPI) PrescriptionDownloadURL(id string) string {
	return "http://erp.test/api/prescriptions/" + id + "/download"
}

func (f *fakeAPI) LabTestFileURL(id string) string {
	return "http://erp.test/api/lab-tests/" + id + "/file"
}

func (f *fakeAPI) ShareReport(_ context.Context, patientID, reportID string, doctorIDs []string, _ string) (*healthapi.ShareResult, error) {
	f.record("ShareReport")
	f.shared = append(f.shared, "report:"+patientID+":"+reportID+":"+doctorIDs[0])
	return &healthapi.ShareResult{}, f.err
}

func (f *fakeAPI) ShareLabTest(_ context.Context, patientID, testID, doctorID, _ string) (*healthapi.ShareResult, error) {
	f.record("ShareLabTest")
	f.shared = append(f.shared, "lab_test:"+patientID+":"+testID+":"+doctorID)
	return &healthapi.ShareResult{}, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	api    *fakeAPI
	store  *session.MemoryStore
	ledger *bookings.MemoryLedger
	clock  *fakeClock
	d      *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	api := &fakeAPI{
		doctors: []healthapi.Doctor{
			{DoctorID: "7", Name: "Asha Rao", Specialization: "Cardiology", HospitalID: "3", HospitalName: "City Hospital"},
			{DoctorID: "12", Name: "Ravi Menon", Specialization: "Orthopedics", HospitalID: "3"},
		},
		dashboard: &healthapi.Dashboard{
			Patient:      healthapi.PatientProfile{PatientID: "p-1", Name: "Meera", Age: "34", BloodGroup: "O+"},
			ReportsCount: 2,
		},
	}
	store := session.NewMemoryStore(100, 72*time.Hour, session.WithClock(clock.Now))
	ledger := bookings.NewMemoryLedger()
	m := metrics.NewChatMetrics(prometheus.NewRegistry())
	ctrl := booking.NewController(api, ledger, booking.Config{Location: time.UTC, Now: clock.Now}, nil, m)
	d := NewDispatcher(Options{
		Store:   store,
		Bridge:  session.NewBridge(24*time.Hour, nil).WithClock(clock.Now),
		API:     api,
		Booking: ctrl,
		Metrics: m,
		Now:     clock.Now,
	})
	return &fixture{api: api, store: store, ledger: ledger, clock: clock, d: d}
}

func patientData() *session.SessionData {
	return &session.SessionData{
		Patient: &healthapi.PatientProfile{ID: "p-1", Name: "Meera"},
		Token:   "jwt-token",
	}
}

func (f *fixture) send(t *testing.T, option string, data *session.SessionData) Reply {
	t.Helper()
	reply, err := f.d.Respond(context.Background(), Request{UserID: "u1", SelectedOption: option, SessionData: data})
	require.NoError(t, err)
	return reply
}

func optionActions(r menu.Response) []string {
	out := make([]string, 0, len(r.Options))
	for _, o := range r.Options {
		out = append(out, o.Action)
	}
	return out
}

func TestRespond_RequiresUserID(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Respond(context.Background(), Request{UserID: "  "})
	assert.True(t, errors.Is(err, ErrMissingUser))
}

func TestRespond_DefaultsToMainMenu(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "", nil)

	main, _ := menu.Lookup(menu.Main)
	assert.Equal(t, main.Message, reply.Response.Message)
	assert.False(t, reply.HasExternalSession)

	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
	assert.Equal(t, menu.Main, sess.History[0].Option)
}

func TestRespond_UnauthenticatedActionsMakeNoUpstreamCalls(t *testing.T) {
	actions := []string{
		"profile", "patient_dashboard", "my_appointments", "view_appointments", "recent_visits",
		"medical_history", "current_prescription", "prescription_history", "download_prescription_5",
		"recent_reports", "blood_tests", "track_results", "pending_tests", "view_lab_test_3",
		"patient_reports", "view_report_4", "share_reports_menu", "share_item_report_4",
		"share_lab_test_3", "select_doctor_report_4_7", "doctor_dashboard",
	}
	for _, action := range actions {
		t.Run(action, func(t *testing.T) {
			f := newFixture(t)
			reply := f.send(t, action, nil)
			assert.Equal(t, menu.AuthenticationRequired().Message, reply.Response.Message)
			assert.Zero(t, f.api.callCount())
		})
	}
}

func TestRespond_BindsSessionData(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "profile", patientData())

	assert.True(t, reply.HasExternalSession)
	assert.Contains(t, reply.Response.Message, "Your Health Dashboard")
	assert.Contains(t, reply.Response.Message, "Connected via session session")
	assert.Contains(t, reply.Response.Message, "Meera")

	// later requests reuse the stored binding
	reply = f.send(t, "medical_history", nil)
	assert.Contains(t, reply.Response.Message, "O+")
}

func TestRespond_ExpiredBindingRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	f.send(t, "main", patientData())

	f.clock.Advance(24*time.Hour + time.Minute)
	reply := f.send(t, "profile", nil)

	assert.Equal(t, menu.AuthenticationRequired().Message, reply.Response.Message)
	assert.False(t, reply.HasExternalSession)
	assert.Zero(t, f.api.callCount())
}

func TestRespond_UnauthorizedClearsBinding(t *testing.T) {
	f := newFixture(t)
	f.api.err = &healthapi.StatusError{Operation: "dashboard", StatusCode: 401}

	reply := f.send(t, "profile", patientData())
	assert.Equal(t, menu.SessionExpired().Message, reply.Response.Message)
	assert.False(t, reply.HasExternalSession)

	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, sess.Binding)
}

func TestRespond_UpstreamFailureIsServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.api.err = errors.New("connection refused")

	reply := f.send(t, "my_appointments", patientData())
	assert.Equal(t, menu.ServiceUnavailable().Message, reply.Response.Message)
	assert.True(t, reply.HasExternalSession)
}

func TestRespond_UnknownOptionFallsBack(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "teleport_me", nil)
	assert.Equal(t, menu.Fallback().Message, reply.Response.Message)
}

func TestRespond_CannedAndAliases(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "diagnostic_test", nil)
	want, _ := menu.Canned("schedule_test")
	assert.Equal(t, want.Message, reply.Response.Message)

	reply = f.send(t, "confirm_cancel_appointment", nil)
	want, _ = menu.Canned("confirm_cancel_appointment")
	assert.Equal(t, want.Message, reply.Response.Message)
}

func TestRespond_BookingFlowEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.send(t, "book_appointment", patientData())
	f.send(t, "general_appointment", nil)
	f.send(t, "book_doctor_7", nil)
	f.send(t, "symptom_other", nil)

	// free text wins over menu routing while symptoms are being typed
	reply := f.send(t, "main", nil)
	assert.Contains(t, optionActions(reply.Response), "confirm_today_9am")

	reply = f.send(t, "confirm_today_10am", nil)
	assert.Contains(t, reply.Response.Message, "Confirm Your Appointment")

	reply = f.send(t, "final_confirm_appointment", nil)
	assert.Contains(t, reply.Response.Message, "A-100")

	attempts := f.ledger.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "main", attempts[0].Symptoms)
	assert.Equal(t, "2026-10-19 10:00:00", attempts[0].DateTime)
	assert.Equal(t, "p-1", attempts[0].PatientID)

	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, sess.Draft)
	assert.Equal(t, session.StateIdle, sess.State)
}

func TestRespond_BlankFreeTextKeepsWaiting(t *testing.T) {
	f := newFixture(t)
	f.send(t, "book_doctor_7", patientData())
	f.send(t, "symptom_other", nil)

	for _, input := range []string{"   ", "", " a "} {
		reply := f.send(t, input, nil)
		assert.True(t, reply.Response.ExpectingInput, "input %q", input)

		sess, err := f.store.Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingSymptomText, sess.State)
		assert.Empty(t, sess.Draft.Symptoms)
	}

	f.send(t, "  chest pain since morning ", nil)
	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)
	assert.Equal(t, "chest pain since morning", sess.Draft.Symptoms)
}

func TestRespond_FailedBookingKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.api.bookErr = healthapi.ErrBookingRejected
	f.send(t, "book_doctor_7", patientData())
	f.send(t, "symptom_cold", nil)
	f.send(t, "confirm_tomorrow_11am", nil)

	reply := f.send(t, "final_confirm_appointment", nil)
	assert.Equal(t, menu.ServiceUnavailable().Message, reply.Response.Message)

	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, sess.Draft)
	assert.Equal(t, "2026-10-20 11:00:00", sess.Draft.APIDateTime)
	assert.Equal(t, session.StateAwaitingConfirmation, sess.State)
}

func TestRespond_ShareLabTestWithDoctor(t *testing.T) {
	f := newFixture(t)
	f.api.labTests = healthapi.ListResult[healthapi.LabTest]{Items: []healthapi.LabTest{{TestID: "3", TestName: "CBC"}}}

	reply := f.send(t, "share_lab_test_3", patientData())
	assert.Contains(t, optionActions(reply.Response), "select_doctor_lab_test_3_12")

	reply = f.send(t, "select_doctor_lab_test_3_12", nil)
	assert.Contains(t, reply.Response.Message, "Lab Test Shared Successfully")
	assert.Equal(t, []string{"lab_test:p-1:3:12"}, f.api.shared)
}

func TestRespond_ShareReportUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "select_doctor_report_4_99", patientData())
	assert.Contains(t, reply.Response.Message, "Doctor Not Found")
	assert.Contains(t, optionActions(reply.Response), "share_item_report_4")
	assert.Empty(t, f.api.shared)
}

func TestRespond_ShareMenuListsReportsAndTests(t *testing.T) {
	f := newFixture(t)
	f.api.reports = healthapi.ListResult[healthapi.Report]{Items: []healthapi.Report{{ReportID: "4", Title: "X-Ray"}}}
	f.api.labTests = healthapi.ListResult[healthapi.LabTest]{Items: []healthapi.LabTest{{TestID: "3", TestName: "CBC"}}}

	reply := f.send(t, "share_reports_menu", patientData())
	actions := optionActions(reply.Response)
	assert.Contains(t, actions, "share_item_report_4")
	assert.Contains(t, actions, "share_item_lab_test_3")
}

func TestRespond_FindHospitalDegrades(t *testing.T) {
	f := newFixture(t)
	f.api.hospitalsErr = errors.New("timeout")

	reply := f.send(t, "find_hospital", nil)
	assert.Contains(t, reply.Response.Message, "Service temporarily unavailable")

	f.api.hospitalsErr = nil
	f.api.hospitals = []healthapi.Hospital{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	reply = f.send(t, "find_hospital", nil)
	assert.Contains(t, reply.Response.Message, "3. C")
	assert.NotContains(t, reply.Response.Message, "4. D")
}

func TestRespond_PrescriptionHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.api.prescriptions = healthapi.ListResult[healthapi.Prescription]{Items: []healthapi.Prescription{
		{MedicineName: "Older", CreatedAt: "2026-01-01T10:00:00Z"},
		{MedicineName: "Newer", CreatedAt: "2026-09-01T10:00:00Z"},
	}}

	reply := f.send(t, "prescription_history", patientData())
	msg := reply.Response.Message
	assert.Less(t, strings.Index(msg, "Newer"), strings.Index(msg, "Older"))
}

func TestRespond_DegradedListNotes(t *testing.T) {
	f := newFixture(t)
	f.api.reports = healthapi.ListResult[healthapi.Report]{Degraded: true}

	reply := f.send(t, "patient_reports", patientData())
	assert.Contains(t, reply.Response.Message, "No Reports Found")
	assert.Contains(t, reply.Response.Message, "could not be loaded")
}

func TestRespond_DownloadPrescriptionNotFound(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "download_prescription_77", patientData())
	assert.Contains(t, reply.Response.Message, "Prescription Not Found")

	f.api.prescription = &healthapi.Prescription{PrescriptionID: "77", MedicineName: "Amoxicillin"}
	reply = f.send(t, "download_prescription_77", nil)
	assert.Contains(t, reply.Response.Message, "/prescriptions/77/download")
}

func TestRespond_DoctorDashboardNeedsDoctor(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "doctor_dashboard", patientData())
	assert.Equal(t, menu.AuthenticationRequired().Message, reply.Response.Message)
	assert.Zero(t, f.api.callCount())
}

func TestRespond_HistoryIsBounded(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < session.MaxHistory+5; i++ {
		f.send(t, "main", nil)
	}
	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, sess.History, session.MaxHistory)
}

func TestRespond_ConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.d.Respond(context.Background(), Request{UserID: "u1", SelectedOption: "main"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, sess.History, 20)
}

package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

type fakeAPI struct {
	doctors    []healthapi.Doctor
	listErr    error
	bookErr    error
	bookResult *healthapi.BookingResult
	bookings   []healthapi.BookingRequest
	patientIDs []string
}

func (f *fakeAPI) ListDoctors(context.Context, string) ([]healthapi.Doctor, error) {
	return f.doctors, f.listErr
}

func (f *fakeAPI) BookAppointment(_ context.Context, patientID string, req healthapi.BookingRequest) (*healthapi.BookingResult, error) {
	f.patientIDs = append(f.patientIDs, patientID)
	f.bookings = append(f.bookings, req)
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	if f.bookResult != nil {
		return f.bookResult, nil
	}
	return &healthapi.BookingResult{AppointmentID: "apt-1"}, nil
}

var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestController(api *fakeAPI, placeholder bool) (*Controller, *bookings.MemoryLedger) {
	ledger := bookings.NewMemoryLedger()
	c := NewController(api, ledger, Config{
		Location:          time.UTC,
		PlaceholderDrafts: placeholder,
		Now:               func() time.Time { return fixedNow },
	}, nil, metrics.NewChatMetrics(prometheus.NewRegistry()))
	return c, ledger
}

func sampleDoctors() []healthapi.Doctor {
	return []healthapi.Doctor{
		{DoctorID: "7", Name: "Asha Rao", Specialization: "Cardiology", HospitalID: "3", HospitalName: "City Hospital", ConsultationFee: "₹800", Location: "Pune"},
		{DoctorID: "9", Name: "Vikram Shah", Specialization: "Dermatology", HospitalID: "3", ConsultationFee: "600"},
		{DoctorID: "11", Name: "Neha Iyer"},
	}
}

func patientCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{Kind: identity.KindPatient, ID: "p-42", Token: "tok"})
}

func actions(r menu.Response) []string {
	out := make([]string, 0, len(r.Options))
	for _, o := range r.Options {
		out = append(out, o.Action)
	}
	return out
}

func TestController_HappyPath(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, ledger := newTestController(api, false)
	ctx := patientCtx()
	sess := session.New("u1", fixedNow)

	resp, err := c.Handle(ctx, sess, ActionGeneral)
	require.NoError(t, err)
	assert.Contains(t, actions(resp), "book_doctor_7")
	assert.Equal(t, session.StateAwaitingDoctor, sess.State)

	resp, err = c.Handle(ctx, sess, "book_doctor_7")
	require.NoError(t, err)
	require.NotNil(t, sess.Draft)
	assert.Equal(t, "7", sess.Draft.DoctorID)
	assert.Equal(t, "3", sess.Draft.HospitalID)
	assert.Equal(t, 800, sess.Draft.Fee)
	assert.Equal(t, session.StateAwaitingSymptom, sess.State)
	assert.Contains(t, actions(resp), "symptom_regular")

	_, err = c.Handle(ctx, sess, "symptom_regular")
	require.NoError(t, err)
	assert.Equal(t, "Regular check-up/consultation", sess.Draft.Symptoms)
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)

	resp, err = c.Handle(ctx, sess, "confirm_today_9am")
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingConfirmation, sess.State)
	assert.Equal(t, "2026-10-19 09:00:00", sess.Draft.APIDateTime)
	assert.Contains(t, resp.Message, "Mon, 19 Oct 2026 at 9:00 AM")
	assert.Contains(t, actions(resp), ActionFinalConfirm)

	resp, err = c.Handle(ctx, sess, ActionFinalConfirm)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "apt-1")
	assert.Nil(t, sess.Draft)
	assert.Equal(t, session.StateIdle, sess.State)

	require.Len(t, api.bookings, 1)
	assert.Equal(t, healthapi.BookingRequest{
		DoctorID:   "7",
		HospitalID: "3",
		DateTime:   "2026-10-19 09:00:00",
		Symptoms:   "Regular check-up/consultation",
	}, api.bookings[0])
	assert.Equal(t, []string{"p-42"}, api.patientIDs)

	attempts := ledger.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, bookings.StatusBooked, attempts[0].Status)
	assert.Equal(t, "apt-1", attempts[0].AppointmentID)
	assert.Equal(t, "u1", attempts[0].UserID)
}

func TestController_TomorrowSlotUsesNextDay(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, _ := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorID: "7", DoctorName: "Asha Rao"}

	_, err := c.Handle(context.Background(), sess, "confirm_tomorrow_2pm")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20 14:00:00", sess.Draft.APIDateTime)
}

func TestController_FailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors(), bookErr: healthapi.ErrBookingRejected}
	c, ledger := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	ctx := patientCtx()

	_, err := c.Handle(ctx, sess, "book_doctor_9")
	require.NoError(t, err)
	_, err = c.Handle(ctx, sess, "symptom_fever")
	require.NoError(t, err)
	_, err = c.Handle(ctx, sess, "confirm_today_2pm")
	require.NoError(t, err)

	_, err = c.Handle(ctx, sess, ActionFinalConfirm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, healthapi.ErrBookingRejected))
	require.NotNil(t, sess.Draft)
	assert.Equal(t, "9", sess.Draft.DoctorID)
	assert.Equal(t, session.StateAwaitingConfirmation, sess.State)

	attempts := ledger.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, bookings.StatusFailed, attempts[0].Status)
	assert.NotEmpty(t, attempts[0].Error)
}

func TestController_RepeatedSubmissionsAreSeparateAttempts(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors(), bookErr: errors.New("upstream down")}
	c, ledger := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	ctx := patientCtx()
	sess.Draft = &session.Draft{DoctorID: "7", HospitalID: "3", DoctorName: "Asha Rao", APIDateTime: "2026-10-19 09:00:00"}
	sess.State = session.StateAwaitingConfirmation

	_, err := c.Handle(ctx, sess, ActionFinalConfirm)
	require.Error(t, err)
	_, err = c.Handle(ctx, sess, ActionFinalConfirm)
	require.Error(t, err)

	assert.Len(t, api.bookings, 2)
	attempts := ledger.Attempts()
	require.Len(t, attempts, 2)
	assert.NotEqual(t, attempts[0].ID, attempts[1].ID)
	assert.Equal(t, defaultSymptoms, api.bookings[0].Symptoms)
}

func TestController_SubmitWithoutIdentityMakesNoCall(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, ledger := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorID: "7", APIDateTime: "2026-10-19 09:00:00"}
	sess.State = session.StateAwaitingConfirmation

	resp, err := c.Handle(context.Background(), sess, ActionFinalConfirm)
	require.NoError(t, err)
	assert.Equal(t, menu.AuthenticationRequired().Message, resp.Message)
	assert.Empty(t, api.bookings)
	assert.Empty(t, ledger.Attempts())
	assert.NotNil(t, sess.Draft)
}

func TestController_SubmitWithoutTimeSlotAsksForOne(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorID: "7", DoctorName: "Asha Rao"}

	resp, err := c.Handle(patientCtx(), sess, ActionFinalConfirm)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)
	assert.Contains(t, actions(resp), "confirm_today_9am")
	assert.Empty(t, api.bookings)
}

func TestController_SubmitAfterSymptomChangeNeedsNewSlot(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, ledger := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	ctx := patientCtx()

	for _, action := range []string{"book_doctor_7", "symptom_cold", "confirm_today_2pm", "symptom_fever"} {
		_, err := c.Handle(ctx, sess, action)
		require.NoError(t, err)
	}
	require.Equal(t, session.StateAwaitingTimeSlot, sess.State)

	resp, err := c.Handle(ctx, sess, ActionFinalConfirm)
	require.NoError(t, err)
	assert.Contains(t, actions(resp), "confirm_today_9am")
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)
	assert.Empty(t, api.bookings)
	assert.Empty(t, ledger.Attempts())

	resp, err = c.Handle(ctx, sess, "confirm_today_3pm")
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Confirm Your Appointment")
	_, err = c.Handle(ctx, sess, ActionFinalConfirm)
	require.NoError(t, err)
	require.Len(t, api.bookings, 1)
	assert.Equal(t, "2026-10-19 15:00:00", api.bookings[0].DateTime)
}

func TestController_SubmitWhileChoosingSymptomReshowsSymptoms(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, _ := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorID: "7", DoctorName: "Asha Rao", APIDateTime: "2026-10-19 09:00:00"}
	sess.State = session.StateAwaitingSymptom

	resp, err := c.Handle(patientCtx(), sess, ActionFinalConfirm)
	require.NoError(t, err)
	assert.Contains(t, actions(resp), ActionSymptomOther)
	assert.Equal(t, session.StateAwaitingSymptom, sess.State)
	assert.Empty(t, api.bookings)
}

func TestController_FreeTextSymptoms(t *testing.T) {
	api := &fakeAPI{doctors: sampleDoctors()}
	c, _ := newTestController(api, false)
	sess := session.New("u1", fixedNow)
	ctx := context.Background()

	_, err := c.Handle(ctx, sess, "book_doctor_7")
	require.NoError(t, err)
	resp, err := c.Handle(ctx, sess, ActionSymptomOther)
	require.NoError(t, err)
	assert.True(t, resp.ExpectingInput)
	assert.True(t, sess.State.InterceptsInput())

	resp = c.SubmitFreeText(sess, " a ")
	assert.True(t, resp.ExpectingInput)
	assert.Equal(t, session.StateAwaitingSymptomText, sess.State)
	assert.Empty(t, sess.Draft.Symptoms)

	resp = c.SubmitFreeText(sess, "  sore throat for two days ")
	assert.False(t, resp.ExpectingInput)
	assert.Equal(t, "sore throat for two days", sess.Draft.Symptoms)
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)
}

func TestController_BackToSymptoms(t *testing.T) {
	c, _ := newTestController(&fakeAPI{}, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorName: "Asha Rao"}
	sess.State = session.StateAwaitingSymptomText

	resp, err := c.Handle(context.Background(), sess, ActionBackToSymptoms)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingSymptom, sess.State)
	assert.Contains(t, actions(resp), "symptom_fever")
}

func TestController_MissingDraft(t *testing.T) {
	t.Run("expired by default", func(t *testing.T) {
		c, _ := newTestController(&fakeAPI{}, false)
		sess := session.New("u1", fixedNow)
		sess.State = session.StateAwaitingSymptom

		resp, err := c.Handle(context.Background(), sess, "symptom_cold")
		require.NoError(t, err)
		assert.Equal(t, menu.BookingExpired().Message, resp.Message)
		assert.Nil(t, sess.Draft)
		assert.Equal(t, session.StateIdle, sess.State)
	})

	t.Run("placeholder when enabled", func(t *testing.T) {
		c, _ := newTestController(&fakeAPI{}, true)
		sess := session.New("u1", fixedNow)

		_, err := c.Handle(context.Background(), sess, "confirm_tomorrow_9am")
		require.NoError(t, err)
		require.NotNil(t, sess.Draft)
		assert.True(t, sess.Draft.Placeholder)
		assert.Equal(t, "temp_doctor", sess.Draft.DoctorID)
		assert.Equal(t, "Test Doctor", sess.Draft.DoctorName)
		assert.Equal(t, 500, sess.Draft.Fee)
		assert.Equal(t, "2026-10-20 09:00:00", sess.Draft.APIDateTime)
	})
}

func TestController_UnknownDoctor(t *testing.T) {
	c, _ := newTestController(&fakeAPI{doctors: sampleDoctors()}, false)
	sess := session.New("u1", fixedNow)

	resp, err := c.Handle(context.Background(), sess, "book_doctor_999")
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Doctor Not Found")
	assert.Nil(t, sess.Draft)
}

func TestController_InvalidSlotReshowsMenu(t *testing.T) {
	c, _ := newTestController(&fakeAPI{}, false)
	sess := session.New("u1", fixedNow)
	sess.Draft = &session.Draft{DoctorName: "Asha Rao"}
	sess.State = session.StateAwaitingTimeSlot

	assert.True(t, c.Handles("confirm_today_7pm"))
	resp, err := c.Handle(context.Background(), sess, "confirm_today_7pm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Message, "⚠️"))
	assert.Equal(t, session.StateAwaitingTimeSlot, sess.State)
	assert.Empty(t, sess.Draft.APIDateTime)
}

func TestController_Specialties(t *testing.T) {
	c, _ := newTestController(&fakeAPI{doctors: sampleDoctors()}, false)
	sess := session.New("u1", fixedNow)
	ctx := context.Background()

	resp, err := c.Handle(ctx, sess, ActionSpecialist)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"book_specialist_cardiology",
		"book_specialist_dermatology",
		"book_specialist_general_medicine",
		menu.BookAppointment,
		menu.Main,
	}, actions(resp))

	resp, err = c.Handle(ctx, sess, "book_specialist_dermatology")
	require.NoError(t, err)
	assert.Contains(t, actions(resp), "book_doctor_9")
	assert.NotContains(t, actions(resp), "book_doctor_7")
}

func TestController_NoDoctors(t *testing.T) {
	c, _ := newTestController(&fakeAPI{}, false)
	resp, err := c.Handle(context.Background(), session.New("u1", fixedNow), ActionGeneral)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "No Doctors Available")
}

func TestController_ListErrorPropagates(t *testing.T) {
	c, _ := newTestController(&fakeAPI{listErr: healthapi.ErrUnauthorized}, false)
	_, err := c.Handle(context.Background(), session.New("u1", fixedNow), ActionGeneral)
	assert.True(t, errors.Is(err, healthapi.ErrUnauthorized))
}

func TestHandles(t *testing.T) {
	c, _ := newTestController(&fakeAPI{}, false)
	for _, a := range []string{"general_appointment", "vaccination_appointment", "book_doctor_1", "symptom_stomach", "confirm_tomorrow_11am", "final_confirm_appointment"} {
		assert.True(t, c.Handles(a), a)
	}
	for _, a := range []string{"main", "profile", "confirm_cancel_appointment", "symptom_unknown"} {
		assert.False(t, c.Handles(a), a)
	}
}

func TestCleanFee(t *testing.T) {
	assert.Equal(t, 800, cleanFee("₹800"))
	assert.Equal(t, 1200, cleanFee("1,200"))
	assert.Equal(t, 500, cleanFee(""))
	assert.Equal(t, 500, cleanFee("free"))
}

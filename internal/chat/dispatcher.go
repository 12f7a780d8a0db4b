// Package chat turns a selected option into a chat response. It owns the
// per-request session lifecycle and routes actions to static menus, the
// booking controller and the records features backed by the remote API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/health-erp-chatbot/internal/booking"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// ErrMissingUser is returned when a request carries no user id.
var ErrMissingUser = errors.New("chat: user id is required")

// API is the remote surface used by the records features.
type API interface {
	booking.API
	ListHospitals(ctx context.Context) ([]healthapi.Hospital, error)
	PatientDashboard(ctx context.Context, patientID string) (*healthapi.Dashboard, error)
	DoctorDashboard(ctx context.Context, doctorID string) (*healthapi.DoctorDashboard, error)
	PatientAppointments(ctx context.Context, patientID string) (healthapi.ListResult[healthapi.Appointment], error)
	PatientPrescriptions(ctx context.Context, patientID string) (healthapi.ListResult[healthapi.Prescription], error)
	PatientLabTests(ctx context.Context, patientID string) (healthapi.ListResult[healthapi.LabTest], error)
	PatientReports(ctx context.Context, patientID string) (healthapi.ListResult[healthapi.Report], error)
	PrescriptionDetails(ctx context.Context, prescriptionID string) (*healthapi.Prescription, error)
	PrescriptionDownloadURL(prescriptionID string) string
	LabTestFileURL(testID string) string
	ShareReport(ctx context.Context, patientID, reportID string, doctorIDs []string, notes string) (*healthapi.ShareResult, error)
	ShareLabTest(ctx context.Context, patientID, testID, doctorID, notes string) (*healthapi.ShareResult, error)
}

// Request is one inbound chat turn.
type Request struct {
	UserID         string
	SelectedOption string
	SessionData    *session.SessionData
}

// Reply is the dispatcher outcome for one turn.
type Reply struct {
	Response           menu.Response
	HasExternalSession bool
}

// Options configures a Dispatcher.
type Options struct {
	Store   session.Store
	Bridge  *session.Bridge
	Locker  *session.Locker
	API     API
	Booking *booking.Controller
	Logger  *logging.Logger
	Metrics *metrics.ChatMetrics
	Now     func() time.Time
}

// Dispatcher routes chat requests.
type Dispatcher struct {
	store   session.Store
	bridge  *session.Bridge
	locker  *session.Locker
	api     API
	booking *booking.Controller
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
	now     func() time.Time

	exact    map[string]route
	prefixes []prefixRoute
}

type access int

const (
	accessPublic access = iota
	accessPatient
	accessDoctor
)

type handlerFunc func(ctx context.Context, sess *session.Session, who identity.Identity, arg string) (menu.Response, error)

type route struct {
	name   string
	access access
	handle handlerFunc
}

type prefixRoute struct {
	prefix string
	route
}

// NewDispatcher wires a dispatcher. Store, Bridge, API and Booking are required.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Store == nil || opts.Bridge == nil || opts.API == nil || opts.Booking == nil {
		panic("chat: store, bridge, api and booking are required")
	}
	if opts.Locker == nil {
		opts.Locker = session.NewLocker()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Dispatcher{
		store:   opts.Store,
		bridge:  opts.Bridge,
		locker:  opts.Locker,
		api:     opts.API,
		booking: opts.Booking,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	d.registerRoutes()
	return d
}

func (d *Dispatcher) registerRoutes() {
	d.exact = map[string]route{
		"profile":              {"patient_dashboard", accessPatient, d.patientDashboard},
		"patient_dashboard":    {"patient_dashboard", accessPatient, d.patientDashboard},
		"my_appointments":      {"appointments", accessPatient, d.appointments},
		"view_appointments":    {"appointments", accessPatient, d.appointments},
		"recent_visits":        {"recent_visits", accessPatient, d.recentVisits},
		"medical_history":      {"medical_history", accessPatient, d.medicalHistory},
		"current_prescription": {"current_prescription", accessPatient, d.currentPrescription},
		"prescription_history": {"prescription_history", accessPatient, d.prescriptionHistory},
		"recent_reports":       {"lab_tests", accessPatient, d.labTests},
		"blood_tests":          {"lab_tests", accessPatient, d.labTests},
		"track_results":        {"lab_tests", accessPatient, d.labTests},
		"pending_tests":        {"pending_tests", accessPatient, d.pendingTests},
		"patient_reports":      {"patient_reports", accessPatient, d.patientReports},
		"share_reports_menu":   {"share_menu", accessPatient, d.shareMenu},
		"find_hospital":        {"find_hospital", accessPublic, d.findHospital},
		"doctor_dashboard":     {"doctor_dashboard", accessDoctor, d.doctorDashboard},
	}
	// Longer prefixes first where one prefix extends another.
	d.prefixes = []prefixRoute{
		{"download_prescription_", route{"download_prescription", accessPatient, d.downloadPrescription}},
		{"view_lab_test_", route{"view_lab_test", accessPatient, d.viewLabTest}},
		{"view_report_", route{"view_report", accessPatient, d.viewReport}},
		{"share_item_", route{"share_item", accessPatient, d.shareItem}},
		{"share_lab_test_", route{"share_item", accessPatient, d.shareLabTest}},
		{"select_doctor_", route{"share_confirm", accessPatient, d.confirmShare}},
	}
}

// Respond handles one chat turn: it loads the session, applies any supplied
// identity, routes the option and saves the session.
func (d *Dispatcher) Respond(ctx context.Context, req Request) (Reply, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return Reply{}, ErrMissingUser
	}

	unlock := d.locker.Lock(userID)
	defer unlock()

	sess, err := d.store.GetOrCreate(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("chat: load session: %w", err)
	}
	if req.SessionData != nil {
		if d.bridge.Bind(sess, req.SessionData) {
			d.logger.Debug("external session bound", "user_id", userID, "auth_type", sess.Binding.AuthType)
		}
	}
	if sess.Binding != nil && !d.bridge.IsValid(sess) {
		d.logger.Info("external session expired", "user_id", userID, "age", d.bridge.Age(sess).String())
		d.bridge.Clear(sess)
	}
	if who, ok := d.bridge.Identity(sess); ok {
		ctx = identity.WithIdentity(ctx, who)
	}

	resp, routeName, outcome := d.route(ctx, sess, req.SelectedOption)

	sess.UpdatedAt = d.now()
	if err := d.store.Save(ctx, sess); err != nil {
		d.metrics.ObserveRequest(routeName, "error")
		return Reply{}, fmt.Errorf("chat: save session: %w", err)
	}
	d.metrics.ObserveRequest(routeName, outcome)
	return Reply{Response: resp, HasExternalSession: sess.HasExternalSession}, nil
}

// route answers one raw option. Free-text capture sees the text untouched;
// everywhere else an empty option means the main menu.
func (d *Dispatcher) route(ctx context.Context, sess *session.Session, raw string) (menu.Response, string, string) {
	now := d.now()
	option := strings.TrimSpace(raw)

	if sess.State.InterceptsInput() && option != booking.ActionBackToSymptoms {
		sess.Record("symptom_text", now)
		return d.booking.SubmitFreeText(sess, raw), "symptom_text", "ok"
	}
	if option == "" {
		option = menu.Main
	}

	sess.Record(option, now)
	sess.CurrentMenu = option

	if resp, ok := menu.Lookup(option); ok {
		return resp, "menu", "ok"
	}
	if r, arg, ok := d.match(option); ok {
		return d.invoke(ctx, sess, r, arg)
	}
	if resp, ok := menu.Canned(option); ok {
		return resp, "canned", "ok"
	}
	if d.booking.Handles(option) {
		resp, err := d.booking.Handle(ctx, sess, option)
		if err != nil {
			return d.mapError(sess, "booking", option, err), "booking", outcomeFor(err)
		}
		return resp, "booking", "ok"
	}

	d.logger.Info("unrecognised option", "user_id", sess.UserID, "action", option)
	return menu.Fallback(), "fallback", "fallback"
}

func (d *Dispatcher) match(option string) (route, string, bool) {
	if r, ok := d.exact[option]; ok {
		return r, "", true
	}
	for _, p := range d.prefixes {
		if strings.HasPrefix(option, p.prefix) {
			return p.route, strings.TrimPrefix(option, p.prefix), true
		}
	}
	return route{}, "", false
}

func (d *Dispatcher) invoke(ctx context.Context, sess *session.Session, r route, arg string) (menu.Response, string, string) {
	who, _ := identity.FromContext(ctx)
	switch r.access {
	case accessPatient:
		if _, ok := identity.PatientFromContext(ctx); !ok {
			return menu.AuthenticationRequired(), r.name, "auth_required"
		}
	case accessDoctor:
		if who.Kind != identity.KindDoctor || who.ID == "" {
			return menu.AuthenticationRequired(), r.name, "auth_required"
		}
	}

	resp, err := r.handle(ctx, sess, who, arg)
	if err != nil {
		return d.mapError(sess, r.name, arg, err), r.name, outcomeFor(err)
	}
	return resp, r.name, "ok"
}

// mapError converts an upstream failure into a user-facing response. An
// authentication rejection also drops the session's identity.
func (d *Dispatcher) mapError(sess *session.Session, routeName, arg string, err error) menu.Response {
	if errors.Is(err, healthapi.ErrUnauthorized) {
		d.logger.Warn("upstream rejected identity", "user_id", sess.UserID, "route", routeName)
		d.bridge.Clear(sess)
		return menu.SessionExpired()
	}
	d.logger.Error("upstream request failed", "user_id", sess.UserID, "route", routeName, "arg", arg, "error", err)
	return menu.ServiceUnavailable()
}

func outcomeFor(err error) string {
	if errors.Is(err, healthapi.ErrUnauthorized) {
		return "session_expired"
	}
	return "unavailable"
}

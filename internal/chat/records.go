package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

const (
	maxListed        = 5
	maxHistoryListed = 10
	maxHospitals     = 3
	degradedNote     = "\n\n⚠️ Some records could not be loaded right now."
	emergencyPhone   = "+91-1234567890"
)

func (d *Dispatcher) patientDashboard(ctx context.Context, sess *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	dash, err := d.api.PatientDashboard(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	p := dash.Patient

	var b strings.Builder
	b.WriteString("📊 **Your Health Dashboard**")
	if sess.HasExternalSession && sess.Binding != nil {
		fmt.Fprintf(&b, "\n\n🔒 **Session:** Connected via %s session", sess.Binding.AuthType)
	}
	b.WriteString("\n\n👤 **Personal Information:**\n")
	fmt.Fprintf(&b, "• 👤 Name: %s\n", orNA(p.Name))
	fmt.Fprintf(&b, "• 🆔 ID: %s\n", orNA(firstNonEmpty(p.Identifier(), who.ID)))
	fmt.Fprintf(&b, "• 🎂 Age: %s years\n", orNA(p.Age.String()))
	fmt.Fprintf(&b, "• 🩸 Blood Group: %s\n", orNA(p.BloodGroup))
	fmt.Fprintf(&b, "• 📞 Phone: %s\n", orNA(p.Phone.String()))
	fmt.Fprintf(&b, "• 📧 Email: %s\n", orNA(p.Email))
	fmt.Fprintf(&b, "• 📏 Height: %s cm\n", orNA(p.Height.String()))
	fmt.Fprintf(&b, "• ⚖️ Weight: %s kg\n", orNA(p.Weight.String()))
	b.WriteString("\n📊 **Health Summary:**\n")
	fmt.Fprintf(&b, "• 📋 Medical Reports: %d\n", dash.ReportsCount)
	fmt.Fprintf(&b, "• 📅 Upcoming Appointments: %d\n", dash.UpcomingAppointmentsCount)
	fmt.Fprintf(&b, "• 🏥 Recent Appointments: %d", len(dash.RecentAppointments))

	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt(menu.BookAppointment, "📅 Book New Appointment"),
			{ID: "view_appointments", Text: "📋 View All Appointments", Action: "my_appointments"},
			{ID: "view_reports", Text: "🧪 View Lab Reports", Action: "recent_reports"},
			menu.MainMenuOption(),
		},
	}, nil
}

func (d *Dispatcher) medicalHistory(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	dash, err := d.api.PatientDashboard(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	p := dash.Patient

	var b strings.Builder
	b.WriteString("📜 **Medical History**\n\n👤 **Patient Information:**\n")
	fmt.Fprintf(&b, "• 🩸 Blood Group: %s\n", orDefault(p.BloodGroup, "Not specified"))
	fmt.Fprintf(&b, "• 🎂 Age: %s years\n", orNA(p.Age.String()))
	fmt.Fprintf(&b, "• ⚖️ Weight: %s kg\n", orDefault(p.Weight.String(), "Not recorded"))
	fmt.Fprintf(&b, "• 📏 Height: %s cm\n", orDefault(p.Height.String(), "Not recorded"))
	b.WriteString("\n📋 **Medical Records:**\n")
	fmt.Fprintf(&b, "• 📊 Total Reports: %d\n", dash.ReportsCount)
	fmt.Fprintf(&b, "• 📅 Recent Appointments: %d", len(dash.RecentAppointments))

	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			{ID: "recent_reports", Text: "📋 View Lab Reports", Action: "recent_reports"},
			{ID: "my_appointments", Text: "📅 View Appointments", Action: "my_appointments"},
			menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			menu.MainMenuOption(),
		},
	}, nil
}

func (d *Dispatcher) appointments(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientAppointments(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	opts := []menu.Option{
		menu.Opt(menu.BookAppointment, "📅 Book New Appointment"),
		menu.MainMenuOption(),
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "📅 **Your Appointments**\n\n🔍 No appointments found.\n\nWould you like to book a new appointment?" + degraded(res.Degraded),
			Options: opts,
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Your Appointments (%d)**", len(res.Items))
	for i, apt := range head(res.Items, maxListed) {
		fmt.Fprintf(&b, "\n\n📋 **%d. %s** (%s)\n📅 %s\n🏥 %s\n🔸 Status: %s\n💬 Symptoms: %s",
			i+1, orNA(apt.DoctorName), orNA(apt.Specialization), formatDateTime(apt.DateTime),
			orNA(apt.HospitalName), orNA(apt.Status), orNA(apt.Symptoms))
	}
	if len(res.Items) > maxListed {
		fmt.Fprintf(&b, "\n\n📝 *Showing first %d of %d appointments*", maxListed, len(res.Items))
	}
	return menu.Response{Message: b.String(), Options: opts}, nil
}

func (d *Dispatcher) recentVisits(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientAppointments(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "🕐 **Recent Visits**\n\n🔍 No recent visits found.\n\nYour visit history will appear here once you've had appointments with healthcare providers." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt(menu.BookAppointment, "📅 Book New Appointment"),
				menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			},
		}, nil
	}

	var completed []healthapi.Appointment
	for _, apt := range res.Items {
		if strings.EqualFold(apt.Status, "completed") {
			completed = append(completed, apt)
		}
	}
	if len(completed) == 0 {
		return menu.Response{
			Message: "🕐 **Recent Visits**\n\n⏳ No completed visits found.\n\nYour recent completed appointments will appear here.",
			Options: []menu.Option{
				menu.Opt("my_appointments", "📅 View All Appointments"),
				menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			},
		}, nil
	}

	var b strings.Builder
	b.WriteString("🕐 **Recent Visits**")
	for _, apt := range head(completed, maxListed) {
		fmt.Fprintf(&b, "\n\n📅 %s - %s (%s)\n🏥 %s\n💬 %s",
			formatDate(apt.DateTime), orNA(apt.DoctorName), orNA(apt.Specialization), orNA(apt.HospitalName), orNA(apt.Symptoms))
	}
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("my_appointments", "📅 View All Appointments"),
			menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			menu.MainMenuOption(),
		},
	}, nil
}

func (d *Dispatcher) currentPrescription(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientPrescriptions(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "💊 **Current Prescriptions**\n\n📋 **No Active Prescriptions**\n\nYou currently have no active prescriptions on record." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt(menu.BookAppointment, "📅 Book Doctor Consultation"),
				menu.Opt("prescription_history", "📚 Prescription History"),
				menu.Opt(menu.Prescription, "← Back to Prescriptions"),
			},
		}, nil
	}

	latest := res.Items[0]
	var b strings.Builder
	b.WriteString("💊 **Current Prescription**\n\n")
	writePrescription(&b, latest)
	opts := []menu.Option{}
	if id := latest.PrescriptionID.String(); id != "" {
		opts = append(opts, menu.Opt("download_prescription_"+id, "📄 Prescription Details"))
	}
	opts = append(opts,
		menu.Opt("prescription_history", "📚 Prescription History"),
		menu.MainMenuOption(),
	)
	return menu.Response{Message: b.String(), Options: opts}, nil
}

func (d *Dispatcher) prescriptionHistory(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientPrescriptions(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "📚 **Prescription History**\n\n📋 **No Prescription History**\n\nYou have no prescription history on record." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt(menu.BookAppointment, "📅 Book Doctor Consultation"),
				menu.Opt(menu.Prescription, "← Back to Prescriptions"),
			},
		}, nil
	}

	items := append([]healthapi.Prescription(nil), res.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return parseTime(items[i].CreatedAt).After(parseTime(items[j].CreatedAt))
	})

	var b strings.Builder
	b.WriteString("📚 **Your Prescription History**")
	for i, p := range head(items, maxHistoryListed) {
		fmt.Fprintf(&b, "\n\n**%d. %s** (%s)\n💊 %s - %s\n👨‍⚕️ %s (%s)\n📝 %s",
			i+1, orNA(p.MedicineName), formatDate(p.CreatedAt), orNA(p.Dosage), orNA(p.Duration),
			orNA(p.DoctorName), orNA(p.Specialization), orDefault(p.Notes, "No notes"))
	}
	if len(items) > maxHistoryListed {
		fmt.Fprintf(&b, "\n\n**Showing latest %d of %d prescriptions**", maxHistoryListed, len(items))
	}
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("current_prescription", "💊 Current Active Prescriptions"),
			menu.Opt(menu.BookAppointment, "📅 Book New Consultation"),
			menu.Opt(menu.Prescription, "← Back to Prescriptions"),
		},
	}, nil
}

func (d *Dispatcher) downloadPrescription(ctx context.Context, _ *session.Session, _ identity.Identity, id string) (menu.Response, error) {
	p, err := d.api.PrescriptionDetails(ctx, id)
	if errors.Is(err, healthapi.ErrNotFound) || (err == nil && p == nil) {
		return menu.Response{
			Message: "❌ **Prescription Not Found**\n\nThe requested prescription could not be found or you don't have access to it.",
			Options: []menu.Option{
				menu.Opt("current_prescription", "💊 View My Prescriptions"),
				menu.Opt(menu.Prescription, "← Back to Prescriptions"),
			},
		}, nil
	}
	if err != nil {
		return menu.Response{}, err
	}

	var b strings.Builder
	b.WriteString("📄 **Prescription Details**\n\n")
	fmt.Fprintf(&b, "**Prescription ID:** %s\n", firstNonEmpty(p.PrescriptionID.String(), id))
	writePrescription(&b, *p)
	fmt.Fprintf(&b, "\n**Patient:** %s\n", orNA(p.PatientName))
	fmt.Fprintf(&b, "\n🔗 **Download Link:**\n%s", d.api.PrescriptionDownloadURL(id))
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("current_prescription", "💊 Back to Prescriptions"),
			menu.Opt("prescription_history", "📚 Prescription History"),
			menu.Opt(menu.Prescription, "← Main Prescription Menu"),
		},
	}, nil
}

func (d *Dispatcher) labTests(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientLabTests(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "🧪 **Lab Test Reports**\n\n📋 **No Lab Tests Found**\n\nYou currently have no lab test reports on record." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt("schedule_test", "📅 Schedule Lab Test"),
				menu.Opt(menu.LabReports, "← Back to Lab Reports"),
				menu.Opt(menu.Main, "🏠 Main Menu"),
			},
		}, nil
	}
	return labTestList("🧪 **Recent Lab Test Reports**", head(res.Items, maxListed)), nil
}

func (d *Dispatcher) pendingTests(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientLabTests(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	var pending []healthapi.LabTest
	for _, t := range res.Items {
		if isPending(t.Status) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return menu.Response{
			Message: "⏳ **Pending Tests**\n\n✅ You have no pending lab tests." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt("recent_reports", "📊 Recent Reports"),
				menu.Opt(menu.LabReports, "← Back to Lab Reports"),
			},
		}, nil
	}
	return labTestList("⏳ **Pending Tests**", head(pending, maxListed)), nil
}

func (d *Dispatcher) viewLabTest(ctx context.Context, _ *session.Session, who identity.Identity, id string) (menu.Response, error) {
	res, err := d.api.PatientLabTests(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	var test *healthapi.LabTest
	for i := range res.Items {
		if res.Items[i].TestID.String() == id {
			test = &res.Items[i]
			break
		}
	}
	if test == nil {
		return menu.Response{
			Message: "❌ **Lab Test Not Found**\n\nThe requested lab test could not be found or you don't have access to it.",
			Options: []menu.Option{
				menu.Opt("recent_reports", "📊 View Lab Reports"),
				menu.Opt(menu.LabReports, "← Back to Lab Reports"),
			},
		}, nil
	}

	var b strings.Builder
	b.WriteString("🧪 **Lab Test Details**\n\n")
	fmt.Fprintf(&b, "**Test Name:** %s\n", orNA(test.TestName))
	fmt.Fprintf(&b, "**Test Type:** %s\n", orNA(test.TestType))
	fmt.Fprintf(&b, "**Test Date:** %s\n", formatDate(firstNonEmpty(test.TestDate, test.UploadedAt)))
	fmt.Fprintf(&b, "**Status:** %s\n", orDefault(test.Status, "Pending"))
	fmt.Fprintf(&b, "**Notes:** %s\n", orDefault(test.Notes, "No notes"))
	fmt.Fprintf(&b, "\n🔗 **View File:** %s", d.api.LabTestFileURL(id))
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("share_lab_test_"+id, "👨‍⚕️ Share with Doctor"),
			menu.Opt("recent_reports", "📊 Back to Lab Reports"),
			menu.Opt(menu.LabReports, "← Main Lab Menu"),
		},
	}, nil
}

func (d *Dispatcher) patientReports(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	res, err := d.api.PatientReports(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	if len(res.Items) == 0 {
		return menu.Response{
			Message: "📄 **Medical Reports**\n\n📋 **No Reports Found**\n\nYou currently have no medical reports on record." + degraded(res.Degraded),
			Options: []menu.Option{
				menu.Opt("schedule_test", "📅 Schedule Lab Test"),
				menu.Opt(menu.BookAppointment, "👨‍⚕️ Book Doctor Consultation"),
				menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			},
		}, nil
	}

	var b strings.Builder
	b.WriteString("📄 **Your Medical Reports**")
	var opts []menu.Option
	for i, r := range head(res.Items, maxListed) {
		fmt.Fprintf(&b, "\n\n**%d. %s**\n📅 Date: %s\n📝 Description: %s",
			i+1, reportName(r), formatDate(r.UploadDate), orDefault(r.Description, "No description"))
		opts = append(opts, menu.Opt("view_report_"+r.ReportID.String(), "📄 View "+reportName(r)))
	}
	opts = append(opts,
		menu.Opt("share_reports_menu", "📤 Share Reports with Doctor"),
		menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
	)
	return menu.Response{Message: b.String(), Options: opts}, nil
}

func (d *Dispatcher) viewReport(ctx context.Context, _ *session.Session, who identity.Identity, id string) (menu.Response, error) {
	res, err := d.api.PatientReports(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	for _, r := range res.Items {
		if r.ReportID.String() != id {
			continue
		}
		var b strings.Builder
		b.WriteString("📄 **Report Details**\n\n")
		fmt.Fprintf(&b, "**Title:** %s\n", reportName(r))
		fmt.Fprintf(&b, "**Uploaded:** %s\n", formatDate(r.UploadDate))
		fmt.Fprintf(&b, "**File:** %s\n", orNA(r.FileName))
		fmt.Fprintf(&b, "**Description:** %s", orDefault(r.Description, "No description"))
		return menu.Response{
			Message: b.String(),
			Options: []menu.Option{
				menu.Opt("share_item_report_"+id, "👨‍⚕️ Share with Doctor"),
				menu.Opt("patient_reports", "📄 Back to Reports"),
				menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
			},
		}, nil
	}
	return menu.Response{
		Message: "❌ **Report Not Found**\n\nThe requested report could not be found or you don't have access to it.",
		Options: []menu.Option{
			menu.Opt("patient_reports", "📄 View Reports"),
			menu.Opt(menu.MedicalRecords, "← Back to Medical Records"),
		},
	}, nil
}

// findHospital degrades to static emergency contacts on any upstream failure.
func (d *Dispatcher) findHospital(ctx context.Context, sess *session.Session, _ identity.Identity, _ string) (menu.Response, error) {
	opts := []menu.Option{
		menu.Opt("emergency", "← Back to Emergency Services"),
		menu.MainMenuOption(),
	}
	hospitals, err := d.api.ListHospitals(ctx)
	if err != nil {
		d.logger.Warn("hospital lookup failed", "user_id", sess.UserID, "error", err)
		return menu.Response{
			Message: "🏥 **Emergency Hospitals:**\n\n📍 **Service temporarily unavailable**\n\nPlease contact emergency services directly:\n• **Ambulance:** 108 📞\n• **Hospital Emergency:** " + emergencyPhone + " 📞",
			Options: opts,
		}, nil
	}
	if len(hospitals) == 0 {
		return menu.Response{
			Message: "🏥 **Nearest Emergency Hospitals:**\n\n📍 **No hospital data available**\n\nPlease contact emergency services directly:\n• **Ambulance:** 108 📞\n• **Police:** 100 📞",
			Options: opts,
		}, nil
	}

	var b strings.Builder
	b.WriteString("🏥 **Nearest Emergency Hospitals:**")
	for i, h := range head(hospitals, maxHospitals) {
		fmt.Fprintf(&b, "\n\n**%d. %s**\n📍 %s\n📞 %s", i+1, orNA(h.Name),
			orDefault(firstNonEmpty(h.Location, h.Address), "Location not specified"),
			orDefault(h.Phone.String(), "Contact: "+emergencyPhone))
	}
	return menu.Response{Message: b.String(), Options: opts}, nil
}

func (d *Dispatcher) doctorDashboard(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	dash, err := d.api.DoctorDashboard(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👨‍⚕️ **Doctor Dashboard**\n\n**Dr. %s** (%s)\n", orNA(firstNonEmpty(dash.Doctor.Name, who.Name)), orNA(dash.Doctor.Specialization))
	b.WriteString("\n📊 **Statistics:**\n")
	fmt.Fprintf(&b, "• 📅 Today: %d\n", dash.Statistics.TodayCount)
	fmt.Fprintf(&b, "• 🔜 Upcoming: %d\n", dash.Statistics.UpcomingCount)
	fmt.Fprintf(&b, "• 👥 Patients: %d\n", dash.Statistics.TotalPatients)
	fmt.Fprintf(&b, "• ✅ Completed: %d", dash.Statistics.CompletedCount)
	if len(dash.TodayAppointments) > 0 {
		b.WriteString("\n\n📅 **Today's Appointments:**")
		for _, apt := range head(dash.TodayAppointments, maxListed) {
			fmt.Fprintf(&b, "\n• %s - %s (%s)", formatTime(apt.DateTime), orNA(apt.PatientName), orDefault(apt.Symptoms, "No symptoms noted"))
		}
	}
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{menu.MainMenuOption()},
	}, nil
}

func labTestList(title string, tests []healthapi.LabTest) menu.Response {
	var b strings.Builder
	b.WriteString(title)
	opts := make([]menu.Option, 0, len(tests)+2)
	for i, t := range tests {
		fmt.Fprintf(&b, "\n\n**%d. %s**\n📅 Date: %s\n🔬 Type: %s\n📊 Status: %s\n📝 Notes: %s",
			i+1, orNA(t.TestName), formatDate(firstNonEmpty(t.TestDate, t.UploadedAt)), orNA(t.TestType),
			orDefault(t.Status, "Pending"), orDefault(t.Notes, "None"))
		opts = append(opts, menu.Opt("view_lab_test_"+t.TestID.String(), "📊 View "+orNA(t.TestName)))
	}
	opts = append(opts,
		menu.Opt(menu.LabReports, "← Back to Lab Reports"),
		menu.Opt(menu.Main, "🏠 Main Menu"),
	)
	return menu.Response{Message: b.String(), Options: opts}
}

func writePrescription(b *strings.Builder, p healthapi.Prescription) {
	fmt.Fprintf(b, "**Medicine:** %s\n", orNA(p.MedicineName))
	fmt.Fprintf(b, "**Dosage:** %s\n", orNA(p.Dosage))
	if p.Frequency != "" {
		fmt.Fprintf(b, "**Frequency:** %s\n", p.Frequency)
	}
	fmt.Fprintf(b, "**Duration:** %s\n", orNA(p.Duration))
	fmt.Fprintf(b, "**Notes:** %s\n", orDefault(p.Notes, "No notes"))
	fmt.Fprintf(b, "**Doctor:** %s\n", orNA(p.DoctorName))
	fmt.Fprintf(b, "**Date:** %s", formatDate(p.CreatedAt))
}

func reportName(r healthapi.Report) string {
	return orDefault(firstNonEmpty(r.Title, r.FileName), "Medical Report")
}

func isPending(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "" || s == "pending" || s == "in_progress" || s == "processing"
}

func degraded(flag bool) string {
	if flag {
		return degradedNote
	}
	return ""
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts the ERP's date formats; unparseable input yields the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatDate(s string) string {
	if t := parseTime(s); !t.IsZero() {
		return t.Format("02 Jan 2006")
	}
	return orNA(s)
}

func formatDateTime(s string) string {
	if t := parseTime(s); !t.IsZero() {
		return t.Format("02 Jan 2006 at 3:04 PM")
	}
	return orNA(s)
}

func formatTime(s string) string {
	if t := parseTime(s); !t.IsZero() {
		return t.Format("3:04 PM")
	}
	return orNA(s)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

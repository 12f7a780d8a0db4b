package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

// Shareable item kinds as they appear in share_item_ and select_doctor_ actions.
const (
	itemReport  = "report"
	itemLabTest = "lab_test"

	maxShareItems = 8
	shareNotes    = "Shared via chatbot"
)

type shareable struct {
	kind string
	id   string
	name string
	date string
}

func (s shareable) label() string {
	if s.kind == itemReport {
		return "Medical Report"
	}
	return "Lab Test"
}

// parseItem splits "<kind>_<id>" where kind is report or lab_test.
func parseItem(s string) (kind, id string, ok bool) {
	for _, k := range []string{itemLabTest, itemReport} {
		if rest, found := strings.CutPrefix(s, k+"_"); found && rest != "" {
			return k, rest, true
		}
	}
	return "", "", false
}

func (d *Dispatcher) shareMenu(ctx context.Context, _ *session.Session, who identity.Identity, _ string) (menu.Response, error) {
	reports, err := d.api.PatientReports(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}
	tests, err := d.api.PatientLabTests(ctx, who.ID)
	if err != nil {
		return menu.Response{}, err
	}

	items := make([]shareable, 0, len(reports.Items)+len(tests.Items))
	for _, r := range reports.Items {
		items = append(items, shareable{kind: itemReport, id: r.ReportID.String(), name: reportName(r), date: r.UploadDate})
	}
	for _, t := range tests.Items {
		items = append(items, shareable{kind: itemLabTest, id: t.TestID.String(), name: orDefault(t.TestName, "Lab Test"), date: firstNonEmpty(t.TestDate, t.UploadedAt)})
	}
	if len(items) == 0 {
		return menu.Response{
			Message: "📤 **Share Reports with Doctor**\n\n📋 **No Reports to Share**\n\nYou currently have no reports or lab tests to share." + degraded(reports.Degraded || tests.Degraded),
			Options: []menu.Option{
				menu.Opt("schedule_test", "📅 Schedule Lab Test"),
				menu.Opt(menu.BookAppointment, "👨‍⚕️ Book Doctor Consultation"),
				menu.Opt("patient_reports", "← Back to Reports"),
			},
		}, nil
	}

	var b strings.Builder
	b.WriteString("📤 **Share Reports with Doctor**\n\nSelect a report or lab test to share:")
	opts := make([]menu.Option, 0, maxShareItems+2)
	for i, it := range head(items, maxShareItems) {
		fmt.Fprintf(&b, "\n\n**%d. %s** (%s)\n📅 Date: %s", i+1, it.name, it.label(), formatDate(it.date))
		opts = append(opts, menu.Opt(fmt.Sprintf("share_item_%s_%s", it.kind, it.id), "📤 Share "+it.name))
	}
	opts = append(opts,
		menu.Opt("patient_reports", "← Back to Reports"),
		menu.Opt("recent_reports", "← Back to Lab Tests"),
	)
	return menu.Response{Message: b.String(), Options: opts}, nil
}

func (d *Dispatcher) shareItem(ctx context.Context, sess *session.Session, who identity.Identity, arg string) (menu.Response, error) {
	kind, id, ok := parseItem(arg)
	if !ok {
		d.logger.Info("malformed share action", "user_id", sess.UserID, "arg", arg)
		return menu.Fallback(), nil
	}
	return d.chooseShareDoctor(ctx, kind, id)
}

func (d *Dispatcher) shareLabTest(ctx context.Context, _ *session.Session, _ identity.Identity, id string) (menu.Response, error) {
	if id == "" {
		return menu.Fallback(), nil
	}
	return d.chooseShareDoctor(ctx, itemLabTest, id)
}

func (d *Dispatcher) chooseShareDoctor(ctx context.Context, kind, id string) (menu.Response, error) {
	doctors, err := d.api.ListDoctors(ctx, "")
	if err != nil {
		return menu.Response{}, err
	}
	item := shareable{kind: kind, id: id}
	if len(doctors) == 0 {
		return menu.Response{
			Message: "⚠️ **No Doctors Available**\n\nNo doctors are currently available to share with. Please try again later.",
			Options: []menu.Option{
				menu.Opt("share_reports_menu", "← Back to Share Menu"),
				menu.Opt("patient_reports", "📄 Back to Reports"),
			},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👨‍⚕️ **Select Doctor to Share %s**\n\n**Available Doctors:**", item.label())
	opts := make([]menu.Option, 0, len(doctors)+1)
	for i, doc := range doctors {
		fmt.Fprintf(&b, "\n\n**%d. %s** - %s\n🏥 %s", i+1, orNA(doc.Name), orDefault(doc.Specialization, "General Medicine"), orDefault(doc.HospitalName, "Available at clinic"))
		action := fmt.Sprintf("select_doctor_%s_%s_%s", kind, id, doc.DoctorID.String())
		opts = append(opts, menu.Opt(action, "👨‍⚕️ Share with "+orNA(doc.Name)))
	}
	opts = append(opts, menu.Opt("share_reports_menu", "← Back to Share Menu"))
	return menu.Response{Message: b.String(), Options: opts}, nil
}

// confirmShare handles select_doctor_<kind>_<itemID>_<doctorID>. The doctor
// id is everything after the last underscore.
func (d *Dispatcher) confirmShare(ctx context.Context, sess *session.Session, who identity.Identity, arg string) (menu.Response, error) {
	kind, rest, ok := parseItem(arg)
	cut := strings.LastIndex(rest, "_")
	if !ok || cut <= 0 || cut == len(rest)-1 {
		d.logger.Info("malformed share confirmation", "user_id", sess.UserID, "arg", arg)
		return menu.Fallback(), nil
	}
	itemID, doctorID := rest[:cut], rest[cut+1:]

	doctors, err := d.api.ListDoctors(ctx, "")
	if err != nil {
		return menu.Response{}, err
	}
	var doctor *healthapi.Doctor
	for i := range doctors {
		if doctors[i].DoctorID.String() == doctorID {
			doctor = &doctors[i]
			break
		}
	}
	if doctor == nil {
		return menu.Response{
			Message: "⚠️ **Doctor Not Found**\n\nThe selected doctor is no longer available. Please choose another doctor.",
			Options: []menu.Option{
				menu.Opt(fmt.Sprintf("share_item_%s_%s", kind, itemID), "🔄 Try Again"),
				menu.Opt("share_reports_menu", "← Back to Share Menu"),
			},
		}, nil
	}

	if kind == itemReport {
		_, err = d.api.ShareReport(ctx, who.ID, itemID, []string{doctorID}, shareNotes)
	} else {
		_, err = d.api.ShareLabTest(ctx, who.ID, itemID, doctorID, shareNotes)
	}
	if err != nil {
		return menu.Response{}, err
	}
	d.logger.Info("item shared with doctor", "user_id", sess.UserID, "kind", kind, "item_id", itemID, "doctor_id", doctorID)

	item := shareable{kind: kind}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ **%s Shared Successfully!**\n\n", item.label())
	fmt.Fprintf(&b, "👨‍⚕️ **Shared with:** %s\n", orNA(doctor.Name))
	fmt.Fprintf(&b, "🩺 **Specialty:** %s\n", orDefault(doctor.Specialization, "General Medicine"))
	fmt.Fprintf(&b, "🏥 **Hospital:** %s", orNA(doctor.HospitalName))
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("share_reports_menu", "📤 Share More Reports"),
			menu.Opt(menu.BookAppointment, "📅 Book Appointment with Doctor"),
			menu.Opt("patient_reports", "📄 Back to Reports"),
			menu.Opt(menu.Main, "🏠 Main Menu"),
		},
	}, nil
}

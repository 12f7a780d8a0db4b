package booking

import (
	"fmt"
	"strings"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

var symptomOptions = []menu.Option{
	menu.Opt("symptom_regular", "🩺 Regular Check-up"),
	menu.Opt("symptom_fever", "🤒 Fever"),
	menu.Opt("symptom_cold", "🤧 Cold/Cough"),
	menu.Opt("symptom_headache", "🤕 Headache"),
	menu.Opt("symptom_stomach", "🤢 Stomach Issues"),
	menu.Opt(ActionSymptomOther, "✍️ Other (describe)"),
}

func noDoctorsResponse() menu.Response {
	return menu.Response{
		Message: "😔 **No Doctors Available**\n\nNo doctors are available for booking right now. Please try again later.",
		Options: []menu.Option{
			menu.Opt(menu.BookAppointment, "📅 Booking Options"),
			menu.MainMenuOption(),
		},
	}
}

func doctorNotFoundResponse() menu.Response {
	return menu.Response{
		Message: "⚠️ **Doctor Not Found**\n\nThat doctor is no longer available. Please choose again from the current list.",
		Options: []menu.Option{
			menu.Opt(ActionGeneral, "👨‍⚕️ View Available Doctors"),
			menu.MainMenuOption(),
		},
	}
}

func doctorListResponse(doctors []healthapi.Doctor, specialtySlug string) menu.Response {
	var b strings.Builder
	b.WriteString("👨‍⚕️ **Available Doctors**\n\nSelect a doctor to continue:\n")
	opts := make([]menu.Option, 0, len(doctors)+2)
	for _, d := range doctors {
		fmt.Fprintf(&b, "\n• **Dr. %s** (%s) ₹%d", d.Name, specialtyOf(d), cleanFee(d.ConsultationFee.String()))
		opts = append(opts, menu.Opt(prefixDoctor+d.DoctorID.String(), fmt.Sprintf("Dr. %s - %s", d.Name, specialtyOf(d))))
	}
	if specialtySlug != "" {
		opts = append(opts, menu.Opt(ActionSpecialist, "← Back to Specialties"))
	} else {
		opts = append(opts, menu.Opt(menu.BookAppointment, "← Back to Booking Options"))
	}
	opts = append(opts, menu.MainMenuOption())
	return menu.Response{Message: b.String(), Options: opts}
}

func specialtyListResponse(order []string, groups map[string][]healthapi.Doctor) menu.Response {
	var b strings.Builder
	b.WriteString("👨‍⚕️ **Specialist Consultation**\n\nChoose a specialization:\n")
	opts := make([]menu.Option, 0, len(order)+2)
	for _, spec := range order {
		n := len(groups[spec])
		fmt.Fprintf(&b, "\n• %s (%d %s)", spec, n, plural(n, "doctor", "doctors"))
		opts = append(opts, menu.Opt(prefixSpecialist+slugify(spec), "🩺 "+spec))
	}
	opts = append(opts, menu.Opt(menu.BookAppointment, "← Back to Booking Options"), menu.MainMenuOption())
	return menu.Response{Message: b.String(), Options: opts}
}

func symptomMenuResponse(doctorName string) menu.Response {
	opts := append([]menu.Option(nil), symptomOptions...)
	opts = append(opts, menu.Opt(ActionGeneral, "← Change Doctor"), menu.MainMenuOption())
	return menu.Response{
		Message: fmt.Sprintf("🩺 **Booking with Dr. %s**\n\nWhat is the main reason for your visit?", doctorName),
		Options: opts,
	}
}

func freeTextPromptResponse() menu.Response {
	return menu.Response{
		Message:        "✍️ **Describe Your Symptoms**\n\nPlease type a short description of your symptoms in your next message.",
		Options:        []menu.Option{menu.Opt(ActionBackToSymptoms, "← Back to Symptoms")},
		ExpectingInput: true,
	}
}

func freeTextRetryResponse() menu.Response {
	return menu.Response{
		Message:        fmt.Sprintf("⚠️ Please describe your symptoms in at least %d characters.", minSymptomLength),
		Options:        []menu.Option{menu.Opt(ActionBackToSymptoms, "← Back to Symptoms")},
		ExpectingInput: true,
	}
}

func timeSlotMenuResponse(doctorName, prefix string) menu.Response {
	opts := make([]menu.Option, 0, len(Slots)+2)
	for _, s := range Slots {
		opts = append(opts, menu.Opt(s.Action, "🕐 "+dayLabel(s.Day)+" "+s.Label))
	}
	opts = append(opts, menu.Opt(ActionBackToSymptoms, "← Change Symptoms"), menu.MainMenuOption())
	return menu.Response{
		Message: fmt.Sprintf("%s📅 **Choose a Time with Dr. %s**\n\nAvailable slots:", prefix, doctorName),
		Options: opts,
	}
}

// confirmationResponse renders the booking summary shown before submission.
func confirmationResponse(d *session.Draft) menu.Response {
	var b strings.Builder
	b.WriteString("📋 **Confirm Your Appointment**\n\n")
	writeSummary(&b, d)
	if d.Placeholder {
		b.WriteString("\n⚠️ Doctor details are provisional.\n")
	}
	b.WriteString("\nShall I book this appointment?")
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt(ActionFinalConfirm, "✅ Confirm Booking"),
			menu.Opt(ActionGeneral, "🔄 Start Over"),
			menu.MainMenuOption(),
		},
	}
}

func bookedResponse(d *session.Draft, appointmentID string) menu.Response {
	var b strings.Builder
	b.WriteString("✅ **Appointment Booked!**\n\n")
	fmt.Fprintf(&b, "🆔 **Appointment ID:** %s\n", valueOrNA(appointmentID))
	writeSummary(&b, d)
	b.WriteString("\nPlease arrive 15 minutes early.")
	return menu.Response{
		Message: b.String(),
		Options: []menu.Option{
			menu.Opt("view_appointments", "📋 My Appointments"),
			menu.Opt("add_calendar", "📆 Add to Calendar"),
			menu.MainMenuOption(),
		},
	}
}

func writeSummary(b *strings.Builder, d *session.Draft) {
	fmt.Fprintf(b, "👨‍⚕️ **Doctor:** Dr. %s\n", valueOrNA(d.DoctorName))
	fmt.Fprintf(b, "🩺 **Specialty:** %s\n", valueOrNA(d.Specialty))
	fmt.Fprintf(b, "🏥 **Hospital:** %s\n", valueOrNA(d.HospitalName))
	fmt.Fprintf(b, "📍 **Location:** %s\n", valueOrNA(d.Location))
	fmt.Fprintf(b, "📅 **Date & Time:** %s\n", valueOrNA(d.DisplayDateTime))
	fmt.Fprintf(b, "📝 **Reason:** %s\n", valueOrNA(orDefault(d.Symptoms, defaultSymptoms)))
	fmt.Fprintf(b, "💰 **Fee:** ₹%d\n", d.Fee)
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func dayLabel(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + day[1:]
}

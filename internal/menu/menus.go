package menu

// Menu keys with static content.
const (
	Main            = "main"
	BookAppointment = "book_appointment"
	MedicalRecords  = "medical_records"
	Prescription    = "prescription"
	LabReports      = "lab_reports"
)

var menus = map[string]Response{
	Main: {
		Message: "🏥 Welcome to Health ERP Assistant! How can I help you today?",
		Options: []Option{
			{ID: "1", Text: "📅 Book Appointment", Action: BookAppointment},
			{ID: "2", Text: "📋 View Medical Records", Action: MedicalRecords},
			{ID: "3", Text: "💊 Prescription Status", Action: Prescription},
			{ID: "4", Text: "🧪 Lab Reports", Action: LabReports},
			{ID: "5", Text: "🚨 Emergency Contact", Action: "emergency"},
			{ID: "6", Text: "💡 Health Tips", Action: "health_tips"},
			{ID: "7", Text: "👤 Profile Settings", Action: "profile"},
		},
	},
	BookAppointment: {
		Message: "📅 Which type of appointment would you like to book?",
		Options: []Option{
			{ID: "1", Text: "🩺 General Consultation", Action: "general_appointment"},
			{ID: "2", Text: "👨‍⚕️ Specialist Consultation", Action: "specialist_appointment"},
			{ID: "3", Text: "🔬 Diagnostic Test", Action: "diagnostic_test"},
			{ID: "4", Text: "💉 Vaccination", Action: "vaccination_appointment"},
			{ID: "5", Text: "📋 View My Appointments", Action: "view_appointments"},
			{ID: "back", Text: "← Back to Main Menu", Action: Main},
		},
	},
	MedicalRecords: {
		Message: "📋 What medical records would you like to access?",
		Options: []Option{
			{ID: "1", Text: "🕐 Recent Visits", Action: "recent_visits"},
			{ID: "2", Text: "📜 Medical History", Action: "medical_history"},
			{ID: "3", Text: "💉 Vaccination Records", Action: "vaccination_records"},
			{ID: "4", Text: "🩸 Blood Test Results", Action: "blood_tests"},
			{ID: "5", Text: "📄 Medical Reports", Action: "patient_reports"},
			{ID: "6", Text: "📤 Share Reports with Doctor", Action: "share_reports_menu"},
			{ID: "back", Text: "← Back to Main Menu", Action: Main},
		},
	},
	Prescription: {
		Message: "💊 Prescription Management Options:",
		Options: []Option{
			{ID: "1", Text: "📋 Current Prescriptions", Action: "current_prescription"},
			{ID: "2", Text: "📚 Prescription History", Action: "prescription_history"},
			{ID: "3", Text: "🔄 Refill Request", Action: "refill_request"},
			{ID: "4", Text: "⚠️ Drug Interactions", Action: "drug_interactions"},
			{ID: "back", Text: "← Back to Main Menu", Action: Main},
		},
	},
	LabReports: {
		Message: "🧪 Lab Reports and Tests:",
		Options: []Option{
			{ID: "1", Text: "📊 Recent Reports", Action: "recent_reports"},
			{ID: "2", Text: "⏳ Pending Tests", Action: "pending_tests"},
			{ID: "3", Text: "📅 Schedule Lab Test", Action: "schedule_test"},
			{ID: "4", Text: "📈 Track Test Results", Action: "track_results"},
			{ID: "back", Text: "← Back to Main Menu", Action: Main},
		},
	},
}

var canned = map[string]Response{
	"emergency": {
		Message: "🚨 **EMERGENCY SERVICES** 🚨\n\n**Immediate emergency contacts:**\n• **Ambulance:** 108\n• **Hospital Emergency:** +91-1234567890\n• **Poison Control:** 1066\n• **Fire:** 101\n• **Police:** 100\n\n**For life-threatening emergencies call 108 immediately.**",
		Options: []Option{
			Opt("find_hospital", "🏥 Find Nearest Hospital"),
			MainMenuOption(),
		},
	},
	"health_tips": {
		Message: "💡 **Daily Health Tips:**\n\n🚰 **Hydration:** Drink 8-10 glasses of water daily\n🥗 **Nutrition:** Include fruits and vegetables in every meal\n🏃 **Exercise:** 30 minutes of physical activity daily\n😴 **Sleep:** 7-8 hours of quality sleep\n🧘 **Mental Health:** Practice meditation or deep breathing",
		Options: []Option{MainMenuOption()},
	},
	"schedule_test": {
		Message: "📅 **Schedule Lab Test**\n\nChoose the kind of test you would like to book:",
		Options: []Option{
			Opt("book_blood_test", "🩸 Blood Test"),
			Opt("book_imaging", "🩻 X-Ray / Imaging"),
			Opt("book_health_package", "📦 Full Health Checkup"),
			Opt(LabReports, "← Back to Lab Reports"),
		},
	},
	"book_blood_test":     labBookingStub("Blood Test"),
	"book_imaging":        labBookingStub("X-Ray / Imaging"),
	"book_health_package": labBookingStub("Full Health Checkup"),
	"refill_request": {
		Message: "🔄 **Refill Request**\n\nRefills are issued by your prescribing doctor. Pick a prescription from your current list to request a refill, or contact your pharmacy directly.",
		Options: []Option{
			Opt("current_prescription", "📋 Current Prescriptions"),
			Opt(Prescription, "← Back to Prescriptions"),
		},
	},
	"drug_interactions": {
		Message: "⚠️ **Drug Interactions**\n\nAlways tell your doctor and pharmacist about every medicine, supplement and herbal product you take. Do not combine medicines without professional advice.",
		Options: []Option{
			Opt("current_prescription", "📋 Current Prescriptions"),
			Opt(Prescription, "← Back to Prescriptions"),
		},
	},
	"vaccination_records": {
		Message: "💉 **Vaccination Records**\n\nVaccination history is not yet available from your hospital's system. Please ask the hospital desk for a printed certificate.",
		Options: []Option{
			Opt(MedicalRecords, "← Back to Medical Records"),
			MainMenuOption(),
		},
	},
	"add_calendar": {
		Message: "📅 **Calendar Integration**\n\nYour appointment details are ready to add to your calendar.\n\n🔔 Suggested reminders: 24 hours, 2 hours and 30 minutes before the appointment.",
		Options: []Option{
			Opt("set_additional_reminder", "⏰ Set Additional Reminder"),
			MainMenuOption(),
		},
	},
	"set_additional_reminder": {
		Message: "⏰ **Additional Reminder Settings**\n\nAdditional reminders noted: 1 week, 3 days, 1 hour and 15 minutes before your appointment.",
		Options: []Option{
			{ID: "view_appointments", Text: "📋 View My Appointments", Action: "my_appointments"},
			MainMenuOption(),
		},
	},
	"cancel_appointment": {
		Message: "❌ **Cancel Appointment**\n\n⚠️ Are you sure you want to cancel your appointment?\n\n**Cancellation Policy:**\n• Free cancellation up to 24 hours before\n• 50% charge for cancellation within 24 hours\n• Full charge for no-show",
		Options: []Option{
			{ID: "confirm_cancel", Text: "✅ Yes, Cancel Appointment", Action: "confirm_cancel_appointment"},
			{ID: "keep_appointment", Text: "❌ No, Keep Appointment", Action: Main},
			Opt("reschedule_appointment", "🔄 Reschedule Instead"),
		},
	},
	"confirm_cancel_appointment": {
		Message: "📞 **Cancellation Request**\n\nCancellations are handled by the hospital front desk. Please call the hospital with your appointment ID to complete the cancellation.",
		Options: []Option{
			{ID: "view_appointments", Text: "📋 View My Appointments", Action: "my_appointments"},
			MainMenuOption(),
		},
	},
	"reschedule_appointment": {
		Message: "🔄 **Reschedule Appointment**\n\nTo move an appointment, book a new slot and ask the hospital desk to cancel the old one.",
		Options: []Option{
			Opt(BookAppointment, "📅 Book New Appointment"),
			MainMenuOption(),
		},
	},
}

var aliases = map[string]string{
	"diagnostic_test":    "schedule_test",
	"refill_paracetamol": "refill_request",
	"refill_vitamin":     "refill_request",
	"refill_omeprazole":  "refill_request",
}

func labBookingStub(name string) Response {
	return Response{
		Message: "🧪 **" + name + "**\n\nLab bookings are confirmed by the hospital laboratory. Please visit or call the lab desk to pick a collection time.",
		Options: []Option{
			Opt("schedule_test", "← Back to Lab Tests"),
			MainMenuOption(),
		},
	}
}

// Lookup returns the static navigation menu for key.
func Lookup(key string) (Response, bool) {
	r, ok := menus[key]
	if !ok {
		return Response{}, false
	}
	return r.clone(), true
}

// Canned returns the fixed reply for action, if it has one.
func Canned(action string) (Response, bool) {
	if target, ok := aliases[action]; ok {
		action = target
	}
	r, ok := canned[action]
	if !ok {
		return Response{}, false
	}
	return r.clone(), true
}

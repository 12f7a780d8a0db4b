package menu

// AuthenticationRequired is returned when a privileged action has no
// bound identity.
func AuthenticationRequired() Response {
	return Response{
		Message: "🔐 **Authentication Required**\n\nPlease log in to the main healthcare app to access your personal health information, then return to the chatbot.",
		Options: []Option{
			Opt(Main, "🏠 Main Menu"),
		},
	}
}

// SessionExpired is returned after the remote API rejected the identity.
func SessionExpired() Response {
	return Response{
		Message: "🔒 **Session Expired**\n\nYour login session has expired. Please log in again in the main app and return to the chatbot.",
		Options: []Option{
			Opt(Main, "🏠 Main Menu"),
		},
	}
}

// BookingExpired is returned when a booking step arrives without a draft.
func BookingExpired() Response {
	return Response{
		Message: "⌛ **Booking Session Expired**\n\nWe could not find your appointment in progress. Please restart the booking.",
		Options: []Option{
			Opt(BookAppointment, "📅 Restart Booking"),
			MainMenuOption(),
		},
	}
}

// ServiceUnavailable is returned when the remote API failed or timed out.
func ServiceUnavailable() Response {
	return Response{
		Message: "⚠️ **Service Temporarily Unavailable**\n\nWe're experiencing technical difficulties. Please try again in a few moments.",
		Options: []Option{
			{ID: "retry", Text: "🔄 Try Again", Action: Main},
			MainMenuOption(),
		},
	}
}

// Fallback is returned for actions nothing recognises.
func Fallback() Response {
	return Response{
		Message: "🤔 **Option Not Recognized**\n\nI didn't understand that selection. Please choose from the options below:",
		Options: []Option{
			{ID: "main", Text: "🏠 Main Menu", Action: Main},
			{ID: "book_appointment", Text: "📅 Book Appointment", Action: BookAppointment},
			{ID: "medical_records", Text: "📋 Medical Records", Action: MedicalRecords},
		},
	}
}

// InternalError is the transport-level reply for unexpected faults.
func InternalError() Response {
	return Response{
		Message: "❌ Sorry, something went wrong. Please try again.",
		Options: []Option{
			Opt(Main, "🏠 Main Menu"),
		},
	}
}

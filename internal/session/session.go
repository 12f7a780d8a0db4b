// Package session keeps per-user conversation state, in-progress booking
// drafts and the externally supplied identity binding.
package session

import (
	"errors"
	"time"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
)

// MaxHistory bounds the number of history entries kept per session.
const MaxHistory = 50

// ErrNotFound is returned when no live session exists for a user.
var ErrNotFound = errors.New("session: not found")

// State is the booking conversation state of a session.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingDoctor       State = "awaiting_doctor"
	StateAwaitingSymptom      State = "awaiting_symptom"
	StateAwaitingSymptomText  State = "awaiting_symptom_text"
	StateAwaitingTimeSlot     State = "awaiting_time_slot"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// InterceptsInput reports whether the next inbound message must be treated
// as free text rather than a menu action.
func (s State) InterceptsInput() bool {
	return s == StateAwaitingSymptomText
}

// HistoryEntry records one inbound action.
type HistoryEntry struct {
	Option     string    `json:"option"`
	Timestamp  time.Time `json:"timestamp"`
	HasSession bool      `json:"has_session"`
}

// Draft is an in-progress appointment booking.
type Draft struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	HospitalID      string    `json:"hospital_id"`
	HospitalName    string    `json:"hospital_name"`
	Specialty       string    `json:"specialty"`
	Fee             int       `json:"fee"`
	Location        string    `json:"location"`
	SlotAction      string    `json:"slot_action,omitempty"`
	SlotDay         string    `json:"slot_day,omitempty"`
	SlotTime        string    `json:"slot_time,omitempty"`
	DisplayDateTime string    `json:"display_date_time,omitempty"`
	APIDateTime     string    `json:"api_date_time,omitempty"`
	Symptoms        string    `json:"symptoms,omitempty"`
	Placeholder     bool      `json:"placeholder,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasTimeSlot reports whether a time slot has been chosen.
func (d *Draft) HasTimeSlot() bool {
	return d != nil && d.APIDateTime != ""
}

// Binding is an identity attached to one user's session.
type Binding struct {
	Kind     identity.Kind             `json:"kind"`
	Patient  *healthapi.PatientProfile `json:"patient,omitempty"`
	Doctor   *healthapi.Doctor         `json:"doctor,omitempty"`
	Token    string                    `json:"token,omitempty"`
	Cookies  []string                  `json:"cookies,omitempty"`
	AuthType string                    `json:"auth_type"`
	BoundAt  time.Time                 `json:"bound_at"`
}

// SubjectID is the remote id of the bound patient or doctor.
func (b *Binding) SubjectID() string {
	if b == nil {
		return ""
	}
	switch b.Kind {
	case identity.KindDoctor:
		if b.Doctor != nil {
			return b.Doctor.DoctorID.String()
		}
	default:
		if b.Patient != nil {
			return b.Patient.Identifier()
		}
	}
	return ""
}

// DisplayName is the bound subject's name.
func (b *Binding) DisplayName() string {
	if b == nil {
		return ""
	}
	if b.Kind == identity.KindDoctor && b.Doctor != nil {
		return b.Doctor.Name
	}
	if b.Patient != nil {
		return b.Patient.Name
	}
	return ""
}

// Session is the per-user conversation record.
type Session struct {
	UserID             string         `json:"user_id"`
	History            []HistoryEntry `json:"history"`
	CurrentMenu        string         `json:"current_menu"`
	HasExternalSession bool           `json:"has_external_session"`
	State              State          `json:"state"`
	Draft              *Draft         `json:"draft,omitempty"`
	Binding            *Binding       `json:"binding,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// New returns an idle session positioned on the main menu.
func New(userID string, now time.Time) *Session {
	return &Session{
		UserID:      userID,
		CurrentMenu: "main",
		State:       StateIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Record appends an action to the history, dropping the oldest entries
// beyond MaxHistory.
func (s *Session) Record(option string, now time.Time) {
	s.History = append(s.History, HistoryEntry{Option: option, Timestamp: now, HasSession: s.HasExternalSession})
	if len(s.History) > MaxHistory {
		s.History = append([]HistoryEntry(nil), s.History[len(s.History)-MaxHistory:]...)
	}
}

// ResetBooking discards any draft and returns the session to idle.
func (s *Session) ResetBooking() {
	s.Draft = nil
	s.State = StateIdle
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]HistoryEntry(nil), s.History...)
	if s.Draft != nil {
		d := *s.Draft
		out.Draft = &d
	}
	if s.Binding != nil {
		b := *s.Binding
		b.Cookies = append([]string(nil), s.Binding.Cookies...)
		if s.Binding.Patient != nil {
			p := *s.Binding.Patient
			b.Patient = &p
		}
		if s.Binding.Doctor != nil {
			d := *s.Binding.Doctor
			b.Doctor = &d
		}
		out.Binding = &b
	}
	return &out
}

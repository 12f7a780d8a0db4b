// Package bookings keeps a ledger of appointment submission attempts made
// through the chatbot.
package bookings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Attempt statuses.
const (
	StatusBooked = "booked"
	StatusFailed = "failed"
)

// Attempt is one booking submission sent to the remote API. Submissions are
// not deduplicated; each call produces its own attempt.
type Attempt struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	HospitalID    string    `json:"hospital_id"`
	DateTime      string    `json:"date_time"`
	Symptoms      string    `json:"symptoms"`
	Status        string    `json:"status"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recorder stores attempts.
type Recorder interface {
	Record(ctx context.Context, attempt Attempt) error
}

// MemoryLedger keeps attempts in process. Used when no database is configured.
type MemoryLedger struct {
	mu       sync.Mutex
	attempts []Attempt
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Record(_ context.Context, attempt Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	return nil
}

// Attempts returns a copy of the recorded attempts, oldest first.
func (l *MemoryLedger) Attempts() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Attempt(nil), l.attempts...)
}

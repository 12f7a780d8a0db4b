package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists booking attempts in Postgres.
type Repository struct {
	pool execer
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{pool: pool}
}

// NewRepositoryWithExec allows injecting mocks for tests.
func NewRepositoryWithExec(exec execer) *Repository {
	if exec == nil {
		panic("bookings: exec required")
	}
	return &Repository{pool: exec}
}

// Insert writes an attempt row.
func (r *Repository) Insert(ctx context.Context, a Attempt) error {
	query := `
		INSERT INTO booking_attempts (
			id, user_id, patient_id, doctor_id, hospital_id, date_time,
			symptoms, status, appointment_id, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		toPGUUID(a.ID),
		a.UserID,
		a.PatientID,
		a.DoctorID,
		a.HospitalID,
		a.DateTime,
		a.Symptoms,
		a.Status,
		toPGText(a.AppointmentID),
		toPGText(a.Error),
		toPGTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("bookings: insert attempt: %w", err)
	}
	return nil
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{
		Bytes: [16]byte(id),
		Valid: true,
	}
}

func toPGTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return pgtype.Timestamptz{
		Time:  t,
		Valid: true,
	}
}

func toPGText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

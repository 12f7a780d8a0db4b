package bookings

import (
	"context"
	"database/sql"
	"fmt"
)

const maxReportLimit = 200

// Report reads attempts for the admin API.
type Report struct {
	db *sql.DB
}

func NewReport(db *sql.DB) *Report {
	return &Report{db: db}
}

// ListAttempts returns the newest attempts, optionally filtered by user id.
func (r *Report) ListAttempts(ctx context.Context, userID string, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > maxReportLimit {
		limit = 50
	}
	query := `
		SELECT id, user_id, patient_id, doctor_id, hospital_id, date_time, symptoms,
			status, COALESCE(appointment_id, ''), COALESCE(error, ''), created_at
		FROM booking_attempts
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.DateTime,
			&a.Symptoms, &a.Status, &a.AppointmentID, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate attempts: %w", err)
	}
	return out, nil
}

package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestReportListAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	id := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "patient_id", "doctor_id", "hospital_id", "date_time", "symptoms", "status", "appointment_id", "error", "created_at"}).
		AddRow(id.String(), "u1", "7", "12", "3", "2026-10-19 09:00:00", "Fever and related symptoms", StatusBooked, "501", "", now)
	mock.ExpectQuery("SELECT id, user_id").WithArgs("u1", 50).WillReturnRows(rows)

	attempts, err := NewReport(db).ListAttempts(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].ID != id || attempts[0].AppointmentID != "501" {
		t.Fatalf("unexpected attempts: %#v", attempts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

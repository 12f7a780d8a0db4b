package bookings

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

var bookingsTracer = otel.Tracer("healthbot.internal.bookings")

// Ledger records attempts through the repository with tracing.
type Ledger struct {
	repo   *Repository
	logger *logging.Logger
}

// NewLedger constructs a Postgres-backed ledger.
func NewLedger(repo *Repository, logger *logging.Logger) *Ledger {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{repo: repo, logger: logger}
}

// Record persists an attempt.
func (l *Ledger) Record(ctx context.Context, a Attempt) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record_attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("healthbot.attempt_id", a.ID.String()),
		attribute.String("healthbot.attempt_status", a.Status),
	)

	if err := l.repo.Insert(ctx, a); err != nil {
		span.RecordError(err)
		return err
	}
	l.logger.Info("booking attempt recorded", "attempt_id", a.ID, "user_id", a.UserID, "status", a.Status, "appointment_id", a.AppointmentID)
	return nil
}

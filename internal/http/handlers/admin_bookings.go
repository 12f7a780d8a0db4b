package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// AttemptLister reads booking attempts.
type AttemptLister interface {
	ListAttempts(ctx context.Context, userID string, limit int) ([]bookings.Attempt, error)
}

// AdminBookingsHandler exposes the booking-attempt ledger to admins.
type AdminBookingsHandler struct {
	report AttemptLister
	logger *logging.Logger
}

// NewAdminBookingsHandler creates the handler. A nil report yields 503s.
func NewAdminBookingsHandler(report AttemptLister, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{report: report, logger: logger}
}

// ListAttemptsResponse is the GET /admin/bookings/attempts body.
type ListAttemptsResponse struct {
	Success  bool               `json:"success"`
	Attempts []bookings.Attempt `json:"attempts"`
	Total    int                `json:"total"`
}

// ListAttempts handles GET /admin/bookings/attempts?user_id=&limit=.
func (h *AdminBookingsHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	if h.report == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "booking ledger not configured")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	attempts, err := h.report.ListAttempts(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list booking attempts", "user_id", userID, "admin", middleware.AdminSubject(r.Context()), "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if attempts == nil {
		attempts = []bookings.Attempt{}
	}
	h.logger.Debug("booking attempts listed", "user_id", userID, "count", len(attempts), "admin", middleware.AdminSubject(r.Context()))
	middleware.WriteJSON(w, http.StatusOK, ListAttemptsResponse{Success: true, Attempts: attempts, Total: len(attempts)})
}

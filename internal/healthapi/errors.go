package healthapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the ERP rejects the caller's credentials.
	ErrUnauthorized = errors.New("healthapi: unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("healthapi: not found")
	// ErrAuthFailed is returned when sign-in is refused.
	ErrAuthFailed = errors.New("healthapi: authentication failed")
	// ErrBookingRejected is returned when the ERP accepts the request but reports no booking.
	ErrBookingRejected = errors.New("healthapi: booking rejected")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("healthapi: %s returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Is lets errors.Is match the sentinel for well-known statuses.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

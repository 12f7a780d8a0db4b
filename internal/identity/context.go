// Package identity carries the caller's authenticated healthcare identity
// through a single request.
package identity

import (
	"context"
	"strings"
)

// Kind distinguishes patient and doctor identities.
type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
)

// Identity is the remote account a request acts on behalf of.
type Identity struct {
	Kind    Kind
	ID      string
	Name    string
	Token   string
	Cookies []string
}

// CookieHeader joins the stored cookies into a single Cookie header value.
func (i Identity) CookieHeader() string {
	parts := make([]string, 0, len(i.Cookies))
	for _, c := range i.Cookies {
		if c = strings.Trim(strings.TrimSpace(c), ";"); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "; ")
}

type ctxKey string

const identityKey ctxKey = "healthbot.identity"

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity if present.
func FromContext(ctx context.Context) (Identity, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok && id.ID != ""
}

// PatientFromContext returns the identity only when it belongs to a patient.
func PatientFromContext(ctx context.Context) (Identity, bool) {
	id, ok := FromContext(ctx)
	if !ok || id.Kind != KindPatient {
		return Identity{}, false
	}
	return id, true
}

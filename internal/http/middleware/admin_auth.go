package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type adminKey struct{}

// Admin is the operator behind an admin request.
type Admin struct {
	Subject   string
	ExpiresAt time.Time
}

const adminTokenLeeway = 30 * time.Second

// AdminJWT guards the admin surface with an HS256 bearer token. The token
// must carry a subject and an expiry; the subject is exposed to handlers
// through AdminFromContext.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return []byte(secret), nil }
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(adminTokenLeeway),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAdminDenied(w, "Admin access is not configured")
				return
			}
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeAdminDenied(w, "Bearer token required")
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				msg := "Invalid admin token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Admin token expired"
				}
				writeAdminDenied(w, msg)
				return
			}
			if claims.Subject == "" {
				writeAdminDenied(w, "Admin token has no subject")
				return
			}

			admin := Admin{Subject: claims.Subject}
			if claims.ExpiresAt != nil {
				admin.ExpiresAt = claims.ExpiresAt.Time
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// WithAdmin attaches the authenticated operator to ctx.
func WithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, a)
}

// AdminFromContext returns the operator set by AdminJWT.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminKey{}).(Admin)
	return a, ok && a.Subject != ""
}

// AdminSubject is the operator subject, or "unknown" outside the admin group.
func AdminSubject(ctx context.Context) string {
	if a, ok := AdminFromContext(ctx); ok {
		return a.Subject
	}
	return "unknown"
}

func writeAdminDenied(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	WriteJSON(w, http.StatusUnauthorized, ErrorBody{Success: false, Error: "Unauthorized", Message: msg})
}

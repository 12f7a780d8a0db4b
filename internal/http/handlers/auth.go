package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// AuthAPI signs users in against the remote ERP.
type AuthAPI interface {
	AuthenticatePatient(ctx context.Context, email, password string) (*healthapi.AuthResult, error)
	AuthenticateDoctor(ctx context.Context, email, password string) (*healthapi.AuthResult, error)
}

// AuthHandler binds signed-in identities to chat sessions and reports on them.
type AuthHandler struct {
	api    AuthAPI
	store  session.Store
	bridge *session.Bridge
	locker *session.Locker
	logger *logging.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(api AuthAPI, store session.Store, bridge *session.Bridge, locker *session.Locker, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if locker == nil {
		locker = session.NewLocker()
	}
	return &AuthHandler{api: api, store: store, bridge: bridge, locker: locker, logger: logger}
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=patient doctor"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserID   string `json:"user_id" validate:"required,max=128"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Kind      string `json:"kind"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	UserID    string `json:"user_id"`
}

// AuthStatusResponse describes the identity bound to a chat user.
type AuthStatusResponse struct {
	Success            bool       `json:"success"`
	UserID             string     `json:"user_id"`
	IsAuthenticated    bool       `json:"is_authenticated"`
	HasExternalSession bool       `json:"has_external_session"`
	Kind               string     `json:"kind,omitempty"`
	SubjectID          string     `json:"subject_id,omitempty"`
	Name               string     `json:"name,omitempty"`
	AuthType           string     `json:"auth_type,omitempty"`
	BoundAt            *time.Time `json:"bound_at,omitempty"`
	AgeSeconds         int64      `json:"age_seconds,omitempty"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := middleware.ValidateStruct(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.FirstValidationError(err))
		return
	}

	var (
		res *healthapi.AuthResult
		err error
	)
	if req.Kind == string(identity.KindDoctor) {
		res, err = h.api.AuthenticateDoctor(r.Context(), req.Email, req.Password)
	} else {
		res, err = h.api.AuthenticatePatient(r.Context(), req.Email, req.Password)
	}
	if err != nil {
		if errors.Is(err, healthapi.ErrAuthFailed) {
			h.logger.Info("sign-in rejected", "user_id", req.UserID, "kind", req.Kind)
			middleware.WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		h.logger.Error("sign-in failed", "user_id", req.UserID, "kind", req.Kind, "error", err)
		middleware.WriteError(w, http.StatusBadGateway, "Authentication service unavailable")
		return
	}

	unlock := h.locker.Lock(req.UserID)
	defer unlock()

	sess, err := h.store.GetOrCreate(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error("load session for sign-in", "user_id", req.UserID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !h.bridge.BindAuth(sess, res) {
		middleware.WriteError(w, http.StatusBadGateway, "Authentication response missing identity")
		return
	}
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("save session after sign-in", "user_id", req.UserID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("chat user signed in", "user_id", req.UserID, "kind", req.Kind)
	middleware.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Kind:      string(sess.Binding.Kind),
		SubjectID: sess.Binding.SubjectID(),
		Name:      sess.Binding.DisplayName(),
		UserID:    req.UserID,
	})
}

// AuthStatus handles GET /admin/auth-status?user_id=.
func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	resp := AuthStatusResponse{Success: true, UserID: userID}

	sess, err := h.store.Get(r.Context(), userID)
	if errors.Is(err, session.ErrNotFound) {
		middleware.WriteJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		h.logger.Error("load session for auth status", "user_id", userID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp.HasExternalSession = sess.HasExternalSession
	resp.IsAuthenticated = h.bridge.IsValid(sess)
	if b := sess.Binding; b != nil {
		bound := b.BoundAt
		resp.Kind = string(b.Kind)
		resp.SubjectID = b.SubjectID()
		resp.Name = b.DisplayName()
		resp.AuthType = b.AuthType
		resp.BoundAt = &bound
		resp.AgeSeconds = int64(h.bridge.Age(sess).Seconds())
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /admin/sessions/{userID}.
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}
	unlock := h.locker.Lock(userID)
	defer unlock()

	if err := h.store.Delete(r.Context(), userID); err != nil {
		h.logger.Error("delete session", "user_id", userID, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.logger.Info("session deleted by admin", "user_id", userID, "admin", middleware.AdminSubject(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

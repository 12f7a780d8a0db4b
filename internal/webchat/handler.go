// Package webchat is the chat transport: the POST /chat JSON endpoint and a
// WebSocket endpoint that carry menu selections to the dispatcher.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/health-erp-chatbot/internal/chat"
	"github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/internal/menu"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

const (
	errUserRequired  = "User ID is required"
	errInternal      = "Internal server error"
	internalFollowUp = "Please try again or contact support if the problem persists."
	maxBodyBytes     = 1 << 20
)

// Free-text symptoms travel in selected_option, so the cap is generous.
const maxOptionLength = 2000

// Dispatcher answers chat turns.
type Dispatcher interface {
	Respond(ctx context.Context, req chat.Request) (chat.Reply, error)
}

// Handler serves chat over HTTP and WebSocket.
type Handler struct {
	dispatcher Dispatcher
	logger     *logging.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]map[*wsConn]struct{} // userID -> open sockets
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.JSON.Send(c.conn, v)
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	UserID         string               `json:"user_id" validate:"required,max=128"`
	SelectedOption string               `json:"selected_option" validate:"max=2000"`
	AdditionalData map[string]any       `json:"additional_data,omitempty"`
	SessionData    *session.SessionData `json:"session_data,omitempty"`
	SessionID      string               `json:"session_id,omitempty"`
}

// ChatResponse is the POST /chat success body.
type ChatResponse struct {
	Success            bool          `json:"success"`
	Response           menu.Response `json:"response"`
	Timestamp          string        `json:"timestamp"`
	UserID             string        `json:"user_id"`
	SessionID          string        `json:"session_id"`
	HasExternalSession bool          `json:"has_external_session"`
}

// InboundFrame is what a WebSocket client sends.
type InboundFrame struct {
	Type           string               `json:"type"` // "message", "ping"
	SelectedOption string               `json:"selected_option" validate:"max=2000"`
	SessionData    *session.SessionData `json:"session_data,omitempty"`
}

// OutboundFrame is what the server sends over WebSocket.
type OutboundFrame struct {
	Type               string         `json:"type"` // "session", "response", "pong", "error"
	Response           *menu.Response `json:"response,omitempty"`
	UserID             string         `json:"user_id,omitempty"`
	SessionID          string         `json:"session_id,omitempty"`
	HasExternalSession bool           `json:"has_external_session,omitempty"`
	Error              string         `json:"error,omitempty"`
	Timestamp          string         `json:"timestamp,omitempty"`
}

// NewHandler creates a chat handler.
func NewHandler(dispatcher Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		sessions:   make(map[string]map[*wsConn]struct{}),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleChat answers POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("webchat: panic while handling chat", "panic", rec)
			writeInternal(w)
		}
	}()

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := middleware.ValidateStruct(req); err != nil {
		if req.UserID == "" {
			middleware.WriteError(w, http.StatusBadRequest, errUserRequired)
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, middleware.FirstValidationError(err))
		return
	}

	reply, err := h.dispatcher.Respond(r.Context(), toDispatchRequest(req.UserID, req.SelectedOption, req.SessionData))
	if err != nil {
		if errors.Is(err, chat.ErrMissingUser) {
			middleware.WriteError(w, http.StatusBadRequest, errUserRequired)
			return
		}
		h.logger.Error("webchat: dispatch failed", "user_id", req.UserID, "error", err)
		writeInternal(w)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	resp := ChatResponse{
		Success:            true,
		Response:           reply.Response,
		Timestamp:          h.now().UTC().Format(time.RFC3339),
		UserID:             req.UserID,
		SessionID:          sessionID,
		HasExternalSession: reply.HasExternalSession,
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
	h.mirror(req.UserID, sessionID, reply)
}

// HandleInfo answers GET /chat with a description of the API.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"service": "Health ERP Chatbot API",
		"endpoints": map[string]string{
			"POST /chat":          "send a menu selection: {user_id, selected_option, session_data}",
			"GET /chat/ws?user=":  "WebSocket chat",
			"POST /auth/login":    "sign in a patient or doctor for a chat user",
			"GET /health":         "service health",
			"GET /appointments/*": "patient appointments",
		},
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// ActiveConnections is the number of open WebSocket connections.
func (h *Handler) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.sessions {
		n += len(conns)
	}
	return n
}

// HandleWebSocket upgrades to WebSocket and serves chat frames.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user"))
	if userID == "" {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Error: errUserRequired})
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	// Hijacked connections keep the server's read/write deadlines.
	_ = conn.SetDeadline(time.Time{})

	wsc := &wsConn{conn: conn}
	h.register(userID, wsc)
	defer h.unregister(userID, wsc)

	_ = wsc.send(OutboundFrame{Type: "session", UserID: userID, SessionID: sessionID})
	h.logger.Info("webchat: connection opened", "user_id", userID, "session_id", sessionID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("webchat: connection closed", "user_id", userID, "error", err)
			return
		}
		switch frame.Type {
		case "ping":
			_ = wsc.send(OutboundFrame{Type: "pong"})
		case "message":
			if err := middleware.ValidateStruct(frame); err != nil {
				_ = wsc.send(OutboundFrame{Type: "error", Error: middleware.FirstValidationError(err)})
				continue
			}
			_ = wsc.send(h.processFrame(r.Context(), userID, sessionID, frame))
		}
	}
}

func (h *Handler) processFrame(ctx context.Context, userID, sessionID string, frame InboundFrame) (out OutboundFrame) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("webchat: panic while handling frame", "user_id", userID, "panic", rec)
			out = OutboundFrame{Type: "error", Error: errInternal}
		}
	}()

	reply, err := h.dispatcher.Respond(ctx, toDispatchRequest(userID, frame.SelectedOption, frame.SessionData))
	if err != nil {
		h.logger.Error("webchat: dispatch failed", "user_id", userID, "error", err)
		return OutboundFrame{Type: "error", Error: errInternal}
	}
	return responseFrame(userID, sessionID, reply, h.now())
}

func (h *Handler) register(userID string, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[userID]
	if !ok {
		conns = make(map[*wsConn]struct{})
		h.sessions[userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Handler) unregister(userID string, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.sessions[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.sessions, userID)
		}
	}
}

func writeInternal(w http.ResponseWriter) {
	middleware.WriteJSON(w, http.StatusInternalServerError, middleware.ErrorBody{
		Success: false,
		Error:   errInternal,
		Message: internalFollowUp,
	})
}

package webchat

import (
	"strings"
	"time"

	"github.com/wolfman30/health-erp-chatbot/internal/chat"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
)

// toDispatchRequest leaves the option as typed. The dispatcher decides
// whether blank input means the main menu or a free-text re-prompt.
func toDispatchRequest(userID, option string, data *session.SessionData) chat.Request {
	return chat.Request{UserID: strings.TrimSpace(userID), SelectedOption: option, SessionData: data}
}

func responseFrame(userID, sessionID string, reply chat.Reply, now time.Time) OutboundFrame {
	resp := reply.Response
	return OutboundFrame{
		Type:               "response",
		Response:           &resp,
		UserID:             userID,
		SessionID:          sessionID,
		HasExternalSession: reply.HasExternalSession,
		Timestamp:          now.UTC().Format(time.RFC3339),
	}
}

// mirror pushes an HTTP reply to the user's open WebSocket connections so
// other tabs stay in step with the conversation.
func (h *Handler) mirror(userID, sessionID string, reply chat.Reply) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.sessions[userID]))
	for c := range h.sessions[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	frame := responseFrame(userID, sessionID, reply, h.now())
	for _, c := range conns {
		if err := c.send(frame); err != nil {
			h.logger.Debug("webchat: mirror send failed", "user_id", userID, "error", err)
		}
	}
	h.logger.Debug("webchat: reply mirrored", "user_id", userID, "connections", len(conns))
}

package router

import (
	"context"
	"net/http"
	"time"

	httpmiddleware "github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

const (
	serviceName        = "Health ERP Chatbot API"
	deepCheckTimeout   = 5 * time.Second
	defaultServiceVers = "2.0.0"
)

// Pinger checks an upstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	version     string
	env         string
	startedAt   time.Time
	upstream    Pinger
	connections func() int
	logger      *logging.Logger
	now         func() time.Time
}

type healthResponse struct {
	Status            string  `json:"status"`
	Service           string  `json:"service"`
	Version           string  `json:"version"`
	Environment       string  `json:"environment,omitempty"`
	Timestamp         string  `json:"timestamp"`
	Uptime            float64 `json:"uptime"`
	ActiveConnections int     `json:"active_connections"`
	Upstream          string  `json:"upstream,omitempty"`
}

func newHealthHandler(cfg *Config) *healthHandler {
	h := &healthHandler{
		version:   cfg.Version,
		env:       cfg.Env,
		startedAt: cfg.StartedAt,
		upstream:  cfg.Upstream,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if h.version == "" {
		h.version = defaultServiceVers
	}
	if h.startedAt.IsZero() {
		h.startedAt = h.now()
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}
	if cfg.Chat != nil {
		h.connections = cfg.Chat.ActiveConnections
	}
	return h
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := healthResponse{
		Status:      "healthy",
		Service:     serviceName,
		Version:     h.version,
		Environment: h.env,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Uptime:      now.Sub(h.startedAt).Seconds(),
	}
	if h.connections != nil {
		resp.ActiveConnections = h.connections()
	}

	status := http.StatusOK
	if r.URL.Query().Get("deep") == "1" && h.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), deepCheckTimeout)
		defer cancel()
		if err := h.upstream.Ping(ctx); err != nil {
			h.logger.Warn("upstream health check failed", "error", err)
			resp.Status = "degraded"
			resp.Upstream = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Upstream = "ok"
		}
	}
	httpmiddleware.WriteJSON(w, status, resp)
}

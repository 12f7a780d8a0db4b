package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/health-erp-chatbot/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/health-erp-chatbot/internal/http/middleware"
	"github.com/wolfman30/health-erp-chatbot/internal/webchat"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger    *logging.Logger
	Version   string
	StartedAt time.Time
	Env       string

	Chat          *webchat.Handler
	Auth          *handlers.AuthHandler
	Patient       *handlers.PatientHandler
	AdminBookings *handlers.AdminBookingsHandler

	// Upstream is pinged by /health?deep=1 when set.
	Upstream Pinger

	AdminAuthSecret      string
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	health := newHealthHandler(cfg)

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", health.ServeHTTP)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Chat and proxy endpoints share the per-IP limiter.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(cfg.RateLimitMaxRequests, cfg.RateLimitWindow))

		if cfg.Chat != nil {
			api.Route("/chat", func(r chi.Router) {
				r.Post("/", cfg.Chat.HandleChat)
				r.Get("/", cfg.Chat.HandleInfo)
				r.Get("/ws", cfg.Chat.HandleWebSocket)
			})
		}
		if cfg.Auth != nil {
			api.Post("/auth/login", cfg.Auth.Login)
		}
		if cfg.Patient != nil {
			api.Get("/appointments/{patientID}", cfg.Patient.ListAppointments)
			api.Post("/appointments", cfg.Patient.CreateAppointment)
			api.Get("/patient/{patientID}", cfg.Patient.GetPatient)
		}
	})

	// Admin routes (protected by HS256 JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.Auth != nil {
				admin.Get("/auth-status", cfg.Auth.AuthStatus)
				admin.Delete("/sessions/{userID}", cfg.Auth.DeleteSession)
			}
			if cfg.AdminBookings != nil {
				admin.Get("/bookings/attempts", cfg.AdminBookings.ListAttempts)
			}
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteJSON(w, http.StatusNotFound, httpmiddleware.ErrorBody{
			Error:   "Endpoint not found",
			Message: "Please check the API documentation",
		})
	})

	return r
}

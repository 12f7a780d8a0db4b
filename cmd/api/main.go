package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/health-erp-chatbot/internal/api/router"
	"github.com/wolfman30/health-erp-chatbot/internal/booking"
	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	"github.com/wolfman30/health-erp-chatbot/internal/chat"
	appconfig "github.com/wolfman30/health-erp-chatbot/internal/config"
	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/http/handlers"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/internal/webchat"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

const version = "2.0.0"

func main() {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting health-erp-chatbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
	)
	startedAt := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsHandler, chatMetrics := setupMetrics()

	// Sessions
	store, sweeper, err := setupSessionStore(ctx, cfg, logger, chatMetrics)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	bridge := session.NewBridge(cfg.ExternalSessionMaxAge, logger)
	locker := session.NewLocker()

	// Booking ledger and admin report
	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	ledger := setupLedger(pool, logger)
	reportDB := openReportDB(cfg.DatabaseURL, logger)
	if reportDB != nil {
		defer reportDB.Close()
	}

	// Remote healthcare API
	api := healthapi.NewClient(healthapi.Options{
		BaseURL: cfg.HealthAPIURL,
		APIKey:  cfg.HealthAPIKey,
		Token:   cfg.HealthAPIToken,
		Timeout: cfg.HealthAPITimeout,
		RPS:     cfg.HealthAPIRPS,
		Logger:  logger,
		Metrics: chatMetrics,
	})

	controller := booking.NewController(api, ledger, booking.Config{
		Location:          cfg.Location(),
		PlaceholderDrafts: cfg.BookingPlaceholderDrafts,
	}, logger, chatMetrics)

	dispatcher := chat.NewDispatcher(chat.Options{
		Store:   store,
		Bridge:  bridge,
		Locker:  locker,
		API:     api,
		Booking: controller,
		Logger:  logger,
		Metrics: chatMetrics,
	})

	// Initialize handlers
	routerCfg := &router.Config{
		Logger:               logger,
		Version:              version,
		StartedAt:            startedAt,
		Env:                  cfg.Env,
		Chat:                 webchat.NewHandler(dispatcher, logger),
		Auth:                 handlers.NewAuthHandler(api, store, bridge, locker, logger),
		Patient:              handlers.NewPatientHandler(api, ledger, logger),
		Upstream:             api,
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       metricsHandler,
		CORSAllowedOrigins:   cfg.CORSOrigins,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitWindow:      cfg.RateLimitWindow,
	}
	var report handlers.AttemptLister
	if reportDB != nil {
		report = bookings.NewReport(reportDB)
	}
	routerCfg.AdminBookings = handlers.NewAdminBookingsHandler(report, logger)
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()
	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

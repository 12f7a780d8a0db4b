package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/wolfman30/health-erp-chatbot/internal/bookings"
	appconfig "github.com/wolfman30/health-erp-chatbot/internal/config"
	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
	"github.com/wolfman30/health-erp-chatbot/internal/session"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewChatMetrics(registry)
}

// setupSessionStore returns the configured store. The cron sweeper is only
// started for the in-memory backend; Redis expires keys itself.
func setupSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.ChatMetrics) (session.Store, *cron.Cron, error) {
	switch cfg.SessionBackend {
	case "", "memory":
		store := session.NewMemoryStore(cfg.SessionMaxEntries, cfg.SessionTTL, session.WithMetrics(m))
		sweeper := startSessionSweeper(cfg.SessionSweepSpec, store, logger)
		return store, sweeper, nil
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("redis session store connected", "addr", cfg.RedisAddr)
		return session.NewRedisStore(client, cfg.SessionTTL, nil), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}
}

type sweeper interface {
	Sweep() int
}

func startSessionSweeper(spec string, store sweeper, logger *logging.Logger) *cron.Cron {
	job := func() {
		if n := store.Sweep(); n > 0 {
			logger.Debug("expired sessions swept", "count", n)
		}
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		logger.Warn("invalid session sweep spec; falling back to @every 5m", "spec", spec, "error", err)
		c = cron.New()
		_, _ = c.AddFunc("@every 5m", job)
	}
	c.Start()
	return c
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		logger.Info("DATABASE_URL not set; booking attempts kept in memory")
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func setupLedger(pool *pgxpool.Pool, logger *logging.Logger) bookings.Recorder {
	if pool == nil {
		return bookings.NewMemoryLedger()
	}
	return bookings.NewLedger(bookings.NewRepository(pool), logger)
}

func openReportDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open report database", "error", err)
		return nil
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}

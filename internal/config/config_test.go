package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "HEALTH_API_URL", "HEALTH_API_TIMEOUT", "SESSION_BACKEND", "CORS_ORIGIN", "BOOKING_PLACEHOLDER_DRAFTS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.HealthAPITimeout != 10*time.Second {
		t.Fatalf("expected 10s upstream timeout, got %s", cfg.HealthAPITimeout)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory session backend, got %s", cfg.SessionBackend)
	}
	if cfg.ExternalSessionMaxAge != 24*time.Hour {
		t.Fatalf("expected 24h external session age, got %s", cfg.ExternalSessionMaxAge)
	}
	if cfg.RateLimitWindow != 15*time.Minute || cfg.RateLimitMaxRequests != 100 {
		t.Fatalf("unexpected rate limit defaults: %s/%d", cfg.RateLimitWindow, cfg.RateLimitMaxRequests)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors default: %v", cfg.CORSOrigins)
	}
	if cfg.BookingPlaceholderDrafts {
		t.Fatalf("expected placeholder drafts disabled by default")
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local booking timezone by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("HEALTH_API_URL", "https://erp.example.com/api/")
	t.Setenv("HEALTH_API_TIMEOUT", "3s")
	t.Setenv("HEALTH_API_RPS", "12.5")
	t.Setenv("CORS_ORIGIN", "https://a.example.com, ,https://b.example.com")
	t.Setenv("SESSION_BACKEND", " Redis ")
	t.Setenv("SESSION_MAX_ENTRIES", "25")
	t.Setenv("BOOKING_TIMEZONE", "America/New_York")
	t.Setenv("BOOKING_PLACEHOLDER_DRAFTS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.HealthAPIURL != "https://erp.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.HealthAPIURL)
	}
	if cfg.HealthAPITimeout != 3*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HealthAPITimeout)
	}
	if cfg.HealthAPIRPS != 12.5 {
		t.Fatalf("expected rps override, got %v", cfg.HealthAPIRPS)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected redis backend, got %q", cfg.SessionBackend)
	}
	if cfg.SessionMaxEntries != 25 {
		t.Fatalf("expected max entries override, got %d", cfg.SessionMaxEntries)
	}
	if !cfg.BookingPlaceholderDrafts {
		t.Fatalf("expected placeholder drafts enabled")
	}
	if cfg.Location().String() != "America/New_York" {
		t.Fatalf("expected booking timezone override, got %s", cfg.Location())
	}
}

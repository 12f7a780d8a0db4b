package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Remote healthcare API
	HealthAPIURL     string
	HealthAPIKey     string
	HealthAPIToken   string
	HealthAPITimeout time.Duration
	HealthAPIRPS     float64

	// HTTP surface
	CORSOrigins          []string
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	AdminJWTSecret       string

	// Sessions
	SessionBackend        string
	SessionTTL            time.Duration
	SessionMaxEntries     int
	SessionSweepSpec      string
	ExternalSessionMaxAge time.Duration
	RedisAddr             string
	RedisPassword         string
	RedisTLS              bool

	// Booking
	BookingTimezone          string
	BookingPlaceholderDrafts bool

	DatabaseURL string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "3000"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		HealthAPIURL:     strings.TrimRight(getEnv("HEALTH_API_URL", "http://localhost:8000/api"), "/"),
		HealthAPIKey:     getEnv("HEALTH_API_KEY", ""),
		HealthAPIToken:   getEnv("HEALTH_API_TOKEN", ""),
		HealthAPITimeout: getEnvAsDuration("HEALTH_API_TIMEOUT", 10*time.Second),
		HealthAPIRPS:     getEnvAsFloat("HEALTH_API_RPS", 0),

		CORSOrigins:          getEnvAsList("CORS_ORIGIN", []string{"http://localhost:3000"}),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),

		SessionBackend:        strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:            getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionMaxEntries:     getEnvAsInt("SESSION_MAX_ENTRIES", 10000),
		SessionSweepSpec:      getEnv("SESSION_SWEEP_SPEC", "@every 5m"),
		ExternalSessionMaxAge: getEnvAsDuration("EXTERNAL_SESSION_MAX_AGE", 24*time.Hour),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisTLS:              getEnvAsBool("REDIS_TLS", false),

		BookingTimezone:          getEnv("BOOKING_TIMEZONE", "Local"),
		BookingPlaceholderDrafts: getEnvAsBool("BOOKING_PLACEHOLDER_DRAFTS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

// Location resolves BookingTimezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.BookingTimezone == "" || strings.EqualFold(c.BookingTimezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.BookingTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

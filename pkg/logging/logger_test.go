package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger.Logger == nil {
		t.Fatal("Default() returned Logger with nil slog.Logger")
	}

	logger2 := Default()
	if logger == logger2 {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithWriterFormats(t *testing.T) {
	var jsonBuf bytes.Buffer
	NewWithWriter("info", "json", &jsonBuf).Info("chat request", "user_id", "u-1")

	var entry map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", jsonBuf.String(), err)
	}
	if entry["user_id"] != "u-1" {
		t.Fatalf("expected user_id attribute, got %v", entry["user_id"])
	}

	var textBuf bytes.Buffer
	NewWithWriter("info", "text", &textBuf).With("component", "booking").Info("draft created")
	if !strings.Contains(textBuf.String(), "component=booking") {
		t.Fatalf("expected text output with component attr, got %q", textBuf.String())
	}
}

package observability

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// initQuiet initializes the logger with stdout redirected so test
// output stays readable.
func initQuiet(t *testing.T, level, format string) {
	t.Helper()

	oldStdout := os.Stdout
	_, w, _ := os.Pipe()
	os.Stdout = w

	InitLogger(level, format)

	w.Close()
	os.Stdout = oldStdout
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"json_info", "info", "json"},
		{"text_info", "info", "text"},
		{"json_debug", "debug", "json"},
		{"unknown_format_falls_back_to_text", "info", "logfmt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initQuiet(t, tt.level, tt.format)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown", "unknown", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
		{"uppercase_defaults_to_info", "DEBUG", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestFromContext(t *testing.T) {
	initQuiet(t, "info", "text")

	t.Run("empty_context_returns_base_logger", func(t *testing.T) {
		result := FromContext(context.Background())
		assert.NotNil(t, result)
		assert.Equal(t, logger, result)
	})

	t.Run("request_id_produces_derived_logger", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		result := FromContext(ctx)
		assert.NotNil(t, result)
		assert.NotEqual(t, logger, result)
	})

	t.Run("user_id_produces_derived_logger", func(t *testing.T) {
		ctx := WithUserID(context.Background(), "user-1")
		result := FromContext(ctx)
		assert.NotNil(t, result)
		assert.NotEqual(t, logger, result)
	})

	t.Run("empty_values_are_ignored", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "")
		result := FromContext(ctx)
		assert.Equal(t, logger, result)
	})
}

func TestFromContext_UninitializedLogger(t *testing.T) {
	saved := logger
	logger = nil
	defer func() { logger = saved }()

	result := FromContext(context.Background())
	assert.NotNil(t, result, "uninitialized logger must fall back to the default")
}

package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError(ErrCodeEmbeddingFailed, "embedding provider unreachable", cause)

	wrapped := fmt.Errorf("scoring: %w", err)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError to be found through wrapping")
	}
	if appErr.Type != ErrorTypeNetwork {
		t.Errorf("expected type %q, got %q", ErrorTypeNetwork, appErr.Type)
	}
	if !HasCode(wrapped, ErrCodeEmbeddingFailed) {
		t.Error("expected HasCode to match through wrapping")
	}
	if HasCode(wrapped, ErrCodeCircuitOpen) {
		t.Error("HasCode matched the wrong code")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"info", "info", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"invalid", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLogErrorIncludesAppErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, &buf)

	err := NewValidationError(ErrCodeInvalidRequest, "resume text is required", nil).
		WithContext("field", "resumeText")
	logger.LogError(err, "request rejected")

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if entry["error_code"] != ErrCodeInvalidRequest {
		t.Errorf("expected error_code %q, got %v", ErrCodeInvalidRequest, entry["error_code"])
	}
	if entry["field"] != "resumeText" {
		t.Errorf("expected context field to be logged, got %v", entry["field"])
	}
}

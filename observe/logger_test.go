package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, buffer is empty")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

// TestLogger_InfoProducesJSON verifies the basic entry shape.
func TestLogger_InfoProducesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "call completed", Field{Key: "duration_ms", Value: 12.0})

	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "call completed" {
		t.Errorf("expected msg 'call completed', got %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
	if entry["duration_ms"] != 12.0 {
		t.Errorf("expected duration_ms 12, got %v", entry["duration_ms"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "kept")
	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "kept" {
		t.Errorf("expected warn entry, got %v", entry["msg"])
	}
}

// TestLogger_WithResource verifies resource context is attached to entries.
func TestLogger_WithResource(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	scoped := logger.WithResource(ResourceMeta{Name: "orders", Kind: "http", Version: "v2"})
	scoped.Info(context.Background(), "guarded call completed")

	entry := decodeLogLine(t, &buf)
	if entry["resource"] != "http.orders" {
		t.Errorf("expected resource 'http.orders', got %v", entry["resource"])
	}
	if entry["resource_kind"] != "http" {
		t.Errorf("expected resource_kind 'http', got %v", entry["resource_kind"])
	}
	if entry["resource_version"] != "v2" {
		t.Errorf("expected resource_version 'v2', got %v", entry["resource_version"])
	}
}

// TestLogger_WithResourceDoesNotMutateParent verifies scoping is copy-on-write.
func TestLogger_WithResourceDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithResource(ResourceMeta{Name: "orders"})
	logger.Info(context.Background(), "unscoped")

	entry := decodeLogLine(t, &buf)
	if _, ok := entry["resource"]; ok {
		t.Errorf("parent logger picked up resource context: %v", entry)
	}
}

// TestLogger_Redaction verifies credential fields are redacted.
func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "auth",
		Field{Key: "token", Value: "s3cret"},
		Field{Key: "password", Value: "hunter2"},
		Field{Key: "attempt", Value: 1},
	)

	entry := decodeLogLine(t, &buf)
	if entry["token"] != "[REDACTED]" {
		t.Errorf("expected token redacted, got %v", entry["token"])
	}
	if entry["password"] != "[REDACTED]" {
		t.Errorf("expected password redacted, got %v", entry["password"])
	}
	if entry["attempt"] != 1.0 {
		t.Errorf("expected attempt passed through, got %v", entry["attempt"])
	}
}

// TestParseLogLevel covers the level round trip.
func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLogLevel(tc.in); got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if LevelWarn.String() != "warn" {
		t.Errorf("LevelWarn.String() = %q, want warn", LevelWarn.String())
	}
}

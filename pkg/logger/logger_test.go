package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContextAddsKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { defaultLogger = nil })

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, BookIDKey, "book-9")
	Info(ctx, "hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if record["request_id"] != "req-1" {
		t.Fatalf("request_id = %v", record["request_id"])
	}
	if record["book_id"] != "book-9" {
		t.Fatalf("book_id = %v", record["book_id"])
	}
	if _, ok := record["trace_id"]; ok {
		t.Fatalf("trace_id should be absent when not set")
	}
}

func TestErrorAppendsErrorField(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")
	t.Cleanup(func() { defaultLogger = nil })

	Error(context.Background(), "failed", errString("boom"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["error"] != "boom" {
		t.Fatalf("error field = %v", record["error"])
	}
}

type errString string

func (e errString) Error() string { return string(e) }

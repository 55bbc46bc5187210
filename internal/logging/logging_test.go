package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("slot", "preloaded")).Warn(context.Background(), "reload failed",
		Int("nodes", 3),
		String("kept", "previous"),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "reload failed" || rec["level"] != "WARN" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["slot"] != "preloaded" || rec["nodes"] != float64(3) || rec["kept"] != "previous" {
		t.Fatalf("missing fields: %v", rec)
	}
	if rec["error"] != "boom" {
		t.Fatalf("error field = %v, want boom", rec["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	log.Error(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatalf("error not logged at warn level")
	}
}

func TestWithRequestLoggerReusesID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx, _ = WithRequestLogger(ctx, nil)
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}

	ctx2, _ := EnsureRequestID(context.Background())
	if RequestIDFromContext(ctx2) == "" {
		t.Fatalf("EnsureRequestID did not assign an id")
	}
}

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on bare context")
	}
	ctx := ContextWithLogger(context.Background(), nil)
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("ContextWithLogger(nil) should store Noop")
	}
}

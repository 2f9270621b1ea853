package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Warn("export.malformed_rating", map[string]any{
		"cv_id":    "cv-1",
		"skill_id": "SK2",
	})
	Error("export.failed", map[string]any{"error": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].Message != "export.malformed_rating" {
		t.Fatalf("unexpected first entry: %+v", entries[0].Entry)
	}
	ctx := entries[0].ContextMap()
	if ctx["cv_id"] != "cv-1" || ctx["skill_id"] != "SK2" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field, got %v", got)
	}
}

func TestSetLoggerRestores(t *testing.T) {
	original := L()
	restore := SetLogger(zap.NewNop())
	if L() == original {
		t.Fatalf("expected logger to be replaced")
	}
	restore()
	if L() != original {
		t.Fatalf("expected logger to be restored")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestInitBuildsLogger(t *testing.T) {
	restore := SetLogger(L())
	defer restore()

	if err := Init("production", "warn"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if L().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled at warn level")
	}
}

package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env, "matchdex-api")
		if err != nil {
			t.Fatalf("NewLogger(%q): %v", env, err)
		}
		_ = l.Sync()
	}
	if _, err := NewLogger("staging", "matchdex-api"); err == nil {
		t.Error("unknown environment must fail")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "matchdex-api", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn must be enabled")
	}

	if _, err := NewLogger("prod", "matchdex-api", "loud"); err == nil {
		t.Error("invalid level must fail")
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}
	fallback := zap.NewNop()
	if FromContextOr(context.Background(), fallback) != fallback {
		t.Error("missing logger must yield the fallback")
	}

	ctx := ContextWithLogger(context.Background(), base)
	ctx = With(ctx, zap.String("actor_id", "u1"))
	FromContext(ctx).Info("served")

	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["actor_id"] != "u1" {
		t.Errorf("entries = %+v", entries)
	}

	if got := With(context.Background(), zap.String("k", "v")); got != context.Background() {
		t.Error("With without a stored logger must return ctx unchanged")
	}
}

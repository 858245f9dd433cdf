package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{zl: zap.New(core)}, logs
}

func TestLoggerEmitsStructuredFields(t *testing.T) {
	log, logs := observedLogger(t)

	log.Error("store write failed", zap.Error(errors.New("connection refused")), zap.String("token", "tok-1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Message != "store write failed" {
		t.Errorf("message = %q", entry.Message)
	}
	fields := entry.ContextMap()
	if fields["error"] != "connection refused" {
		t.Errorf("error field = %v, want connection refused", fields["error"])
	}
	if fields["token"] != "tok-1" {
		t.Errorf("token field = %v, want tok-1", fields["token"])
	}
}

func TestLoggerLevels(t *testing.T) {
	log, logs := observedLogger(t)

	log.Debug("d")
	log.Info("i", zap.Int("n", 1))
	log.Warn("w")
	log.Error("e")

	if got := len(logs.All()); got != 4 {
		t.Fatalf("got %d entries, want 4", got)
	}
	if logs.All()[1].ContextMap()["n"] != int64(1) {
		t.Errorf("info entry missing structured field")
	}
}

func TestLoggerWith(t *testing.T) {
	log, logs := observedLogger(t)

	log.With(zap.String("service", "fnl")).Info("ready")

	entry := logs.All()[0]
	if entry.ContextMap()["service"] != "fnl" {
		t.Errorf("With() field not carried: %v", entry.ContextMap())
	}
}

package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNamedLoggers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(*zap.Logger) *zap.Logger
		key   string
		value string
	}{
		{name: "workflow", build: func(l *zap.Logger) *zap.Logger { return WithWorkflow(l, "admin") }, key: FieldWorkflow, value: "admin"},
		{name: "component", build: func(l *zap.Logger) *zap.Logger { return WithComponent(l, "session") }, key: FieldComponent, value: "session"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, observed := observer.New(zapcore.DebugLevel)
			tt.build(zap.New(core)).Info("loaded")

			entries := observed.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if got := entries[0].ContextMap()[tt.key]; got != tt.value {
				t.Fatalf("expected %s=%s, got %v", tt.key, tt.value, got)
			}

			// A nil logger must still be usable.
			tt.build(nil).Info("dropped")
		})
	}
}

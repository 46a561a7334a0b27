package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerDefaultsToDiscard(t *testing.T) {
	SetLogger(nil)
	l := Logger()
	assert.NotNil(t, l)
	l.Info("dropped")
}

func TestSetLoggerCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(New(&buf, slog.LevelInfo))
	defer SetLogger(nil)

	Logger().Debug("hidden")
	Logger().Info("extracted", "record", "gabapentin")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "record=gabapentin")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" error ", slog.LevelError},
		{"warn", slog.LevelWarn},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

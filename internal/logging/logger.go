// Package logging holds the *slog.Logger shared by the extraction and lookup
// engines. Until SetLogger is called every message is discarded, so library
// callers get silence by default and the binary opts in from main.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// EnvLevel names the environment variable read by main to pick a level.
const EnvLevel = "PICKUP_LOG_LEVEL"

var logger atomic.Pointer[slog.Logger]

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger replaces the package logger. Passing nil restores the discard logger.
// Safe for concurrent use.
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = newDiscardLogger()
	}
	logger.Store(sl)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.Store(l)
	}
	return l
}

// ParseLevel maps debug/info/warn/error (any case) to a slog level.
// Unknown or empty values map to warn, which keeps stderr quiet for MCP clients.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New builds a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

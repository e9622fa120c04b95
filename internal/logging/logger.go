package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable read by FromEnv.
const EnvLevel = "HIVEMESH_LOG_LEVEL"

// LevelTrace sits below debug and enables every VM diagnostic.
const LevelTrace = slog.LevelDebug - 4

// levelOff is above every level the code emits.
const levelOff = slog.LevelError + 64

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout flow UI/JSON-RPC).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog level. The boolean is false for
// empty or unknown names, in which case info is returned.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "diagnostics":
		return LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "disabled", "off", "none":
		return levelOff, true
	default:
		return slog.LevelInfo, false
	}
}

// FromEnv builds a logger from HIVEMESH_LOG_LEVEL, falling back to fallback
// when the variable is unset or unknown.
func FromEnv(fallback slog.Level) *slog.Logger {
	level, ok := ParseLevel(os.Getenv(EnvLevel))
	if !ok {
		level = fallback
	}
	return New(level)
}

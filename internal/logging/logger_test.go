package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{" WARN ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"trace", LevelTrace, true},
		{"off", levelOff, true},
		{"", slog.LevelInfo, false},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestNewWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, slog.LevelInfo).Info("boom", "error", errors.New("bad"))

	assert.Contains(t, buf.String(), "err=bad")
	assert.NotContains(t, buf.String(), "error=")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	logger := FromEnv(slog.LevelDebug)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

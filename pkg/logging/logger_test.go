package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" INFO ", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseLevel(c.in), "in=%q", c.in)
	}
}

func TestNew_RespectsLevelAcrossFormats(t *testing.T) {
	ctx := context.Background()

	for _, format := range []string{"json", "text", "bogus"} {
		logger := New("warn", format, "stderr")
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo), "format=%q", format)
		assert.True(t, logger.Enabled(ctx, slog.LevelWarn), "format=%q", format)
	}
}

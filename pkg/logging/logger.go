// Package logging builds the process-wide structured logger for the redirect
// and worker binaries. The configured format picks the handler: json (the
// default) emits JSON; text gets a tint handler, colorized when the
// destination is a terminal and plain when piped.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// New builds a slog.Logger from the logging config's level, format (json or
// text), and output (stdout or stderr). Unrecognized values degrade to
// info-level JSON on stderr rather than failing startup — a misconfigured
// logger that still logs beats no logger at all.
func New(level, format, output string) *slog.Logger {
	dest := os.Stderr
	if strings.EqualFold(strings.TrimSpace(output), "stdout") {
		dest = os.Stdout
	}

	lvl := parseLevel(level)

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		handler = tint.NewHandler(dest, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05.000",
			NoColor:    !term.IsTerminal(int(dest.Fd())),
		})
	default:
		handler = slog.NewJSONHandler(dest, &slog.HandlerOptions{Level: lvl})
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package logger configures the process-wide slog logger from the
// observability settings. Every component receives a *slog.Logger from
// here and scopes it with With.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures Setup.
type Options struct {
	// Level is the minimum level, parsed leniently ("debug", "info",
	// "warn", "error"). Unknown values fall back to info.
	Level string

	// Format selects JSON (default) or text output.
	Format Format

	// Output defaults to os.Stdout.
	Output io.Writer

	// AddSource annotates records with file:line of the call site.
	AddSource bool
}

// Setup builds the logger and installs it as the slog default, so
// library code that falls back to slog.Default ends up on the same
// handler.
func Setup(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
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

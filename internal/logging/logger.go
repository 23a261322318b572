package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction beyond the level.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	// File enables an additional JSON sink with size-based rotation.
	File string
}

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout CLI/JSON output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOptions(level)))
}

// NewWithOptions builds a logger from configuration values.
func NewWithOptions(opts Options) *slog.Logger {
	return newWithWriter(os.Stderr, opts)
}

func newWithWriter(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, handlerOptions(level))
	} else {
		console = slog.NewTextHandler(w, handlerOptions(level))
	}

	if strings.TrimSpace(opts.File) == "" {
		return slog.New(console)
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	file := slog.NewJSONHandler(rotating, handlerOptions(level))
	return slog.New(&fanout{handlers: []slog.Handler{console, file}})
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
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

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
}

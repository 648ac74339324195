package utils

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"salary-trends/models"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	l *slog.Logger
}

// LoggerOption configures NewLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level  slog.Level
	format string
	out    io.Writer
}

// WithLevel sets the minimum level: debug, info, warn or error.
func WithLevel(level string) LoggerOption {
	return func(o *loggerOptions) {
		o.level = ParseLevel(level)
	}
}

// WithFormat selects "text" or "json" output.
func WithFormat(format string) LoggerOption {
	return func(o *loggerOptions) {
		if format != "" {
			o.format = strings.ToLower(format)
		}
	}
}

// WithOutput redirects log output.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *loggerOptions) {
		if w != nil {
			o.out = w
		}
	}
}

// NewLogger creates a new Logger writing text to stderr at info level.
func NewLogger(opts ...LoggerOption) *Logger {
	o := &loggerOptions{level: slog.LevelInfo, format: "text", out: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == "json" {
		h = slog.NewJSONHandler(o.out, handlerOpts)
	} else {
		h = slog.NewTextHandler(o.out, handlerOpts)
	}
	return &Logger{l: slog.New(h)}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// With returns a Logger that adds args to every event.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l: l.l.With(args...)}
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.l
}

func (l *Logger) Info(msg string, args ...any) {
	l.l.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.l.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.l.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.l.Debug(msg, args...)
}

// Failure logs err at warn level. PipelineErrors contribute their stage and
// kind as attributes so skipped pairs can be filtered by failure kind.
func (l *Logger) Failure(msg string, err error, args ...any) {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		args = append(args, "stage", string(pe.Stage), "kind", string(pe.Kind))
		if pe.StatusCode != 0 {
			args = append(args, "status", pe.StatusCode)
		}
	}
	args = append(args, "error", err.Error())
	l.l.Warn(msg, args...)
}

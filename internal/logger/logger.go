// Package logger provides the structured logging interface used across
// spsync, backed by log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines the interface for structured logging with multiple levels,
// in simple and formatted variants.
type Logger interface {
	// Debug logs debug-level messages (lowest priority)
	Debug(msg string, args ...any)
	Debugf(format string, args ...any)

	// Info logs informational messages
	Info(msg string, args ...any)
	Infof(format string, args ...any)

	// Warn logs warning messages
	Warn(msg string, args ...any)
	Warnf(format string, args ...any)

	// Error logs error messages (highest priority)
	Error(msg string, args ...any)
	Errorf(format string, args ...any)

	// With returns a logger that adds args to every record
	With(args ...any) Logger
}

// NoopLogger is a logger that discards all log messages.
// It's useful for testing or when logging is completely disabled.
type NoopLogger struct{}

func (l NoopLogger) Debug(msg string, args ...any)     {}
func (l NoopLogger) Debugf(format string, args ...any) {}
func (l NoopLogger) Info(msg string, args ...any)      {}
func (l NoopLogger) Infof(format string, args ...any)  {}
func (l NoopLogger) Warn(msg string, args ...any)      {}
func (l NoopLogger) Warnf(format string, args ...any)  {}
func (l NoopLogger) Error(msg string, args ...any)     {}
func (l NoopLogger) Errorf(format string, args ...any) {}
func (l NoopLogger) With(args ...any) Logger           { return l }

// SlogLogger wraps Go's log/slog.Logger to implement our Logger interface.
// It provides structured logging with configurable levels and output formats.
type SlogLogger struct {
	logger *slog.Logger
}

// NewWithWriter creates a SlogLogger writing to w. format selects the "text"
// or "json" handler.
func NewWithWriter(w io.Writer, level slog.Level, format string) *SlogLogger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

// New builds the application logger from the configured level and format.
// debug forces the Debug level. Unknown levels fall back to Info.
func New(level, format string, debug bool) Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return NewWithWriter(os.Stderr, lvl, format)
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// With returns a logger that adds args to every record.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// Debug logs a debug-level message with optional structured attributes
func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Debugf logs a debug-level message with printf-style formatting
func (l *SlogLogger) Debugf(format string, args ...any) {
	l.logger.Debug(sprintf(format, args...))
}

// Info logs an info-level message with optional structured attributes
func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Infof logs an info-level message with printf-style formatting
func (l *SlogLogger) Infof(format string, args ...any) {
	l.logger.Info(sprintf(format, args...))
}

// Warn logs a warning-level message with optional structured attributes
func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Warnf logs a warning-level message with printf-style formatting
func (l *SlogLogger) Warnf(format string, args ...any) {
	l.logger.Warn(sprintf(format, args...))
}

// Error logs an error-level message with optional structured attributes
func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Errorf logs an error-level message with printf-style formatting
func (l *SlogLogger) Errorf(format string, args ...any) {
	l.logger.Error(sprintf(format, args...))
}

// sprintf is a helper function that safely formats strings using fmt.Sprintf
func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

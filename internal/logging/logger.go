// Package logging defines the logger used by the simulation engine.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a minimal logging interface for the simulation engine.
// Implementations should be fast; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger returns a Logger writing text records to w at the given level
// (debug, info, warn or error; anything else means info).
func NewSlogLogger(w io.Writer, level string) *SlogLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &SlogLogger{l: slog.New(handler)}
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) *SlogLogger { return &SlogLogger{l: l} }

func (s *SlogLogger) Debugf(format string, args ...any) { s.log(slog.LevelDebug, format, args) }
func (s *SlogLogger) Infof(format string, args ...any)  { s.log(slog.LevelInfo, format, args) }
func (s *SlogLogger) Warnf(format string, args ...any)  { s.log(slog.LevelWarn, format, args) }
func (s *SlogLogger) Errorf(format string, args ...any) { s.log(slog.LevelError, format, args) }

func (s *SlogLogger) log(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, fmt.Sprintf(format, args...))
}

// ParseLevel maps a level name to a slog level.
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

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

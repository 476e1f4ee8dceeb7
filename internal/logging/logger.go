// Package logging defines a minimal structured-logging interface used across
// the project, with slog and logrus backends.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported output formats.
const (
	FormatJSON   = "json"
	FormatText   = "text"
	FormatLogrus = "logrus"
)

// New builds a Logger writing to w in the given format ("json", "text" or
// "logrus") at the given level ("debug", "info", "warn", "error").
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return newSlog(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case FormatText:
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return newSlog(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case FormatLogrus:
		lvl, err := logrus.ParseLevel(orDefault(level, "info"))
		if err != nil {
			return nil, err
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return NewLogrusLogger(logrus.NewEntry(l)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return newSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func parseSlogLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(orDefault(level, "info"))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// slogLogger backs the json and text formats.
type slogLogger struct {
	l *slog.Logger
}

func newSlog(l *slog.Logger) *slogLogger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, msg, slices.Concat(args, traceArgs(ctx))...)
}

// traceArgs returns the trace_id and span_id of the span in ctx, so a cache
// warning can be matched with the repository span that produced it.
func traceArgs(ctx context.Context) []any {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []any{"trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String()}
}

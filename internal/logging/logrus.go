package logging

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to Logger.
type LogrusLogger struct {
	e *logrus.Entry
}

func NewLogrusLogger(e *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{e: e}
}

func (l *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.entry(ctx, args).Debug(msg)
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	l.entry(ctx, args).Info(msg)
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.entry(ctx, args).Warn(msg)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	l.entry(ctx, args).Error(msg)
}

func (l *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{e: l.e.WithFields(toFields(args))}
}

func (l *LogrusLogger) entry(ctx context.Context, args []any) *logrus.Entry {
	e := l.e.WithContext(ctx)
	if ids := traceArgs(ctx); ids != nil {
		args = slices.Concat(args, ids)
	}
	if len(args) > 0 {
		e = e.WithFields(toFields(args))
	}
	return e
}

// toFields turns slog-style key-value pairs into logrus fields.
// A dangling value is stored under "!BADKEY" like slog does.
func toFields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		v := args[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		f[key] = v
	}
	return f
}

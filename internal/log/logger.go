// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/airpartners/ade/internal/wallclock"
)

type (
	// Logger is a wrapper around an slog.Logger with additional helpers and nil
	// checking.
	Logger struct{ logger *slog.Logger }

	// Attrs represents an object that exposes extra slog attributes to log.
	Attrs interface {
		Attrs() []slog.Attr
	}
)

// Wrap the first non-nil slog logger. A Logger wrapping nothing discards all
// output.
func Wrap(loggers ...*slog.Logger) Logger {
	for _, l := range loggers {
		if l != nil {
			return Logger{l}
		}
	}
	return Logger{}
}

// With returns a Logger that adds the given attributes to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.logger == nil {
		return l
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return Logger{l.logger.With(args...)}
}

// Log is designed to build logging wrappers; it should not be called directly.
// See: https://pkg.go.dev/log/slog#hdr-Wrapping_output_methods
func (l Logger) Log(
	ctx context.Context,
	level slog.Level,
	msg string,
	attrs ...slog.Attr,
) {
	if l.logger == nil || !l.logger.Enabled(ctx, level) {
		return
	}

	now := wallclock.Instance.Now()
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(now, level, msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// Debug logs at debug level.
func (l Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs at info level.
func (l Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs at warning level.
func (l Logger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelWarn, msg, attrs...)
}

// Err logs an error with structured logging. Errors implementing Attrs
// contribute their own attributes after the provided ones.
func (l Logger) Err(
	ctx context.Context,
	msg string,
	err error,
	attrs ...slog.Attr,
) {
	attrs = append(attrs, slog.String("error", err.Error()))
	var a Attrs
	if errors.As(err, &a) {
		attrs = append(attrs, a.Attrs()...)
	}
	l.Log(ctx, slog.LevelError, msg, attrs...)
}

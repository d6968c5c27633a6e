// Package logging carries the request scoped slog logger through contexts so
// services, the semester lifecycle and the upstream client log with the
// request id and caller attached by the HTTP middleware.
package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}

// FromContextOr returns the context logger, then fallback, then slog.Default.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// With attaches attrs to the context logger, creating one from fallback when
// the context carries none.
func With(ctx context.Context, fallback *slog.Logger, attrs ...any) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	return ContextWithLogger(ctx, FromContextOr(ctx, fallback).With(attrs...))
}

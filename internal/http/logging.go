package http

import (
	"context"
	"log/slog"

	"github.com/example/clinic-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger to one handler operation.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logging.FromContextOr(ctx, fallback).With(append(pairs, attrs...)...)
}

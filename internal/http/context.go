package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/logging"
)

// Header names carrying the caller identity. The invoker header is the one
// the scheduled triggers send.
const (
	HeaderUserID        = "X-User-Id"
	HeaderInvokerUserID = "X-Invoker-User-Id"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the calling principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the calling principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger stores the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// callerID reads the caller identity headers. X-User-Id wins over the invoker header.
func callerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(HeaderInvokerUserID))
}

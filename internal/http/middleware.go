package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/logging"
)

// CallerIdentity attaches the principal named by the caller headers. Requests
// without an identity continue with an empty principal; services that need one
// report a validation error.
func CallerIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := application.Principal{UserID: callerID(r)}
			ctx := ContextWithPrincipal(r.Context(), principal)
			if principal.UserID != "" && LoggerFromContext(ctx) != nil {
				ctx = logging.With(ctx, nil, "caller_user_id", principal.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger stores a logger tagged with a request id in the request context.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallerIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "user header", headers: map[string]string{HeaderUserID: "user-1", HeaderInvokerUserID: "invoker"}, want: "user-1"},
		{name: "invoker fallback", headers: map[string]string{"x-invoker-user-id": " invoker "}, want: "invoker"},
		{name: "anonymous", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/plans", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			recorder := httptest.NewRecorder()

			var got string
			var found bool
			handler := CallerIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				principal, ok := PrincipalFromContext(r.Context())
				got, found = principal.UserID, ok
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(recorder, req)

			if !found {
				t.Fatalf("expected principal in request context")
			}
			if got != tc.want {
				t.Fatalf("expected principal %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCallerIdentity_TagsRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(CallerIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LoggerFromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/plans/p1", nil)
	req.Header.Set(HeaderUserID, "user-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if logs := buf.String(); !strings.Contains(logs, `"caller_user_id":"user-7"`) {
		t.Fatalf("expected caller id in logs, got %s", logs)
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Errorf("expected request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if recorder.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", recorder.Code)
	}
	logs := buf.String()
	for _, want := range []string{`"request_id":1`, `"path":"/healthz"`, `"status":418`, "request completed"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs, got %s", want, logs)
		}
	}
}

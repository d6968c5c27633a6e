package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/config"
	"github.com/example/clinic-scheduler/internal/testfixtures"
)

func newTestAPI(t *testing.T, cfg config.Config, now time.Time) (http.Handler, *testfixtures.SQLiteHarness) {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	if cfg.AgendaLocation == nil {
		cfg.AgendaLocation = time.UTC
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	handler, err := newAPIHandler(cfg, harness.Storage, testfixtures.NewClock(now).NowFunc(), logger)
	if err != nil {
		t.Fatalf("newAPIHandler returned error: %v", err)
	}
	return handler, harness
}

func do(t *testing.T, handler http.Handler, method, target, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-User-Id", "user-42")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	var out map[string]any
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, recorder.Body.String(), err)
		}
	}
	return recorder.Code, out
}

func TestAPIHandler_PlanLifecycle(t *testing.T) {
	handler, harness := newTestAPI(t, config.Config{}, testfixtures.ReferenceTime())
	graph := harness.SeedPlanGraph(t)

	planBody := func(start, end string) string {
		return fmt.Sprintf(`{"patient_id":%q,"professional_id":%q,"therapy_type_id":%q,"day_of_week":1,"start_time":%q,"end_time":%q}`,
			graph.Patient.ID, graph.Professional.ID, graph.TherapyType.ID, start, end)
	}

	status, body := do(t, handler, http.MethodPost, "/plans", planBody("09:00", "10:00"))
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	plan, _ := body["plan"].(map[string]any)
	if plan["created_by_user_id"] != "user-42" || plan["start_time"] != "09:00:00" {
		t.Fatalf("unexpected plan: %v", plan)
	}

	status, body = do(t, handler, http.MethodPost, "/plans", planBody("09:30", "10:30"))
	if status != http.StatusConflict || body["error_code"] != "SCHEDULE_CONFLICT" {
		t.Fatalf("expected schedule conflict, got %d: %v", status, body)
	}

	status, body = do(t, handler, http.MethodPost, "/plans", planBody("10:00", "11:00"))
	if status != http.StatusCreated {
		t.Fatalf("expected back-to-back plan to be accepted, got %d: %v", status, body)
	}

	status, body = do(t, handler, http.MethodGet, "/agenda?start=2025-03-03&end=2025-03-16", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	events, _ := body["events"].([]any)
	if len(events) != 4 {
		t.Fatalf("expected four events over two weeks, got %d", len(events))
	}
	first, _ := events[0].(map[string]any)
	wantTitle := fmt.Sprintf("Plano: %s - %s", graph.Patient.FullName, graph.Professional.Name)
	if first["title"] != wantTitle || first["start_utc"] != "2025-03-03T09:00:00Z" {
		t.Fatalf("unexpected first event: %v", first)
	}

	status, body = do(t, handler, http.MethodGet, "/occupancy", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	professionals, _ := body["professionals"].([]any)
	if len(professionals) != 1 {
		t.Fatalf("expected one professional, got %v", body)
	}
	record, _ := professionals[0].(map[string]any)
	if record["session_count"] != float64(2) || record["total_session_minutes"] != float64(120) {
		t.Fatalf("unexpected occupancy record: %v", record)
	}

	status, body = do(t, handler, http.MethodDelete, "/patients/"+graph.Patient.ID, "")
	if status != http.StatusConflict || body["error_code"] != "IN_USE" {
		t.Fatalf("expected patient in use, got %d: %v", status, body)
	}
}

func TestAPIHandler_BackupSemester(t *testing.T) {
	handler, harness := newTestAPI(t, config.Config{WarningDays: 10}, time.Date(2025, time.July, 3, 12, 0, 0, 0, time.UTC))
	harness.SeedPlan(t, harness.SeedPlanGraph(t))

	status, body := do(t, handler, http.MethodGet, "/semester/status", "")
	if status != http.StatusOK || body["state"] != "WARNING_WINDOW" {
		t.Fatalf("expected warning window, got %d: %v", status, body)
	}

	status, body = do(t, handler, http.MethodPost, "/backup-semester", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	// Every Monday from 2025-01-06 through 2025-06-30.
	if body["semestre"] != "2025-1" || body["eventos_count"] != float64(26) {
		t.Fatalf("unexpected backup response: %v", body)
	}

	status, body = do(t, handler, http.MethodPost, "/backup-semester", "")
	if status != http.StatusOK || body["message"] != "Backup already exists" {
		t.Fatalf("expected idempotent backup, got %d: %v", status, body)
	}

	status, body = do(t, handler, http.MethodGet, "/semester/status", "")
	if status != http.StatusOK || body["state"] != "BACKUP_DONE" || body["backup_exists"] != true {
		t.Fatalf("expected backup done, got %d: %v", status, body)
	}
}

func TestAPIHandler_FirstSemesterHasNothingToBackUp(t *testing.T) {
	handler, _ := newTestAPI(t, config.Config{FirstSemester: "2025-2"}, time.Date(2025, time.July, 3, 12, 0, 0, 0, time.UTC))

	status, body := do(t, handler, http.MethodPost, "/backup-semester", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["message"] != "No previous semester to backup (first semester of operation)" {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestAPIHandler_Healthz(t *testing.T) {
	handler, _ := newTestAPI(t, config.Config{}, testfixtures.ReferenceTime())

	if status, body := do(t, handler, http.MethodGet, "/healthz", ""); status != http.StatusOK || body["ok"] != true {
		t.Fatalf("unexpected health response %d: %v", status, body)
	}
}

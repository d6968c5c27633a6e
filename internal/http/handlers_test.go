package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/semester"
)

var testNow = func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }

type agendaStub struct {
	events []application.CalendarEvent
	err    error
	params application.AgendaParams
}

func (s *agendaStub) Generate(_ context.Context, params application.AgendaParams) ([]application.CalendarEvent, error) {
	s.params = params
	return s.events, s.err
}

type planStub struct {
	plans     []application.Plan
	listErr   error
	createErr error
	created   application.CreatePlanParams
	updated   application.UpdatePlanParams
}

func (s *planStub) CreatePlan(_ context.Context, params application.CreatePlanParams) (application.Plan, error) {
	s.created = params
	if s.createErr != nil {
		return application.Plan{}, s.createErr
	}
	return application.Plan{ID: "plan-new", CreatedByUserID: params.Principal.UserID, Active: true}, nil
}

func (s *planStub) UpdatePlan(_ context.Context, params application.UpdatePlanParams) (application.Plan, error) {
	s.updated = params
	return application.Plan{ID: params.PlanID}, nil
}

func (s *planStub) DeletePlan(context.Context, application.Principal, string) error { return nil }

func (s *planStub) GetPlan(_ context.Context, id string) (application.Plan, error) {
	return application.Plan{}, application.ErrNotFound
}

func (s *planStub) ListActivePlans(context.Context) ([]application.Plan, error) {
	return s.plans, s.listErr
}

type patientStub struct {
	deleteErr error
	lastList  application.ListOptions
}

func (s *patientStub) CreatePatient(_ context.Context, input application.PatientInput) (application.Patient, error) {
	return application.Patient{ID: "pat-1", FullName: input.FullName}, nil
}

func (s *patientStub) UpdatePatient(_ context.Context, id string, input application.PatientInput) (application.Patient, error) {
	return application.Patient{ID: id, FullName: input.FullName}, nil
}

func (s *patientStub) ListPatients(_ context.Context, opts application.ListOptions) ([]application.Patient, error) {
	s.lastList = opts
	return nil, nil
}

func (s *patientStub) DeletePatient(context.Context, string) error { return s.deleteErr }

type maintenanceStub struct {
	daily   semester.ProcedureResult
	purge   semester.ProcedureResult
	err     error
	backup  semester.BackupResult
	invoker string
}

func (s *maintenanceStub) GenerateFutureEvents(context.Context) (semester.ProcedureResult, error) {
	return s.daily, s.err
}

func (s *maintenanceStub) Purge(context.Context) (semester.ProcedureResult, error) {
	return s.purge, s.err
}

func (s *maintenanceStub) Backup(_ context.Context, invoker string) (semester.BackupResult, error) {
	s.invoker = invoker
	return s.backup, s.err
}

type semesterStub struct {
	report application.SemesterReport
	err    error
}

func (s semesterStub) Status(context.Context) (application.SemesterReport, error) {
	return s.report, s.err
}

func serve(handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", recorder.Body.String(), err)
	}
	return out
}

func TestAgendaHandler(t *testing.T) {
	t.Parallel()

	t.Run("sorts events by start", func(t *testing.T) {
		t.Parallel()
		stub := &agendaStub{events: []application.CalendarEvent{
			{Title: "late", Start: time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), SourcePlanID: "b"},
			{Title: "early", Start: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), SourcePlanID: "a"},
		}}
		router := NewRouter(RouterConfig{Agenda: NewAgendaHandler(stub, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/agenda?start=2025-03-03&end=2025-03-09", "", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if stub.params.Start != "2025-03-03" || stub.params.End != "2025-03-09" {
			t.Fatalf("unexpected params: %#v", stub.params)
		}

		var resp agendaResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Events) != 2 || resp.Events[0].Title != "early" || resp.Events[0].StartUTC != "2025-03-03T09:00:00Z" {
			t.Fatalf("unexpected events: %#v", resp.Events)
		}
	})

	t.Run("maps validation errors to 422", func(t *testing.T) {
		t.Parallel()
		stub := &agendaStub{err: &application.ValidationError{FieldErrors: map[string]string{"start": "campo obrigatório"}}}
		router := NewRouter(RouterConfig{Agenda: NewAgendaHandler(stub, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/agenda", "", nil)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		errs, _ := body["errors"].(map[string]any)
		if errs["start"] != "campo obrigatório" {
			t.Fatalf("expected start error, got %#v", body)
		}
	})

	t.Run("renders an iCalendar feed", func(t *testing.T) {
		t.Parallel()
		stub := &agendaStub{events: []application.CalendarEvent{
			{Title: "Plano: A - B", Start: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), SourcePlanID: "p"},
		}}
		router := NewRouter(RouterConfig{Agenda: NewAgendaHandler(stub, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/agenda.ics?start=2025-03-03&end=2025-03-03", "", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Fatalf("unexpected content type %q", ct)
		}
		if strings.Count(recorder.Body.String(), "BEGIN:VEVENT") != 1 {
			t.Fatalf("expected one VEVENT, got %s", recorder.Body.String())
		}
	})

	t.Run("renders an empty window as an empty calendar", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Agenda: NewAgendaHandler(&agendaStub{}, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/agenda.ics?start=2025-03-04&end=2025-03-04", "", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := recorder.Body.String()
		if !strings.HasPrefix(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "END:VCALENDAR") || strings.Contains(body, "BEGIN:VEVENT") {
			t.Fatalf("expected an empty calendar, got %s", body)
		}
	})
}

func TestResponder_HidesServerErrorDetails(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	newResponder(nil).writeError(context.Background(), recorder, http.StatusInternalServerError, errors.New("ical: failed to encode VCALENDAR"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if msg := decodeBody(t, recorder)["message"]; msg != msgInternal {
		t.Fatalf("expected generic message, got %v", msg)
	}

	recorder = httptest.NewRecorder()
	newResponder(nil).writeError(context.Background(), recorder, http.StatusBadRequest, errBadRequestBody)
	if msg := decodeBody(t, recorder)["message"]; msg != errBadRequestBody.Error() {
		t.Fatalf("expected client error text, got %v", msg)
	}
}

func TestPlanHandler(t *testing.T) {
	t.Parallel()

	t.Run("create forwards caller and maps conflicts to 409", func(t *testing.T) {
		t.Parallel()
		stub := &planStub{createErr: &application.ConflictError{PlanID: "other", Start: "09:00:00", End: "10:00:00"}}
		router := NewRouter(RouterConfig{
			Plans:      NewPlanHandler(stub, nil, testNow, nil),
			Middleware: []func(http.Handler) http.Handler{CallerIdentity()},
		})

		body := `{"patient_id":"pat","professional_id":"pro","therapy_type_id":"tt","day_of_week":1,"start_time":"09:30","end_time":"10:30"}`
		recorder := serve(router, http.MethodPost, "/plans", body, map[string]string{HeaderUserID: "user-9"})

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		if stub.created.Principal.UserID != "user-9" {
			t.Fatalf("expected caller user-9, got %q", stub.created.Principal.UserID)
		}
		if *stub.created.Input.DayOfWeek != 1 || stub.created.Input.StartTime != "09:30" {
			t.Fatalf("unexpected input: %#v", stub.created.Input)
		}
		msg, _ := decodeBody(t, recorder)["message"].(string)
		if !strings.HasPrefix(msg, "Conflito de horário") || !strings.Contains(msg, "(09:00:00 - 10:00:00)") {
			t.Fatalf("unexpected conflict message %q", msg)
		}
	})

	t.Run("patch only carries present fields", func(t *testing.T) {
		t.Parallel()
		stub := &planStub{}
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(stub, nil, testNow, nil)})

		recorder := serve(router, http.MethodPatch, "/plans/plan-1", `{"active":false,"start_time":"10:00"}`, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		patch := stub.updated.Patch
		if stub.updated.PlanID != "plan-1" {
			t.Fatalf("unexpected plan id %q", stub.updated.PlanID)
		}
		if active, ok := patch.Active.Get(); !ok || active {
			t.Fatalf("expected active=false to be present, got %v %v", active, ok)
		}
		if start, ok := patch.StartTime.Get(); !ok || start != "10:00" {
			t.Fatalf("expected start_time, got %q %v", start, ok)
		}
		if patch.PatientID.IsPresent() || patch.DayOfWeek.IsPresent() || patch.EndTime.IsPresent() {
			t.Fatalf("expected absent fields to stay absent: %#v", patch)
		}
	})

	t.Run("patch rejects unknown or mistyped fields", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(&planStub{}, nil, testNow, nil)})

		for _, body := range []string{`{"room":"x"}`, `{"day_of_week":"monday"}`, `not json`} {
			recorder := serve(router, http.MethodPatch, "/plans/plan-1", body, nil)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 for %s, got %d", body, recorder.Code)
			}
		}
	})

	t.Run("store outage maps to 502", func(t *testing.T) {
		t.Parallel()
		stub := &planStub{listErr: &application.UpstreamError{Message: "Não foi possível carregar os planos de sessão.", Err: errors.New("dial tcp")}}
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(stub, nil, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/plans", "", nil)
		if recorder.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", recorder.Code)
		}
		if msg := decodeBody(t, recorder)["message"]; msg != "Não foi possível carregar os planos de sessão." {
			t.Fatalf("expected generic message, got %v", msg)
		}
	})

	t.Run("missing plan maps to 404", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(&planStub{}, nil, testNow, nil)})

		if recorder := serve(router, http.MethodGet, "/plans/unknown", "", nil); recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("exports weekly series", func(t *testing.T) {
		t.Parallel()
		stub := &planStub{plans: []application.Plan{{ID: "p1", DayOfWeek: 2, StartTime: "14:00:00", EndTime: "14:40:00"}}}
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(stub, nil, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/plans.ics?from=2025-03-01", "", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "RRULE:FREQ=WEEKLY") || !strings.Contains(recorder.Body.String(), "BYDAY=TU") {
			t.Fatalf("expected weekly rule, got %s", recorder.Body.String())
		}

		if bad := serve(router, http.MethodGet, "/plans.ics?from=03/01/2025", "", nil); bad.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for malformed from, got %d", bad.Code)
		}
	})

	t.Run("exports an empty calendar without active plans", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Plans: NewPlanHandler(&planStub{}, nil, testNow, nil)})

		recorder := serve(router, http.MethodGet, "/plans.ics", "", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := recorder.Body.String()
		if !strings.HasPrefix(body, "BEGIN:VCALENDAR") || strings.Contains(body, "BEGIN:VEVENT") {
			t.Fatalf("expected an empty calendar, got %s", body)
		}
	})
}

func TestPatientHandler(t *testing.T) {
	t.Parallel()

	stub := &patientStub{deleteErr: application.ErrInUse}
	router := NewRouter(RouterConfig{Patients: NewPatientHandler(stub, nil)})

	recorder := serve(router, http.MethodDelete, "/patients/pat-1", "", nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
	if code := decodeBody(t, recorder)["error_code"]; code != "IN_USE" {
		t.Fatalf("expected IN_USE, got %v", code)
	}

	recorder = serve(router, http.MethodGet, "/patients?search=%20ana&limit=5&offset=10", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if stub.lastList != (application.ListOptions{Search: "ana", Limit: 5, Offset: 10}) {
		t.Fatalf("unexpected list options: %#v", stub.lastList)
	}

	if recorder := serve(router, http.MethodGet, "/patients?limit=abc", "", nil); recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed limit, got %d", recorder.Code)
	}

	if recorder := serve(router, http.MethodPost, "/patients", `{"full_name":"Ana","unknown":1}`, nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", recorder.Code)
	}
}

func TestMaintenanceHandler_Procedures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		path       string
		stub       *maintenanceStub
		wantStatus int
		wantBody   string
	}{
		{
			name:       "daily success",
			path:       "/daily-maintenance",
			stub:       &maintenanceStub{daily: semester.ProcedureResult{StatusCode: 200, Body: "null"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true,"body":"null"}`,
		},
		{
			name:       "semester rejected",
			path:       "/semester-maintenance",
			stub:       &maintenanceStub{purge: semester.ProcedureResult{StatusCode: 404, Body: "missing"}},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"ok":false,"status":404,"body":"missing"}`,
		},
		{
			name:       "transport failure",
			path:       "/daily-maintenance",
			stub:       &maintenanceStub{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"ok":false,"error":"connection refused"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router := NewMaintenanceRouter(NewMaintenanceHandler(tc.stub, nil))

			recorder := serve(router, http.MethodPost, tc.path, "", nil)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, recorder.Code)
			}
			if got := strings.TrimSpace(recorder.Body.String()); got != tc.wantBody {
				t.Fatalf("expected body %s, got %s", tc.wantBody, got)
			}
		})
	}
}

func TestMaintenanceHandler_BackupSemester(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		result   semester.BackupResult
		headers  map[string]string
		wantBody string
		invoker  string
	}{
		{
			name:     "first semester",
			result:   semester.BackupResult{Outcome: semester.OutcomeNoPreviousSemester, Status: semester.Status{CurrentLabel: "2025-1"}},
			wantBody: `{"ok":true,"message":"No previous semester to backup (first semester of operation)","status":{"current_semester":"2025-1","previous_semester":"","in_warning_window":false,"days_left":0,"backup_exists":false}}`,
		},
		{
			name:     "already exists",
			result:   semester.BackupResult{Outcome: semester.OutcomeAlreadyExists, Semester: "2024-2"},
			headers:  map[string]string{"x-invoker-user-id": "admin-1"},
			wantBody: `{"ok":true,"message":"Backup already exists","semestre":"2024-2"}`,
			invoker:  "admin-1",
		},
		{
			name:     "created empty",
			result:   semester.BackupResult{Outcome: semester.OutcomeCreated, Semester: "2024-2", EventsCount: 0},
			wantBody: `{"ok":true,"semestre":"2024-2","eventos_count":0}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stub := &maintenanceStub{backup: tc.result}
			router := NewMaintenanceRouter(NewMaintenanceHandler(stub, nil))

			recorder := serve(router, http.MethodPost, "/backup-semester", "", tc.headers)
			if recorder.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", recorder.Code)
			}
			if got := strings.TrimSpace(recorder.Body.String()); got != tc.wantBody {
				t.Fatalf("expected body %s, got %s", tc.wantBody, got)
			}
			if stub.invoker != tc.invoker {
				t.Fatalf("expected invoker %q, got %q", tc.invoker, stub.invoker)
			}
		})
	}
}

func TestSemesterHandler_Status(t *testing.T) {
	t.Parallel()

	stub := semesterStub{report: application.SemesterReport{
		Status: semester.Status{PreviousLabel: "2024-2", InWarningWindow: true, DaysLeft: 3, BackupExists: true},
		State:  semester.StateBackupDone,
	}}
	router := NewRouter(RouterConfig{Semester: NewSemesterHandler(stub, nil)})

	recorder := serve(router, http.MethodGet, "/semester/status", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["state"] != "BACKUP_DONE" || body["previous_semester"] != "2024-2" || body["days_left"] != float64(3) {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestRouter_MethodsAndHealth(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Plans: NewPlanHandler(&planStub{}, nil, testNow, nil)})

	if recorder := serve(router, http.MethodPut, "/plans/p1", "{}", nil); recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodGet, "/healthz", "", nil); recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodPost, "/daily-maintenance", "", nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected the API router to leave procedure triggers out, got %d", recorder.Code)
	}
}

type backupOnlyStub struct {
	invoker string
}

func (s *backupOnlyStub) Backup(_ context.Context, invoker string) (semester.BackupResult, error) {
	s.invoker = invoker
	return semester.BackupResult{Outcome: semester.OutcomeCreated, Semester: "2025-1", EventsCount: 3}, nil
}

func TestRouter_BackupTriggerNeedsOnlyBackup(t *testing.T) {
	t.Parallel()

	stub := &backupOnlyStub{}
	router := NewRouter(RouterConfig{Backup: NewBackupHandler(stub, nil)})

	recorder := serve(router, http.MethodPost, "/backup-semester", "", map[string]string{HeaderUserID: "user-9"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got := strings.TrimSpace(recorder.Body.String()); got != `{"ok":true,"semestre":"2025-1","eventos_count":3}` {
		t.Fatalf("unexpected body %s", got)
	}
	if stub.invoker != "user-9" {
		t.Fatalf("expected invoker user-9, got %q", stub.invoker)
	}
	if recorder := serve(router, http.MethodPost, "/semester-maintenance", "", nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected purge trigger to be absent, got %d", recorder.Code)
	}
}

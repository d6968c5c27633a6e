package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clinic-scheduler/internal/config"
)

// fakeStore is a minimal hosted store that records every call it receives.
type fakeStore struct {
	mu         sync.Mutex
	calls      []string
	insertCode int
}

func (f *fakeStore) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	record := func(name string) {
		f.mu.Lock()
		f.calls = append(f.calls, name)
		f.mu.Unlock()
	}

	mux.HandleFunc("POST /rest/v1/rpc/get_semester_status", func(w http.ResponseWriter, r *http.Request) {
		record("status")
		_, _ = io.WriteString(w, `[{"previous_semester":"2025-1","in_warning_window":true,"days_left":3,"backup_exists":false}]`)
	})
	mux.HandleFunc("GET /rest/v1/backup_semestre", func(w http.ResponseWriter, r *http.Request) {
		record("find_backup")
		assert.Equal(t, "eq.2025-1", r.URL.Query().Get("semestre_label"))
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("GET /rest/v1/agenda_eventos", func(w http.ResponseWriter, r *http.Request) {
		record("count_events")
		w.Header().Set("Content-Range", "0-0/12")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /rest/v1/backup_semestre", func(w http.ResponseWriter, r *http.Request) {
		record("insert_backup")
		w.WriteHeader(f.insertCode)
	})
	mux.HandleFunc("POST /rest/v1/rpc/tentar_purga_semestre", func(w http.ResponseWriter, r *http.Request) {
		record("purge")
		_, _ = io.WriteString(w, `null`)
	})
	mux.HandleFunc("POST /rest/v1/rpc/gerar_eventos_futuros", func(w http.ResponseWriter, r *http.Request) {
		record("generate")
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		_, _ = io.WriteString(w, `null`)
	})
	return mux
}

func (f *fakeStore) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestMaintenance(t *testing.T, store *fakeStore) (maintenanceJobs, *slog.Logger) {
	t.Helper()

	server := httptest.NewServer(store.handler(t))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.MaintenanceConfig{
		Upstream:     config.Upstream{URL: server.URL, ServiceKey: "service-key", Timeout: 5 * time.Second},
		DailyCron:    "0 3 * * *",
		SemesterCron: "30 3 * * *",
	}
	maintenance, err := newMaintenance(cfg, logger)
	require.NoError(t, err)
	return maintenance, logger
}

func TestRunSemester_BacksUpBeforePurging(t *testing.T) {
	store := &fakeStore{insertCode: http.StatusCreated}
	jobs, logger := newTestMaintenance(t, store)

	runSemester(jobs, logger)

	assert.Equal(t, []string{"status", "find_backup", "count_events", "insert_backup", "purge"}, store.recorded())
}

func TestRunSemester_SkipsPurgeWhenBackupFails(t *testing.T) {
	store := &fakeStore{insertCode: http.StatusInternalServerError}
	jobs, logger := newTestMaintenance(t, store)

	runSemester(jobs, logger)

	calls := store.recorded()
	assert.NotContains(t, calls, "purge")
	assert.Equal(t, "insert_backup", calls[len(calls)-1])
}

func TestRunDaily_CallsGenerationProcedure(t *testing.T) {
	store := &fakeStore{}
	jobs, logger := newTestMaintenance(t, store)

	runDaily(jobs, logger)

	assert.Equal(t, []string{"generate"}, store.recorded())
}

func TestNewScheduler_RegistersBothJobs(t *testing.T) {
	store := &fakeStore{}
	jobs, logger := newTestMaintenance(t, store)

	scheduler, err := newScheduler(config.MaintenanceConfig{DailyCron: "0 3 * * *", SemesterCron: "30 3 * * *"}, jobs, logger)
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 2)

	_, err = newScheduler(config.MaintenanceConfig{DailyCron: "not a spec", SemesterCron: "30 3 * * *"}, jobs, logger)
	assert.Error(t, err)
}

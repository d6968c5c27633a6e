package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
)

type RouterConfig struct {
	Agenda        *AgendaHandler
	Plans         *PlanHandler
	Occupancy     *OccupancyHandler
	Patients      *PatientHandler
	Professionals *ProfessionalHandler
	TherapyTypes  *TherapyTypeHandler
	Users         *UserHandler
	Semester      *SemesterHandler
	Backup        *BackupHandler
	Middleware    []func(http.Handler) http.Handler
}

// NewRouter builds the API server routes. POST /backup-semester is the only
// trigger exposed here; the procedure triggers belong to NewMaintenanceRouter.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)

	if cfg.Agenda != nil {
		mux.HandleFunc("GET /agenda", cfg.Agenda.List)
		mux.HandleFunc("GET /agenda.ics", cfg.Agenda.ICS)
	}

	if cfg.Plans != nil {
		mux.HandleFunc("GET /plans", cfg.Plans.List)
		mux.HandleFunc("POST /plans", cfg.Plans.Create)
		mux.HandleFunc("GET /plans.ics", cfg.Plans.ICS)
		mux.HandleFunc("GET /plans/{id}", cfg.Plans.Get)
		mux.HandleFunc("PATCH /plans/{id}", cfg.Plans.Patch)
		mux.HandleFunc("DELETE /plans/{id}", cfg.Plans.Delete)
	}

	if cfg.Occupancy != nil {
		mux.HandleFunc("GET /occupancy", cfg.Occupancy.Get)
	}

	if cfg.Patients != nil {
		mux.HandleFunc("GET /patients", cfg.Patients.List)
		mux.HandleFunc("POST /patients", cfg.Patients.Create)
		mux.HandleFunc("PUT /patients/{id}", cfg.Patients.Update)
		mux.HandleFunc("DELETE /patients/{id}", cfg.Patients.Delete)
	}

	if cfg.Professionals != nil {
		mux.HandleFunc("GET /professionals", cfg.Professionals.List)
		mux.HandleFunc("POST /professionals", cfg.Professionals.Create)
		mux.HandleFunc("PUT /professionals/{id}", cfg.Professionals.Update)
		mux.HandleFunc("DELETE /professionals/{id}", cfg.Professionals.Delete)
	}

	if cfg.TherapyTypes != nil {
		mux.HandleFunc("GET /therapy-types", cfg.TherapyTypes.List)
		mux.HandleFunc("POST /therapy-types", cfg.TherapyTypes.Create)
		mux.HandleFunc("PUT /therapy-types/{id}", cfg.TherapyTypes.Update)
		mux.HandleFunc("DELETE /therapy-types/{id}", cfg.TherapyTypes.Delete)
	}

	if cfg.Users != nil {
		mux.HandleFunc("GET /users", cfg.Users.List)
		mux.HandleFunc("POST /users", cfg.Users.Create)
		mux.HandleFunc("PUT /users/{id}", cfg.Users.Update)
		mux.HandleFunc("DELETE /users/{id}", cfg.Users.Delete)
		mux.HandleFunc("POST /users/{id}/password", cfg.Users.ResetPassword)
	}

	if cfg.Semester != nil {
		mux.HandleFunc("GET /semester/status", cfg.Semester.Status)
	}
	if cfg.Backup != nil {
		mux.HandleFunc("POST /backup-semester", cfg.Backup.BackupSemester)
	}

	return chain(mux, cfg.Middleware)
}

// NewMaintenanceRouter builds the routes of the scheduled trigger server.
func NewMaintenanceRouter(handler *MaintenanceHandler, middleware ...func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("POST /daily-maintenance", handler.DailyMaintenance)
	mux.HandleFunc("POST /semester-maintenance", handler.SemesterMaintenance)
	mux.HandleFunc("POST /backup-semester", handler.BackupSemester)
	return chain(mux, middleware)
}

func chain(handler http.Handler, middleware []func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func pathID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	return id, id != ""
}

// listOptions reads ?limit=&offset=&search= (q is accepted as an alias of search).
func listOptions(r *http.Request) (application.ListOptions, *application.ValidationError) {
	query := r.URL.Query()
	opts := application.ListOptions{Search: strings.TrimSpace(query.Get("search"))}
	if opts.Search == "" {
		opts.Search = strings.TrimSpace(query.Get("q"))
	}

	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			vErr.FieldErrors["limit"] = "deve ser um número inteiro"
		}
		opts.Limit = n
	}
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			vErr.FieldErrors["offset"] = "deve ser um número inteiro não negativo"
		}
		opts.Offset = n
	}
	if vErr.HasErrors() {
		return application.ListOptions{}, vErr
	}
	return opts, nil
}

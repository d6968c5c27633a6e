package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/semester"
)

const (
	msgNoPreviousSemester = "No previous semester to backup (first semester of operation)"
	msgBackupExists       = "Backup already exists"
)

type backupService interface {
	Backup(ctx context.Context, invokerUserID string) (semester.BackupResult, error)
}

type procedureService interface {
	GenerateFutureEvents(ctx context.Context) (semester.ProcedureResult, error)
	Purge(ctx context.Context) (semester.ProcedureResult, error)
}

type maintenanceService interface {
	backupService
	procedureService
}

// BackupHandler serves POST /backup-semester. Responses keep the shape the
// schedulers already parse: {"ok": bool, ...}.
type BackupHandler struct {
	service   backupService
	responder responder
	logger    *slog.Logger
}

func NewBackupHandler(service backupService, logger *slog.Logger) *BackupHandler {
	base := defaultLogger(logger)
	return &BackupHandler{service: service, responder: newResponder(base), logger: base}
}

// MaintenanceHandler adds the hosted-store procedure triggers to the backup
// trigger.
type MaintenanceHandler struct {
	*BackupHandler
	procedures procedureService
}

func NewMaintenanceHandler(service maintenanceService, logger *slog.Logger) *MaintenanceHandler {
	var backups backupService
	var procedures procedureService
	if service != nil {
		backups, procedures = service, service
	}
	return &MaintenanceHandler{BackupHandler: NewBackupHandler(backups, logger), procedures: procedures}
}

// DailyMaintenance handles POST /daily-maintenance.
func (h *MaintenanceHandler) DailyMaintenance(w http.ResponseWriter, r *http.Request) {
	h.runProcedure(w, r, "DailyMaintenance", func(ctx context.Context) (semester.ProcedureResult, error) {
		return h.procedures.GenerateFutureEvents(ctx)
	})
}

// SemesterMaintenance handles POST /semester-maintenance.
func (h *MaintenanceHandler) SemesterMaintenance(w http.ResponseWriter, r *http.Request) {
	h.runProcedure(w, r, "SemesterMaintenance", func(ctx context.Context) (semester.ProcedureResult, error) {
		return h.procedures.Purge(ctx)
	})
}

// BackupSemester handles POST /backup-semester.
func (h *BackupHandler) BackupSemester(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	invoker := callerID(r)
	logger := handlerLogger(r.Context(), h.logger, "BackupHandler", "BackupSemester", "invoker_user_id", invoker)
	logger.InfoContext(r.Context(), "backup started")

	result, err := h.service.Backup(r.Context(), invoker)
	if err != nil {
		logger.ErrorContext(r.Context(), "backup failed", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusInternalServerError, triggerResponse{OK: false, Error: err.Error()})
		return
	}

	switch result.Outcome {
	case semester.OutcomeNoPreviousSemester:
		h.responder.writeJSON(r.Context(), w, http.StatusOK, triggerResponse{OK: true, Message: msgNoPreviousSemester, Status: result.Status})
	case semester.OutcomeAlreadyExists:
		h.responder.writeJSON(r.Context(), w, http.StatusOK, triggerResponse{OK: true, Message: msgBackupExists, Semester: result.Semester})
	default:
		count := result.EventsCount
		h.responder.writeJSON(r.Context(), w, http.StatusOK, triggerResponse{OK: true, Semester: result.Semester, EventsCount: &count})
	}
}

func (h *MaintenanceHandler) runProcedure(w http.ResponseWriter, r *http.Request, operation string, run func(context.Context) (semester.ProcedureResult, error)) {
	if h == nil || h.procedures == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "MaintenanceHandler", operation)
	logger.InfoContext(r.Context(), "maintenance started")

	result, err := run(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance failed", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusInternalServerError, triggerResponse{OK: false, Error: err.Error()})
		return
	}

	body := result.Body
	if !result.OK() {
		status := result.StatusCode
		logger.ErrorContext(r.Context(), "maintenance procedure rejected", "status", status, "body", body)
		h.responder.writeJSON(r.Context(), w, http.StatusInternalServerError, triggerResponse{OK: false, Status: status, Body: &body})
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, triggerResponse{OK: true, Body: &body})
}

type triggerResponse struct {
	OK          bool    `json:"ok"`
	Message     string  `json:"message,omitempty"`
	Semester    string  `json:"semestre,omitempty"`
	EventsCount *int    `json:"eventos_count,omitempty"`
	Status      any     `json:"status,omitempty"`
	Body        *string `json:"body,omitempty"`
	Error       string  `json:"error,omitempty"`
}

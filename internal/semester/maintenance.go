package semester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrBackupMissing indicates a purge was requested before the previous semester was backed up.
var ErrBackupMissing = errors.New("semester: previous semester has no backup")

// ProcedureResult is the raw downstream response of a maintenance procedure.
type ProcedureResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the downstream answered with a 2xx status.
func (r ProcedureResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ProcedureRunner invokes named maintenance procedures.
type ProcedureRunner interface {
	CallProcedure(ctx context.Context, name string) (ProcedureResult, error)
}

// Maintenance runs the scheduled jobs of the semester cycle.
type Maintenance struct {
	procedures ProcedureRunner
	lifecycle  *Lifecycle
	logger     *slog.Logger
}

// NewMaintenance wires the procedure runner with the backup lifecycle.
func NewMaintenance(procedures ProcedureRunner, lifecycle *Lifecycle, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{procedures: procedures, lifecycle: lifecycle, logger: logger}
}

// GenerateFutureEvents runs the daily event generation procedure.
func (m *Maintenance) GenerateFutureEvents(ctx context.Context) (ProcedureResult, error) {
	return m.call(ctx, ProcedureGenerateFutureEvents)
}

// Purge runs the purge procedure unconditionally. Callers are responsible for
// confirming the backup first; RunSemesterCycle does so.
func (m *Maintenance) Purge(ctx context.Context) (ProcedureResult, error) {
	return m.call(ctx, ProcedurePurgeSemester)
}

// Backup delegates to the lifecycle.
func (m *Maintenance) Backup(ctx context.Context, invokerUserID string) (BackupResult, error) {
	if m == nil || m.lifecycle == nil {
		return BackupResult{}, errors.New("semester: lifecycle is not configured")
	}
	return m.lifecycle.Backup(ctx, invokerUserID)
}

// RunSemesterCycle backs up the previous semester and only then asks the store to purge it.
func (m *Maintenance) RunSemesterCycle(ctx context.Context) error {
	backup, err := m.Backup(ctx, SystemInvokerID)
	if err != nil {
		return fmt.Errorf("backup before purge: %w", err)
	}
	if backup.Outcome == OutcomeNoPreviousSemester {
		m.logger.InfoContext(ctx, "no previous semester, purge skipped")
		return nil
	}
	if backup.Outcome != OutcomeCreated && backup.Outcome != OutcomeAlreadyExists {
		return ErrBackupMissing
	}

	result, err := m.Purge(ctx)
	if err != nil {
		return err
	}
	if !result.OK() {
		return fmt.Errorf("purge procedure answered %d: %s", result.StatusCode, result.Body)
	}
	return nil
}

func (m *Maintenance) call(ctx context.Context, name string) (ProcedureResult, error) {
	if m == nil || m.procedures == nil {
		return ProcedureResult{}, errors.New("semester: procedure runner is not configured")
	}
	result, err := m.procedures.CallProcedure(ctx, name)
	if err != nil {
		m.logger.ErrorContext(ctx, "maintenance procedure failed", "procedure", name, "error", err)
		return ProcedureResult{}, err
	}
	m.logger.InfoContext(ctx, "maintenance procedure finished",
		"procedure", name,
		"status", result.StatusCode,
	)
	return result, nil
}

// Package semester models the semester lifecycle: status, backup and purge.
package semester

import (
	"context"
	"time"
)

// State is a stage of the semester lifecycle.
type State string

const (
	StateNormal        State = "NORMAL"
	StateWarningWindow State = "WARNING_WINDOW"
	StateBackupDone    State = "BACKUP_DONE"
	StatePurgeEligible State = "PURGE_ELIGIBLE"
	StatePurged        State = "PURGED"
)

// Procedure names of the maintenance routines run by the hosted store.
const (
	ProcedureGenerateFutureEvents = "gerar_eventos_futuros"
	ProcedurePurgeSemester        = "tentar_purga_semestre"
	ProcedureSemesterStatus       = "get_semester_status"
)

// Status is a snapshot of where the clinic stands in the semester cycle.
type Status struct {
	CurrentLabel    string `json:"current_semester,omitempty"`
	PreviousLabel   string `json:"previous_semester"`
	InWarningWindow bool   `json:"in_warning_window"`
	DaysLeft        int    `json:"days_left"`
	BackupExists    bool   `json:"backup_exists"`
	Purged          bool   `json:"purged,omitempty"`
}

// State derives the lifecycle stage from the snapshot.
//
// Without a previous semester there is nothing to back up. Once a backup
// exists the previous semester becomes purge eligible as soon as the
// warning window closes; before that it stays in BACKUP_DONE.
func (s Status) State() State {
	switch {
	case s.PreviousLabel == "":
		return StateNormal
	case s.Purged:
		return StatePurged
	case s.BackupExists && s.InWarningWindow:
		return StateBackupDone
	case s.BackupExists:
		return StatePurgeEligible
	case s.InWarningWindow:
		return StateWarningWindow
	default:
		return StateNormal
	}
}

// StatusSource reports the current semester status.
type StatusSource interface {
	SemesterStatus(ctx context.Context) (Status, error)
}

// BackupRecord is the audit entry written once per semester label.
type BackupRecord struct {
	ID                string    `json:"id,omitempty"`
	SemesterLabel     string    `json:"semestre_label"`
	PerformedAt       time.Time `json:"realizado_em"`
	StoragePath       string    `json:"arquivo_storage_path"`
	PerformedByUserID string    `json:"realizado_por_user_id"`
	SummaryHash       string    `json:"hash_resumo"`
}

// BackupStore persists backup records.
//
// InsertBackup returns ErrBackupExists when the store already holds a record
// for the same label.
type BackupStore interface {
	FindBackup(ctx context.Context, label string) (BackupRecord, bool, error)
	InsertBackup(ctx context.Context, record BackupRecord) error
}

// EventCounter counts the calendar events that belong to a semester.
type EventCounter interface {
	CountEvents(ctx context.Context, label string) (int, error)
}

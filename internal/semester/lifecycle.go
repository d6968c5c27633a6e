package semester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/logging"
)

// ErrBackupExists is returned by a BackupStore when a record for the label is already stored.
var ErrBackupExists = errors.New("semester: backup already exists")

// SystemInvokerID identifies backups that were not requested by a user.
var SystemInvokerID = uuid.Nil.String()

const emptyBackupNote = "Empty backup (no events in this semester)"

// Outcome describes what a backup run did.
type Outcome string

const (
	OutcomeNoPreviousSemester Outcome = "no_previous_semester"
	OutcomeAlreadyExists      Outcome = "already_exists"
	OutcomeCreated            Outcome = "created"
)

// BackupResult reports the result of Lifecycle.Backup.
type BackupResult struct {
	Outcome     Outcome
	Status      Status
	Semester    string
	EventsCount int
	Record      BackupRecord
}

// StoragePath is where the archive of a semester is expected to live.
func StoragePath(label string) string {
	return fmt.Sprintf("backups/%s/backup-%s.zip", label, label)
}

type tableSummary struct {
	Rows int `json:"rows"`
}

type backupSummary struct {
	SemesterLabel string                  `json:"semestre_label"`
	GeneratedAt   string                  `json:"generated_at"`
	EventsCount   int                     `json:"eventos_count"`
	Tables        map[string]tableSummary `json:"tables"`
	Note          *string                 `json:"note"`
}

// Summary renders the audit blob stored with a backup record.
func Summary(label string, generatedAt time.Time, events int) (string, error) {
	summary := backupSummary{
		SemesterLabel: label,
		GeneratedAt:   generatedAt.UTC().Format(time.RFC3339Nano),
		EventsCount:   events,
		Tables:        map[string]tableSummary{"agenda_eventos": {Rows: events}},
	}
	if events == 0 {
		note := emptyBackupNote
		summary.Note = &note
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Lifecycle runs the backup step of the semester cycle.
type Lifecycle struct {
	status  StatusSource
	backups BackupStore
	events  EventCounter
	now     func() time.Time
	logger  *slog.Logger
}

// NewLifecycle constructs a Lifecycle. A nil now uses time.Now and a nil logger uses slog.Default.
func NewLifecycle(status StatusSource, backups BackupStore, events EventCounter, now func() time.Time, logger *slog.Logger) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{status: status, backups: backups, events: events, now: now, logger: logger}
}

// Backup records the backup of the previous semester at most once per label.
//
// It is a no-op when there is no previous semester or when a record for the
// previous semester already exists. An empty invokerUserID is recorded as
// SystemInvokerID.
func (l *Lifecycle) Backup(ctx context.Context, invokerUserID string) (result BackupResult, err error) {
	if l == nil || l.status == nil || l.backups == nil || l.events == nil {
		return BackupResult{}, errors.New("semester: lifecycle is not configured")
	}

	logger := logging.FromContextOr(ctx, l.logger).With("component", "semester.Lifecycle", "operation", "Backup")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "semester backup failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "semester backup finished",
			"outcome", result.Outcome,
			"semester", result.Semester,
			"events_count", result.EventsCount,
		)
	}()

	status, err := l.status.SemesterStatus(ctx)
	if err != nil {
		return BackupResult{}, fmt.Errorf("read semester status: %w", err)
	}
	result.Status = status

	label := status.PreviousLabel
	if label == "" {
		result.Outcome = OutcomeNoPreviousSemester
		return result, nil
	}
	result.Semester = label

	existing, found, err := l.backups.FindBackup(ctx, label)
	if err != nil {
		return BackupResult{}, fmt.Errorf("check existing backup: %w", err)
	}
	if found {
		result.Outcome = OutcomeAlreadyExists
		result.Record = existing
		return result, nil
	}

	count, err := l.events.CountEvents(ctx, label)
	if err != nil {
		return BackupResult{}, fmt.Errorf("count events: %w", err)
	}
	result.EventsCount = count

	if invokerUserID == "" {
		invokerUserID = SystemInvokerID
	}
	performedAt := l.now().UTC()
	summary, err := Summary(label, performedAt, count)
	if err != nil {
		return BackupResult{}, fmt.Errorf("encode backup summary: %w", err)
	}

	record := BackupRecord{
		ID:                uuid.NewString(),
		SemesterLabel:     label,
		PerformedAt:       performedAt,
		StoragePath:       StoragePath(label),
		PerformedByUserID: invokerUserID,
		SummaryHash:       summary,
	}
	if err = l.backups.InsertBackup(ctx, record); err != nil {
		if errors.Is(err, ErrBackupExists) {
			err = nil
			result.Outcome = OutcomeAlreadyExists
			return result, nil
		}
		return BackupResult{}, fmt.Errorf("insert backup record: %w", err)
	}

	result.Outcome = OutcomeCreated
	result.Record = record
	return result, nil
}

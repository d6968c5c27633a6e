package sqlite

import (
	"context"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// BackupRepository implements persistence.BackupRepository using SQLite.
// Labels are unique, so a concurrent second insert for the same semester
// fails with persistence.ErrDuplicate.
type BackupRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.BackupRepository = (*BackupRepository)(nil)

// NewBackupRepository creates a new SQLite backup repository
func NewBackupRepository(pool *ConnectionPool) *BackupRepository {
	return &BackupRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// InsertBackup records a semester backup.
func (r *BackupRepository) InsertBackup(ctx context.Context, backup persistence.Backup) error {
	if backup.ID == "" || backup.SemesterLabel == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO backups (id, semester_label, performed_at, storage_path, performed_by_user_id, summary_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		backup.ID,
		backup.SemesterLabel,
		formatTime(backup.PerformedAt),
		backup.StoragePath,
		backup.PerformedByUserID,
		backup.SummaryHash,
	)
	return r.mapper.MapError(err)
}

// GetBackupByLabel returns the backup of a semester or persistence.ErrNotFound.
func (r *BackupRepository) GetBackupByLabel(ctx context.Context, label string) (persistence.Backup, error) {
	var (
		backup      persistence.Backup
		performedAt string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT id, semester_label, performed_at, storage_path, performed_by_user_id, summary_hash
		FROM backups
		WHERE semester_label = ?`, label,
	).Scan(&backup.ID, &backup.SemesterLabel, &performedAt, &backup.StoragePath, &backup.PerformedByUserID, &backup.SummaryHash)
	if err != nil {
		return persistence.Backup{}, r.mapper.MapError(err)
	}
	if backup.PerformedAt, err = parseTime(performedAt); err != nil {
		return persistence.Backup{}, err
	}
	return backup, nil
}

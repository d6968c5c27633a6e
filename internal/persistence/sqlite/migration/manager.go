package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Manager orchestrates scanning and applying migrations.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor. A nil logger uses slog.Default.
func NewManager(scanner *Scanner, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies all pending migrations in version order and returns how many were applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date", "version", status.CurrentVersion)
		return 0, nil
	}

	for i, mig := range status.Pending {
		m.logger.InfoContext(ctx, "applying migration",
			"version", mig.Version,
			"description", mig.Description,
			"position", i+1,
			"total", len(status.Pending),
		)
		if err := m.executor.Execute(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "file", mig.FilePath, "error", err)
			return i, NewMigrationError(mig.Version, mig.FilePath, "execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	last := status.Pending[len(status.Pending)-1].Version
	m.logger.InfoContext(ctx, "migrations applied", "count", len(status.Pending), "version", last)
	return len(status.Pending), nil
}

// Status compares the files with the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedSet := make(map[string]AppliedMigration, len(applied))
	for _, a := range applied {
		appliedSet[a.Version] = a
	}

	status := Status{Applied: applied}
	for _, mig := range available {
		a, ok := appliedSet[mig.Version]
		if !ok {
			status.Pending = append(status.Pending, mig)
			continue
		}
		if a.Checksum != "" && a.Checksum != mig.Checksum {
			return Status{}, NewMigrationError(mig.Version, mig.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	return status, nil
}

// validateSequence rejects gaps between available versions and applied
// versions that no longer have a file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	versions := make(map[int]bool, len(available))
	for i, mig := range available {
		v, _ := strconv.Atoi(mig.Version)
		versions[v] = true
		if i > 0 {
			prev, _ := strconv.Atoi(available[i-1].Version)
			if v != prev+1 {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, prev+1)
			}
		}
	}
	for _, a := range applied {
		v, err := strconv.Atoi(a.Version)
		if err != nil || !versions[v] {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, a.Version)
		}
	}
	return nil
}

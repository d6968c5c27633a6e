package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Executor applies migrations to a database and tracks them in schema_migrations.
type Executor struct {
	db  *sql.DB
	now func() time.Time
}

// NewExecutor creates an Executor for db.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return &DatabaseError{Operation: "create schema_migrations table", Err: err}
	}
	return nil
}

// Execute runs every statement of m and records it in one transaction.
func (e *Executor) Execute(ctx context.Context, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return NewMigrationError(m.Version, m.FilePath, "parse SQL", fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &DatabaseError{Version: m.Version, Operation: "begin transaction", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return &DatabaseError{Version: m.Version, Operation: fmt.Sprintf("execute statement %d", i+1), Err: err}
		}
	}

	elapsed := e.now().Sub(started)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds(),
	); err != nil {
		return &DatabaseError{Version: m.Version, Operation: "record migration", Err: err}
	}

	if err = tx.Commit(); err != nil {
		return &DatabaseError{Version: m.Version, Operation: "commit transaction", Err: err}
	}
	return nil
}

// Applied returns the recorded migrations ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC`)
	if err != nil {
		return nil, &DatabaseError{Operation: "list applied migrations", Err: err}
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			m         AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&m.Version, &appliedAt, &elapsedMs, &m.Checksum); err != nil {
			return nil, &DatabaseError{Operation: "scan applied migration", Err: err}
		}
		if m.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, &DatabaseError{Version: m.Version, Operation: "parse applied_at", Err: err}
		}
		m.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Operation: "iterate applied migrations", Err: err}
	}
	return applied, nil
}

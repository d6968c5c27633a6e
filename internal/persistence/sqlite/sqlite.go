package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite repositories that share one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Patients      *PatientRepository
	TherapyTypes  *TherapyTypeRepository
	Professionals *ProfessionalRepository
	Plans         *PlanRepository
	Users         *UserRepository
	Backups       *BackupRepository
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:          pool,
		logger:        logger,
		Patients:      NewPatientRepository(pool),
		TherapyTypes:  NewTherapyTypeRepository(pool),
		Professionals: NewProfessionalRepository(pool),
		Plans:         NewPlanRepository(pool),
		Users:         NewUserRepository(pool),
		Backups:       NewBackupRepository(pool),
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks that the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		s.logger,
	)
	if _, err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// --- shared helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// likePattern builds a case-folded substring pattern for
// fold(column) LIKE ? ESCAPE '\'.
func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(foldText(strings.TrimSpace(search))) + "%"
}

// limitOffset renders SQLite LIMIT/OFFSET values; -1 means unbounded.
func limitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

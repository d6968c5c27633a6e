package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// Path is the database file path, or ":memory:".
	Path string

	BusyTimeout       time.Duration
	EnableForeignKeys bool
	// JournalMode sets the SQLite journal mode (WAL, DELETE, MEMORY, ...).
	JournalMode string
	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// Validate checks the configuration for obviously wrong values.
func (c SQLiteConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[c.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[c.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connection pool settings cannot be negative")
	}
	return nil
}

// DSN renders the modernc.org/sqlite connection string. PRAGMAs are passed as
// _pragma parameters so every pooled connection receives them.
func (c SQLiteConfig) DSN() string {
	params := url.Values{}
	if c.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.EnableForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if c.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}

	dsn := "file:" + c.Path
	if encoded := params.Encode(); encoded != "" {
		dsn += "?" + encoded
	}
	return dsn
}

// Open validates the configuration, creates the database directory when
// needed and returns a configured *sql.DB.
func Open(cfg SQLiteConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, &FileSystemError{Path: cfg.Path, Operation: "create directory", Err: err}
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// DefaultSQLiteConfig returns settings suitable for the server.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:              path,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      10,
		MaxIdleConns:      5,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns settings for a throwaway database file.
func TempFileTestSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:              path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
		ConnMaxLifetime:   time.Minute,
	}
}

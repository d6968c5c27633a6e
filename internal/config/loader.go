package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/example/clinic-scheduler/internal/semester"
)

// EnvFileVariable names the variable that overrides the .env file location.
const EnvFileVariable = "SCHEDULER_ENV_FILE"

// Upstream holds the connection settings of the hosted data store.
type Upstream struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

// Configured reports whether both the URL and the service key are present.
func (u Upstream) Configured() bool {
	return u.URL != "" && u.ServiceKey != ""
}

// Config captures environment driven configuration values for the API server.
type Config struct {
	HTTPPort       int
	SQLitePath     string
	AgendaLocation *time.Location
	FirstSemester  string
	WarningDays    int
	// Upstream is optional for the API server. When configured, occupancy is
	// read from the hosted store instead of the local database.
	Upstream Upstream
}

// MaintenanceConfig captures the settings of the scheduled maintenance runner.
type MaintenanceConfig struct {
	HTTPPort     int
	Upstream     Upstream
	DailyCron    string
	SemesterCron string
}

// Load parses configuration values for the API server from the process
// environment, after merging an optional .env file.
//
// Defaults apply to optional fields; missing and invalid entries are
// collected and reported together with localized messages.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:       8080,
		SQLitePath:     "scheduler.db",
		AgendaLocation: time.UTC,
		WarningDays:    semester.DefaultWarningDays,
	}
	var errs envErrors

	cfg.HTTPPort = errs.positiveInt("SCHEDULER_HTTP_PORT", cfg.HTTPPort)
	if path := env("SCHEDULER_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if tz := env("SCHEDULER_AGENDA_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs.invalid = append(errs.invalid, "SCHEDULER_AGENDA_TIMEZONE")
		} else {
			cfg.AgendaLocation = loc
		}
	}

	if first := env("SCHEDULER_FIRST_SEMESTER"); first != "" {
		if _, _, err := semester.ParseLabel(first); err != nil {
			errs.invalid = append(errs.invalid, "SCHEDULER_FIRST_SEMESTER")
		} else {
			cfg.FirstSemester = first
		}
	}
	cfg.WarningDays = errs.positiveInt("SCHEDULER_WARNING_DAYS", cfg.WarningDays)

	cfg.Upstream = errs.upstream(false)

	if err := errs.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadMaintenance parses the maintenance runner configuration. The upstream
// URL and service key are required.
func LoadMaintenance() (MaintenanceConfig, error) {
	if err := loadDotEnv(); err != nil {
		return MaintenanceConfig{}, err
	}

	cfg := MaintenanceConfig{
		HTTPPort:     8081,
		DailyCron:    "0 3 * * *",
		SemesterCron: "30 3 * * *",
	}
	var errs envErrors

	cfg.HTTPPort = errs.positiveInt("SCHEDULER_HTTP_PORT", cfg.HTTPPort)
	cfg.Upstream = errs.upstream(true)
	cfg.DailyCron = errs.cronSpec("SCHEDULER_DAILY_CRON", cfg.DailyCron)
	cfg.SemesterCron = errs.cronSpec("SCHEDULER_SEMESTER_CRON", cfg.SemesterCron)

	if err := errs.err(); err != nil {
		return MaintenanceConfig{}, err
	}
	return cfg, nil
}

// loadDotEnv merges the .env file into the environment. Variables already
// set in the process win; a missing file is not an error.
func loadDotEnv() error {
	path := env(EnvFileVariable)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("não foi possível ler o arquivo %s: %w", path, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

type envErrors struct {
	missing []string
	invalid []string
}

func (e *envErrors) positiveInt(key string, fallback int) int {
	raw := env(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return n
}

func (e *envErrors) cronSpec(key, fallback string) string {
	spec := env(key)
	if spec == "" {
		return fallback
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return spec
}

func (e *envErrors) upstream(required bool) Upstream {
	up := Upstream{
		URL:        strings.TrimRight(env("SCHEDULER_UPSTREAM_URL"), "/"),
		ServiceKey: env("SCHEDULER_SERVICE_KEY"),
		Timeout:    15 * time.Second,
	}
	if required {
		if up.URL == "" {
			e.missing = append(e.missing, "SCHEDULER_UPSTREAM_URL")
		}
		if up.ServiceKey == "" {
			e.missing = append(e.missing, "SCHEDULER_SERVICE_KEY")
		}
	} else if (up.URL == "") != (up.ServiceKey == "") {
		e.invalid = append(e.invalid, "SCHEDULER_UPSTREAM_URL/SCHEDULER_SERVICE_KEY")
	}

	if raw := env("SCHEDULER_UPSTREAM_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			e.invalid = append(e.invalid, "SCHEDULER_UPSTREAM_TIMEOUT")
		} else {
			up.Timeout = timeout
		}
	}
	return up
}

func (e *envErrors) err() error {
	if len(e.missing) > 0 {
		return fmt.Errorf("variáveis de ambiente obrigatórias não definidas: %s", strings.Join(e.missing, ", "))
	}
	if len(e.invalid) > 0 {
		return fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(e.invalid, ", "))
	}
	return nil
}

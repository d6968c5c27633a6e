package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/config"
	httptransport "github.com/example/clinic-scheduler/internal/http"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/clinic-scheduler/internal/semester"
	"github.com/example/clinic-scheduler/internal/upstream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	handler, err := newAPIHandler(cfg, storage, time.Now, logger)
	if err != nil {
		logger.Error("failed to wire services", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("clinic scheduler API listening", "addr", server.Addr, "agenda_timezone", cfg.AgendaLocation.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newAPIHandler wires the services over storage and returns the routed
// handler with request logging and caller identity applied.
func newAPIHandler(cfg config.Config, storage *sqlite.Storage, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	if now == nil {
		now = time.Now
	}
	loc := cfg.AgendaLocation
	if loc == nil {
		loc = time.UTC
	}
	idGenerator := uuid.NewString

	patientRepo := newPatientRepositoryAdapter(storage.Patients)
	therapyRepo := newTherapyTypeRepositoryAdapter(storage.TherapyTypes)
	professionalRepo := newProfessionalRepositoryAdapter(storage.Professionals)
	planRepo := newPlanRepositoryAdapter(storage.Plans)
	userRepo := newUserRepositoryAdapter(storage.Users)

	var occupancySource application.OccupancyAggregateSource = planRepo
	if cfg.Upstream.Configured() {
		client, err := upstream.New(upstream.Config{
			BaseURL:    cfg.Upstream.URL,
			ServiceKey: cfg.Upstream.ServiceKey,
			Timeout:    cfg.Upstream.Timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("upstream client: %w", err)
		}
		occupancySource = &upstreamOccupancyAdapter{client: client}
		logger.Info("occupancy aggregate served by the hosted store", "url", cfg.Upstream.URL)
	}

	backups := newBackupStoreAdapter(storage.Backups)
	status := semester.NewCalendarStatus(semester.Calendar{
		FirstSemester: cfg.FirstSemester,
		WarningDays:   cfg.WarningDays,
		Location:      loc,
	}, backups, now)
	lifecycle := semester.NewLifecycle(status, backups, newLocalEventCounter(planRepo, loc), now, logger)

	agendaService := application.NewAgendaServiceWithLogger(planRepo, loc, logger)
	planService := application.NewPlanServiceWithLogger(planRepo, idGenerator, now, logger)
	occupancyService := application.NewOccupancyServiceWithLogger(occupancySource, professionalRepo, planRepo, logger)
	patientService := application.NewPatientServiceWithLogger(patientRepo, idGenerator, now, logger)
	professionalService := application.NewProfessionalServiceWithLogger(professionalRepo, idGenerator, now, logger)
	therapyService := application.NewTherapyTypeServiceWithLogger(therapyRepo, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)
	semesterService := application.NewSemesterService(status, lifecycle, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Agenda:        httptransport.NewAgendaHandler(agendaService, now, logger),
		Plans:         httptransport.NewPlanHandler(planService, loc, now, logger),
		Occupancy:     httptransport.NewOccupancyHandler(occupancyService, logger),
		Patients:      httptransport.NewPatientHandler(patientService, logger),
		Professionals: httptransport.NewProfessionalHandler(professionalService, logger),
		TherapyTypes:  httptransport.NewTherapyTypeHandler(therapyService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Semester:      httptransport.NewSemesterHandler(semesterService, logger),
		Backup:        httptransport.NewBackupHandler(backupTrigger{service: semesterService}, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CallerIdentity(),
		},
	}), nil
}

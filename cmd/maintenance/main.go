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

	"github.com/robfig/cron/v3"

	"github.com/example/clinic-scheduler/internal/config"
	httptransport "github.com/example/clinic-scheduler/internal/http"
	"github.com/example/clinic-scheduler/internal/semester"
	"github.com/example/clinic-scheduler/internal/upstream"
)

const jobTimeout = 4 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadMaintenance()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	maintenance, err := newMaintenance(cfg, logger)
	if err != nil {
		logger.Error("failed to wire maintenance", "error", err)
		os.Exit(1)
	}

	scheduler, err := newScheduler(cfg, maintenance, logger)
	if err != nil {
		logger.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httptransport.NewMaintenanceRouter(
			httptransport.NewMaintenanceHandler(maintenance, logger),
			httptransport.RequestLogger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      jobTimeout + 30*time.Second,
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

	logger.Info("maintenance runner listening",
		"addr", server.Addr,
		"daily_cron", cfg.DailyCron,
		"semester_cron", cfg.SemesterCron,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newMaintenance wires the hosted store client into the semester lifecycle.
func newMaintenance(cfg config.MaintenanceConfig, logger *slog.Logger) (*semester.Maintenance, error) {
	client, err := upstream.New(upstream.Config{
		BaseURL:    cfg.Upstream.URL,
		ServiceKey: cfg.Upstream.ServiceKey,
		Timeout:    cfg.Upstream.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	lifecycle := semester.NewLifecycle(client, client, client, time.Now, logger)
	return semester.NewMaintenance(client, lifecycle, logger), nil
}

type maintenanceJobs interface {
	GenerateFutureEvents(ctx context.Context) (semester.ProcedureResult, error)
	RunSemesterCycle(ctx context.Context) error
}

// newScheduler registers the daily event generation and the semester
// backup-then-purge cycle. Overlapping runs of the same job are skipped.
func newScheduler(cfg config.MaintenanceConfig, jobs maintenanceJobs, logger *slog.Logger) (*cron.Cron, error) {
	cronLogger := slogCronLogger{logger: logger.With("component", "cron")}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(cfg.DailyCron, func() { runDaily(jobs, logger) }); err != nil {
		return nil, fmt.Errorf("daily job %q: %w", cfg.DailyCron, err)
	}
	if _, err := c.AddFunc(cfg.SemesterCron, func() { runSemester(jobs, logger) }); err != nil {
		return nil, fmt.Errorf("semester job %q: %w", cfg.SemesterCron, err)
	}
	return c, nil
}

func runDaily(jobs maintenanceJobs, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := jobs.GenerateFutureEvents(ctx)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "daily maintenance failed", "error", err)
	case !result.OK():
		logger.ErrorContext(ctx, "daily maintenance rejected", "status", result.StatusCode, "body", result.Body)
	default:
		logger.InfoContext(ctx, "daily maintenance finished")
	}
}

func runSemester(jobs maintenanceJobs, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := jobs.RunSemesterCycle(ctx); err != nil {
		logger.ErrorContext(ctx, "semester maintenance failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "semester maintenance finished")
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

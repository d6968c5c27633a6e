package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides a migrated temporary SQLite storage for
// integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// PlanGraph is a therapy type, a professional and a patient that plans can
// reference.
type PlanGraph struct {
	TherapyType  TherapyTypeFixture
	Professional ProfessionalFixture
	Patient      PatientFixture
}

// SeedPlanGraph inserts a therapy type, a professional and a patient.
func (h *SQLiteHarness) SeedPlanGraph(tb testing.TB) PlanGraph {
	tb.Helper()
	ctx := context.Background()

	therapy := NewTherapyTypeFixture()
	if err := h.Storage.TherapyTypes.CreateTherapyType(ctx, therapy.Persistence()); err != nil {
		tb.Fatalf("seed therapy type: %v", err)
	}
	professional := NewProfessionalFixture(therapy.ID)
	if err := h.Storage.Professionals.CreateProfessional(ctx, professional.Persistence()); err != nil {
		tb.Fatalf("seed professional: %v", err)
	}
	patient := NewPatientFixture()
	if err := h.Storage.Patients.CreatePatient(ctx, patient.Persistence()); err != nil {
		tb.Fatalf("seed patient: %v", err)
	}
	return PlanGraph{TherapyType: therapy, Professional: professional, Patient: patient}
}

// SeedPlan inserts a plan over graph.
func (h *SQLiteHarness) SeedPlan(tb testing.TB, graph PlanGraph, opts ...PlanOption) PlanFixture {
	tb.Helper()

	plan := NewPlanFixture(graph.Patient.ID, graph.Professional.ID, graph.TherapyType.ID, opts...)
	if err := h.Storage.Plans.CreatePlan(context.Background(), plan.Persistence()); err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return plan
}

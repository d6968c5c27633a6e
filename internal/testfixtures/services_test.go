package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
)

type capturingPatientRepo struct {
	created application.Patient
}

func (c *capturingPatientRepo) CreatePatient(ctx context.Context, patient application.Patient) (application.Patient, error) {
	c.created = patient
	return patient, nil
}

func (c *capturingPatientRepo) UpdatePatient(ctx context.Context, patient application.Patient) (application.Patient, error) {
	return patient, nil
}

func (c *capturingPatientRepo) GetPatient(ctx context.Context, id string) (application.Patient, error) {
	return application.Patient{}, application.ErrNotFound
}

func (c *capturingPatientRepo) ListPatients(ctx context.Context, opts application.ListOptions) ([]application.Patient, error) {
	return nil, nil
}

func (c *capturingPatientRepo) DeletePatient(ctx context.Context, id string) error {
	return nil
}

type staticPlans []application.Plan

func (s staticPlans) ListActivePlans(context.Context) ([]application.Plan, error) {
	return s, nil
}

func TestServiceFactoryNewPatientService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingPatientRepo{}

	svc := factory.NewPatientService(repo)
	patient, err := svc.CreatePatient(context.Background(), NewPatientFixture(WithPatientName("Ana")).Input())
	if err != nil {
		t.Fatalf("CreatePatient returned error: %v", err)
	}

	if patient.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", patient.ID)
	}
	if repo.created.ID != patient.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !patient.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), patient.CreatedAt)
	}
}

func TestServiceFactoryNewAgendaService(t *testing.T) {
	factory := NewServiceFactory()
	plan := NewPlanFixture("patient", "professional", "therapy", WithPlanSlot(time.Wednesday, "14:00:00", "14:40:00"))

	svc := factory.NewAgendaService(staticPlans{plan.Application()}, time.UTC)
	events, err := svc.Generate(context.Background(), application.AgendaParams{Start: "2025-03-03", End: "2025-03-09"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	want := time.Date(2025, time.March, 5, 14, 0, 0, 0, time.UTC)
	if !events[0].Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, events[0].Start)
	}
}

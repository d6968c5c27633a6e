package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/clinic-scheduler/internal/persistence"
)

type patientRepoStub struct {
	created   Patient
	existing  map[string]Patient
	deleteErr error
	lastList  ListOptions
}

func (r *patientRepoStub) CreatePatient(_ context.Context, p Patient) (Patient, error) {
	r.created = p
	return p, nil
}

func (r *patientRepoStub) UpdatePatient(_ context.Context, p Patient) (Patient, error) {
	r.existing[p.ID] = p
	return p, nil
}

func (r *patientRepoStub) GetPatient(_ context.Context, id string) (Patient, error) {
	p, ok := r.existing[id]
	if !ok {
		return Patient{}, persistence.ErrNotFound
	}
	return p, nil
}

func (r *patientRepoStub) ListPatients(_ context.Context, opts ListOptions) ([]Patient, error) {
	r.lastList = opts
	return nil, nil
}

func (r *patientRepoStub) DeletePatient(context.Context, string) error {
	return r.deleteErr
}

func TestPatientService(t *testing.T) {
	t.Parallel()

	t.Run("creates with trimmed optional fields", func(t *testing.T) {
		t.Parallel()
		repo := &patientRepoStub{}
		svc := NewPatientService(repo, sequentialIDs("pat-"), fixedClock)

		blank := "   "
		email := " maria@example.com "
		patient, err := svc.CreatePatient(context.Background(), PatientInput{FullName: " Maria ", Phone: &blank, Email: &email})
		if err != nil {
			t.Fatalf("CreatePatient failed: %v", err)
		}
		if patient.FullName != "Maria" || patient.Phone != nil || *patient.Email != "maria@example.com" {
			t.Fatalf("unexpected patient: %#v", patient)
		}
		if patient.ID != "pat-1" || patient.CreatedAt != fixedClock() {
			t.Fatalf("unexpected id or timestamp: %#v", patient)
		}
	})

	t.Run("requires full name and valid birth date", func(t *testing.T) {
		t.Parallel()
		svc := NewPatientService(&patientRepoStub{}, nil, nil)

		birth := "31/12/2015"
		_, err := svc.CreatePatient(context.Background(), PatientInput{BirthDate: &birth})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["full_name"] == "" || vErr.FieldErrors["birth_date"] == "" {
			t.Fatalf("expected full_name and birth_date errors, got %v", err)
		}
	})

	t.Run("update of unknown patient", func(t *testing.T) {
		t.Parallel()
		svc := NewPatientService(&patientRepoStub{existing: map[string]Patient{}}, nil, nil)

		_, err := svc.UpdatePatient(context.Background(), "missing", PatientInput{FullName: "X"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete of referenced patient", func(t *testing.T) {
		t.Parallel()
		svc := NewPatientService(&patientRepoStub{deleteErr: persistence.ErrForeignKeyViolation}, nil, nil)

		if err := svc.DeletePatient(context.Background(), "pat-1"); !errors.Is(err, ErrInUse) {
			t.Fatalf("expected ErrInUse, got %v", err)
		}
	})

	t.Run("list trims search", func(t *testing.T) {
		t.Parallel()
		repo := &patientRepoStub{}
		svc := NewPatientService(repo, nil, nil)

		if _, err := svc.ListPatients(context.Background(), ListOptions{Search: "  ana ", Limit: 10}); err != nil {
			t.Fatalf("ListPatients failed: %v", err)
		}
		if repo.lastList.Search != "ana" || repo.lastList.Limit != 10 {
			t.Fatalf("unexpected options: %#v", repo.lastList)
		}
	})
}

type therapyRepoStub struct {
	created TherapyType
}

func (r *therapyRepoStub) CreateTherapyType(_ context.Context, t TherapyType) (TherapyType, error) {
	r.created = t
	return t, nil
}

func (r *therapyRepoStub) UpdateTherapyType(_ context.Context, t TherapyType) (TherapyType, error) {
	return t, nil
}

func (r *therapyRepoStub) GetTherapyType(_ context.Context, id string) (TherapyType, error) {
	return TherapyType{ID: id, Name: "old", SessionMinutes: 50}, nil
}

func (r *therapyRepoStub) ListTherapyTypes(context.Context, ListOptions) ([]TherapyType, error) {
	return nil, nil
}

func (r *therapyRepoStub) DeleteTherapyType(context.Context, string) error {
	return persistence.ErrForeignKeyViolation
}

func TestTherapyTypeService(t *testing.T) {
	t.Parallel()

	repo := &therapyRepoStub{}
	svc := NewTherapyTypeService(repo, sequentialIDs("tt-"), fixedClock)

	therapy, err := svc.CreateTherapyType(context.Background(), TherapyTypeInput{Name: "Fonoaudiologia"})
	if err != nil {
		t.Fatalf("CreateTherapyType failed: %v", err)
	}
	if therapy.SessionMinutes != DefaultSessionMinutes {
		t.Fatalf("expected default session minutes, got %d", therapy.SessionMinutes)
	}

	_, err = svc.CreateTherapyType(context.Background(), TherapyTypeInput{Name: "ABA", SessionMinutes: -5})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["session_minutes"] == "" {
		t.Fatalf("expected session_minutes error, got %v", err)
	}

	updated, err := svc.UpdateTherapyType(context.Background(), "tt-9", TherapyTypeInput{Name: "TO", SessionMinutes: 30})
	if err != nil {
		t.Fatalf("UpdateTherapyType failed: %v", err)
	}
	if updated.Name != "TO" || updated.SessionMinutes != 30 {
		t.Fatalf("unexpected therapy: %#v", updated)
	}

	if err := svc.DeleteTherapyType(context.Background(), "tt-9"); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
}

type professionalRepoStub struct {
	createErr error
}

func (r *professionalRepoStub) CreateProfessional(_ context.Context, p Professional) (Professional, error) {
	if r.createErr != nil {
		return Professional{}, r.createErr
	}
	return p, nil
}

func (r *professionalRepoStub) UpdateProfessional(_ context.Context, p Professional) (Professional, error) {
	return p, nil
}

func (r *professionalRepoStub) GetProfessional(_ context.Context, id string) (Professional, error) {
	return Professional{}, persistence.ErrNotFound
}

func (r *professionalRepoStub) ListProfessionals(context.Context, ListOptions) ([]Professional, error) {
	return nil, nil
}

func (r *professionalRepoStub) DeleteProfessional(context.Context, string) error {
	return nil
}

func TestProfessionalService(t *testing.T) {
	t.Parallel()

	svc := NewProfessionalService(&professionalRepoStub{createErr: persistence.ErrForeignKeyViolation}, sequentialIDs("pro-"), fixedClock)
	_, err := svc.CreateProfessional(context.Background(), ProfessionalInput{Name: "Ana", TherapyTypeID: "missing"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["therapy_type_id"] == "" {
		t.Fatalf("expected therapy_type_id error, got %v", err)
	}

	svc = NewProfessionalService(&professionalRepoStub{}, sequentialIDs("pro-"), fixedClock)
	pro, err := svc.CreateProfessional(context.Background(), ProfessionalInput{Name: " Ana ", TherapyTypeID: "tt-1"})
	if err != nil {
		t.Fatalf("CreateProfessional failed: %v", err)
	}
	if pro.Name != "Ana" || pro.ID != "pro-1" {
		t.Fatalf("unexpected professional: %#v", pro)
	}

	if _, err := svc.UpdateProfessional(context.Background(), "missing", ProfessionalInput{Name: "X", TherapyTypeID: "tt-1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	email := "invalid"
	_, err = svc.CreateProfessional(context.Background(), ProfessionalInput{Name: "Ana", TherapyTypeID: "tt-1", Email: &email})
	if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" {
		t.Fatalf("expected email error, got %v", err)
	}
}

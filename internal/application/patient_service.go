package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PatientRepository captures the persistence operations needed by the patient service.
type PatientRepository interface {
	CreatePatient(ctx context.Context, patient Patient) (Patient, error)
	UpdatePatient(ctx context.Context, patient Patient) (Patient, error)
	GetPatient(ctx context.Context, id string) (Patient, error)
	ListPatients(ctx context.Context, opts ListOptions) ([]Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

// PatientService validates and persists patients.
type PatientService struct {
	patients    PatientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPatientService constructs a patient service with the provided dependencies.
func NewPatientService(patients PatientRepository, idGenerator func() string, now func() time.Time) *PatientService {
	return NewPatientServiceWithLogger(patients, idGenerator, now, nil)
}

// NewPatientServiceWithLogger constructs a patient service with a specified logger.
func NewPatientServiceWithLogger(patients PatientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PatientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PatientService{patients: patients, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *PatientService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PatientService", operation, attrs...)
}

// CreatePatient validates input and stores a new patient.
func (s *PatientService) CreatePatient(ctx context.Context, input PatientInput) (patient Patient, err error) {
	if s == nil || s.patients == nil {
		return Patient{}, fmt.Errorf("patient repository not configured")
	}

	logger := s.loggerWith(ctx, "CreatePatient")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create patient", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("patient_id", patient.ID).InfoContext(ctx, "patient created")
	}()

	input = normalizePatientInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	patient, err = s.patients.CreatePatient(ctx, Patient{
		ID:        s.idGenerator(),
		FullName:  input.FullName,
		BirthDate: input.BirthDate,
		Phone:     input.Phone,
		Email:     input.Email,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// UpdatePatient replaces the fields of an existing patient.
func (s *PatientService) UpdatePatient(ctx context.Context, id string, input PatientInput) (patient Patient, err error) {
	if s == nil || s.patients == nil {
		return Patient{}, fmt.Errorf("patient repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdatePatient", "patient_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update patient", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "patient updated")
	}()

	input = normalizePatientInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Patient
	if existing, err = s.patients.GetPatient(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
		return
	}

	existing.FullName = input.FullName
	existing.BirthDate = input.BirthDate
	existing.Phone = input.Phone
	existing.Email = input.Email
	existing.Notes = input.Notes
	existing.UpdatedAt = s.now()

	patient, err = s.patients.UpdatePatient(ctx, existing)
	if err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// GetPatient returns one patient.
func (s *PatientService) GetPatient(ctx context.Context, id string) (Patient, error) {
	if s == nil || s.patients == nil {
		return Patient{}, fmt.Errorf("patient repository not configured")
	}
	patient, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return Patient{}, mapDirectoryRepoError(err)
	}
	return patient, nil
}

// ListPatients returns patients newest first, optionally filtered by name.
func (s *PatientService) ListPatients(ctx context.Context, opts ListOptions) ([]Patient, error) {
	if s == nil || s.patients == nil {
		return nil, nil
	}
	opts.Search = strings.TrimSpace(opts.Search)
	patients, err := s.patients.ListPatients(ctx, opts)
	if err != nil {
		return nil, mapDirectoryRepoError(err)
	}
	return patients, nil
}

// DeletePatient removes a patient that no plan references.
func (s *PatientService) DeletePatient(ctx context.Context, id string) (err error) {
	if s == nil || s.patients == nil {
		return fmt.Errorf("patient repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePatient", "patient_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete patient", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "patient deleted")
	}()

	if err = s.patients.DeletePatient(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

func normalizePatientInput(input PatientInput) PatientInput {
	return PatientInput{
		FullName:  strings.TrimSpace(input.FullName),
		BirthDate: trimOptional(input.BirthDate),
		Phone:     trimOptional(input.Phone),
		Email:     trimOptional(input.Email),
		Notes:     trimOptional(input.Notes),
	}
}

// mapDirectoryRepoError translates persistence failures of the patient,
// professional and therapy type directories. A foreign key violation on
// delete means plans still reference the record.
func mapDirectoryRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrInUse
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "valores inválidos")
		return vErr
	}
	return err
}

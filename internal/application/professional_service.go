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

// ProfessionalRepository captures the persistence operations needed by the professional service.
type ProfessionalRepository interface {
	CreateProfessional(ctx context.Context, professional Professional) (Professional, error)
	UpdateProfessional(ctx context.Context, professional Professional) (Professional, error)
	GetProfessional(ctx context.Context, id string) (Professional, error)
	ListProfessionals(ctx context.Context, opts ListOptions) ([]Professional, error)
	DeleteProfessional(ctx context.Context, id string) error
}

// ProfessionalService validates and persists professionals.
type ProfessionalService struct {
	professionals ProfessionalRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewProfessionalService constructs a professional service with the provided dependencies.
func NewProfessionalService(professionals ProfessionalRepository, idGenerator func() string, now func() time.Time) *ProfessionalService {
	return NewProfessionalServiceWithLogger(professionals, idGenerator, now, nil)
}

// NewProfessionalServiceWithLogger constructs a professional service with a specified logger.
func NewProfessionalServiceWithLogger(professionals ProfessionalRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProfessionalService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProfessionalService{professionals: professionals, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ProfessionalService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProfessionalService", operation, attrs...)
}

// CreateProfessional validates input and stores a new professional.
func (s *ProfessionalService) CreateProfessional(ctx context.Context, input ProfessionalInput) (professional Professional, err error) {
	if s == nil || s.professionals == nil {
		return Professional{}, fmt.Errorf("professional repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateProfessional", "therapy_type_id", input.TherapyTypeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create professional", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("professional_id", professional.ID).InfoContext(ctx, "professional created")
	}()

	input = normalizeProfessionalInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	professional, err = s.professionals.CreateProfessional(ctx, Professional{
		ID:            s.idGenerator(),
		Name:          input.Name,
		TherapyTypeID: input.TherapyTypeID,
		Email:         input.Email,
		Phone:         input.Phone,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		err = mapProfessionalWriteError(err)
	}
	return
}

// UpdateProfessional replaces the fields of an existing professional.
func (s *ProfessionalService) UpdateProfessional(ctx context.Context, id string, input ProfessionalInput) (professional Professional, err error) {
	if s == nil || s.professionals == nil {
		return Professional{}, fmt.Errorf("professional repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateProfessional", "professional_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update professional", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "professional updated")
	}()

	input = normalizeProfessionalInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Professional
	if existing, err = s.professionals.GetProfessional(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
		return
	}

	existing.Name = input.Name
	existing.TherapyTypeID = input.TherapyTypeID
	existing.Email = input.Email
	existing.Phone = input.Phone
	existing.UpdatedAt = s.now()

	professional, err = s.professionals.UpdateProfessional(ctx, existing)
	if err != nil {
		err = mapProfessionalWriteError(err)
	}
	return
}

// ListProfessionals returns professionals joined with their therapy names.
func (s *ProfessionalService) ListProfessionals(ctx context.Context, opts ListOptions) ([]Professional, error) {
	if s == nil || s.professionals == nil {
		return nil, nil
	}
	opts.Search = strings.TrimSpace(opts.Search)
	professionals, err := s.professionals.ListProfessionals(ctx, opts)
	if err != nil {
		return nil, mapDirectoryRepoError(err)
	}
	return professionals, nil
}

// DeleteProfessional removes a professional that no plan references.
func (s *ProfessionalService) DeleteProfessional(ctx context.Context, id string) (err error) {
	if s == nil || s.professionals == nil {
		return fmt.Errorf("professional repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteProfessional", "professional_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete professional", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "professional deleted")
	}()

	if err = s.professionals.DeleteProfessional(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

func normalizeProfessionalInput(input ProfessionalInput) ProfessionalInput {
	return ProfessionalInput{
		Name:          strings.TrimSpace(input.Name),
		TherapyTypeID: strings.TrimSpace(input.TherapyTypeID),
		Email:         trimOptional(input.Email),
		Phone:         trimOptional(input.Phone),
	}
}

// mapProfessionalWriteError reports an unknown therapy type as a field error.
func mapProfessionalWriteError(err error) error {
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("therapy_type_id", "tipo de terapia não encontrado")
		return vErr
	}
	return mapDirectoryRepoError(err)
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TherapyTypeRepository captures the persistence operations needed by the therapy type service.
type TherapyTypeRepository interface {
	CreateTherapyType(ctx context.Context, therapy TherapyType) (TherapyType, error)
	UpdateTherapyType(ctx context.Context, therapy TherapyType) (TherapyType, error)
	GetTherapyType(ctx context.Context, id string) (TherapyType, error)
	ListTherapyTypes(ctx context.Context, opts ListOptions) ([]TherapyType, error)
	DeleteTherapyType(ctx context.Context, id string) error
}

// TherapyTypeService validates and persists therapy types.
type TherapyTypeService struct {
	therapies   TherapyTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTherapyTypeService constructs a therapy type service with the provided dependencies.
func NewTherapyTypeService(therapies TherapyTypeRepository, idGenerator func() string, now func() time.Time) *TherapyTypeService {
	return NewTherapyTypeServiceWithLogger(therapies, idGenerator, now, nil)
}

// NewTherapyTypeServiceWithLogger constructs a therapy type service with a specified logger.
func NewTherapyTypeServiceWithLogger(therapies TherapyTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TherapyTypeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TherapyTypeService{therapies: therapies, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TherapyTypeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TherapyTypeService", operation, attrs...)
}

// CreateTherapyType stores a new therapy type, defaulting the session length to 40 minutes.
func (s *TherapyTypeService) CreateTherapyType(ctx context.Context, input TherapyTypeInput) (therapy TherapyType, err error) {
	if s == nil || s.therapies == nil {
		return TherapyType{}, fmt.Errorf("therapy type repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateTherapyType")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create therapy type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("therapy_type_id", therapy.ID).InfoContext(ctx, "therapy type created")
	}()

	input = normalizeTherapyTypeInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	therapy, err = s.therapies.CreateTherapyType(ctx, TherapyType{
		ID:             s.idGenerator(),
		Name:           input.Name,
		SessionMinutes: input.SessionMinutes,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// UpdateTherapyType replaces the name and session length of a therapy type.
func (s *TherapyTypeService) UpdateTherapyType(ctx context.Context, id string, input TherapyTypeInput) (therapy TherapyType, err error) {
	if s == nil || s.therapies == nil {
		return TherapyType{}, fmt.Errorf("therapy type repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateTherapyType", "therapy_type_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update therapy type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "therapy type updated")
	}()

	input = normalizeTherapyTypeInput(input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing TherapyType
	if existing, err = s.therapies.GetTherapyType(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
		return
	}
	existing.Name = input.Name
	existing.SessionMinutes = input.SessionMinutes
	existing.UpdatedAt = s.now()

	therapy, err = s.therapies.UpdateTherapyType(ctx, existing)
	if err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// ListTherapyTypes returns therapy types newest first.
func (s *TherapyTypeService) ListTherapyTypes(ctx context.Context, opts ListOptions) ([]TherapyType, error) {
	if s == nil || s.therapies == nil {
		return nil, nil
	}
	opts.Search = strings.TrimSpace(opts.Search)
	therapies, err := s.therapies.ListTherapyTypes(ctx, opts)
	if err != nil {
		return nil, mapDirectoryRepoError(err)
	}
	return therapies, nil
}

// DeleteTherapyType removes a therapy type that no professional or plan references.
func (s *TherapyTypeService) DeleteTherapyType(ctx context.Context, id string) (err error) {
	if s == nil || s.therapies == nil {
		return fmt.Errorf("therapy type repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTherapyType", "therapy_type_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete therapy type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "therapy type deleted")
	}()

	if err = s.therapies.DeleteTherapyType(ctx, id); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

func normalizeTherapyTypeInput(input TherapyTypeInput) TherapyTypeInput {
	input.Name = strings.TrimSpace(input.Name)
	if input.SessionMinutes == 0 {
		input.SessionMinutes = DefaultSessionMinutes
	}
	return input
}

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

// UserRepository captures the account operations needed by the user service.
type UserRepository interface {
	ListProfiles(ctx context.Context) ([]UserProfile, error)
	GetProfile(ctx context.Context, id string) (UserProfile, error)
	CreateUserAndProfile(ctx context.Context, profile UserProfile, passwordHash string) (UserProfile, error)
	UpdateProfile(ctx context.Context, profile UserProfile) (UserProfile, error)
	DeleteUser(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// UserService orchestrates validation and persistence for operator accounts.
type UserService struct {
	users        UserRepository
	idGenerator  func() string
	now          func() time.Time
	hashPassword func(string) (string, error)
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		logger: defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListUsers returns every profile, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]UserProfile, error) {
	if s == nil || s.users == nil {
		return nil, nil
	}
	profiles, err := s.users.ListProfiles(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	return profiles, nil
}

// CreateUser validates input, hashes the password and stores the account.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (profile UserProfile, err error) {
	if s == nil || s.users == nil {
		return UserProfile{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateUser")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", profile.ID).InfoContext(ctx, "user created", "profile_type", profile.ProfileType)
	}()

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	input.ProfileType = strings.TrimSpace(input.ProfileType)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if input.ProfileType == "" {
		input.ProfileType = ProfileUser
	}

	var hash string
	if hash, err = s.hashPassword(input.Password); err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	profile, err = s.users.CreateUserAndProfile(ctx, UserProfile{
		ID:          s.idGenerator(),
		Email:       input.Email,
		Name:        input.Name,
		ProfileType: input.ProfileType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, hash)
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// UpdateUser changes the name and profile type of an account.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (profile UserProfile, err error) {
	if s == nil || s.users == nil {
		return UserProfile{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateUser", "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	input.Name = strings.TrimSpace(input.Name)
	input.ProfileType = strings.TrimSpace(input.ProfileType)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing UserProfile
	if existing, err = s.users.GetProfile(ctx, id); err != nil {
		err = mapUserRepoError(err)
		return
	}
	existing.Name = input.Name
	if input.ProfileType != "" {
		existing.ProfileType = input.ProfileType
	}
	existing.UpdatedAt = s.now()

	if profile, err = s.users.UpdateProfile(ctx, existing); err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// DeleteUser removes an account and its profile.
func (s *UserService) DeleteUser(ctx context.Context, id string) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted")
	}()

	if strings.TrimSpace(id) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "campo obrigatório")
		return vErr
	}
	if err = s.users.DeleteUser(ctx, id); err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// ResetPassword replaces the password of an account.
func (s *UserService) ResetPassword(ctx context.Context, id, password string) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "ResetPassword", "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reset password", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset")
	}()

	if len(password) < 6 {
		vErr := &ValidationError{}
		vErr.add("password", "deve ter pelo menos 6 caracteres")
		return vErr
	}

	var hash string
	if hash, err = s.hashPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err = s.users.ResetPassword(ctx, id, hash); err != nil {
		err = mapUserRepoError(err)
	}
	return
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("profile_type", "deve ser ADM ou Usuario")
		return vErr
	}
	return err
}

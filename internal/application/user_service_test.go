package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/clinic-scheduler/internal/persistence"
)

type userRepoStub struct {
	profiles map[string]UserProfile
	hashes   map[string]string
	byEmail  map[string]string
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		profiles: make(map[string]UserProfile),
		hashes:   make(map[string]string),
		byEmail:  make(map[string]string),
	}
}

func (r *userRepoStub) ListProfiles(context.Context) ([]UserProfile, error) {
	out := make([]UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (r *userRepoStub) GetProfile(_ context.Context, id string) (UserProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return UserProfile{}, persistence.ErrNotFound
	}
	return p, nil
}

func (r *userRepoStub) CreateUserAndProfile(_ context.Context, profile UserProfile, hash string) (UserProfile, error) {
	if _, taken := r.byEmail[profile.Email]; taken {
		return UserProfile{}, persistence.ErrDuplicate
	}
	r.profiles[profile.ID] = profile
	r.hashes[profile.ID] = hash
	r.byEmail[profile.Email] = profile.ID
	return profile, nil
}

func (r *userRepoStub) UpdateProfile(_ context.Context, profile UserProfile) (UserProfile, error) {
	if _, ok := r.profiles[profile.ID]; !ok {
		return UserProfile{}, persistence.ErrNotFound
	}
	r.profiles[profile.ID] = profile
	return profile, nil
}

func (r *userRepoStub) DeleteUser(_ context.Context, id string) error {
	if _, ok := r.profiles[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

func (r *userRepoStub) ResetPassword(_ context.Context, id, hash string) error {
	if _, ok := r.profiles[id]; !ok {
		return persistence.ErrNotFound
	}
	r.hashes[id] = hash
	return nil
}

var cheapArgon2 = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func newTestUserService(repo UserRepository) *UserService {
	svc := NewUserService(repo, sequentialIDs("user-"), fixedClock)
	svc.hashPassword = func(password string) (string, error) {
		return CreatePasswordHash(password, cheapArgon2)
	}
	return svc
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("defaults profile type and hashes password", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub()
		svc := newTestUserService(repo)

		profile, err := svc.CreateUser(context.Background(), CreateUserInput{
			Email:    " Ana@Clinic.com ",
			Password: "segredo",
			Name:     "Ana",
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if profile.ProfileType != ProfileUser || profile.Email != "ana@clinic.com" {
			t.Fatalf("unexpected profile: %#v", profile)
		}
		if err := VerifyPassword(repo.hashes[profile.ID], "segredo"); err != nil {
			t.Fatalf("expected stored hash to verify: %v", err)
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepoStub())

		_, err := svc.CreateUser(context.Background(), CreateUserInput{
			Email:       "not-an-email",
			Password:    "123",
			ProfileType: "Root",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "name", "profile_type"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("maps duplicate email", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepoStub())
		input := CreateUserInput{Email: "a@b.com", Password: "secret1", Name: "A"}

		if _, err := svc.CreateUser(context.Background(), input); err != nil {
			t.Fatalf("first CreateUser failed: %v", err)
		}
		if _, err := svc.CreateUser(context.Background(), input); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub()
	repo.profiles["u1"] = UserProfile{ID: "u1", Email: "a@b.com", Name: "A", ProfileType: ProfileUser}
	svc := newTestUserService(repo)

	profile, err := svc.UpdateUser(context.Background(), "u1", UpdateUserInput{Name: "  Ana  ", ProfileType: ProfileAdmin})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if profile.Name != "Ana" || profile.ProfileType != ProfileAdmin || profile.Email != "a@b.com" {
		t.Fatalf("unexpected profile: %#v", profile)
	}

	if _, err := svc.UpdateUser(context.Background(), "u1", UpdateUserInput{Name: " "}); err == nil {
		t.Fatalf("expected validation error for blank name")
	}
	if _, err := svc.UpdateUser(context.Background(), "missing", UpdateUserInput{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_ResetPasswordAndDelete(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub()
	repo.profiles["u1"] = UserProfile{ID: "u1"}
	svc := newTestUserService(repo)

	var vErr *ValidationError
	if err := svc.ResetPassword(context.Background(), "u1", "12345"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for short password, got %v", err)
	}
	if err := svc.ResetPassword(context.Background(), "u1", "123456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if err := VerifyPassword(repo.hashes["u1"], "123456"); err != nil {
		t.Fatalf("expected new hash to verify: %v", err)
	}
	if err := VerifyPassword(repo.hashes["u1"], "wrong!"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := svc.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

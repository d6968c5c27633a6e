package sqlite

import (
	"context"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	stampCreate(&user.CreatedAt, &user.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (id, email, name, profile_type, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalizeEmail(user.Email),
		user.Name,
		user.ProfileType,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser updates the profile fields of a user. The password hash is
// changed only through UpdatePasswordHash.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}
	err := r.helper.ExecAffecting(ctx, `
		UPDATE users
		SET email = ?, name = ?, profile_type = ?, updated_at = ?
		WHERE id = ?`,
		normalizeEmail(user.Email),
		user.Name,
		user.ProfileType,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	return r.mapper.MapError(err)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return persistence.ErrConstraintViolation
	}
	err := r.helper.ExecAffecting(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, formatTime(time.Now()), id,
	)
	return r.mapper.MapError(err)
}

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `
		SELECT id, email, name, profile_type, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users newest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, email, name, profile_type, password_hash, created_at, updated_at
		FROM users
		ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// DeleteUser removes a user by ID from the database
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return r.mapper.MapError(r.helper.ExecAffecting(ctx, `DELETE FROM users WHERE id = ?`, id))
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.ProfileType, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, err
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

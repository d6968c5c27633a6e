package sqlite

import (
	"context"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// TherapyTypeRepository implements persistence.TherapyTypeRepository using SQLite
type TherapyTypeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.TherapyTypeRepository = (*TherapyTypeRepository)(nil)

// NewTherapyTypeRepository creates a new SQLite therapy type repository
func NewTherapyTypeRepository(pool *ConnectionPool) *TherapyTypeRepository {
	return &TherapyTypeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTherapyType inserts a new therapy type.
func (r *TherapyTypeRepository) CreateTherapyType(ctx context.Context, therapy persistence.TherapyType) error {
	if therapy.ID == "" || therapy.SessionMinutes <= 0 {
		return persistence.ErrConstraintViolation
	}
	stampCreate(&therapy.CreatedAt, &therapy.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO therapy_types (id, name, session_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		therapy.ID,
		therapy.Name,
		therapy.SessionMinutes,
		formatTime(therapy.CreatedAt),
		formatTime(therapy.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateTherapyType replaces the name and session length of a therapy type.
func (r *TherapyTypeRepository) UpdateTherapyType(ctx context.Context, therapy persistence.TherapyType) error {
	if therapy.SessionMinutes <= 0 {
		return persistence.ErrConstraintViolation
	}
	if therapy.UpdatedAt.IsZero() {
		therapy.UpdatedAt = time.Now().UTC()
	}
	err := r.helper.ExecAffecting(ctx, `
		UPDATE therapy_types
		SET name = ?, session_minutes = ?, updated_at = ?
		WHERE id = ?`,
		therapy.Name,
		therapy.SessionMinutes,
		formatTime(therapy.UpdatedAt),
		therapy.ID,
	)
	return r.mapper.MapError(err)
}

// GetTherapyType retrieves a therapy type by ID.
func (r *TherapyTypeRepository) GetTherapyType(ctx context.Context, id string) (persistence.TherapyType, error) {
	if id == "" {
		return persistence.TherapyType{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `
		SELECT id, name, session_minutes, created_at, updated_at
		FROM therapy_types
		WHERE id = ?`, id)
	therapy, err := scanTherapyType(row)
	if err != nil {
		return persistence.TherapyType{}, r.mapper.MapError(err)
	}
	return therapy, nil
}

// ListTherapyTypes returns therapy types newest first.
func (r *TherapyTypeRepository) ListTherapyTypes(ctx context.Context, opts persistence.ListOptions) ([]persistence.TherapyType, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	rows, err := r.helper.Query(ctx, `
		SELECT id, name, session_minutes, created_at, updated_at
		FROM therapy_types
		WHERE (? = '' OR fold(name) LIKE ? ESCAPE '\')
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		opts.Search, likePattern(opts.Search), limit, offset,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var therapies []persistence.TherapyType
	for rows.Next() {
		therapy, err := scanTherapyType(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		therapies = append(therapies, therapy)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return therapies, nil
}

// DeleteTherapyType removes a therapy type not referenced by professionals or plans.
func (r *TherapyTypeRepository) DeleteTherapyType(ctx context.Context, id string) error {
	return r.mapper.MapError(r.helper.ExecAffecting(ctx, `DELETE FROM therapy_types WHERE id = ?`, id))
}

func scanTherapyType(row rowScanner) (persistence.TherapyType, error) {
	var (
		therapy              persistence.TherapyType
		createdAt, updatedAt string
	)
	if err := row.Scan(&therapy.ID, &therapy.Name, &therapy.SessionMinutes, &createdAt, &updatedAt); err != nil {
		return persistence.TherapyType{}, err
	}
	var err error
	if therapy.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.TherapyType{}, err
	}
	if therapy.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.TherapyType{}, err
	}
	return therapy, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// ProfessionalRepository implements persistence.ProfessionalRepository using SQLite
type ProfessionalRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.ProfessionalRepository = (*ProfessionalRepository)(nil)

// NewProfessionalRepository creates a new SQLite professional repository
func NewProfessionalRepository(pool *ConnectionPool) *ProfessionalRepository {
	return &ProfessionalRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const professionalSelect = `
	SELECT p.id, p.name, p.therapy_type_id, p.email, p.phone, p.created_at, p.updated_at,
	       COALESCE(t.name, '')
	FROM professionals p
	LEFT JOIN therapy_types t ON t.id = p.therapy_type_id`

// CreateProfessional inserts a new professional. The therapy type must exist.
func (r *ProfessionalRepository) CreateProfessional(ctx context.Context, professional persistence.Professional) error {
	if professional.ID == "" {
		return persistence.ErrConstraintViolation
	}
	stampCreate(&professional.CreatedAt, &professional.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO professionals (id, name, therapy_type_id, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		professional.ID,
		professional.Name,
		professional.TherapyTypeID,
		nullableString(professional.Email),
		nullableString(professional.Phone),
		formatTime(professional.CreatedAt),
		formatTime(professional.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateProfessional replaces the mutable fields of a professional.
func (r *ProfessionalRepository) UpdateProfessional(ctx context.Context, professional persistence.Professional) error {
	if professional.UpdatedAt.IsZero() {
		professional.UpdatedAt = time.Now().UTC()
	}
	err := r.helper.ExecAffecting(ctx, `
		UPDATE professionals
		SET name = ?, therapy_type_id = ?, email = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		professional.Name,
		professional.TherapyTypeID,
		nullableString(professional.Email),
		nullableString(professional.Phone),
		formatTime(professional.UpdatedAt),
		professional.ID,
	)
	return r.mapper.MapError(err)
}

// GetProfessional retrieves a professional joined with its therapy name.
func (r *ProfessionalRepository) GetProfessional(ctx context.Context, id string) (persistence.Professional, error) {
	if id == "" {
		return persistence.Professional{}, persistence.ErrNotFound
	}
	professional, err := scanProfessional(r.helper.QueryRow(ctx, professionalSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return persistence.Professional{}, r.mapper.MapError(err)
	}
	return professional, nil
}

// ListProfessionals returns professionals newest first with their therapy names.
func (r *ProfessionalRepository) ListProfessionals(ctx context.Context, opts persistence.ListOptions) ([]persistence.Professional, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	rows, err := r.helper.Query(ctx, professionalSelect+`
		WHERE (? = '' OR fold(p.name) LIKE ? ESCAPE '\')
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`,
		opts.Search, likePattern(opts.Search), limit, offset,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var professionals []persistence.Professional
	for rows.Next() {
		professional, err := scanProfessional(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		professionals = append(professionals, professional)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return professionals, nil
}

// DeleteProfessional removes a professional not referenced by plans.
func (r *ProfessionalRepository) DeleteProfessional(ctx context.Context, id string) error {
	return r.mapper.MapError(r.helper.ExecAffecting(ctx, `DELETE FROM professionals WHERE id = ?`, id))
}

func scanProfessional(row rowScanner) (persistence.Professional, error) {
	var (
		professional         persistence.Professional
		email, phone         sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&professional.ID,
		&professional.Name,
		&professional.TherapyTypeID,
		&email,
		&phone,
		&createdAt,
		&updatedAt,
		&professional.TherapyName,
	); err != nil {
		return persistence.Professional{}, err
	}
	professional.Email = stringPointer(email)
	professional.Phone = stringPointer(phone)

	var err error
	if professional.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Professional{}, err
	}
	if professional.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Professional{}, err
	}
	return professional, nil
}

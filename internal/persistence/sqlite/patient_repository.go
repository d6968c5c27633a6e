package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PatientRepository implements persistence.PatientRepository using SQLite
type PatientRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.PatientRepository = (*PatientRepository)(nil)

// NewPatientRepository creates a new SQLite patient repository
func NewPatientRepository(pool *ConnectionPool) *PatientRepository {
	return &PatientRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const patientColumns = `id, full_name, birth_date, phone, email, notes, created_at, updated_at`

// CreatePatient inserts a new patient.
func (r *PatientRepository) CreatePatient(ctx context.Context, patient persistence.Patient) error {
	if patient.ID == "" {
		return persistence.ErrConstraintViolation
	}
	stampCreate(&patient.CreatedAt, &patient.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		patient.ID,
		patient.FullName,
		nullableString(patient.BirthDate),
		nullableString(patient.Phone),
		nullableString(patient.Email),
		nullableString(patient.Notes),
		formatTime(patient.CreatedAt),
		formatTime(patient.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdatePatient replaces the mutable fields of an existing patient.
func (r *PatientRepository) UpdatePatient(ctx context.Context, patient persistence.Patient) error {
	if patient.UpdatedAt.IsZero() {
		patient.UpdatedAt = time.Now().UTC()
	}
	err := r.helper.ExecAffecting(ctx, `
		UPDATE patients
		SET full_name = ?, birth_date = ?, phone = ?, email = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		patient.FullName,
		nullableString(patient.BirthDate),
		nullableString(patient.Phone),
		nullableString(patient.Email),
		nullableString(patient.Notes),
		formatTime(patient.UpdatedAt),
		patient.ID,
	)
	return r.mapper.MapError(err)
}

// GetPatient retrieves a patient by ID.
func (r *PatientRepository) GetPatient(ctx context.Context, id string) (persistence.Patient, error) {
	if id == "" {
		return persistence.Patient{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	patient, err := scanPatient(row)
	if err != nil {
		return persistence.Patient{}, r.mapper.MapError(err)
	}
	return patient, nil
}

// ListPatients returns patients newest first, filtered by a name substring.
func (r *PatientRepository) ListPatients(ctx context.Context, opts persistence.ListOptions) ([]persistence.Patient, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	rows, err := r.helper.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE (? = '' OR fold(full_name) LIKE ? ESCAPE '\')
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		opts.Search, likePattern(opts.Search), limit, offset,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var patients []persistence.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return patients, nil
}

// DeletePatient removes a patient. Patients referenced by plans cannot be
// deleted and yield persistence.ErrForeignKeyViolation.
func (r *PatientRepository) DeletePatient(ctx context.Context, id string) error {
	return r.mapper.MapError(r.helper.ExecAffecting(ctx, `DELETE FROM patients WHERE id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (persistence.Patient, error) {
	var (
		patient                        persistence.Patient
		birthDate, phone, email, notes sql.NullString
		createdAt, updatedAt           string
	)
	if err := row.Scan(&patient.ID, &patient.FullName, &birthDate, &phone, &email, &notes, &createdAt, &updatedAt); err != nil {
		return persistence.Patient{}, err
	}
	patient.BirthDate = stringPointer(birthDate)
	patient.Phone = stringPointer(phone)
	patient.Email = stringPointer(email)
	patient.Notes = stringPointer(notes)

	var err error
	if patient.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Patient{}, err
	}
	if patient.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Patient{}, err
	}
	return patient, nil
}

// stampCreate fills zero creation timestamps with the current time.
func stampCreate(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

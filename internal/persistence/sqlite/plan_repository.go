package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PlanRepository implements persistence.PlanRepository using SQLite
type PlanRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var _ persistence.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository creates a new SQLite plan repository
func NewPlanRepository(pool *ConnectionPool) *PlanRepository {
	return &PlanRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const planSelect = `
	SELECT pl.id, pl.patient_id, pl.professional_id, pl.therapy_type_id, pl.day_of_week,
	       pl.start_time, pl.end_time, pl.active, pl.created_by_user_id, pl.created_at, pl.updated_at,
	       COALESCE(pa.full_name, ''), COALESCE(pr.name, ''), COALESCE(t.name, '')
	FROM plans pl
	LEFT JOIN patients pa ON pa.id = pl.patient_id
	LEFT JOIN professionals pr ON pr.id = pl.professional_id
	LEFT JOIN therapy_types t ON t.id = pl.therapy_type_id`

// CreatePlan inserts a new weekly plan. Referenced records must exist.
func (r *PlanRepository) CreatePlan(ctx context.Context, plan persistence.Plan) error {
	if plan.ID == "" {
		return persistence.ErrConstraintViolation
	}
	stampCreate(&plan.CreatedAt, &plan.UpdatedAt)

	_, err := r.helper.Exec(ctx, `
		INSERT INTO plans (id, patient_id, professional_id, therapy_type_id, day_of_week,
		                   start_time, end_time, active, created_by_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.PatientID,
		plan.ProfessionalID,
		plan.TherapyTypeID,
		plan.DayOfWeek,
		plan.StartTime,
		plan.EndTime,
		plan.Active,
		plan.CreatedByUserID,
		formatTime(plan.CreatedAt),
		formatTime(plan.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdatePlan replaces the mutable fields of a plan. The creator and creation
// time are preserved.
func (r *PlanRepository) UpdatePlan(ctx context.Context, plan persistence.Plan) error {
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = time.Now().UTC()
	}
	err := r.helper.ExecAffecting(ctx, `
		UPDATE plans
		SET patient_id = ?, professional_id = ?, therapy_type_id = ?, day_of_week = ?,
		    start_time = ?, end_time = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		plan.PatientID,
		plan.ProfessionalID,
		plan.TherapyTypeID,
		plan.DayOfWeek,
		plan.StartTime,
		plan.EndTime,
		plan.Active,
		formatTime(plan.UpdatedAt),
		plan.ID,
	)
	return r.mapper.MapError(err)
}

// GetPlan retrieves a plan joined with patient, professional and therapy names.
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (persistence.PlanView, error) {
	if id == "" {
		return persistence.PlanView{}, persistence.ErrNotFound
	}
	view, err := scanPlanView(r.helper.QueryRow(ctx, planSelect+` WHERE pl.id = ?`, id))
	if err != nil {
		return persistence.PlanView{}, r.mapper.MapError(err)
	}
	return view, nil
}

// ListPlans returns plans matching filter ordered by day and start time.
func (r *PlanRepository) ListPlans(ctx context.Context, filter persistence.PlanFilter) ([]persistence.PlanView, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ActiveOnly {
		conditions = append(conditions, "pl.active = 1")
	}
	if filter.ProfessionalID != "" {
		conditions = append(conditions, "pl.professional_id = ?")
		args = append(args, filter.ProfessionalID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, "pl.day_of_week = ?")
		args = append(args, *filter.DayOfWeek)
	}

	query := planSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY pl.day_of_week ASC, pl.start_time ASC, pl.created_at ASC, pl.id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var plans []persistence.PlanView
	for rows.Next() {
		view, err := scanPlanView(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		plans = append(plans, view)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return plans, nil
}

// DeletePlan removes a plan permanently.
func (r *PlanRepository) DeletePlan(ctx context.Context, id string) error {
	return r.mapper.MapError(r.helper.ExecAffecting(ctx, `DELETE FROM plans WHERE id = ?`, id))
}

// OccupancyAggregate sums the weekly session minutes and counts of active
// plans per professional. Negative durations count as zero.
func (r *PlanRepository) OccupancyAggregate(ctx context.Context) ([]persistence.OccupancyRow, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT professional_id,
		       COALESCE(SUM(MAX(0, CAST(ROUND(
		           (strftime('%s', end_time) - strftime('%s', start_time)) / 60.0
		       ) AS INTEGER))), 0),
		       COUNT(*)
		FROM plans
		WHERE active = 1 AND professional_id <> ''
		GROUP BY professional_id
		ORDER BY professional_id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var result []persistence.OccupancyRow
	for rows.Next() {
		var row persistence.OccupancyRow
		if err := rows.Scan(&row.ProfessionalID, &row.TotalSessionMinutes, &row.SessionCount); err != nil {
			return nil, r.mapper.MapError(err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return result, nil
}

func scanPlanView(row rowScanner) (persistence.PlanView, error) {
	var (
		view                 persistence.PlanView
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&view.ID,
		&view.PatientID,
		&view.ProfessionalID,
		&view.TherapyTypeID,
		&view.DayOfWeek,
		&view.StartTime,
		&view.EndTime,
		&view.Active,
		&view.CreatedByUserID,
		&createdAt,
		&updatedAt,
		&view.PatientName,
		&view.ProfessionalName,
		&view.TherapyName,
	); err != nil {
		return persistence.PlanView{}, err
	}
	var err error
	if view.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.PlanView{}, err
	}
	if view.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.PlanView{}, err
	}
	return view, nil
}

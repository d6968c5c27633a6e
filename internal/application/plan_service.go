package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/recurrence"
	"github.com/example/clinic-scheduler/internal/scheduler"
)

// PlanRepository captures the plan store operations needed by the plan services.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan Plan) (Plan, error)
	UpdatePlan(ctx context.Context, plan Plan) (Plan, error)
	DeletePlan(ctx context.Context, id string) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)
	ListPlansForProfessionalDay(ctx context.Context, professionalID string, dayOfWeek int) ([]Plan, error)
}

// PlanService validates plans and keeps the active plans of a professional
// free of overlapping weekly slots.
type PlanService struct {
	plans       PlanRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPlanService constructs a plan service with the provided dependencies.
func NewPlanService(plans PlanRepository, idGenerator func() string, now func() time.Time) *PlanService {
	return NewPlanServiceWithLogger(plans, idGenerator, now, nil)
}

// NewPlanServiceWithLogger constructs a plan service with a specified logger.
func NewPlanServiceWithLogger(plans PlanRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PlanService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlanService{plans: plans, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *PlanService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanService", operation, attrs...)
}

// CreatePlan validates input, rejects overlapping active plans and stores the plan.
func (s *PlanService) CreatePlan(ctx context.Context, params CreatePlanParams) (plan Plan, err error) {
	if s == nil || s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}

	logger := s.loggerWith(ctx, "CreatePlan",
		"principal_id", params.Principal.UserID,
		"professional_id", params.Input.ProfessionalID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create plan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("plan_id", plan.ID).InfoContext(ctx, "plan created")
	}()

	input := normalizePlanInput(params.Input)
	vErr := validateStruct(input)
	if strings.TrimSpace(params.Principal.UserID) == "" {
		vErr.add("created_by_user_id", "campo obrigatório")
	}
	start, end, timeErr := parsePlanTimes(input.StartTime, input.EndTime)
	vErr.merge(timeErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	plan = Plan{
		ID:              s.idGenerator(),
		PatientID:       input.PatientID,
		ProfessionalID:  input.ProfessionalID,
		TherapyTypeID:   input.TherapyTypeID,
		DayOfWeek:       *input.DayOfWeek,
		StartTime:       start.String(),
		EndTime:         end.String(),
		Active:          input.Active == nil || *input.Active,
		CreatedByUserID: params.Principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if plan.Active {
		if err = s.ensureNoConflict(ctx, plan, start, end); err != nil {
			return
		}
	}

	var persisted Plan
	if persisted, err = s.plans.CreatePlan(ctx, plan); err != nil {
		err = mapPlanRepoError(err)
		return
	}
	plan = persisted
	return
}

// UpdatePlan applies a partial update. The overlap check runs when the
// resulting plan is active and its slot changed or it was re-activated.
func (s *PlanService) UpdatePlan(ctx context.Context, params UpdatePlanParams) (plan Plan, err error) {
	if s == nil || s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdatePlan",
		"principal_id", params.Principal.UserID,
		"plan_id", params.PlanID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update plan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "plan updated", "active", plan.Active)
	}()

	var existing Plan
	if existing, err = s.plans.GetPlan(ctx, params.PlanID); err != nil {
		err = mapPlanRepoError(err)
		return
	}

	updated, vErr := applyPlanPatch(existing, params.Patch)
	start, end, timeErr := parsePlanTimes(updated.StartTime, updated.EndTime)
	vErr.merge(timeErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	updated.StartTime = start.String()
	updated.EndTime = end.String()
	updated.UpdatedAt = s.now()

	if updated.Active && (slotChanged(existing, updated) || !existing.Active) {
		if err = s.ensureNoConflict(ctx, updated, start, end); err != nil {
			return
		}
	}

	if plan, err = s.plans.UpdatePlan(ctx, updated); err != nil {
		err = mapPlanRepoError(err)
	}
	return
}

// DeletePlan removes a plan permanently. Deactivation is the soft alternative.
func (s *PlanService) DeletePlan(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil || s.plans == nil {
		return fmt.Errorf("plan repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePlan", "principal_id", principal.UserID, "plan_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete plan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "plan deleted")
	}()

	if err = s.plans.DeletePlan(ctx, id); err != nil {
		err = mapPlanRepoError(err)
	}
	return
}

// GetPlan returns one plan joined with display names.
func (s *PlanService) GetPlan(ctx context.Context, id string) (Plan, error) {
	if s == nil || s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}
	plan, err := s.plans.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, mapPlanRepoError(err)
	}
	return plan, nil
}

// ListActivePlans returns every active plan.
func (s *PlanService) ListActivePlans(ctx context.Context) ([]Plan, error) {
	if s == nil || s.plans == nil {
		return nil, nil
	}
	plans, err := s.plans.ListActivePlans(ctx)
	if err != nil {
		return nil, &UpstreamError{Message: msgPlansUnavailable, Err: err}
	}
	return plans, nil
}

// ensureNoConflict reads then writes without a lock; two concurrent saves
// for the same slot can both pass.
func (s *PlanService) ensureNoConflict(ctx context.Context, plan Plan, start, end recurrence.TimeOfDay) error {
	existing, err := s.plans.ListPlansForProfessionalDay(ctx, plan.ProfessionalID, plan.DayOfWeek)
	if err != nil {
		return &UpstreamError{Message: msgPlansUnavailable, Err: fmt.Errorf("load plans for conflict check: %w", err)}
	}

	candidate := scheduler.Slot{
		ProfessionalID: plan.ProfessionalID,
		Weekday:        plan.DayOfWeek,
		Start:          start,
		End:            end,
	}
	if other, found := scheduler.CheckConflict(candidate, toBookings(existing), plan.ID); found {
		return &ConflictError{PlanID: other.PlanID, Start: other.Start.String(), End: other.End.String()}
	}
	return nil
}

// toBookings converts stored plans into conflict-check bookings. Plans whose
// stored times do not parse cannot overlap anything and are left out.
func toBookings(plans []Plan) []scheduler.Booking {
	bookings := make([]scheduler.Booking, 0, len(plans))
	for _, p := range plans {
		start, err := recurrence.ParseTimeOfDay(p.StartTime)
		if err != nil {
			continue
		}
		end, err := recurrence.ParseTimeOfDay(p.EndTime)
		if err != nil {
			continue
		}
		bookings = append(bookings, scheduler.Booking{
			PlanID: p.ID,
			Slot: scheduler.Slot{
				ProfessionalID: p.ProfessionalID,
				Weekday:        p.DayOfWeek,
				Start:          start,
				End:            end,
			},
			Active: p.Active,
		})
	}
	return bookings
}

func parsePlanTimes(startValue, endValue string) (recurrence.TimeOfDay, recurrence.TimeOfDay, *ValidationError) {
	vErr := &ValidationError{}
	start, startErr := recurrence.ParseTimeOfDay(startValue)
	if startErr != nil && startValue != "" {
		vErr.add("start_time", "horário inválido (use HH:MM ou HH:MM:SS)")
	}
	end, endErr := recurrence.ParseTimeOfDay(endValue)
	if endErr != nil && endValue != "" {
		vErr.add("end_time", "horário inválido (use HH:MM ou HH:MM:SS)")
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		vErr.add("end_time", "deve ser posterior ao horário de início")
	}
	return start, end, vErr
}

func applyPlanPatch(plan Plan, patch PlanPatch) (Plan, *ValidationError) {
	vErr := &ValidationError{}
	setID := func(field string, value string, target *string) {
		value = strings.TrimSpace(value)
		if value == "" {
			vErr.add(field, "campo obrigatório")
			return
		}
		*target = value
	}

	if v, ok := patch.PatientID.Get(); ok {
		setID("patient_id", v, &plan.PatientID)
	}
	if v, ok := patch.ProfessionalID.Get(); ok {
		setID("professional_id", v, &plan.ProfessionalID)
	}
	if v, ok := patch.TherapyTypeID.Get(); ok {
		setID("therapy_type_id", v, &plan.TherapyTypeID)
	}
	if v, ok := patch.DayOfWeek.Get(); ok {
		if v < 0 || v > 6 {
			vErr.add("day_of_week", "deve estar entre 0 (domingo) e 6 (sábado)")
		} else {
			plan.DayOfWeek = v
		}
	}
	if v, ok := patch.StartTime.Get(); ok {
		setID("start_time", v, &plan.StartTime)
	}
	if v, ok := patch.EndTime.Get(); ok {
		setID("end_time", v, &plan.EndTime)
	}
	if v, ok := patch.Active.Get(); ok {
		plan.Active = v
	}
	return plan, vErr
}

func slotChanged(before, after Plan) bool {
	return before.ProfessionalID != after.ProfessionalID ||
		before.DayOfWeek != after.DayOfWeek ||
		before.StartTime != after.StartTime ||
		before.EndTime != after.EndTime
}

func normalizePlanInput(input PlanInput) PlanInput {
	input.PatientID = strings.TrimSpace(input.PatientID)
	input.ProfessionalID = strings.TrimSpace(input.ProfessionalID)
	input.TherapyTypeID = strings.TrimSpace(input.TherapyTypeID)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)
	return input
}

func mapPlanRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("plan", "paciente, profissional ou tipo de terapia não encontrado")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("plan", "valores inválidos")
		return vErr
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}

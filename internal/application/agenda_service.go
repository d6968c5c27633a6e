package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/recurrence"
)

// ActivePlanSource lists the active plans the agenda is generated from.
type ActivePlanSource interface {
	ListActivePlans(ctx context.Context) ([]Plan, error)
}

const (
	defaultPatientName      = "Paciente"
	defaultProfessionalName = "Profissional"
	defaultTherapyName      = "Terapia"
)

// AgendaService expands active weekly plans into dated calendar events.
// Results are computed on every call.
type AgendaService struct {
	plans  ActivePlanSource
	engine *recurrence.Engine
	logger *slog.Logger
}

// NewAgendaService constructs an agenda service evaluating dates in loc.
func NewAgendaService(plans ActivePlanSource, loc *time.Location) *AgendaService {
	return NewAgendaServiceWithLogger(plans, loc, nil)
}

// NewAgendaServiceWithLogger constructs an agenda service with a specified logger.
func NewAgendaServiceWithLogger(plans ActivePlanSource, loc *time.Location, logger *slog.Logger) *AgendaService {
	return &AgendaService{plans: plans, engine: recurrence.NewEngine(loc), logger: defaultLogger(logger)}
}

// Location returns the zone agenda dates are evaluated in.
func (s *AgendaService) Location() *time.Location {
	return s.engine.Location()
}

// Generate returns one event per active plan and matching weekday between
// params.Start and params.End, both inclusive. The order of the events is
// unspecified.
func (s *AgendaService) Generate(ctx context.Context, params AgendaParams) (events []CalendarEvent, err error) {
	if s == nil {
		return nil, fmt.Errorf("AgendaService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "AgendaService", "Generate", "start", params.Start, "end", params.End)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate agenda", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "agenda generated", "events", len(events))
	}()

	loc := s.engine.Location()
	start, end, vErr := parseAgendaRange(params, loc)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var plans []Plan
	if s.plans != nil {
		if plans, err = s.plans.ListActivePlans(ctx); err != nil {
			err = &UpstreamError{Message: msgPlansUnavailable, Err: err}
			return
		}
	}

	byID := make(map[string]Plan, len(plans))
	weekly := make([]recurrence.WeeklyPlan, 0, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
		weekly = append(weekly, recurrence.WeeklyPlan{
			ID:        p.ID,
			Weekday:   p.DayOfWeek,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
		})
	}

	expansion, expandErr := s.engine.Expand(weekly, start, end)
	if expandErr != nil {
		err = fmt.Errorf("expand plans: %w", expandErr)
		return
	}
	for _, skip := range expansion.Skipped {
		logger.WarnContext(ctx, "skipped plan occurrence with malformed time",
			"plan_id", skip.PlanID,
			"date", skip.Date.Format(time.DateOnly),
			"error", skip.Err,
		)
	}

	events = make([]CalendarEvent, 0, len(expansion.Occurrences))
	for _, occ := range expansion.Occurrences {
		events = append(events, newCalendarEvent(byID[occ.PlanID], occ))
	}
	return
}

// PlanTitle is the display title of the sessions of plan.
func PlanTitle(plan Plan) string {
	return fmt.Sprintf("Plano: %s - %s",
		orDefault(plan.PatientName, defaultPatientName),
		orDefault(plan.ProfessionalName, defaultProfessionalName))
}

func newCalendarEvent(plan Plan, occ recurrence.Occurrence) CalendarEvent {
	patient := orDefault(plan.PatientName, defaultPatientName)
	professional := orDefault(plan.ProfessionalName, defaultProfessionalName)
	return CalendarEvent{
		Title:            PlanTitle(plan),
		Start:            occ.Start.UTC(),
		End:              occ.End.UTC(),
		SourcePlanID:     occ.PlanID,
		TherapyName:      orDefault(plan.TherapyName, defaultTherapyName),
		ProfessionalName: professional,
		PatientName:      patient,
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func parseAgendaRange(params AgendaParams, loc *time.Location) (time.Time, time.Time, *ValidationError) {
	vErr := &ValidationError{}
	start, ok := parseAgendaBound("start", params.Start, loc, vErr)
	end, okEnd := parseAgendaBound("end", params.End, loc, vErr)
	if ok && okEnd && start.After(end) {
		vErr.add("end", "a data final deve ser igual ou posterior à data inicial")
	}
	return start, end, vErr
}

func parseAgendaBound(field, value string, loc *time.Location, vErr *ValidationError) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, "campo obrigatório")
		return time.Time{}, false
	}
	t, err := ParseCalendarDate(value, loc)
	if err != nil || t.IsZero() || t.Year() < 1 {
		vErr.add(field, "data inválida (use AAAA-MM-DD)")
		return time.Time{}, false
	}
	return t, true
}

// localDateTimeLayouts are ISO datetimes without an offset, read in the
// agenda location. Fractional seconds are accepted by time.Parse.
var localDateTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseCalendarDate reads a YYYY-MM-DD date, an RFC3339 timestamp or an ISO
// local datetime and returns midnight of that calendar day in loc.
func ParseCalendarDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return recurrence.StartOfDay(t, loc), nil
	}
	for _, layout := range localDateTimeLayouts {
		if local, lerr := time.ParseInLocation(layout, value, loc); lerr == nil {
			return recurrence.StartOfDay(local, loc), nil
		}
	}
	return time.Time{}, err
}

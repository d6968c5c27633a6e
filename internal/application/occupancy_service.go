package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/example/clinic-scheduler/internal/recurrence"
)

// OccupancyAggregateSource returns the per-professional totals of active plans.
type OccupancyAggregateSource interface {
	FetchOccupancyAggregate(ctx context.Context) ([]OccupancyRow, error)
}

// ProfessionalDirectory lists professionals for the occupancy report.
type ProfessionalDirectory interface {
	ListProfessionals(ctx context.Context, opts ListOptions) ([]Professional, error)
}

// OccupancyService reports the weekly load of every professional.
type OccupancyService struct {
	source        OccupancyAggregateSource
	professionals ProfessionalDirectory
	plans         ActivePlanSource
	logger        *slog.Logger
}

// NewOccupancyService constructs an occupancy service.
func NewOccupancyService(source OccupancyAggregateSource, professionals ProfessionalDirectory, plans ActivePlanSource) *OccupancyService {
	return NewOccupancyServiceWithLogger(source, professionals, plans, nil)
}

// NewOccupancyServiceWithLogger constructs an occupancy service with a specified logger.
func NewOccupancyServiceWithLogger(source OccupancyAggregateSource, professionals ProfessionalDirectory, plans ActivePlanSource, logger *slog.Logger) *OccupancyService {
	return &OccupancyService{source: source, professionals: professionals, plans: plans, logger: defaultLogger(logger)}
}

// Aggregate returns one record per professional in directory order.
//
// The totals come from the aggregate source; when it fails they are computed
// from the active plans instead. The therapy name of a professional is the
// first one found among their active plans, falling back to the therapy of
// the professional record.
func (s *OccupancyService) Aggregate(ctx context.Context) (records []OccupancyRecord, err error) {
	if s == nil || s.professionals == nil || s.plans == nil {
		return nil, fmt.Errorf("occupancy dependencies not configured")
	}

	logger := serviceLogger(ctx, s.logger, "OccupancyService", "Aggregate")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to aggregate occupancy", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var (
		professionals []Professional
		plans         []Plan
		rows          []OccupancyRow
		sourceErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		professionals, err = s.professionals.ListProfessionals(gctx, ListOptions{})
		if err != nil {
			return &UpstreamError{Message: "Não foi possível carregar os profissionais.", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		plans, err = s.plans.ListActivePlans(gctx)
		if err != nil {
			return &UpstreamError{Message: msgPlansUnavailable, Err: err}
		}
		return nil
	})
	if s.source != nil {
		g.Go(func() error {
			rows, sourceErr = s.source.FetchOccupancyAggregate(gctx)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	if s.source == nil || sourceErr != nil {
		if sourceErr != nil {
			logger.WarnContext(ctx, "occupancy aggregate unavailable, computing from plans", "error", sourceErr)
		}
		rows = aggregateFromPlans(plans)
	}

	totals := make(map[string]OccupancyRow, len(rows))
	for _, row := range rows {
		totals[row.ProfessionalID] = row
	}
	therapies := make(map[string]string)
	patients := make(map[string]map[string]struct{})
	for _, p := range plans {
		if p.ProfessionalID == "" {
			continue
		}
		if _, seen := therapies[p.ProfessionalID]; !seen && p.TherapyName != "" {
			therapies[p.ProfessionalID] = p.TherapyName
		}
		if p.PatientID == "" {
			continue
		}
		set, ok := patients[p.ProfessionalID]
		if !ok {
			set = make(map[string]struct{})
			patients[p.ProfessionalID] = set
		}
		set[p.PatientID] = struct{}{}
	}

	records = make([]OccupancyRecord, 0, len(professionals))
	for _, pro := range professionals {
		row := totals[pro.ID]
		therapy, ok := therapies[pro.ID]
		if !ok {
			therapy = pro.TherapyName
		}
		records = append(records, OccupancyRecord{
			ProfessionalID:       pro.ID,
			ProfessionalName:     pro.Name,
			TotalSessionMinutes:  row.TotalSessionMinutes,
			SessionCount:         row.SessionCount,
			DistinctPatientCount: len(patients[pro.ID]),
			TherapyName:          therapy,
			OccupationHours:      float64(row.TotalSessionMinutes) / 60,
		})
	}
	return records, nil
}

// aggregateFromPlans sums session minutes and counts per professional.
// Unparsable times count as zero minutes and negative durations as zero.
func aggregateFromPlans(plans []Plan) []OccupancyRow {
	index := make(map[string]int)
	var rows []OccupancyRow
	for _, p := range plans {
		if p.ProfessionalID == "" {
			continue
		}
		i, ok := index[p.ProfessionalID]
		if !ok {
			i = len(rows)
			index[p.ProfessionalID] = i
			rows = append(rows, OccupancyRow{ProfessionalID: p.ProfessionalID})
		}
		rows[i].TotalSessionMinutes += sessionMinutes(p.StartTime, p.EndTime)
		rows[i].SessionCount++
	}
	return rows
}

func sessionMinutes(startValue, endValue string) int {
	start, err := recurrence.ParseTimeOfDay(startValue)
	if err != nil {
		return 0
	}
	end, err := recurrence.ParseTimeOfDay(endValue)
	if err != nil {
		return 0
	}
	minutes := int(math.Round(float64(end.Seconds()-start.Seconds()) / 60))
	return max(0, minutes)
}

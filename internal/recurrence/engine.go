package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow indicates the expansion window is reversed or unset.
var ErrInvalidWindow = errors.New("recurrence: window start must not be after window end")

// ErrInvalidWeekday indicates a plan weekday outside 0 (Sunday) to 6 (Saturday).
var ErrInvalidWeekday = errors.New("recurrence: weekday out of range")

// WeeklyPlan is a weekly recurring booking to expand.
type WeeklyPlan struct {
	ID        string
	Weekday   int
	StartTime string
	EndTime   string
}

// Occurrence represents a generated instance of a weekly plan.
type Occurrence struct {
	PlanID string
	Start  time.Time
	End    time.Time
}

// Skip records an occurrence that could not be produced.
type Skip struct {
	PlanID string
	Date   time.Time
	Err    error
}

// Expansion is the result of expanding a set of plans over a window.
type Expansion struct {
	Occurrences []Occurrence
	Skipped     []Skip
}

// Engine expands weekly plans into dated occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that evaluates dates in the provided location.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the zone in which dates and weekdays are evaluated.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// Expand produces one occurrence per plan and matching date in [windowStart, windowEnd].
//
// Both bounds are truncated to midnight in the engine location and are
// inclusive. Plans with an out of range weekday are ignored entirely; a plan
// whose times do not parse is skipped for that date only and reported in
// Expansion.Skipped. The occurrence order is not part of the contract.
func (e *Engine) Expand(plans []WeeklyPlan, windowStart, windowEnd time.Time) (Expansion, error) {
	loc := e.Location()
	if windowStart.IsZero() || windowEnd.IsZero() {
		return Expansion{}, ErrInvalidWindow
	}

	first := StartOfDay(windowStart, loc)
	last := StartOfDay(windowEnd, loc)
	if first.After(last) {
		return Expansion{}, ErrInvalidWindow
	}

	var out Expansion
	for _, plan := range plans {
		if plan.Weekday < 0 || plan.Weekday > 6 {
			continue
		}
		weekday := time.Weekday(plan.Weekday)

		for day := firstMatching(first, weekday); !day.After(last); day = day.AddDate(0, 0, 7) {
			occ, err := combinePlan(plan, day, loc)
			if err != nil {
				out.Skipped = append(out.Skipped, Skip{PlanID: plan.ID, Date: day, Err: err})
				continue
			}
			out.Occurrences = append(out.Occurrences, occ)
		}
	}

	return out, nil
}

func firstMatching(from time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

func combinePlan(plan WeeklyPlan, day time.Time, loc *time.Location) (Occurrence, error) {
	start, err := ParseTimeOfDay(plan.StartTime)
	if err != nil {
		return Occurrence{}, fmt.Errorf("start time: %w", err)
	}
	end := start
	if plan.EndTime != "" {
		end, err = ParseTimeOfDay(plan.EndTime)
		if err != nil {
			return Occurrence{}, fmt.Errorf("end time: %w", err)
		}
	}
	return Occurrence{
		PlanID: plan.ID,
		Start:  Combine(day, start, loc),
		End:    Combine(day, end, loc),
	}, nil
}

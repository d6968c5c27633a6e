package scheduler

import "github.com/example/clinic-scheduler/internal/recurrence"

// Slot is a weekly interval requested for a professional.
type Slot struct {
	ProfessionalID string
	Weekday        int
	Start          recurrence.TimeOfDay
	End            recurrence.TimeOfDay
}

// Booking is an existing plan occupying a weekly slot.
type Booking struct {
	PlanID string
	Slot
	Active bool
}

// Overlaps reports whether two half-open intervals [Start, End) intersect.
// Adjacent intervals, where one ends exactly when the other starts, do not overlap.
func Overlaps(a, b Slot) bool {
	return a.Start.Seconds() < b.End.Seconds() && b.Start.Seconds() < a.End.Seconds()
}

// CheckConflict returns the first active booking of the same professional and
// weekday whose interval overlaps the candidate. excludePlanID removes the plan
// being updated from consideration.
func CheckConflict(candidate Slot, existing []Booking, excludePlanID string) (Booking, bool) {
	for _, other := range existing {
		if !other.Active {
			continue
		}
		if excludePlanID != "" && other.PlanID == excludePlanID {
			continue
		}
		if other.ProfessionalID != candidate.ProfessionalID || other.Weekday != candidate.Weekday {
			continue
		}
		if Overlaps(candidate, other.Slot) {
			return other, true
		}
	}
	return Booking{}, false
}

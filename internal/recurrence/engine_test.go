package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestEngine_Expand(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	sunday := monday.AddDate(0, 0, 6)

	t.Run("emits one event for a weekly plan within a week", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		expansion, err := engine.Expand([]WeeklyPlan{{
			ID:        "plan-1",
			Weekday:   1,
			StartTime: "08:00",
			EndTime:   "09:00",
		}}, monday, sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 1 {
			t.Fatalf("expected one occurrence, got %d", len(expansion.Occurrences))
		}

		occ := expansion.Occurrences[0]
		wantStart := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
		if !occ.Start.Equal(wantStart) || !occ.End.Equal(wantEnd) {
			t.Fatalf("unexpected occurrence %s - %s", occ.Start, occ.End)
		}
		if occ.PlanID != "plan-1" {
			t.Fatalf("expected plan id plan-1, got %q", occ.PlanID)
		}
	})

	t.Run("keeps every occurrence inside the window on the plan weekday", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		windowStart := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
		windowEnd := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
		plans := []WeeklyPlan{
			{ID: "sun", Weekday: 0, StartTime: "07:00", EndTime: "07:40"},
			{ID: "wed", Weekday: 3, StartTime: "10:15:30", EndTime: "11:00"},
			{ID: "sat", Weekday: 6, StartTime: "23:00", EndTime: "23:59:59"},
		}

		expansion, err := engine.Expand(plans, windowStart, windowEnd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) == 0 {
			t.Fatal("expected occurrences")
		}

		weekdays := map[string]time.Weekday{"sun": time.Sunday, "wed": time.Wednesday, "sat": time.Saturday}
		lastInstant := windowEnd.Add(24*time.Hour - time.Nanosecond)
		for _, occ := range expansion.Occurrences {
			if occ.Start.Before(windowStart) || occ.Start.After(lastInstant) {
				t.Fatalf("occurrence %s outside window", occ.Start)
			}
			if occ.Start.Weekday() != weekdays[occ.PlanID] {
				t.Fatalf("occurrence for %s fell on %s", occ.PlanID, occ.Start.Weekday())
			}
		}
	})

	t.Run("includes both window bounds", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		expansion, err := engine.Expand([]WeeklyPlan{{ID: "p", Weekday: 1, StartTime: "08:00", EndTime: "09:00"}},
			monday, monday.AddDate(0, 0, 7))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 2 {
			t.Fatalf("expected two occurrences, got %d", len(expansion.Occurrences))
		}
	})

	t.Run("is idempotent for identical input", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		plans := []WeeklyPlan{
			{ID: "a", Weekday: 2, StartTime: "08:00", EndTime: "09:00"},
			{ID: "b", Weekday: 4, StartTime: "13:00", EndTime: "14:30"},
		}
		first, err := engine.Expand(plans, monday, monday.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := engine.Expand(plans, monday, monday.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seen := make(map[Occurrence]int)
		for _, occ := range first.Occurrences {
			seen[occ]++
		}
		for _, occ := range second.Occurrences {
			seen[occ]--
		}
		for occ, n := range seen {
			if n != 0 {
				t.Fatalf("occurrence %+v differs between runs", occ)
			}
		}
	})

	t.Run("ignores plans with an out of range weekday", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		expansion, err := engine.Expand([]WeeklyPlan{
			{ID: "neg", Weekday: -1, StartTime: "08:00", EndTime: "09:00"},
			{ID: "seven", Weekday: 7, StartTime: "08:00", EndTime: "09:00"},
		}, monday, sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 0 || len(expansion.Skipped) != 0 {
			t.Fatalf("expected nothing, got %+v", expansion)
		}
	})

	t.Run("skips malformed times per occurrence without failing", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		expansion, err := engine.Expand([]WeeklyPlan{
			{ID: "bad", Weekday: 1, StartTime: "8h", EndTime: "09:00"},
			{ID: "good", Weekday: 1, StartTime: "10:00", EndTime: "11:00"},
		}, monday, sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 1 || expansion.Occurrences[0].PlanID != "good" {
			t.Fatalf("expected only the good plan, got %+v", expansion.Occurrences)
		}
		if len(expansion.Skipped) != 1 || expansion.Skipped[0].PlanID != "bad" {
			t.Fatalf("expected one skip for the bad plan, got %+v", expansion.Skipped)
		}
		if !errors.Is(expansion.Skipped[0].Err, ErrInvalidTimeOfDay) {
			t.Fatalf("expected ErrInvalidTimeOfDay, got %v", expansion.Skipped[0].Err)
		}
	})

	t.Run("falls back to the start time when end is missing", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		expansion, err := engine.Expand([]WeeklyPlan{{ID: "p", Weekday: 1, StartTime: "08:00"}}, monday, sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 1 {
			t.Fatalf("expected one occurrence, got %d", len(expansion.Occurrences))
		}
		if !expansion.Occurrences[0].End.Equal(expansion.Occurrences[0].Start) {
			t.Fatalf("expected end to equal start, got %+v", expansion.Occurrences[0])
		}
	})

	t.Run("rejects a reversed window", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(nil)
		_, err := engine.Expand(nil, sunday, monday)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("evaluates weekdays in the engine location", func(t *testing.T) {
		t.Parallel()

		saoPaulo := time.FixedZone("BRT", -3*60*60)
		engine := NewEngine(saoPaulo)
		windowStart := time.Date(2025, time.March, 3, 0, 0, 0, 0, saoPaulo)
		expansion, err := engine.Expand([]WeeklyPlan{{ID: "p", Weekday: 1, StartTime: "22:00", EndTime: "23:00"}},
			windowStart, windowStart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(expansion.Occurrences) != 1 {
			t.Fatalf("expected one occurrence, got %d", len(expansion.Occurrences))
		}
		want := time.Date(2025, time.March, 4, 1, 0, 0, 0, time.UTC)
		if !expansion.Occurrences[0].Start.Equal(want) {
			t.Fatalf("expected %s, got %s", want, expansion.Occurrences[0].Start.UTC())
		}
	})
}

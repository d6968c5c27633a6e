package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Now().Weekday() != time.Monday {
		t.Fatalf("expected the reference time to fall on a Monday, got %v", clock.Now().Weekday())
	}
}

func TestClockAdvanceDaysCrossesSemesterBoundary(t *testing.T) {
	clock := NewClock(time.Time{})
	clock.SetDate(2025, time.June, 25, 9)

	got := clock.AdvanceDays(7)
	want := time.Date(2025, time.July, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) || !clock.Current().Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestClockNowFuncFollowsSet(t *testing.T) {
	clock := NewClock(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	later := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(later)
	if got := nowFn(); !got.Equal(later) {
		t.Fatalf("expected %v from NowFunc, got %v", later, got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatalf("expected a usable time source from a nil clock")
	}
}

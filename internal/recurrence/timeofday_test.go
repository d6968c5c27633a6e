package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	valid := map[string]int{
		"00:00":    0,
		"08:00":    8 * 3600,
		"09:30:15": 9*3600 + 30*60 + 15,
		"23:59:59": 86399,
	}
	for input, seconds := range valid {
		tod, err := ParseTimeOfDay(input)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) returned error: %v", input, err)
		}
		if tod.Seconds() != seconds {
			t.Fatalf("ParseTimeOfDay(%q).Seconds() = %d, want %d", input, tod.Seconds(), seconds)
		}
	}

	for _, input := range []string{"", "8:00", "24:00", "12:60", "12:00:60", "12:00:00:00", "noon", " 08:00"} {
		if _, err := ParseTimeOfDay(input); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("ParseTimeOfDay(%q) expected ErrInvalidTimeOfDay, got %v", input, err)
		}
	}
}

func TestTimeOfDay_String(t *testing.T) {
	t.Parallel()

	canonical, err := Canonicalize("07:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canonical != "07:05:00" {
		t.Fatalf("expected 07:05:00, got %q", canonical)
	}
	if !MustParseTimeOfDay("09:00").Before(MustParseTimeOfDay("09:00:01")) {
		t.Fatal("expected 09:00 before 09:00:01")
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, time.June, 2, 17, 45, 12, 999, time.UTC)
	combined := Combine(date, MustParseTimeOfDay("08:30"), nil)

	want := time.Date(2025, time.June, 2, 8, 30, 0, 0, time.UTC)
	if !combined.Equal(want) {
		t.Fatalf("expected %s, got %s", want, combined)
	}
	if date.Hour() != 17 || date.Nanosecond() != 999 {
		t.Fatal("input date was modified")
	}
}

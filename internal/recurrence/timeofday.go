package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTimeOfDay indicates a value is not in HH:MM or HH:MM:SS form.
var ErrInvalidTimeOfDay = errors.New("recurrence: invalid time of day")

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS with a 24 hour clock.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}, nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on malformed input.
func MustParseTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

// Seconds returns the number of seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// String renders the canonical HH:MM:SS form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Seconds() < other.Seconds()
}

// Canonicalize parses s and returns its HH:MM:SS form.
func Canonicalize(s string) (string, error) {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return tod.String(), nil
}

// Combine places tod on the calendar date of date as observed in loc.
// A nil loc means UTC.
func Combine(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, tod.Second, 0, loc)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

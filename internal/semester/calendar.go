package semester

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultWarningDays is the length of the backup warning window.
const DefaultWarningDays = 10

// ErrInvalidLabel indicates a semester label not in YYYY-1 or YYYY-2 form.
var ErrInvalidLabel = errors.New("semester: invalid label")

var labelPattern = regexp.MustCompile(`^(\d{4})-([12])$`)

// Label returns the semester label for t: YYYY-1 for January to June and
// YYYY-2 for July to December.
func Label(t time.Time) string {
	half := 1
	if t.Month() > time.June {
		half = 2
	}
	return fmt.Sprintf("%04d-%d", t.Year(), half)
}

// ParseLabel splits a label into its year and half.
func ParseLabel(label string) (year, half int, err error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	year, _ = strconv.Atoi(m[1])
	half, _ = strconv.Atoi(m[2])
	return year, half, nil
}

// Bounds returns the first instant of the semester and the first instant of the next one.
func Bounds(label string, loc *time.Location) (time.Time, time.Time, error) {
	year, half, err := ParseLabel(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	startMonth := time.January
	if half == 2 {
		startMonth = time.July
	}
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 6, 0), nil
}

// Previous returns the label of the semester before label.
func Previous(label string) (string, error) {
	year, half, err := ParseLabel(label)
	if err != nil {
		return "", err
	}
	if half == 2 {
		return fmt.Sprintf("%04d-1", year), nil
	}
	return fmt.Sprintf("%04d-2", year-1), nil
}

// Calendar derives semester status from the wall clock.
type Calendar struct {
	// FirstSemester is the label of the first semester of operation. It has no
	// previous semester to back up. Empty means every semester has one.
	FirstSemester string
	WarningDays   int
	Location      *time.Location
}

// StatusAt computes the status at now without consulting any backup store.
func (c Calendar) StatusAt(now time.Time) Status {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	warningDays := c.WarningDays
	if warningDays <= 0 {
		warningDays = DefaultWarningDays
	}

	local := now.In(loc)
	current := Label(local)
	status := Status{CurrentLabel: current}

	if c.FirstSemester == "" || current > c.FirstSemester {
		status.PreviousLabel, _ = Previous(current)
	}

	start, _, _ := Bounds(current, time.UTC)
	y, m, d := local.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	day := int(today.Sub(start)/(24*time.Hour)) + 1
	if status.PreviousLabel != "" && day <= warningDays {
		status.InWarningWindow = true
		status.DaysLeft = warningDays - day + 1
	}
	return status
}

// CalendarStatus is a StatusSource backed by a Calendar and a BackupStore.
type CalendarStatus struct {
	calendar Calendar
	backups  BackupStore
	now      func() time.Time
}

// NewCalendarStatus constructs a status source evaluated at now().
func NewCalendarStatus(calendar Calendar, backups BackupStore, now func() time.Time) *CalendarStatus {
	if now == nil {
		now = time.Now
	}
	return &CalendarStatus{calendar: calendar, backups: backups, now: now}
}

// SemesterStatus implements StatusSource.
func (s *CalendarStatus) SemesterStatus(ctx context.Context) (Status, error) {
	status := s.calendar.StatusAt(s.now())
	if status.PreviousLabel == "" || s.backups == nil {
		return status, nil
	}
	_, found, err := s.backups.FindBackup(ctx, status.PreviousLabel)
	if err != nil {
		return Status{}, fmt.Errorf("check backup for %s: %w", status.PreviousLabel, err)
	}
	status.BackupExists = found
	return status, nil
}

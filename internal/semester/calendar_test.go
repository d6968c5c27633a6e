package semester

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-1", Label(time.Date(2025, time.June, 30, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-2", Label(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))

	prev, err := Previous("2025-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-2", prev)

	prev, err = Previous("2025-2")
	require.NoError(t, err)
	assert.Equal(t, "2025-1", prev)

	_, err = Previous("2025-3")
	assert.ErrorIs(t, err, ErrInvalidLabel)

	start, end, err := Bounds("2025-2", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCalendar_StatusAt(t *testing.T) {
	t.Parallel()

	cal := Calendar{}

	first := cal.StatusAt(time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-2", first.CurrentLabel)
	assert.Equal(t, "2025-1", first.PreviousLabel)
	assert.True(t, first.InWarningWindow)
	assert.Equal(t, 10, first.DaysLeft)

	last := cal.StatusAt(time.Date(2025, time.July, 10, 23, 0, 0, 0, time.UTC))
	assert.True(t, last.InWarningWindow)
	assert.Equal(t, 1, last.DaysLeft)

	after := cal.StatusAt(time.Date(2025, time.July, 11, 0, 0, 0, 0, time.UTC))
	assert.False(t, after.InWarningWindow)
	assert.Zero(t, after.DaysLeft)

	opening := Calendar{FirstSemester: "2025-2"}.StatusAt(time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, opening.PreviousLabel)
	assert.False(t, opening.InWarningWindow)
	assert.Equal(t, StateNormal, opening.State())
}

func TestCalendarStatus_SemesterStatus(t *testing.T) {
	t.Parallel()

	store := &backupStoreStub{records: map[string]BackupRecord{"2025-1": {SemesterLabel: "2025-1"}}}
	source := NewCalendarStatus(Calendar{WarningDays: 5}, store, func() time.Time {
		return time.Date(2025, time.July, 2, 8, 0, 0, 0, time.UTC)
	})

	status, err := source.SemesterStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.BackupExists)
	assert.Equal(t, 4, status.DaysLeft)
	assert.Equal(t, StateBackupDone, status.State())
}

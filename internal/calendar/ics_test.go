package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/example/clinic-scheduler/internal/application"
)

var stamp = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func decode(t *testing.T, buf *bytes.Buffer) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(buf).Decode()
	require.NoError(t, err)
	return cal
}

func TestEncodeEvents(t *testing.T) {
	t.Parallel()

	events := []application.CalendarEvent{
		{
			Title:        "Plano: João - Dra. Ana",
			Start:        time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
			End:          time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
			SourcePlanID: "plan-1",
			TherapyName:  "Fono",
		},
		{
			Title:        "Plano: João - Dra. Ana",
			Start:        time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
			End:          time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC),
			SourcePlanID: "plan-1",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeEvents(&buf, "Agenda", events, stamp))
	assert.Contains(t, buf.String(), "PRODID:"+ProductID)

	cal := decode(t, &buf)
	decoded := cal.Events()
	require.Len(t, decoded, 2)

	uid, err := decoded[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "plan-1-20250303T090000Z@clinic-scheduler", uid)

	summary, err := decoded[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Plano: João - Dra. Ana", summary)

	start, err := decoded[1].Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(events[1].Start))
}

func TestEncodeEvents_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, EncodeEvents(&buf, "", nil, stamp))
	assert.True(t, strings.HasPrefix(buf.String(), "BEGIN:VCALENDAR"))
	cal := decode(t, &buf)
	assert.Empty(t, cal.Events())
	assert.Equal(t, ProductID, cal.Props.Get(ical.PropProductID).Value)
}

func TestEncodePlans_NoActivePlans(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	skipped, err := EncodePlans(&buf, "Planos de sessão, semestre", nil, stamp, nil, stamp)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Contains(t, buf.String(), `NAME:Planos de sessão\, semestre`)

	cal := decode(t, &buf)
	assert.Empty(t, cal.Events())
	assert.Equal(t, "2.0", cal.Props.Get(ical.PropVersion).Value)
}

func TestEncodePlans_OnlyInvalidPlans(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	skipped, err := EncodePlans(&buf, "", []application.Plan{{ID: "bad", DayOfWeek: 7, StartTime: "08:00"}}, stamp, nil, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad"}, skipped)
	assert.Empty(t, decode(t, &buf).Events())
}

func TestEncodePlans(t *testing.T) {
	t.Parallel()

	plans := []application.Plan{
		{ID: "mon", DayOfWeek: 1, StartTime: "09:00:00", EndTime: "10:00:00", PatientName: "João", ProfessionalName: "Dra. Ana"},
		{ID: "sat", DayOfWeek: 6, StartTime: "08:30", EndTime: "09:10"},
		{ID: "bad-day", DayOfWeek: 9, StartTime: "08:00", EndTime: "09:00"},
		{ID: "bad-time", DayOfWeek: 2, StartTime: "25:00", EndTime: "09:00"},
	}
	// Wednesday.
	from := time.Date(2025, time.March, 5, 15, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	skipped, err := EncodePlans(&buf, "Planos", plans, from, nil, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad-day", "bad-time"}, skipped)
	assert.Contains(t, buf.String(), "FREQ=WEEKLY")

	events := decode(t, &buf).Events()
	require.Len(t, events, 2)

	mon := events[0]
	start, err := mon.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), start)

	rule, err := mon.Props.RecurrenceRule()
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, rrule.WEEKLY, rule.Freq)
	assert.Equal(t, []rrule.Weekday{rrule.MO}, rule.Byweekday)

	summary, err := events[1].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Plano: Paciente - Profissional", summary)

	satStart, err := events[1].Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 8, 8, 30, 0, 0, time.UTC), satStart)
}

// Package calendar renders agenda events and weekly plans as iCalendar documents.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/recurrence"
)

// ProductID identifies the generator of exported calendars.
const ProductID = "-//clinic-scheduler//Agenda//PT"

const uidDomain = "@clinic-scheduler"

var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// EncodeEvents writes one VEVENT per agenda event.
func EncodeEvents(w io.Writer, name string, events []application.CalendarEvent, stamp time.Time) error {
	cal := newCalendar(name)
	for _, ev := range events {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s%s", ev.SourcePlanID, ev.Start.UTC().Format("20060102T150405Z"), uidDomain))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
		event.Props.SetText(ical.PropSummary, ev.Title)
		event.Props.SetText(ical.PropDescription, describe(ev.TherapyName, ev.ProfessionalName, ev.PatientName))
		cal.Children = append(cal.Children, event.Component)
	}
	return encode(w, cal, name)
}

// EncodePlans writes one weekly recurring VEVENT per plan. The series starts
// on the first matching weekday on or after from, evaluated in loc. Plans
// with an invalid weekday or start time are left out and returned as skipped.
func EncodePlans(w io.Writer, name string, plans []application.Plan, from time.Time, loc *time.Location, stamp time.Time) (skipped []string, err error) {
	if loc == nil {
		loc = time.UTC
	}
	cal := newCalendar(name)
	for _, plan := range plans {
		event, ok := planEvent(plan, from, loc, stamp)
		if !ok {
			skipped = append(skipped, plan.ID)
			continue
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return skipped, encode(w, cal, name)
}

func planEvent(plan application.Plan, from time.Time, loc *time.Location, stamp time.Time) (*ical.Event, bool) {
	if plan.DayOfWeek < 0 || plan.DayOfWeek > 6 {
		return nil, false
	}
	startTOD, err := recurrence.ParseTimeOfDay(plan.StartTime)
	if err != nil {
		return nil, false
	}
	endTOD := startTOD
	if plan.EndTime != "" {
		if endTOD, err = recurrence.ParseTimeOfDay(plan.EndTime); err != nil {
			return nil, false
		}
	}

	day := recurrence.StartOfDay(from, loc)
	offset := (plan.DayOfWeek - int(day.Weekday()) + 7) % 7
	day = day.AddDate(0, 0, offset)
	start := recurrence.Combine(day, startTOD, loc)
	end := recurrence.Combine(day, endTOD, loc)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, plan.ID+uidDomain)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	event.Props.SetText(ical.PropSummary, application.PlanTitle(plan))
	event.Props.SetText(ical.PropDescription, describe(plan.TherapyName, plan.ProfessionalName, plan.PatientName))
	event.Props.SetRecurrenceRule(&rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{weekdays[plan.DayOfWeek]},
	})
	return event, true
}

// encode writes cal. The ical encoder refuses a VCALENDAR without
// components, so an empty agenda is written as the bare calendar header.
func encode(w io.Writer, cal *ical.Calendar, name string) error {
	if len(cal.Children) > 0 {
		return ical.NewEncoder(w).Encode(cal)
	}
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	if name != "" {
		b.WriteString("NAME:" + escapeText(name) + "\r\n")
	}
	b.WriteString("PRODID:" + escapeText(ProductID) + "\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("END:VCALENDAR\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if name != "" {
		cal.Props.SetText(ical.PropName, name)
	}
	return cal
}

func describe(therapy, professional, patient string) string {
	return fmt.Sprintf("Terapia: %s\nProfissional: %s\nPaciente: %s", therapy, professional, patient)
}

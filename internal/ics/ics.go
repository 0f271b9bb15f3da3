// Package ics converts todos to and from iCalendar VEVENTs.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/Joseda-hg/lazysched/internal/log"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
)

const (
	productID = "-//lazysched//schedule export//EN"
	// DonePrefix marks completed todos in event summaries.
	DonePrefix    = "[done] "
	eventDuration = 30 * time.Minute
)

// Export renders every dated todo as a VEVENT. Todos without a date have
// no start time to anchor an event and are left out.
func Export(todos []model.Todo, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	skipped := 0
	for _, todo := range todos {
		start, err := startOf(todo)
		if err != nil {
			skipped++
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("todo-%d@lazysched", todo.ID))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(eventDuration))
		summary := todo.Text
		if todo.Completed {
			summary = DonePrefix + summary
		}
		event.SetSummary(summary)
		event.SetStatus(ical.ObjectStatusConfirmed)
	}
	if skipped > 0 {
		appLog.Debug("ics export skipped undated todos", "count", skipped)
	}

	return cal.Serialize()
}

// Entry is an imported event ready to be created in the store.
type Entry struct {
	Input     schedule.TodoInput
	Completed bool
}

// Import reads VEVENTs from r. Recurring events are skipped.
func Import(r io.Reader) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	entries := make([]Entry, 0)
	for _, event := range cal.Events() {
		entry, err := entryFromEvent(event)
		if err != nil {
			appLog.Warn("skipping calendar event", "err", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entryFromEvent(event *ical.VEvent) (Entry, error) {
	if event.GetProperty(ical.ComponentPropertyRrule) != nil {
		return Entry{}, errors.New("recurring events are not supported")
	}

	summaryProp := event.GetProperty(ical.ComponentPropertySummary)
	if summaryProp == nil || strings.TrimSpace(summaryProp.Value) == "" {
		return Entry{}, errors.New("missing summary")
	}
	summary := summaryProp.Value

	var entry Entry
	if strings.HasPrefix(summary, DonePrefix) {
		entry.Completed = true
		summary = strings.TrimPrefix(summary, DonePrefix)
	}
	entry.Input.Text = summary

	if start, err := event.GetStartAt(); err == nil {
		local := start.In(time.Local)
		entry.Input.Date = model.DateKey(local)
		entry.Input.Time = local.Format(model.TimeLayout)
		return entry, nil
	}

	// All-day events carry only a date; the store fills in the default time.
	start, err := event.GetAllDayStartAt()
	if err != nil {
		return Entry{}, fmt.Errorf("event %q has no usable start: %w", summary, err)
	}
	entry.Input.Date = model.DateKey(start)
	return entry, nil
}

func startOf(todo model.Todo) (time.Time, error) {
	clock := todo.Time
	if clock == "" {
		clock = model.DefaultTime
	}
	return time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, todo.Date+" "+clock, time.Local)
}

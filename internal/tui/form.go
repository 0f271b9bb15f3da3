package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldText = iota
	fieldDate
	fieldTime
)

// buildFormFields prefills the date with date, usually the selected day.
func buildFormFields(date string, variant model.Variant) []formField {
	fields := []formField{
		{Label: "Text"},
		{Label: "Date (YYYY-MM-DD)"},
		{Label: "Time (HH:MM)"},
	}
	fields[fieldDate].Value = date
	if variant == model.VariantMinimal {
		fields[fieldDate].Label = "Date (YYYY-MM-DD, optional)"
	}
	return fields
}

// parseFormFields rejects malformed dates and times so the form can stay
// open for correction. Blank text is left to the store, which ignores it.
func parseFormFields(fields []formField) (schedule.TodoInput, error) {
	date := strings.TrimSpace(fields[fieldDate].Value)
	if date != "" && !model.ValidDate(date) {
		return schedule.TodoInput{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}

	clock := strings.TrimSpace(fields[fieldTime].Value)
	if clock != "" && !model.ValidTime(clock) {
		return schedule.TodoInput{}, fmt.Errorf("invalid time %q, want HH:MM", clock)
	}

	return schedule.TodoInput{
		Text: strings.TrimSpace(fields[fieldText].Value),
		Date: date,
		Time: clock,
	}, nil
}

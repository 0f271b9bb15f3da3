package model

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	TimeLayout  = "15:04"
	DefaultTime = "09:00"
)

// Todo is a single schedule entry. Completed is the only field that changes
// after creation.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time"`
}

// Variant selects how blank dates and times are filled in at creation.
type Variant string

const (
	// VariantCalendar requires a date (today when blank) and defaults the time to 09:00.
	VariantCalendar Variant = "calendar"
	// VariantMinimal leaves a blank date empty and defaults the time to the current clock.
	VariantMinimal Variant = "minimal"
)

func ParseVariant(value string) Variant {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case string(VariantMinimal):
		return VariantMinimal
	default:
		return VariantCalendar
	}
}

// NewTodo builds a todo from raw user input. It reports false when the input
// must be ignored: blank text, or a date/time that does not parse.
func NewTodo(id int64, text, date, clock string, now time.Time, variant Variant) (Todo, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Todo{}, false
	}

	date = strings.TrimSpace(date)
	switch {
	case date != "":
		if !ValidDate(date) {
			return Todo{}, false
		}
	case variant != VariantMinimal:
		date = DateKey(now)
	}

	clock = strings.TrimSpace(clock)
	switch {
	case clock != "":
		if !ValidTime(clock) {
			return Todo{}, false
		}
	case variant == VariantMinimal:
		clock = now.Format(TimeLayout)
	default:
		clock = DefaultTime
	}

	return Todo{ID: id, Text: text, Date: date, Time: clock}, true
}

// DateKey formats t as the zero-padded YYYY-MM-DD key used for date matching.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// ValidTime accepts only the zero-padded 24h HH:MM form so that lexical
// comparison orders times correctly.
func ValidTime(value string) bool {
	if len(value) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, value)
	return err == nil
}

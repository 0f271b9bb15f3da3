package model

import (
	"testing"
	"time"
)

func TestNewTodoRejectsBlankText(t *testing.T) {
	now := time.Date(2024, time.March, 5, 8, 30, 0, 0, time.Local)
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, ok := NewTodo(1, text, "", "", now, VariantCalendar); ok {
			t.Fatalf("expected %q to be rejected", text)
		}
	}
}

func TestNewTodoDefaults(t *testing.T) {
	now := time.Date(2024, time.March, 5, 8, 30, 0, 0, time.Local)

	t.Run("calendar", func(t *testing.T) {
		todo, ok := NewTodo(7, "  buy milk  ", "", "", now, VariantCalendar)
		if !ok {
			t.Fatalf("expected todo to be created")
		}
		if todo.ID != 7 || todo.Text != "buy milk" || todo.Completed {
			t.Fatalf("unexpected todo %+v", todo)
		}
		if todo.Date != "2024-03-05" {
			t.Fatalf("expected date to default to today, got %q", todo.Date)
		}
		if todo.Time != DefaultTime {
			t.Fatalf("expected time %q, got %q", DefaultTime, todo.Time)
		}
	})

	t.Run("minimal", func(t *testing.T) {
		todo, ok := NewTodo(7, "stretch", "", "", now, VariantMinimal)
		if !ok {
			t.Fatalf("expected todo to be created")
		}
		if todo.Date != "" {
			t.Fatalf("expected no date, got %q", todo.Date)
		}
		if todo.Time != "08:30" {
			t.Fatalf("expected current time, got %q", todo.Time)
		}
	})

	t.Run("explicit values", func(t *testing.T) {
		todo, ok := NewTodo(7, "Dentist", "2024-03-06", "14:00", now, VariantMinimal)
		if !ok {
			t.Fatalf("expected todo to be created")
		}
		if todo.Date != "2024-03-06" || todo.Time != "14:00" {
			t.Fatalf("unexpected date/time %q %q", todo.Date, todo.Time)
		}
	})
}

func TestNewTodoRejectsMalformedDateTime(t *testing.T) {
	now := time.Now()
	cases := []struct {
		date  string
		clock string
	}{
		{date: "2024-02-30"},
		{date: "2024-3-5"},
		{date: "tomorrow"},
		{clock: "9:00"},
		{clock: "24:00"},
		{clock: "noon"},
	}
	for _, tc := range cases {
		if _, ok := NewTodo(1, "x", tc.date, tc.clock, now, VariantCalendar); ok {
			t.Fatalf("expected date=%q time=%q to be rejected", tc.date, tc.clock)
		}
	}
}

func TestParseVariant(t *testing.T) {
	if ParseVariant(" Minimal ") != VariantMinimal {
		t.Fatalf("expected minimal variant")
	}
	if ParseVariant("") != VariantCalendar {
		t.Fatalf("expected calendar variant by default")
	}
	if ParseVariant("weird") != VariantCalendar {
		t.Fatalf("expected unknown values to fall back to calendar")
	}
}

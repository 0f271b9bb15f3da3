// Package calendar projects the todo collection onto a month grid.
//
// Months are zero-based (0 = January) throughout, so the values can be fed
// straight into time.Date as time.Month(month+1).
package calendar

import (
	"fmt"
	"time"

	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/view"
)

type Options struct {
	// WeekStart is the weekday shown in the first column.
	WeekStart time.Weekday
	// Today is the date key to highlight. Empty means the current local date.
	Today string
}

type Day struct {
	Day   int          `json:"day"`
	Key   string       `json:"key"`
	Today bool         `json:"today"`
	Todos []model.Todo `json:"todos"`
}

type Grid struct {
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	WeekStart     time.Weekday `json:"week_start"`
	LeadingBlanks int          `json:"leading_blanks"`
	DaysInMonth   int          `json:"days_in_month"`
	Days          []Day        `json:"days"`
}

// Project builds the grid for year/month. Each day's bucket is an exact
// match of the todo date against the day key; todos without a date never
// land in a bucket. Today is evaluated on every call.
func Project(year, month int, todos []model.Todo, opts Options) Grid {
	year, month = Shift(year, month, 0)

	today := opts.Today
	if today == "" {
		today = model.DateKey(time.Now())
	}

	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local)
	grid := Grid{
		Year:          year,
		Month:         month,
		WeekStart:     opts.WeekStart,
		LeadingBlanks: (int(first.Weekday()) - int(opts.WeekStart) + 7) % 7,
		DaysInMonth:   DaysIn(year, month),
	}

	grid.Days = make([]Day, 0, grid.DaysInMonth)
	for day := 1; day <= grid.DaysInMonth; day++ {
		key := DateKey(year, month, day)
		grid.Days = append(grid.Days, Day{
			Day:   day,
			Key:   key,
			Today: key == today,
			Todos: view.OnDate(todos, key),
		})
	}
	return grid
}

// DaysIn uses day 0 of the following month, which time.Date normalises to
// the last day of this one.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.Local).Day()
}

// Shift moves delta months from year/month, rolling the year as needed.
func Shift(year, month, delta int) (int, int) {
	target := time.Date(year, time.Month(month+1+delta), 1, 0, 0, 0, 0, time.Local)
	return target.Year(), int(target.Month()) - 1
}

func FromTime(t time.Time) (int, int) {
	return t.Year(), int(t.Month()) - 1
}

func DateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month+1, day)
}

// Day returns the cell for day-of-month n, or nil when out of range.
func (g Grid) Day(n int) *Day {
	if n < 1 || n > len(g.Days) {
		return nil
	}
	return &g.Days[n-1]
}

// Weeks lays the days out in rows of seven; blank cells are nil.
func (g Grid) Weeks() [][]*Day {
	cells := make([]*Day, 0, g.LeadingBlanks+len(g.Days)+6)
	for i := 0; i < g.LeadingBlanks; i++ {
		cells = append(cells, nil)
	}
	for i := range g.Days {
		cells = append(cells, &g.Days[i])
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*Day, 0, len(cells)/7)
	for start := 0; start < len(cells); start += 7 {
		weeks = append(weeks, cells[start:start+7])
	}
	return weeks
}

func (g Grid) Title() string {
	return fmt.Sprintf("%s %d", time.Month(g.Month+1), g.Year)
}

// WeekdayLabels returns three-letter weekday names starting at start.
func WeekdayLabels(start time.Weekday) []string {
	labels := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		day := time.Weekday((int(start) + i) % 7)
		labels = append(labels, day.String()[:3])
	}
	return labels
}

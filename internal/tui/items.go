package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/view"
)

const (
	cellWidth = 8
	// calendarHeaderRows is the title line plus the weekday labels.
	calendarHeaderRows = 2
)

func formatTodoSummary(todo model.Todo) string {
	check := "[ ]"
	if todo.Completed {
		check = "[x]"
	}
	date := todo.Date
	if date == "" {
		date = "no date   "
	}
	return fmt.Sprintf("%s %s %s %s", check, date, todo.Time, todo.Text)
}

// formatBucketItem drops the date, which the pane title already shows.
func formatBucketItem(todo model.Todo) string {
	check := "[ ]"
	if todo.Completed {
		check = "[x]"
	}
	return fmt.Sprintf("%s %s %s", check, todo.Time, todo.Text)
}

func formatStats(stats view.Stats) string {
	return fmt.Sprintf("%d total, %d pending, %d completed", stats.Total, stats.Pending, stats.Completed)
}

// formatCell renders one day as "[dd]*p/d": brackets mark the selection, the
// star marks today, p and d count pending and done todos.
func formatCell(day *calendar.Day, selected bool) string {
	if day == nil {
		return strings.Repeat(" ", cellWidth)
	}

	left, right := " ", " "
	if selected {
		left, right = "[", "]"
	}
	mark := " "
	if day.Today {
		mark = "*"
	}

	counts := "   "
	if len(day.Todos) > 0 {
		stats := view.Count(day.Todos)
		counts = countGlyph(stats.Pending) + "/" + countGlyph(stats.Completed)
	}

	return fmt.Sprintf("%s%2d%s%s%s", left, day.Day, right, mark, counts)
}

func countGlyph(n int) string {
	if n > 9 {
		return "+"
	}
	return fmt.Sprint(n)
}

func formatCalendar(grid calendar.Grid, selectedDay int) []string {
	lines := make([]string, 0, calendarHeaderRows+6)
	lines = append(lines, grid.Title())

	labels := make([]string, 0, 7)
	for _, label := range calendar.WeekdayLabels(grid.WeekStart) {
		labels = append(labels, fmt.Sprintf(" %-*s", cellWidth-1, label))
	}
	lines = append(lines, strings.Join(labels, " "))

	for _, week := range grid.Weeks() {
		cells := make([]string, 0, len(week))
		for _, day := range week {
			cells = append(cells, formatCell(day, day != nil && day.Day == selectedDay))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}

// dayAtCell maps a row/column inside the rendered calendar to a day of the
// month, or 0 for headers and blank cells.
func dayAtCell(grid calendar.Grid, row, column int) int {
	week := row - calendarHeaderRows
	if week < 0 || column < 0 || column > 6 {
		return 0
	}
	day := week*7 + column - grid.LeadingBlanks + 1
	if day < 1 || day > grid.DaysInMonth {
		return 0
	}
	return day
}

func statusFor(err error) string {
	if err == nil {
		return ""
	}
	var persistErr *schedule.PersistError
	if errors.As(err, &persistErr) {
		return fmt.Sprintf("not saved (%s): %v", persistErr.Op, persistErr.Err)
	}
	return err.Error()
}

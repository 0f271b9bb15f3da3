package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/model"
)

// styles are bound to the command's writer so piped output stays plain.
type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	today  lipgloss.Style
	busy   lipgloss.Style
	done   lipgloss.Style
	cell   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	renderer := lipgloss.NewRenderer(w)
	return styles{
		title:  renderer.NewStyle().Bold(true),
		header: renderer.NewStyle().Foreground(lipgloss.Color("244")),
		today:  renderer.NewStyle().Bold(true).Reverse(true),
		busy:   renderer.NewStyle().Foreground(lipgloss.Color("33")),
		done:   renderer.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true),
		cell:   renderer.NewStyle().Padding(0, 1),
	}
}

func checkbox(todo model.Todo) string {
	if todo.Completed {
		return "[x]"
	}
	return "[ ]"
}

func formatTodoTable(w io.Writer, todos []model.Todo) string {
	if len(todos) == 0 {
		return "No todos found.\n"
	}

	st := newStyles(w)
	rows := make([][]string, 0, len(todos))
	for _, todo := range todos {
		date := todo.Date
		if date == "" {
			date = "-"
		}
		text := todo.Text
		if todo.Completed {
			text = st.done.Render(text)
		}
		rows = append(rows, []string{strconv.FormatInt(todo.ID, 10), checkbox(todo), date, todo.Time, text})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "DONE", "DATE", "TIME", "TEXT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header.Padding(0, 1)
			}
			return st.cell
		})
	return t.Render() + "\n"
}

// formatMonth renders the grid with today highlighted and days that still
// have pending todos coloured.
func formatMonth(w io.Writer, grid calendar.Grid) string {
	st := newStyles(w)

	var builder strings.Builder
	builder.WriteString(st.title.Render(grid.Title()))
	builder.WriteByte('\n')

	labels := make([]string, 0, 7)
	for _, label := range calendar.WeekdayLabels(grid.WeekStart) {
		labels = append(labels, fmt.Sprintf("%3s", label))
	}
	builder.WriteString(st.header.Render(strings.Join(labels, " ")))
	builder.WriteByte('\n')

	for _, week := range grid.Weeks() {
		cells := make([]string, 0, len(week))
		for _, day := range week {
			if day == nil {
				cells = append(cells, "   ")
				continue
			}
			cell := fmt.Sprintf("%3d", day.Day)
			switch {
			case day.Today:
				cell = st.today.Render(cell)
			case hasPending(day.Todos):
				cell = st.busy.Render(cell)
			}
			cells = append(cells, cell)
		}
		builder.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		builder.WriteByte('\n')
	}
	return builder.String()
}

func hasPending(todos []model.Todo) bool {
	for _, todo := range todos {
		if !todo.Completed {
			return true
		}
	}
	return false
}

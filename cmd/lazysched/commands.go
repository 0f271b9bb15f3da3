package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/ics"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/view"
)

// now is swapped in tests.
var now = time.Now

// withApp opens the app for the duration of fn.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var date, clock string

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a todo",
		Long: `Add a todo. The words of <text> are joined with spaces.

Without --date the todo lands on today (or has no date when the config
variant is "minimal"). Without --time it is scheduled at 09:00 (or the
current time in the minimal variant).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				input := schedule.TodoInput{Text: strings.Join(args, " "), Date: date, Time: clock}
				todo, created, err := a.store.Create(cmd.Context(), input)
				if !created {
					return errors.New("nothing added: text must not be blank and date/time must be YYYY-MM-DD and HH:MM")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d %s %s %s\n", todo.ID, todo.Date, todo.Time, todo.Text)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&clock, "time", "", "time as HH:MM (24h)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filterValue string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos sorted by date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := view.ParseFilter(filterValue)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				return printTodos(cmd, view.List(a.store.All(), filter), asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&filterValue, "filter", "all", "all, pending or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTodayCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List today's todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				todos := view.Sorted(view.OnDate(a.store.All(), model.DateKey(now())))
				return printTodos(cmd, todos, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printTodos(cmd *cobra.Command, todos []model.Todo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(todos)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), formatTodoTable(cmd.OutOrStdout(), todos))
	return err
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				changed, err := a.store.Toggle(cmd.Context(), id)
				if !changed {
					return fmt.Errorf("todo %d not found", id)
				}
				todo, _ := a.store.Get(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", checkbox(todo), todo.ID, todo.Text)
				return err
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				changed, err := a.store.Delete(cmd.Context(), id)
				if !changed {
					return fmt.Errorf("todo %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return err
			})
		},
	}
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month with its todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := now()
			year, month := calendar.FromTime(current)
			if monthValue != "" {
				parsed, err := time.Parse("2006-01", monthValue)
				if err != nil {
					return fmt.Errorf("invalid --month %q, want YYYY-MM", monthValue)
				}
				year, month = calendar.FromTime(parsed)
			}

			return withApp(opts, func(a *app) error {
				grid := calendar.Project(year, month, a.store.All(), calendar.Options{
					WeekStart: a.cfg.FirstWeekday(),
					Today:     model.DateKey(current),
				})

				out := cmd.OutOrStdout()
				fmt.Fprint(out, formatMonth(out, grid))
				for _, day := range grid.Days {
					if len(day.Todos) == 0 {
						continue
					}
					fmt.Fprintf(out, "\n%s\n", day.Key)
					for _, todo := range view.Sorted(day.Todos) {
						fmt.Fprintf(out, "  %s %s %s (%d)\n", checkbox(todo), todo.Time, todo.Text, todo.ID)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&monthValue, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func newExportICSCmd(opts *rootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export dated todos as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				payload := ics.Export(a.store.All(), now())
				if outPath == "" || outPath == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), payload)
					return err
				}
				if err := os.WriteFile(outPath, []byte(payload), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportICSCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-ics <file>",
		Short: "Import events from an iCalendar file as todos",
		Long: `Import events from an iCalendar file as todos.

Recurring events are skipped. Events whose summary starts with "[done] " are
imported as completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			entries, err := ics.Import(file)
			if err != nil {
				return err
			}

			return withApp(opts, func(a *app) error {
				imported, err := importEntries(cmd.Context(), a.store, entries)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d events\n", imported, len(entries))
				return err
			})
		},
	}
}

// importEntries keeps going after a failed save so that every entry is at
// least in memory for the next successful write; the first error is returned.
func importEntries(ctx context.Context, store *schedule.Store, entries []ics.Entry) (int, error) {
	var firstErr error
	imported := 0
	for _, entry := range entries {
		todo, created, err := store.Create(ctx, entry.Input)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !created {
			continue
		}
		imported++
		if entry.Completed {
			if _, err := store.Toggle(ctx, todo.ID); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return imported, firstErr
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

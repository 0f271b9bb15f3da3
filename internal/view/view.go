// Package view derives the read-only lists shown by the presentation layers.
// Nothing here mutates or caches the collection it is given.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Joseda-hg/lazysched/internal/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

var filterOrder = []Filter{FilterAll, FilterPending, FilterCompleted}

// ParseFilter treats an empty value as FilterAll.
func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.TrimSpace(strings.ToLower(value))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending:
		return FilterPending, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, pending or completed)", value)
	}
}

func (f Filter) Match(todo model.Todo) bool {
	switch f {
	case FilterPending:
		return !todo.Completed
	case FilterCompleted:
		return todo.Completed
	default:
		return true
	}
}

// Next cycles all -> pending -> completed -> all.
func (f Filter) Next() Filter {
	for i, candidate := range filterOrder {
		if candidate == f {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return FilterAll
}

func Apply(todos []model.Todo, filter Filter) []model.Todo {
	result := make([]model.Todo, 0, len(todos))
	for _, todo := range todos {
		if filter.Match(todo) {
			result = append(result, todo)
		}
	}
	return result
}

// Sorted returns a copy ordered by date, then time. Both are compared as
// strings; the zero-padded formats make that chronological.
func Sorted(todos []model.Todo) []model.Todo {
	result := append([]model.Todo(nil), todos...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].Time < result[j].Time
	})
	return result
}

// List is the list presentation: filtered, then sorted.
func List(todos []model.Todo, filter Filter) []model.Todo {
	return Sorted(Apply(todos, filter))
}

// OnDate returns the todos whose date equals key, in insertion order.
func OnDate(todos []model.Todo, key string) []model.Todo {
	result := make([]model.Todo, 0)
	for _, todo := range todos {
		if todo.Date == key {
			result = append(result, todo)
		}
	}
	return result
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

func Count(todos []model.Todo) Stats {
	stats := Stats{Total: len(todos)}
	for _, todo := range todos {
		if todo.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
	}
	return stats
}

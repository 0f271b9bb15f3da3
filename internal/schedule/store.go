// Package schedule owns the authoritative todo collection. Every mutation
// goes through Store and is written through to the persister before the call
// returns.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	appLog "github.com/Joseda-hg/lazysched/internal/log"
	"github.com/Joseda-hg/lazysched/internal/model"
)

// Persister writes the full collection, replacing whatever was saved before.
type Persister interface {
	Save(ctx context.Context, todos []model.Todo) error
}

// PersistError reports that a mutation was applied in memory but could not
// be saved. The next successful save persists it.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: save todos: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type TodoInput struct {
	Text string
	Date string
	Time string
}

type Store struct {
	mu      sync.Mutex
	todos   []model.Todo
	persist Persister
	variant model.Variant
	now     func() time.Time
	lastID  int64
}

type Option func(*Store)

func WithVariant(variant model.Variant) Option {
	return func(s *Store) {
		s.variant = variant
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLastID seeds the highest id ever issued, as recorded by the persister.
// Loaded todos raise it further.
func WithLastID(id int64) Option {
	return func(s *Store) {
		s.lastID = id
	}
}

// New takes ownership of initial, typically the result of a persistence load.
func New(initial []model.Todo, persist Persister, opts ...Option) *Store {
	s := &Store{
		todos:   append([]model.Todo(nil), initial...),
		persist: persist,
		variant: model.VariantCalendar,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, todo := range s.todos {
		if todo.ID > s.lastID {
			s.lastID = todo.ID
		}
	}
	return s
}

func (s *Store) Variant() model.Variant {
	return s.variant
}

// Create appends a todo built from input. Blank text or a malformed date or
// time makes it a no-op: created is false and nothing is written.
func (s *Store) Create(ctx context.Context, input TodoInput) (model.Todo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	todo, ok := model.NewTodo(s.nextID(now), input.Text, input.Date, input.Time, now, s.variant)
	if !ok {
		appLog.Debug("ignoring todo input", "text", input.Text, "date", input.Date, "time", input.Time)
		return model.Todo{}, false, nil
	}
	s.lastID = todo.ID
	s.todos = append(s.todos, todo)
	appLog.Info("todo created", "id", todo.ID, "date", todo.Date, "time", todo.Time)

	return todo, true, s.save(ctx, "create")
}

// Toggle flips Completed on the todo with id. An unknown id is a no-op.
func (s *Store) Toggle(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return false, nil
	}
	s.todos[index].Completed = !s.todos[index].Completed
	appLog.Info("todo toggled", "id", id, "completed", s.todos[index].Completed)

	return true, s.save(ctx, "toggle")
}

// Delete removes the todo with id. An unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return false, nil
	}
	s.todos = append(s.todos[:index], s.todos[index+1:]...)
	appLog.Info("todo deleted", "id", id)

	return true, s.save(ctx, "delete")
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Todo(nil), s.todos...)
}

func (s *Store) Get(id int64) (model.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return model.Todo{}, false
	}
	return s.todos[index], true
}

// nextID derives the id from the creation timestamp, bumping past the last
// issued id so ids stay unique even when the clock stalls or goes back.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

func (s *Store) indexOf(id int64) int {
	for i, todo := range s.todos {
		if todo.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context, op string) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, append([]model.Todo(nil), s.todos...)); err != nil {
		appLog.Error("persist todos failed", err, "op", op, "count", len(s.todos))
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

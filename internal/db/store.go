package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	appLog "github.com/Joseda-hg/lazysched/internal/log"
	"github.com/Joseda-hg/lazysched/internal/model"
)

// TodosKey names the slot holding the whole todo collection.
const TodosKey = "schedule-assistant-todos"

// LastIDKey names the slot holding the highest todo id ever saved. It
// outlives deletes so a restarted store never hands out an old id again.
const LastIDKey = "lazysched-last-id"

const todoSchemaURL = "https://lazysched.local/todo.schema.json"

//go:embed todo.schema.json
var todoSchemaJSON string

var todoSchema = mustCompileTodoSchema()

func mustCompileTodoSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(todoSchemaURL, strings.NewReader(todoSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add todo schema: %v", err))
	}
	return compiler.MustCompile(todoSchemaURL)
}

// Store persists the todo collection as a JSON array in a single slot.
type Store struct {
	Slot *Slot
	key  string
}

func NewStore(db *sql.DB) *Store {
	return &Store{Slot: NewSlot(db), key: TodosKey}
}

// Load returns the saved collection in insertion order. It never fails: a
// missing, unreadable or unparsable slot yields an empty collection, and
// records that do not match the todo schema are dropped individually.
func (s *Store) Load(ctx context.Context) []model.Todo {
	raw, ok, err := s.Slot.Get(ctx, s.key)
	if err != nil {
		appLog.Warn("todo slot unreadable, starting empty", "key", s.key, "err", err)
		return []model.Todo{}
	}
	if !ok {
		return []model.Todo{}
	}
	return decodeTodos(raw)
}

// LastID returns the highest id recorded by Save, or 0 when none was
// recorded or the slot cannot be read.
func (s *Store) LastID(ctx context.Context) int64 {
	raw, ok, err := s.Slot.Get(ctx, LastIDKey)
	if err != nil {
		appLog.Warn("last id slot unreadable", "key", LastIDKey, "err", err)
		return 0
	}
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		appLog.Warn("last id slot is not a number", "key", LastIDKey, "value", raw)
		return 0
	}
	return id
}

// Save overwrites the slot with the full collection and raises the last id
// mark to the newest id in it. Both are written in one transaction.
func (s *Store) Save(ctx context.Context, todos []model.Todo) error {
	if todos == nil {
		todos = []model.Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("marshal todos: %w", err)
	}

	last := s.LastID(ctx)
	for _, todo := range todos {
		if todo.ID > last {
			last = todo.ID
		}
	}
	return s.Slot.PutAll(ctx, map[string]string{
		s.key:     string(data),
		LastIDKey: strconv.FormatInt(last, 10),
	})
}

func decodeTodos(raw string) []model.Todo {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		appLog.Warn("todo slot is not a JSON array, starting empty", "err", err)
		return []model.Todo{}
	}

	todos := make([]model.Todo, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for index, record := range records {
		todo, err := decodeTodo(record)
		if err != nil {
			appLog.Warn("discarding malformed todo", "index", index, "err", err)
			continue
		}
		if _, ok := seen[todo.ID]; ok {
			appLog.Warn("discarding todo with duplicate id", "index", index, "id", todo.ID)
			continue
		}
		seen[todo.ID] = struct{}{}
		todos = append(todos, todo)
	}
	return todos
}

func decodeTodo(record json.RawMessage) (model.Todo, error) {
	var doc any
	if err := json.Unmarshal(record, &doc); err != nil {
		return model.Todo{}, err
	}
	if err := todoSchema.Validate(doc); err != nil {
		return model.Todo{}, err
	}

	var todo model.Todo
	if err := json.Unmarshal(record, &todo); err != nil {
		return model.Todo{}, err
	}
	todo.Text = strings.TrimSpace(todo.Text)
	if todo.Date != "" && !model.ValidDate(todo.Date) {
		return model.Todo{}, fmt.Errorf("invalid date %q", todo.Date)
	}
	return todo, nil
}

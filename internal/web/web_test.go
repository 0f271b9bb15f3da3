package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/config"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/view"
)

var fixedNow = time.Date(2024, time.March, 5, 8, 30, 0, 0, time.Local)

type failingPersister struct{}

func (failingPersister) Save(context.Context, []model.Todo) error {
	return errors.New("disk full")
}

func newTestServer(t *testing.T, todos []model.Todo, opts Options) (*Server, *schedule.Store) {
	t.Helper()
	store := schedule.New(todos, nil, schedule.WithClock(func() time.Time { return fixedNow }))
	opts.Now = func() time.Time { return fixedNow }
	return NewServer(store, opts), store
}

func seedTodos() []model.Todo {
	return []model.Todo{
		{ID: 1, Text: "Dentist", Date: "2024-03-05", Time: "14:00"},
		{ID: 2, Text: "Pay rent", Date: "2024-03-01", Time: "09:00", Completed: true},
		{ID: 3, Text: "Standup", Date: "2024-03-05", Time: "09:00"},
	}
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, nil, Options{BasicAuth: &config.BasicAuth{Username: "me", Password: "pw"}})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to bypass auth, got %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	server, _ := newTestServer(t, nil, Options{BasicAuth: &config.BasicAuth{Username: "me", Password: "pw"}})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.SetBasicAuth("me", "pw")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}
}

func TestListTodosSortedAndFiltered(t *testing.T) {
	server, _ := newTestServer(t, seedTodos(), Options{})
	handler := server.Handler()

	t.Run("all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos", nil))
		var todos []model.Todo
		if err := json.Unmarshal(rec.Body.Bytes(), &todos); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got := []int64{}
		for _, todo := range todos {
			got = append(got, todo.ID)
		}
		if len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 1 {
			t.Fatalf("unexpected order %v", got)
		}
	})

	t.Run("pending", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos?filter=pending", nil))
		var todos []model.Todo
		if err := json.Unmarshal(rec.Body.Bytes(), &todos); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, todo := range todos {
			if todo.Completed {
				t.Fatalf("unexpected completed todo %+v", todo)
			}
		}
		if len(todos) != 2 {
			t.Fatalf("expected 2 pending, got %d", len(todos))
		}
	})

	t.Run("unknown filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos?filter=later", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCreateTodo(t *testing.T) {
	server, store := newTestServer(t, nil, Options{})
	handler := server.Handler()

	body := strings.NewReader(`{"text":"  Dentist  ","date":"2024-03-05","time":"14:00"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp mutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Changed || resp.Todo == nil || resp.Todo.Text != "Dentist" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(store.All()) != 1 {
		t.Fatalf("expected todo in store")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"text":"   "}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored input, got %d", rec.Code)
	}
	resp = mutationResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Changed || len(store.All()) != 1 {
		t.Fatalf("expected blank text to be ignored")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestCreateTodoReportsPersistWarning(t *testing.T) {
	store := schedule.New(nil, failingPersister{}, schedule.WithClock(func() time.Time { return fixedNow }))
	server := NewServer(store, Options{Now: func() time.Time { return fixedNow }})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"text":"Dentist"}`)))
	var resp mutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Changed || !strings.Contains(resp.Warning, "disk full") {
		t.Fatalf("expected warning, got %+v", resp)
	}
	if len(store.All()) != 1 {
		t.Fatalf("expected in-memory todo to survive the failed save")
	}
}

func TestToggleAndDelete(t *testing.T) {
	server, store := newTestServer(t, seedTodos(), Options{})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos/1/toggle", nil))
	var resp mutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Changed || resp.Todo == nil || !resp.Todo.Completed {
		t.Fatalf("unexpected toggle response %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos/999/toggle", nil))
	resp = mutationResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Changed {
		t.Fatalf("expected unknown id toggle to be a no-op")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/todos/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := store.Get(2); ok {
		t.Fatalf("expected todo 2 to be deleted")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos/abc", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for bad id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/todos/1", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	server, _ := newTestServer(t, seedTodos(), Options{WeekStart: time.Monday})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calendar?year=2024&month=1", nil))
	var grid calendar.Grid
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if grid.DaysInMonth != 29 || grid.Month != 1 {
		t.Fatalf("expected february 2024, got %+v", grid)
	}
	// February 1st 2024 is a Thursday.
	if grid.LeadingBlanks != 3 {
		t.Fatalf("expected 3 leading blanks, got %d", grid.LeadingBlanks)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calendar", nil))
	grid = calendar.Grid{}
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	day := grid.Day(5)
	if day == nil || !day.Today || len(day.Todos) != 2 || day.Todos[0].ID != 1 {
		t.Fatalf("unexpected today cell %+v", day)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calendar?month=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTodayAndStats(t *testing.T) {
	server, _ := newTestServer(t, seedTodos(), Options{})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/today", nil))
	var today []model.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &today); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(today) != 2 {
		t.Fatalf("expected 2 todos today, got %d", len(today))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var stats view.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 2 || stats.Completed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestIndexRenders(t *testing.T) {
	server, _ := newTestServer(t, seedTodos(), Options{})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "March 2024") || !strings.Contains(body, "Dentist") {
		t.Fatalf("expected calendar view in body")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?view=list&filter=completed", nil))
	body = rec.Body.String()
	if !strings.Contains(body, "Pay rent") {
		t.Fatalf("expected completed todo in list view")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?month=2024-13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid month, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFormCreate(t *testing.T) {
	server, store := newTestServer(t, nil, Options{})

	form := url.Values{"text": {"Buy milk"}, "date": {"2024-03-06"}, "time": {"18:30"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	todos := store.All()
	if len(todos) != 1 || todos[0].Date != "2024-03-06" || todos[0].Time != "18:30" {
		t.Fatalf("unexpected todos %+v", todos)
	}
}

func TestICSExport(t *testing.T) {
	server, _ := newTestServer(t, seedTodos(), Options{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics", nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "UID:todo-1@lazysched") {
		t.Fatalf("expected event for todo 1")
	}
}

func TestParseTodoPath(t *testing.T) {
	id, action, err := parseTodoPath("/api/todos/42/toggle", "/api/todos/")
	if err != nil || id != 42 || action != "toggle" {
		t.Fatalf("unexpected parse %d %q %v", id, action, err)
	}
	if _, _, err := parseTodoPath("/api/todos/", "/api/todos/"); err == nil {
		t.Fatalf("expected missing id error")
	}
}

package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/config"
	"github.com/Joseda-hg/lazysched/internal/ics"
	appLog "github.com/Joseda-hg/lazysched/internal/log"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

type Options struct {
	WeekStart time.Weekday
	BasicAuth *config.BasicAuth
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	store *schedule.Store
	opts  Options
}

func NewServer(store *schedule.Store, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{store: store, opts: opts}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/calendar.ics", s.icsHandler)
	mux.HandleFunc("/api/todos", s.apiTodosHandler)
	mux.HandleFunc("/api/todos/", s.apiTodoHandler)
	mux.HandleFunc("/api/calendar", s.apiCalendarHandler)
	mux.HandleFunc("/api/today", s.apiTodayHandler)
	mux.HandleFunc("/api/stats", s.apiStatsHandler)

	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(mux)
	}
	return mux
}

type indexData struct {
	Today    string
	Stats    view.Stats
	Filter   view.Filter
	Filters  []view.Filter
	View     string
	List     []model.Todo
	TodayFor []model.Todo
	Grid     calendar.Grid
	Weeks    [][]*calendar.Day
	Weekdays []string
	PrevLink string
	NextLink string
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodPost {
		s.formCreateHandler(w, r)
		return
	}

	filter, err := view.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	now := s.opts.Now()
	year, month := calendar.FromTime(now)
	if value := strings.TrimSpace(r.URL.Query().Get("month")); value != "" {
		parsed, err := time.Parse("2006-01", value)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid month %q", value))
			return
		}
		year, month = calendar.FromTime(parsed)
	}

	mode := r.URL.Query().Get("view")
	if mode != "list" {
		mode = "calendar"
	}

	todos := s.store.All()
	today := model.DateKey(now)
	grid := calendar.Project(year, month, todos, calendar.Options{WeekStart: s.opts.WeekStart, Today: today})
	prevYear, prevMonth := calendar.Shift(year, month, -1)
	nextYear, nextMonth := calendar.Shift(year, month, 1)

	data := indexData{
		Today:    today,
		Stats:    view.Count(todos),
		Filter:   filter,
		Filters:  []view.Filter{view.FilterAll, view.FilterPending, view.FilterCompleted},
		View:     mode,
		List:     view.List(todos, filter),
		TodayFor: view.OnDate(todos, today),
		Grid:     grid,
		Weeks:    grid.Weeks(),
		Weekdays: calendar.WeekdayLabels(s.opts.WeekStart),
		PrevLink: fmt.Sprintf("/?view=calendar&month=%04d-%02d", prevYear, prevMonth+1),
		NextLink: fmt.Sprintf("/?view=calendar&month=%04d-%02d", nextYear, nextMonth+1),
	}

	if err := indexTemplate.Execute(w, data); err != nil {
		appLog.Error("render index", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) formCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input := schedule.TodoInput{
		Text: r.PostForm.Get("text"),
		Date: r.PostForm.Get("date"),
		Time: r.PostForm.Get("time"),
	}
	if _, _, err := s.store.Create(r.Context(), input); err != nil {
		appLog.Warn("web create not persisted", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type mutationResponse struct {
	Changed bool        `json:"changed"`
	Todo    *model.Todo `json:"todo,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

func (s *Server) apiTodosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := view.ParseFilter(r.URL.Query().Get("filter"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, view.List(s.store.All(), filter))
	case http.MethodPost:
		var input struct {
			Text string `json:"text"`
			Date string `json:"date"`
			Time string `json:"time"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode todo: %w", err))
			return
		}
		todo, created, err := s.store.Create(r.Context(), schedule.TodoInput{Text: input.Text, Date: input.Date, Time: input.Time})
		response := mutationResponse{Changed: created, Warning: warningFor(err)}
		if created {
			response.Todo = &todo
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(response)
			return
		}
		writeJSON(w, response)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) apiTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseTodoPath(r.URL.Path, "/api/todos/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		todo, ok := s.store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("todo %d not found", id))
			return
		}
		writeJSON(w, todo)
	case action == "" && r.Method == http.MethodDelete:
		changed, err := s.store.Delete(r.Context(), id)
		writeJSON(w, mutationResponse{Changed: changed, Warning: warningFor(err)})
	case action == "toggle" && r.Method == http.MethodPost:
		changed, err := s.store.Toggle(r.Context(), id)
		response := mutationResponse{Changed: changed, Warning: warningFor(err)}
		if todo, ok := s.store.Get(id); ok {
			response.Todo = &todo
		}
		writeJSON(w, response)
	case action == "" || action == "toggle":
		methodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
	}
}

func (s *Server) apiCalendarHandler(w http.ResponseWriter, r *http.Request) {
	now := s.opts.Now()
	year, month := calendar.FromTime(now)
	if value := r.URL.Query().Get("year"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid year %q", value))
			return
		}
		year = parsed
	}
	if value := r.URL.Query().Get("month"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid month %q", value))
			return
		}
		month = parsed
	}

	grid := calendar.Project(year, month, s.store.All(), calendar.Options{
		WeekStart: s.opts.WeekStart,
		Today:     model.DateKey(now),
	})
	writeJSON(w, grid)
}

func (s *Server) apiTodayHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, view.OnDate(s.store.All(), model.DateKey(s.opts.Now())))
}

func (s *Server) apiStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, view.Count(s.store.All()))
}

func (s *Server) icsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lazysched.ics"`)
	_, _ = w.Write([]byte(ics.Export(s.store.All(), s.opts.Now())))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) basicAuthEnabled() bool {
	auth := s.opts.BasicAuth
	return auth != nil && auth.Username != "" && auth.Password != ""
}

// basicAuthMiddleware guards every route except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.opts.BasicAuth.Username
	password := s.opts.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="lazysched", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// parseTodoPath splits "/api/todos/{id}[/{action}]".
func parseTodoPath(path, prefix string) (int64, string, error) {
	if !strings.HasPrefix(path, prefix) {
		return 0, "", fmt.Errorf("invalid path")
	}
	value := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if value == "" {
		return 0, "", fmt.Errorf("missing id")
	}
	idPart, action, _ := strings.Cut(value, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid id %q", idPart)
	}
	return id, action, nil
}

func warningFor(err error) string {
	if err == nil {
		return ""
	}
	var persistErr *schedule.PersistError
	if errors.As(err, &persistErr) {
		return "changes kept in memory but not saved: " + persistErr.Err.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

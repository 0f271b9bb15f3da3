package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Joseda-hg/lazysched/internal/db"
	"github.com/Joseda-hg/lazysched/internal/model"
)

func TestCreateRejectsBlanks(t *testing.T) {
	store, persisted := newTestStore(t)

	if _, created, err := store.Create(context.Background(), TodoInput{Text: "   "}); err != nil || created {
		t.Fatalf("expected blank text to be ignored, created=%v err=%v", created, err)
	}
	if len(store.All()) != 0 {
		t.Fatalf("expected collection to stay empty")
	}
	if persisted.saves != 0 {
		t.Fatalf("expected no persistence write for a no-op, got %d", persisted.saves)
	}

	todo, created, err := store.Create(context.Background(), TodoInput{Text: "buy milk"})
	if err != nil || !created {
		t.Fatalf("expected todo to be created, created=%v err=%v", created, err)
	}
	if todo.Completed {
		t.Fatalf("expected new todo to be pending")
	}
	if got := len(store.All()); got != 1 {
		t.Fatalf("expected 1 todo, got %d", got)
	}
	if persisted.saves != 1 || len(persisted.last) != 1 {
		t.Fatalf("expected one write of the full collection, got %d writes %+v", persisted.saves, persisted.last)
	}
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	frozen := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.Local)
	store := New(nil, &recordingPersister{}, WithClock(func() time.Time { return frozen }))

	first, _, _ := store.Create(context.Background(), TodoInput{Text: "one"})
	second, _, _ := store.Create(context.Background(), TodoInput{Text: "two"})
	if first.ID != frozen.UnixMilli() {
		t.Fatalf("expected id from the creation timestamp, got %d", first.ID)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}

	if _, err := store.Delete(context.Background(), second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, _, _ := store.Create(context.Background(), TodoInput{Text: "three"})
	if third.ID == second.ID || third.ID <= second.ID {
		t.Fatalf("expected deleted id %d not to be reused, got %d", second.ID, third.ID)
	}
}

func TestNewContinuesAfterLoadedIDs(t *testing.T) {
	past := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.Local)
	initial := []model.Todo{{ID: past.UnixMilli() + 5000, Text: "old", Date: "2020-01-01", Time: "09:00"}}
	store := New(initial, nil, WithClock(func() time.Time { return past }))

	todo, _, _ := store.Create(context.Background(), TodoInput{Text: "new"})
	if todo.ID != initial[0].ID+1 {
		t.Fatalf("expected id after the loaded maximum, got %d", todo.ID)
	}
}

func TestAbsentIDIsNoop(t *testing.T) {
	store, persisted := newTestStore(t)
	if _, _, err := store.Create(context.Background(), TodoInput{Text: "keep"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := store.All()
	saves := persisted.saves

	if changed, err := store.Toggle(context.Background(), 12345); err != nil || changed {
		t.Fatalf("expected toggle of missing id to be a no-op, changed=%v err=%v", changed, err)
	}
	if changed, err := store.Delete(context.Background(), 12345); err != nil || changed {
		t.Fatalf("expected delete of missing id to be a no-op, changed=%v err=%v", changed, err)
	}
	if !reflect.DeepEqual(store.All(), before) {
		t.Fatalf("expected collection unchanged")
	}
	if persisted.saves != saves {
		t.Fatalf("expected no writes for no-ops")
	}
}

func TestToggleInvolution(t *testing.T) {
	store, _ := newTestStore(t)
	todo, _, _ := store.Create(context.Background(), TodoInput{Text: "laundry"})

	if _, err := store.Toggle(context.Background(), todo.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, _ := store.Get(todo.ID)
	if !got.Completed {
		t.Fatalf("expected todo to be completed")
	}
	if _, err := store.Toggle(context.Background(), todo.ID); err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	got, _ = store.Get(todo.ID)
	if got.Completed != todo.Completed {
		t.Fatalf("expected completed to be restored")
	}
}

func TestOrderIsInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	texts := []string{"late", "early", "middle"}
	dates := []string{"2024-05-01", "2024-01-01", "2024-03-01"}
	for i := range texts {
		if _, _, err := store.Create(context.Background(), TodoInput{Text: texts[i], Date: dates[i]}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all := store.All()
	if _, err := store.Toggle(context.Background(), all[1].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	all = store.All()
	for i, todo := range all {
		if todo.Text != texts[i] {
			t.Fatalf("expected insertion order %v, got %+v", texts, all)
		}
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	todo, _, _ := store.Create(context.Background(), TodoInput{Text: "snapshot"})

	snapshot := store.All()
	snapshot[0].Text = "mutated"
	if got, _ := store.Get(todo.ID); got.Text != "snapshot" {
		t.Fatalf("expected store to be unaffected by snapshot mutation")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	failing := &recordingPersister{err: errors.New("quota exceeded")}
	store := New(nil, failing)

	todo, created, err := store.Create(context.Background(), TodoInput{Text: "still here"})
	if !created {
		t.Fatalf("expected todo to be created in memory")
	}
	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if persistErr.Op != "create" || !errors.Is(err, failing.err) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, ok := store.Get(todo.ID); !ok {
		t.Fatalf("expected todo to remain in memory")
	}

	failing.err = nil
	if _, err := store.Toggle(context.Background(), todo.ID); err != nil {
		t.Fatalf("toggle after recovery: %v", err)
	}
	if len(failing.last) != 1 || !failing.last[0].Completed {
		t.Fatalf("expected next successful save to carry everything, got %+v", failing.last)
	}
}

func TestDentistScenario(t *testing.T) {
	sqlDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()
	persistence := db.NewStore(sqlDB)
	store := New(persistence.Load(context.Background()), persistence)

	todo, created, err := store.Create(context.Background(), TodoInput{Text: "Dentist", Date: "2024-03-05", Time: "14:00"})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	reloaded := persistence.Load(context.Background())
	if len(reloaded) != 1 || reloaded[0] != todo {
		t.Fatalf("expected persisted todo %+v, got %+v", todo, reloaded)
	}

	if _, err := store.Toggle(context.Background(), todo.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if reloaded := persistence.Load(context.Background()); !reloaded[0].Completed {
		t.Fatalf("expected persisted todo to be completed")
	}

	if _, err := store.Delete(context.Background(), todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if reloaded := persistence.Load(context.Background()); len(reloaded) != 0 {
		t.Fatalf("expected persisted slot to be empty, got %+v", reloaded)
	}
}

func TestIDsAreNotReusedAfterRestart(t *testing.T) {
	sqlDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()
	persistence := db.NewStore(sqlDB)

	frozen := time.UnixMilli(5000)
	clock := WithClock(func() time.Time { return frozen })
	store := New(persistence.Load(context.Background()), persistence, clock)

	first, _, err := store.Create(context.Background(), TodoInput{Text: "a", Date: "2024-03-05"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newest, _, err := store.Create(context.Background(), TodoInput{Text: "b", Date: "2024-03-05"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Delete(context.Background(), newest.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	restarted := New(persistence.Load(context.Background()), persistence,
		WithLastID(persistence.LastID(context.Background())), clock)
	next, _, err := restarted.Create(context.Background(), TodoInput{Text: "c", Date: "2024-03-05"})
	if err != nil {
		t.Fatalf("create after restart: %v", err)
	}
	if next.ID == newest.ID || next.ID == first.ID || next.ID <= newest.ID {
		t.Fatalf("expected a fresh id after %d, got %d", newest.ID, next.ID)
	}
}

type recordingPersister struct {
	saves int
	last  []model.Todo
	err   error
}

func (p *recordingPersister) Save(_ context.Context, todos []model.Todo) error {
	if p.err != nil {
		return p.err
	}
	p.saves++
	p.last = todos
	return nil
}

func newTestStore(t *testing.T) (*Store, *recordingPersister) {
	t.Helper()
	persisted := &recordingPersister{}
	return New(nil, persisted), persisted
}

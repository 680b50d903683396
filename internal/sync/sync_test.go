package sync

import (
	"context"
	"errors"
	"reflect"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/habit-calendar/internal/model"
)

const owner = "owner-1"

func entry(id, date string) model.LogEntry {
	return model.LogEntry{HabitID: id, Date: model.MustParseDate(date), OwnerID: owner}
}

func TestDiffProperties(t *testing.T) {
	cases := []struct {
		existing, incoming []string
	}{
		{nil, nil},
		{[]string{"h1", "h2"}, []string{"h2", "h3"}},
		{[]string{"h1", "h1", "h2"}, []string{"h2"}},
		{nil, []string{"a", "b", "a"}},
		{[]string{"a", "b"}, nil},
		{[]string{"a", "b", "c"}, []string{"c", "b", "a"}},
	}
	for _, tc := range cases {
		d := Diff(tc.existing, tc.incoming)

		ins := make(map[string]bool)
		for _, id := range d.ToInsert {
			ins[id] = true
		}
		for _, id := range d.ToDelete {
			if ins[id] {
				t.Fatalf("%v -> %v: %q in both insert and delete", tc.existing, tc.incoming, id)
			}
		}

		result := make(map[string]bool)
		for _, id := range Difference(tc.existing, d.ToDelete) {
			result[id] = true
		}
		for _, id := range d.ToInsert {
			result[id] = true
		}
		want := make(map[string]bool)
		for _, id := range tc.incoming {
			want[id] = true
		}
		if !reflect.DeepEqual(result, want) {
			t.Fatalf("%v -> %v: reconstructed %v", tc.existing, tc.incoming, result)
		}
	}
}

func TestDeltaChange(t *testing.T) {
	d := Delta{ToInsert: []string{"h3"}, ToDelete: []string{"h1"}}
	if d.Change("h3") != 1 || d.Change("h1") != -1 || d.Change("h2") != 0 {
		t.Fatalf("unexpected changes for %+v", d)
	}
}

func TestLoadGroupsAndDeduplicates(t *testing.T) {
	fs := newFakeStore()
	fs.habits = []model.Habit{{ID: "h1", OwnerID: owner, Title: "Run", Active: true}}
	fs.entries = []model.LogEntry{
		entry("h2", "2024-03-05"),
		entry("h1", "2024-03-05"),
		entry("h2", "2024-03-05"),
		entry("h1", "2024-04-01"),
		entry("h1", "2024-02-29"),
	}
	cache := NewLogCache()
	l := NewLoader(fs, fs, cache, nil)

	ml, err := l.Load(context.Background(), owner, 2024, time.March)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ml.Window.Start.String() != "2024-03-01" || ml.Window.End.String() != "2024-04-01" {
		t.Fatalf("window = %+v", ml.Window)
	}
	day := model.MustParseDate("2024-03-05")
	if got := cache.Raw(day); !reflect.DeepEqual(got, []string{"h2", "h1", "h2"}) {
		t.Fatalf("raw = %v", got)
	}
	if got := cache.Get(day); !reflect.DeepEqual(got, []string{"h2", "h1"}) {
		t.Fatalf("get = %v", got)
	}
	if len(cache.Snapshot()) != 1 {
		t.Fatalf("entries outside the window leaked into the cache: %v", cache.Snapshot())
	}
	if hs := l.Habits(); len(hs) != 1 || hs[0].ID != "h1" {
		t.Fatalf("habits = %+v", hs)
	}
}

func TestLoadFailureKeepsPreviousCache(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{entry("h1", "2024-03-05")}
	cache := NewLogCache()
	l := NewLoader(fs, fs, cache, nil)

	if _, err := l.Load(context.Background(), owner, 2024, time.March); err != nil {
		t.Fatalf("Load: %v", err)
	}

	fs.listErr = model.NewError(model.KindNetwork, "list logs", errors.New("timeout"))
	_, err := l.Load(context.Background(), owner, 2024, time.April)
	if !model.IsKind(err, model.KindNetwork) {
		t.Fatalf("got %v, want network error", err)
	}

	w, ok := cache.Window()
	if !ok || w.Month() != time.March {
		t.Fatalf("window changed after failed load: %+v", w)
	}
	if got := cache.Get(model.MustParseDate("2024-03-05")); len(got) != 1 {
		t.Fatalf("cache cleared after failed load: %v", got)
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{
		entry("h1", "2024-01-10"),
		entry("h2", "2024-02-10"),
	}
	janGate := make(chan struct{})
	fs.gates[model.MustParseDate("2024-01-01")] = janGate

	cache := NewLogCache()
	l := NewLoader(fs, fs, cache, nil)
	ctx := context.Background()

	janDone := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, owner, 2024, time.January)
		janDone <- err
	}()

	// Wait until the January load has issued its token.
	for Token(l.gen.Load()) == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, err := l.Load(ctx, owner, 2024, time.February); err != nil {
		t.Fatalf("February load: %v", err)
	}
	close(janGate)

	if err := <-janDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("January load returned %v, want ErrSuperseded", err)
	}
	w, _ := cache.Window()
	if w.Month() != time.February {
		t.Fatalf("stale load overwrote cache: window %+v", w)
	}
	if got := cache.Get(model.MustParseDate("2024-02-10")); !reflect.DeepEqual(got, []string{"h2"}) {
		t.Fatalf("february entries = %v", got)
	}
}

func loaded(t *testing.T, fs *fakeStore) (*LogCache, *Reconciler) {
	t.Helper()
	cache := NewLogCache()
	if _, err := NewLoader(fs, fs, cache, nil).Load(context.Background(), owner, 2024, time.March); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cache, NewReconciler(fs, cache, nil)
}

func TestReconcileReplacesSet(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{entry("h1", "2024-03-05"), entry("h2", "2024-03-05")}
	cache, r := loaded(t, fs)
	day := model.MustParseDate("2024-03-05")

	var got []Delta
	unsubscribe := r.Subscribe(ListenerFunc(func(d Delta) { got = append(got, d) }))
	defer unsubscribe()

	delta, err := r.Reconcile(context.Background(), owner, day, []string{"h2", "h3"})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !reflect.DeepEqual(delta.ToDelete, []string{"h1"}) || !reflect.DeepEqual(delta.ToInsert, []string{"h3"}) {
		t.Fatalf("delta = %+v", delta)
	}
	if c := cache.Get(day); !reflect.DeepEqual(c, []string{"h2", "h3"}) {
		t.Fatalf("cache = %v", c)
	}
	calls := fs.Calls()
	if calls[len(calls)-2] != "DeleteLogs" || calls[len(calls)-1] != "UpsertLogs" {
		t.Fatalf("expected delete before upsert, calls %v", calls)
	}
	if len(got) != 1 || got[0].Date != day {
		t.Fatalf("listener got %+v", got)
	}
	if r.State(day) != EditIdle {
		t.Fatalf("state = %s", r.State(day))
	}
}

func TestReconcileNoChangeIssuesNoStoreCalls(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{entry("h1", "2024-03-05"), entry("h1", "2024-03-05")}
	_, r := loaded(t, fs)
	before := len(fs.Calls())

	delta, err := r.Reconcile(context.Background(), owner, model.MustParseDate("2024-03-05"), []string{"h1"})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !delta.Empty() {
		t.Fatalf("delta = %+v", delta)
	}
	if n := len(fs.Calls()); n != before {
		t.Fatalf("store called %d times for a no-op", n-before)
	}
}

func TestReconcileFailureLeavesCache(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{entry("h1", "2024-03-05")}
	cache, r := loaded(t, fs)
	day := model.MustParseDate("2024-03-05")
	fs.upsertErr = model.NewError(model.KindConflict, "upsert", errors.New("constraint"))

	notified := false
	r.Subscribe(ListenerFunc(func(Delta) { notified = true }))

	r.BeginEdit(day)
	_, err := r.Reconcile(context.Background(), owner, day, []string{"h2"})
	if !model.IsKind(err, model.KindConflict) {
		t.Fatalf("got %v, want conflict", err)
	}
	if c := cache.Get(day); !reflect.DeepEqual(c, []string{"h1"}) {
		t.Fatalf("cache changed after failure: %v", c)
	}
	if notified {
		t.Fatalf("listener notified of a failed save")
	}
	if r.State(day) != EditEditing {
		t.Fatalf("state = %s, want editing", r.State(day))
	}
}

func TestReconcileOutsideWindow(t *testing.T) {
	fs := newFakeStore()
	_, r := loaded(t, fs)
	_, err := r.Reconcile(context.Background(), owner, model.MustParseDate("2024-04-01"), []string{"h1"})
	if !model.IsKind(err, model.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestConcurrentReconcilesUseLiveCache(t *testing.T) {
	fs := newFakeStore()
	cache, r := loaded(t, fs)
	day := model.MustParseDate("2024-03-05")

	var wg gosync.WaitGroup
	for _, id := range []string{"h1", "h2", "h3", "h4"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// Each caller adds its own habit on top of whatever is cached
			// when it runs.
			if _, err := r.Reconcile(context.Background(), owner, day, append(cache.Get(day), id)); err != nil {
				t.Errorf("Reconcile %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	stored, _ := fs.ListLogs(context.Background(), owner, day, day.AddDays(1))
	cached := cache.Get(day)
	if len(stored) != len(cached) {
		t.Fatalf("store has %d entries, cache has %v", len(stored), cached)
	}
	for _, e := range stored {
		found := false
		for _, id := range cached {
			if id == e.HabitID {
				found = true
			}
		}
		if !found {
			t.Fatalf("stored %s missing from cache %v", e.HabitID, cached)
		}
	}
}

func TestEditStates(t *testing.T) {
	r := NewReconciler(newFakeStore(), NewLogCache(), nil)
	day := model.MustParseDate("2024-03-05")

	if !r.BeginEdit(day) {
		t.Fatalf("BeginEdit on idle date failed")
	}
	if r.BeginEdit(day) {
		t.Fatalf("second BeginEdit should be refused")
	}
	r.CancelEdit(day)
	if r.State(day) != EditIdle {
		t.Fatalf("state after cancel = %s", r.State(day))
	}
}

func TestCacheReplaceOutsideWindowIgnored(t *testing.T) {
	cache := NewLogCache()
	if cache.Replace(model.MustParseDate("2024-03-05"), []string{"h1"}) {
		t.Fatalf("replace accepted with nothing loaded")
	}
}

func TestReloadReadBeforeSaveKeepsSavedDate(t *testing.T) {
	fs := newFakeStore()
	fs.entries = []model.LogEntry{entry("h1", "2024-03-05")}
	cache, r := loaded(t, fs)
	l := NewLoader(fs, fs, cache, nil)
	ctx := context.Background()
	day := model.MustParseDate("2024-03-05")

	// The reload reads {h1}, then the save lands before the reload applies.
	fs.mu.Lock()
	fs.afterList = func() {
		if _, err := r.Reconcile(ctx, owner, day, []string{"h2"}); err != nil {
			t.Errorf("Reconcile: %v", err)
		}
	}
	fs.mu.Unlock()

	if _, err := l.Load(ctx, owner, 2024, time.March); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cache.Get(day); !reflect.DeepEqual(got, []string{"h2"}) {
		t.Fatalf("saved date reverted to %v", got)
	}

	// A later load that saw the save drops the overlay and reads the store.
	fs.mu.Lock()
	fs.entries = append(fs.entries, entry("h3", "2024-03-05"))
	fs.mu.Unlock()
	if _, err := l.Load(ctx, owner, 2024, time.March); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cache.Get(day); !reflect.DeepEqual(got, []string{"h2", "h3"}) {
		t.Fatalf("second load = %v", got)
	}
}

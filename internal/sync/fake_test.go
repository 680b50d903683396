package sync

import (
	"context"
	gosync "sync"

	"github.com/nhle/habit-calendar/internal/model"
)

// fakeStore is an in-memory HabitStore and LogStore that records calls.
type fakeStore struct {
	mu      gosync.Mutex
	habits  []model.Habit
	entries []model.LogEntry

	calls     []string
	deleteErr error
	upsertErr error
	listErr   error

	// gates, keyed by window start, block ListLogs until closed.
	gates map[model.Date]chan struct{}
	// afterList runs once, after ListLogs has read its rows.
	afterList func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{gates: make(map[model.Date]chan struct{})}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStore) ListActiveHabits(ctx context.Context, ownerID string) ([]model.Habit, error) {
	f.record("ListActiveHabits")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Habit
	for _, h := range f.habits {
		if h.OwnerID == ownerID && h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) GetHabit(ctx context.Context, ownerID, id string) (*model.Habit, error) {
	return nil, nil
}

func (f *fakeStore) CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
	return h, nil
}

func (f *fakeStore) UpdateHabit(ctx context.Context, h model.Habit) error { return nil }

func (f *fakeStore) DeactivateHabit(ctx context.Context, ownerID, id string) error { return nil }

func (f *fakeStore) DeleteHabit(ctx context.Context, ownerID, id string) error { return nil }

func (f *fakeStore) ListLogs(ctx context.Context, ownerID string, start, end model.Date) ([]model.LogEntry, error) {
	f.record("ListLogs")
	f.mu.Lock()
	gate := f.gates[start]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	if f.listErr != nil {
		f.mu.Unlock()
		return nil, f.listErr
	}
	var out []model.LogEntry
	for _, e := range f.entries {
		if e.OwnerID == ownerID && !e.Date.Before(start) && e.Date.Before(end) {
			out = append(out, e)
		}
	}
	hook := f.afterList
	f.afterList = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeStore) DeleteLogs(ctx context.Context, ownerID string, date model.Date, habitIDs []string) error {
	f.record("DeleteLogs")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	drop := make(map[string]bool, len(habitIDs))
	for _, id := range habitIDs {
		drop[id] = true
	}
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.OwnerID == ownerID && e.Date == date && drop[e.HabitID] {
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return nil
}

func (f *fakeStore) UpsertLogs(ctx context.Context, entries []model.LogEntry) error {
	f.record("UpsertLogs")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, e := range entries {
		exists := false
		for _, have := range f.entries {
			if have.HabitID == e.HabitID && have.Date == e.Date {
				exists = true
				break
			}
		}
		if !exists {
			f.entries = append(f.entries, e)
		}
	}
	return nil
}

func (f *fakeStore) CountCompletions(ctx context.Context, ownerID string, habitIDs []string, start, end model.Date) (map[string]int, error) {
	return map[string]int{}, nil
}

package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/metrics"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/store"
)

// EditState is where a date is in the edit cycle.
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	default:
		return "idle"
	}
}

// Listener receives every delta that was persisted successfully.
type Listener interface {
	Apply(Delta)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Delta)

func (f ListenerFunc) Apply(d Delta) { f(d) }

type dateLock struct {
	mu   gosync.Mutex
	refs int
}

// Reconciler persists single-date edits as set-difference deltas and
// updates the cache once the store has accepted them.
type Reconciler struct {
	logs   store.LogStore
	cache  *LogCache
	logger *zap.Logger

	mu        gosync.Mutex
	locks     map[model.Date]*dateLock
	states    map[model.Date]EditState
	listeners map[int]Listener
	nextID    int
}

// NewReconciler creates a reconciler writing to logs and updating cache.
func NewReconciler(logs store.LogStore, cache *LogCache, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		logs:      logs,
		cache:     cache,
		logger:    logger,
		locks:     make(map[model.Date]*dateLock),
		states:    make(map[model.Date]EditState),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for successful deltas and returns a function that
// removes it again.
func (r *Reconciler) Subscribe(l Listener) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// State returns the edit state of date.
func (r *Reconciler) State(date model.Date) EditState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[date]
}

// BeginEdit moves an idle date to Editing. It reports false if the date is
// already being edited or saved.
func (r *Reconciler) BeginEdit(date model.Date) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[date] != EditIdle {
		return false
	}
	r.states[date] = EditEditing
	return true
}

// CancelEdit abandons an edit. A save in flight is not affected.
func (r *Reconciler) CancelEdit(date model.Date) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[date] == EditEditing {
		delete(r.states, date)
	}
}

// Reconcile makes the stored completion set of date equal incoming for
// ownerID. The delta is computed against the cache after any earlier
// reconcile of the same date has finished. The cache and listeners are
// only touched when every store call succeeded.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID string, date model.Date, incoming []string) (Delta, error) {
	if !r.cache.Contains(date) {
		return Delta{Date: date}, model.Validation("reconcile",
			fmt.Errorf("date %s is outside the loaded month", date))
	}

	unlock := r.lock(date)
	defer unlock()

	r.setState(date, EditSaving)
	log := r.logger.With(zap.String("date", date.String()))

	incoming = Dedup(incoming)
	delta := Diff(r.cache.Get(date), incoming)
	delta.Date = date

	if delta.Empty() {
		r.setState(date, EditIdle)
		metrics.IncrementReconcile("noop")
		log.Debug("Nothing to reconcile")
		return delta, nil
	}

	if err := r.persist(ctx, ownerID, delta); err != nil {
		r.setState(date, EditEditing)
		metrics.IncrementReconcile("failed")
		log.Error("Saving completions failed",
			zap.Strings("insert", delta.ToInsert),
			zap.Strings("delete", delta.ToDelete),
			zap.Error(err),
		)
		return delta, err
	}

	r.cache.Replace(date, incoming)
	r.setState(date, EditIdle)
	metrics.IncrementReconcile("saved")
	metrics.AddDelta(len(delta.ToInsert), len(delta.ToDelete))
	log.Debug("Completions saved",
		zap.Int("inserted", len(delta.ToInsert)),
		zap.Int("deleted", len(delta.ToDelete)),
	)

	r.notify(delta)
	return delta, nil
}

// persist deletes before it inserts.
func (r *Reconciler) persist(ctx context.Context, ownerID string, delta Delta) error {
	if len(delta.ToDelete) > 0 {
		if err := r.logs.DeleteLogs(ctx, ownerID, delta.Date, delta.ToDelete); err != nil {
			return fmt.Errorf("deleting completions on %s: %w", delta.Date, err)
		}
	}
	if len(delta.ToInsert) > 0 {
		entries := make([]model.LogEntry, 0, len(delta.ToInsert))
		for _, id := range delta.ToInsert {
			entries = append(entries, model.LogEntry{HabitID: id, Date: delta.Date, OwnerID: ownerID})
		}
		if err := r.logs.UpsertLogs(ctx, entries); err != nil {
			return fmt.Errorf("inserting completions on %s: %w", delta.Date, err)
		}
	}
	return nil
}

func (r *Reconciler) notify(delta Delta) {
	r.mu.Lock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l.Apply(delta)
	}
}

func (r *Reconciler) setState(date model.Date, s EditState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == EditIdle {
		delete(r.states, date)
		return
	}
	r.states[date] = s
}

// lock serialises reconciles of one date. Locks are dropped from the map
// once nobody holds or waits on them.
func (r *Reconciler) lock(date model.Date) func() {
	r.mu.Lock()
	dl, ok := r.locks[date]
	if !ok {
		dl = &dateLock{}
		r.locks[date] = dl
	}
	dl.refs++
	r.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		r.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(r.locks, date)
		}
		r.mu.Unlock()
	}
}

package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/progress"
)

// CreateHabit validates in, stores the habit and reloads the month so it
// shows up in checklists.
func (e *Engine) CreateHabit(ctx context.Context, in model.HabitInput) (model.Habit, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Habit{}, err
	}
	s, err := e.current(ctx)
	if err != nil {
		return model.Habit{}, err
	}

	h := model.Habit{OwnerID: s.OwnerID, StartDate: e.Today()}
	in.Apply(&h)
	created, err := e.store.CreateHabit(ctx, h)
	if err != nil {
		return model.Habit{}, e.authCheck(ctx, err)
	}
	e.logger.Info("Habit created", zap.String("id", created.ID), zap.String("title", created.Title))

	return created, e.refresh(ctx)
}

// UpdateHabit applies in to an existing habit.
func (e *Engine) UpdateHabit(ctx context.Context, id string, in model.HabitInput) (model.Habit, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Habit{}, err
	}
	s, err := e.current(ctx)
	if err != nil {
		return model.Habit{}, err
	}

	h, err := e.store.GetHabit(ctx, s.OwnerID, id)
	if err != nil {
		return model.Habit{}, e.authCheck(ctx, err)
	}
	in.Apply(h)
	if err := e.store.UpdateHabit(ctx, *h); err != nil {
		return model.Habit{}, e.authCheck(ctx, err)
	}
	return *h, e.refresh(ctx)
}

// ArchiveHabit deactivates a habit, keeping its history.
func (e *Engine) ArchiveHabit(ctx context.Context, id string) error {
	s, err := e.current(ctx)
	if err != nil {
		return err
	}
	if err := e.store.DeactivateHabit(ctx, s.OwnerID, id); err != nil {
		return e.authCheck(ctx, err)
	}
	return e.refresh(ctx)
}

// DeleteHabit removes a habit and its logs, then reloads the month so the
// deleted completions disappear from the grid.
func (e *Engine) DeleteHabit(ctx context.Context, id string) error {
	s, err := e.current(ctx)
	if err != nil {
		return err
	}
	if err := e.store.DeleteHabit(ctx, s.OwnerID, id); err != nil {
		return e.authCheck(ctx, err)
	}
	e.logger.Info("Habit deleted", zap.String("id", id))
	return e.refresh(ctx)
}

// refresh reloads the loaded month, if any.
func (e *Engine) refresh(ctx context.Context) error {
	if _, ok := e.cache.Window(); !ok {
		return nil
	}
	if _, err := e.Reload(ctx); err != nil {
		return fmt.Errorf("reloading month: %w", err)
	}
	return nil
}

// OpenProgress loads counters for the active habits and keeps them
// current from saved edits until CloseProgress.
func (e *Engine) OpenProgress(ctx context.Context) ([]progress.Summary, error) {
	s, err := e.current(ctx)
	if err != nil {
		return nil, err
	}

	habits := e.loader.Habits()
	if _, ok := e.cache.Window(); !ok {
		habits, err = e.store.ListActiveHabits(ctx, s.OwnerID)
		if err != nil {
			return nil, e.authCheck(ctx, err)
		}
	}

	today := e.Today()
	if err := e.projector.Open(ctx, s.OwnerID, habits, today); err != nil {
		return nil, e.authCheck(ctx, err)
	}

	e.mu.Lock()
	if e.unsubscribe == nil {
		e.unsubscribe = e.reconciler.Subscribe(e.projector)
	}
	e.mu.Unlock()

	return e.projector.Summaries(today), nil
}

// Progress returns the current counters; nil when the panel is closed.
func (e *Engine) Progress() []progress.Summary {
	if !e.projector.IsOpen() {
		return nil
	}
	return e.projector.Summaries(e.Today())
}

// CloseProgress stops tracking deltas.
func (e *Engine) CloseProgress() {
	e.mu.Lock()
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.mu.Unlock()
	e.projector.Close()
}

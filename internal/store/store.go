package store

import (
	"context"

	"github.com/nhle/habit-calendar/internal/model"
)

// HabitStore persists habit definitions. Every call is scoped to an owner.
type HabitStore interface {
	// ListActiveHabits returns active habits ordered by creation time,
	// oldest first.
	ListActiveHabits(ctx context.Context, ownerID string) ([]model.Habit, error)
	GetHabit(ctx context.Context, ownerID, id string) (*model.Habit, error)
	CreateHabit(ctx context.Context, habit model.Habit) (model.Habit, error)
	UpdateHabit(ctx context.Context, habit model.Habit) error
	DeactivateHabit(ctx context.Context, ownerID, id string) error
	// DeleteHabit removes the habit and, by cascade, its log entries.
	DeleteHabit(ctx context.Context, ownerID, id string) error
}

// LogStore persists completion entries.
type LogStore interface {
	// ListLogs returns the owner's entries with start <= date < end,
	// ordered by date.
	ListLogs(ctx context.Context, ownerID string, start, end model.Date) ([]model.LogEntry, error)
	// DeleteLogs removes the owner's entries on date for the given habits
	// in one statement.
	DeleteLogs(ctx context.Context, ownerID string, date model.Date, habitIDs []string) error
	// UpsertLogs inserts entries keyed by (habit, date); existing keys are
	// left as they are.
	UpsertLogs(ctx context.Context, entries []model.LogEntry) error
	// CountCompletions counts distinct completed dates per habit with
	// start <= date < end.
	CountCompletions(ctx context.Context, ownerID string, habitIDs []string, start, end model.Date) (map[string]int, error)
}

// Store is a complete habit calendar backend.
type Store interface {
	HabitStore
	LogStore
	Close() error
}

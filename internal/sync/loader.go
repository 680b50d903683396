// Package sync keeps the visible month's completion cache in step with the
// log store: loading whole months and reconciling single-date edits.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/metrics"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/store"
)

// ErrSuperseded is returned by Load when a newer load was started before
// this one finished. The cache is left to the newer load.
var ErrSuperseded = errors.New("month load superseded by a newer load")

// Token identifies one load. Tokens increase monotonically per Loader.
type Token uint64

// MonthLoad is the result of a month load.
type MonthLoad struct {
	Token  Token
	Window Window
	// Habits are the owner's active habits, oldest first.
	Habits []model.Habit
	// Days holds the habit ids logged per date in arrival order.
	Days map[model.Date][]string
}

// Loader fetches a month of habits and logs into a LogCache.
type Loader struct {
	habits store.HabitStore
	logs   store.LogStore
	cache  *LogCache
	logger *zap.Logger

	gen atomic.Uint64

	mu        gosync.Mutex
	active    []model.Habit
	activeTok Token
}

// NewLoader creates a loader filling cache.
func NewLoader(habits store.HabitStore, logs store.LogStore, cache *LogCache, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		habits: habits,
		logs:   logs,
		cache:  cache,
		logger: logger,
	}
}

// Begin issues the next generation token. Load calls it itself; callers
// only need it to invalidate in-flight loads without starting one.
func (l *Loader) Begin() Token {
	return Token(l.gen.Add(1))
}

// Current reports whether tok is the most recently issued token.
func (l *Loader) Current(tok Token) bool {
	return Token(l.gen.Load()) == tok
}

// Habits returns the active habits of the last applied load.
func (l *Loader) Habits() []model.Habit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Habit(nil), l.active...)
}

// Load fetches the given month for ownerID and, if no newer load has been
// started in the meantime, replaces the cache with it. On any failure the
// cache keeps its previous contents.
func (l *Loader) Load(ctx context.Context, ownerID string, year int, month time.Month) (*MonthLoad, error) {
	tok := l.Begin()
	since := l.cache.editMark()
	w := MonthWindow(year, month)
	log := l.logger.With(
		zap.Uint64("token", uint64(tok)),
		zap.String("start", w.Start.String()),
		zap.String("end", w.End.String()),
	)
	start := time.Now()

	habits, err := l.habits.ListActiveHabits(ctx, ownerID)
	if err != nil {
		metrics.RecordMonthLoad("failed", time.Since(start))
		log.Error("Loading habits failed", zap.Error(err))
		return nil, fmt.Errorf("loading habits: %w", err)
	}

	entries, err := l.logs.ListLogs(ctx, ownerID, w.Start, w.End)
	if err != nil {
		metrics.RecordMonthLoad("failed", time.Since(start))
		log.Error("Loading logs failed", zap.Error(err))
		return nil, fmt.Errorf("loading logs for %s: %w", w.Start, err)
	}

	days := groupByDate(entries)
	ml := &MonthLoad{Token: tok, Window: w, Habits: habits, Days: days}

	if !l.cache.replaceWindow(tok, w, copyDays(days), since, l.Current) {
		metrics.RecordMonthLoad("superseded", time.Since(start))
		log.Warn("Discarding stale month load")
		return ml, ErrSuperseded
	}

	l.mu.Lock()
	if tok > l.activeTok {
		l.active, l.activeTok = habits, tok
	}
	l.mu.Unlock()

	metrics.RecordMonthLoad("applied", time.Since(start))
	log.Debug("Month loaded",
		zap.Int("habits", len(habits)),
		zap.Int("entries", len(entries)),
	)
	return ml, nil
}

// groupByDate collects habit ids per date, preserving arrival order and
// any duplicates.
func groupByDate(entries []model.LogEntry) map[model.Date][]string {
	days := make(map[model.Date][]string)
	for _, e := range entries {
		days[e.Date] = append(days[e.Date], e.HabitID)
	}
	return days
}

func copyDays(days map[model.Date][]string) map[model.Date][]string {
	out := make(map[model.Date][]string, len(days))
	for d, ids := range days {
		out[d] = append([]string(nil), ids...)
	}
	return out
}

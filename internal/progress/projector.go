// Package progress keeps per-habit completion counters for the progress
// panel without re-querying the store on every edit.
package progress

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/store"
	hsync "github.com/nhle/habit-calendar/internal/sync"
)

// Summary is one row of the progress panel.
type Summary struct {
	HabitID     string
	Title       string
	Icon        model.Icon
	StartDate   model.Date
	ElapsedDays int
	Completed   int
}

// Rate is the share of elapsed days completed, in [0, 1].
func (s Summary) Rate() float64 {
	if s.ElapsedDays <= 0 {
		return 0
	}
	r := float64(s.Completed) / float64(s.ElapsedDays)
	if r > 1 {
		return 1
	}
	return r
}

// ElapsedDays counts the days from start through today inclusive, with a
// minimum of 1.
func ElapsedDays(start, today model.Date) int {
	n := start.DaysUntil(today) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Projector holds counters while the panel is open. It implements
// sync.Listener so the reconciler can feed it deltas.
type Projector struct {
	logs   store.LogStore
	logger *zap.Logger

	mu     sync.Mutex
	open   bool
	habits []model.Habit
	counts map[string]int
	// start and end bound the dates the counters cover, end exclusive.
	start, end model.Date
}

// NewProjector creates a closed projector.
func NewProjector(logs store.LogStore, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logs: logs, logger: logger}
}

// Open loads completion counts for habits with one range query covering
// the earliest start date through today.
func (p *Projector) Open(ctx context.Context, ownerID string, habits []model.Habit, today model.Date) error {
	ids := make([]string, 0, len(habits))
	start := today
	for _, h := range habits {
		ids = append(ids, h.ID)
		if !h.StartDate.IsZero() && h.StartDate.Before(start) {
			start = h.StartDate
		}
	}
	end := today.AddDays(1)

	counts, err := p.logs.CountCompletions(ctx, ownerID, ids, start, end)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	p.habits = append([]model.Habit(nil), habits...)
	p.counts = counts
	p.start, p.end = start, end
	p.logger.Debug("Progress opened",
		zap.Int("habits", len(habits)),
		zap.String("from", start.String()),
	)
	return nil
}

// Apply adjusts counters by a persisted delta. It does nothing while
// closed or when the delta's date is outside the counted range.
func (p *Projector) Apply(d hsync.Delta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open || d.Date.Before(p.start) || !d.Date.Before(p.end) {
		return
	}
	for _, h := range p.habits {
		if c := d.Change(h.ID); c != 0 {
			p.counts[h.ID] += c
		}
	}
}

// IsOpen reports whether the projector is tracking deltas.
func (p *Projector) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Summaries returns one row per habit, in the order given to Open.
func (p *Projector) Summaries(today model.Date) []Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Summary, 0, len(p.habits))
	for _, h := range p.habits {
		start := h.StartDate
		if start.IsZero() {
			start = model.DateOf(h.CreatedAt.Local())
		}
		completed := p.counts[h.ID]
		if completed < 0 {
			completed = 0
		}
		out = append(out, Summary{
			HabitID:     h.ID,
			Title:       h.Title,
			Icon:        h.Icon,
			StartDate:   start,
			ElapsedDays: ElapsedDays(start, today),
			Completed:   completed,
		})
	}
	return out
}

// Close stops tracking and drops the counters.
func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.habits = nil
	p.counts = nil
}

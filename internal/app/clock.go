package app

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/model"
)

// DayChangedMsg is sent when the local date rolls over while the UI is
// open, so the today mark and progress counters can move.
type DayChangedMsg struct {
	Today model.Date
}

// DayWatcher fires DayChangedMsg at local midnight.
type DayWatcher struct {
	cron   *cron.Cron
	now    func() time.Time
	logger *zap.Logger
	ch     chan DayChangedMsg

	mu      gosync.Mutex
	running bool
}

// NewDayWatcher creates a watcher using the given clock.
func NewDayWatcher(now func() time.Time, logger *zap.Logger) *DayWatcher {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayWatcher{
		cron:   cron.New(cron.WithLocation(time.Local)),
		now:    now,
		logger: logger,
		ch:     make(chan DayChangedMsg, 1),
	}
}

// Start schedules the midnight job and returns a command waiting for the
// first rollover.
func (w *DayWatcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if _, err := w.cron.AddFunc("@midnight", w.fire); err != nil {
		w.logger.Error("Failed to schedule day rollover", zap.Error(err))
		return nil
	}
	w.cron.Start()
	return w.Wait()
}

func (w *DayWatcher) fire() {
	msg := DayChangedMsg{Today: model.Today(w.now)}
	w.logger.Info("Day rolled over", zap.Stringer("today", msg.Today))
	select {
	case w.ch <- msg:
	default:
		// A rollover is already pending; the UI will read the clock anyway.
	}
}

// Wait returns a command that blocks until the next rollover.
func (w *DayWatcher) Wait() tea.Cmd {
	ch := w.ch
	return func() tea.Msg {
		return <-ch
	}
}

// Stop halts the scheduler.
func (w *DayWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.cron.Stop()
	w.running = false
}

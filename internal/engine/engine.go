// Package engine owns the calendar state: which month is shown, which day
// is selected, and the components that load, render and save it. All
// mutation goes through its methods; the UI only consumes the views it
// returns.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/calendar"
	"github.com/nhle/habit-calendar/internal/holiday"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/progress"
	"github.com/nhle/habit-calendar/internal/render"
	"github.com/nhle/habit-calendar/internal/session"
	"github.com/nhle/habit-calendar/internal/store"
	hsync "github.com/nhle/habit-calendar/internal/sync"
)

// ErrNoMonth is returned by operations that need a loaded month.
var ErrNoMonth = errors.New("no month loaded")

// DefaultHolidayTimeout bounds a holiday fetch started by Navigate.
const DefaultHolidayTimeout = 5 * time.Second

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	Capacity int
	Columns  int
	// Now is the clock; defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
	// HolidayTimeout bounds each holiday fetch independently of the
	// caller's deadline.
	HolidayTimeout time.Duration
}

// Engine is the single state object behind the calendar UI and CLI.
type Engine struct {
	store    store.Store
	session  session.Provider
	holidays *holiday.Cache

	cache      *hsync.LogCache
	loader     *hsync.Loader
	reconciler *hsync.Reconciler
	projector  *progress.Projector
	renderer   render.Renderer

	logger         *zap.Logger
	now            func() time.Time
	holidayTimeout time.Duration

	mu       sync.Mutex
	selected model.Date
	// unsubscribe detaches the projector while the progress panel is open.
	unsubscribe func()
}

// New wires an engine. holidays may be nil.
func New(st store.Store, sp session.Provider, holidays *holiday.Cache, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	holidayTimeout := opts.HolidayTimeout
	if holidayTimeout <= 0 {
		holidayTimeout = DefaultHolidayTimeout
	}
	cache := hsync.NewLogCache()
	return &Engine{
		store:          st,
		session:        sp,
		holidays:       holidays,
		cache:          cache,
		loader:         hsync.NewLoader(st, st, cache, logger.Named("loader")),
		reconciler:     hsync.NewReconciler(st, cache, logger.Named("reconcile")),
		projector:      progress.NewProjector(st, logger.Named("progress")),
		renderer:       render.New(opts.Capacity, opts.Columns),
		logger:         logger,
		now:            now,
		holidayTimeout: holidayTimeout,
	}
}

// Today is the local calendar date according to the engine's clock.
func (e *Engine) Today() model.Date {
	return model.Today(e.now)
}

// Renderer returns the icon renderer in use.
func (e *Engine) Renderer() render.Renderer {
	return e.renderer
}

// Navigate loads the given month and returns its view. If a newer
// Navigate started meanwhile, hsync.ErrSuperseded is returned and the
// view should be dropped. On failure the previous month stays loaded.
//
// Holidays are fetched alongside the month under their own deadline; a
// slow source only leaves the month without holiday marks.
func (e *Engine) Navigate(ctx context.Context, year int, month time.Month) (MonthView, error) {
	holidaysDone := e.ensureHolidays(ctx, year)

	s, err := e.current(ctx)
	if err != nil {
		return MonthView{}, err
	}

	if _, err := e.loader.Load(ctx, s.OwnerID, year, month); err != nil {
		if errors.Is(err, hsync.ErrSuperseded) {
			return MonthView{}, err
		}
		return MonthView{}, e.authCheck(ctx, err)
	}

	e.mu.Lock()
	if e.selected.Year != year || e.selected.Month != month {
		e.selected = model.Date{}
	}
	e.mu.Unlock()

	select {
	case <-holidaysDone:
	case <-ctx.Done():
	}
	return e.View(), nil
}

// ensureHolidays fetches the holidays of year in the background. The
// returned channel closes when the fetch is over.
func (e *Engine) ensureHolidays(ctx context.Context, year int) <-chan struct{} {
	done := make(chan struct{})
	if e.holidays == nil {
		close(done)
		return done
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.holidayTimeout)
	go func() {
		defer close(done)
		defer cancel()
		e.holidays.Ensure(hctx, year)
	}()
	return done
}

// Shift navigates delta months from the loaded month, or from the current
// month if nothing is loaded.
func (e *Engine) Shift(ctx context.Context, delta int) (MonthView, error) {
	year, month := e.month()
	y, m := calendar.ShiftMonth(year, month, delta)
	return e.Navigate(ctx, y, m)
}

// Reload re-fetches the loaded month.
func (e *Engine) Reload(ctx context.Context) (MonthView, error) {
	year, month := e.month()
	return e.Navigate(ctx, year, month)
}

// month is the loaded month, or today's if none.
func (e *Engine) month() (int, time.Month) {
	if w, ok := e.cache.Window(); ok {
		return w.Year(), w.Month()
	}
	today := e.Today()
	return today.Year, today.Month
}

// Habits returns the active habits of the loaded month, oldest first.
func (e *Engine) Habits() []model.Habit {
	return e.loader.Habits()
}

// Select marks date as the selected day. It returns false when date is
// outside the loaded month.
func (e *Engine) Select(date model.Date) bool {
	if !e.cache.Contains(date) {
		return false
	}
	e.mu.Lock()
	e.selected = date
	e.mu.Unlock()
	return true
}

// Selected returns the selected date, zero when none.
func (e *Engine) Selected() model.Date {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// EditState reports the edit state of date.
func (e *Engine) EditState(date model.Date) hsync.EditState {
	return e.reconciler.State(date)
}

// BeginEdit opens date for editing and returns its checklist.
func (e *Engine) BeginEdit(date model.Date) ([]ChecklistItem, error) {
	if !e.cache.Contains(date) {
		return nil, model.Validation("begin edit", fmt.Errorf("%s is not in the loaded month", date))
	}
	if !e.reconciler.BeginEdit(date) && e.reconciler.State(date) == hsync.EditSaving {
		return nil, fmt.Errorf("%s is being saved", date)
	}
	e.Select(date)
	return e.Checklist(date), nil
}

// CancelEdit closes the edit of date without saving.
func (e *Engine) CancelEdit(date model.Date) {
	e.reconciler.CancelEdit(date)
}

// Save makes ids the completion set of date and returns the re-rendered
// day. On failure the cache is unchanged and the date stays in Editing.
func (e *Engine) Save(ctx context.Context, date model.Date, ids []string) (DayView, error) {
	s, err := e.current(ctx)
	if err != nil {
		return DayView{}, err
	}
	if _, err := e.reconciler.Reconcile(ctx, s.OwnerID, date, ids); err != nil {
		return DayView{}, e.authCheck(ctx, err)
	}
	return e.Day(date), nil
}

// Toggle flips one habit's completion on date and saves.
func (e *Engine) Toggle(ctx context.Context, date model.Date, habitID string) (DayView, error) {
	ids := e.cache.Get(date)
	next := hsync.Difference(ids, []string{habitID})
	if len(next) == len(ids) {
		next = append(next, habitID)
	}
	return e.Save(ctx, date, next)
}

// current resolves the session, prompting reauthentication when expired.
func (e *Engine) current(ctx context.Context) (session.Session, error) {
	s, err := e.session.Current(ctx)
	if err != nil {
		return session.Session{}, e.authCheck(ctx, err)
	}
	return s, nil
}

// authCheck asks the session provider to reauthenticate when err says the
// credential was rejected. The original error is still returned so the
// caller retries explicitly.
func (e *Engine) authCheck(ctx context.Context, err error) error {
	if !model.IsKind(err, model.KindAuthExpired) {
		return err
	}
	e.logger.Warn("Session rejected, reauthenticating", zap.Error(err))
	if rerr := e.session.Reauthenticate(ctx); rerr != nil {
		e.logger.Error("Reauthentication failed", zap.Error(rerr))
		return fmt.Errorf("%w (reauthentication failed: %v)", err, rerr)
	}
	return err
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/keys"
	"github.com/nhle/habit-calendar/internal/model"
	hprogress "github.com/nhle/habit-calendar/internal/progress"
	hsync "github.com/nhle/habit-calendar/internal/sync"
	"github.com/nhle/habit-calendar/internal/theme"
	"github.com/nhle/habit-calendar/internal/ui"
	calview "github.com/nhle/habit-calendar/internal/ui/calendar"
	"github.com/nhle/habit-calendar/internal/ui/checklist"
	"github.com/nhle/habit-calendar/internal/ui/command"
	"github.com/nhle/habit-calendar/internal/ui/habitmgr"
	helpview "github.com/nhle/habit-calendar/internal/ui/help"
	progressview "github.com/nhle/habit-calendar/internal/ui/progress"
)

// requestTimeout bounds every store round trip started from the UI.
const requestTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewCalendar ViewState = iota
	ViewChecklist
	ViewHabits
	ViewProgress
	ViewHelp
	ViewCommand
)

// monthLoadedMsg carries the result of a Navigate started by the UI.
type monthLoadedMsg struct {
	view   engine.MonthView
	cursor model.Date
	err    error
}

type daySavedMsg struct {
	date model.Date
	ids  []string
	day  engine.DayView
	err  error
}

type progressLoadedMsg struct {
	summaries []hprogress.Summary
	err       error
}

// Model is the root Bubble Tea model that manages view routing and
// drives the engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	engine       *engine.Engine
	keys         *keys.KeyMap
	logger       *zap.Logger
	watcher      *DayWatcher

	calendar     calview.Model
	checklist    checklist.Model
	habitView    habitmgr.Model
	progressView progressview.Model
	helpView     helpview.Model
	commandView  command.Model
	spinner      spinner.Model

	loading   bool
	statusErr error
	ready     bool
}

// New creates the root model around an engine.
func New(e *engine.Engine, columns int, now func() time.Time, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		currentView:  ViewCalendar,
		engine:       e,
		keys:         k,
		logger:       logger,
		watcher:      NewDayWatcher(now, logger.Named("clock")),
		calendar:     calview.New(k, columns, 80, 24),
		checklist:    checklist.New(80, 24),
		habitView:    habitmgr.New(e, k, 80, 24),
		progressView: progressview.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		spinner:      sp,
		loading:      true,
	}
}

// Init loads the current month and starts the midnight watcher.
func (m Model) Init() tea.Cmd {
	today := m.engine.Today()
	return tea.Batch(
		m.navigate(today.Year, today.Month, today),
		m.watcher.Start(),
		m.spinner.Tick,
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.calendar.SetSize(contentWidth, contentHeight)
		m.checklist.SetSize(contentWidth, contentHeight)
		m.habitView.SetSize(contentWidth, contentHeight)
		m.progressView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case monthLoadedMsg:
		if errors.Is(msg.err, hsync.ErrSuperseded) {
			// A newer navigation owns the screen.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.statusErr = msg.err
			return m, nil
		}
		m.statusErr = nil
		m.calendar.SetMonth(msg.view)
		if !msg.cursor.IsZero() {
			m.calendar.SetCursor(msg.cursor)
		}
		m.engine.Select(m.calendar.Cursor())
		return m, nil

	case DayChangedMsg:
		m.logger.Debug("Refreshing for new day", zap.Stringer("today", msg.Today))
		cmds := []tea.Cmd{m.watcher.Wait(), m.reload()}
		if m.currentView == ViewProgress {
			cmds = append(cmds, m.openProgress())
		}
		return m, tea.Batch(cmds...)

	case calview.SelectMsg:
		m.engine.Select(msg.Date)
		return m, nil

	case calview.ShiftMsg:
		m.loading = true
		year, month := m.calendar.Month().Year, m.calendar.Month().Month
		shifted := time.Date(year, month+time.Month(msg.Delta), 1, 0, 0, 0, 0, time.UTC)
		return m, m.navigate(shifted.Year(), shifted.Month(), msg.Cursor)

	case calview.OpenDayMsg:
		items, err := m.engine.BeginEdit(msg.Date)
		if err != nil {
			m.statusErr = err
			return m, nil
		}
		m.statusErr = nil
		m.previousView = m.currentView
		m.currentView = ViewChecklist
		return m, m.checklist.Start(msg.Date, items)

	case checklist.SaveMsg:
		return m, m.save(msg.Date, msg.IDs)

	case checklist.CancelMsg:
		m.engine.CancelEdit(msg.Date)
		m.currentView = ViewCalendar
		return m, nil

	case daySavedMsg:
		if msg.err != nil {
			m.statusErr = msg.err
			return m, m.checklist.Failed(msg.err, m.engine.Checklist(msg.date), msg.ids)
		}
		m.statusErr = nil
		m.calendar.SetDay(msg.day)
		m.currentView = ViewCalendar
		return m, nil

	case progressLoadedMsg:
		if msg.err != nil {
			m.statusErr = msg.err
			return m, nil
		}
		m.progressView.SetSummaries(msg.summaries)
		if m.currentView != ViewProgress {
			m.previousView = m.currentView
			m.currentView = ViewProgress
		}
		return m, nil

	case progressview.CloseMsg:
		m.engine.CloseProgress()
		m.currentView = ViewCalendar
		return m, nil

	case habitmgr.CloseMsg:
		m.currentView = ViewCalendar
		return m, nil

	case habitmgr.ChangedMsg:
		m.calendar.SetMonth(m.engine.View())
		return m, nil

	case command.RunMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg.Command)

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.currentView == ViewCalendar {
			if cmd, handled := m.handleCalendarKey(msg); handled {
				return m, cmd
			}
		}
		switch {
		case key.Matches(msg, m.keys.Help) && (m.currentView == ViewHelp || m.currentView == ViewCalendar):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Back) && (m.currentView == ViewHelp || m.currentView == ViewCommand):
			m.currentView = m.previousView
			return m, nil
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleCalendarKey handles the keys that only apply on the grid.
func (m *Model) handleCalendarKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	case key.Matches(msg, m.keys.PrevMonth):
		return m.shift(-1), true
	case key.Matches(msg, m.keys.NextMonth):
		return m.shift(1), true
	case key.Matches(msg, m.keys.Today):
		return m.goToday(), true
	case key.Matches(msg, m.keys.Refresh):
		return m.reload(), true
	case key.Matches(msg, m.keys.NewHabit):
		m.previousView = m.currentView
		m.currentView = ViewHabits
		return m.habitView.OpenCreate(), true
	case key.Matches(msg, m.keys.Habits):
		m.previousView = m.currentView
		m.currentView = ViewHabits
		m.habitView.Open()
		return m.habitView.Init(), true
	case key.Matches(msg, m.keys.Progress):
		return m.openProgress(), true
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewCalendar:
		m.calendar, cmd = m.calendar.Update(msg)
	case ViewChecklist:
		m.checklist, cmd = m.checklist.Update(msg)
	case ViewHabits:
		m.habitView, cmd = m.habitView.Update(msg)
	case ViewProgress:
		m.progressView, cmd = m.progressView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.status())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) headerTitle() string {
	v := m.calendar.Month()
	if v.Year == 0 {
		return "Habit Calendar"
	}
	return fmt.Sprintf("%s %d", v.Month, v.Year)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCalendar:
		return m.calendar.View()
	case ViewChecklist:
		return m.checklist.View()
	case ViewHabits:
		return m.habitView.View()
	case ViewProgress:
		return m.progressView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// status returns the right side of the header.
func (m Model) status() string {
	switch {
	case m.loading:
		return m.spinner.View() + " loading"
	case m.checklist.Saving() && m.currentView == ViewChecklist:
		return m.spinner.View() + " saving"
	}
	if d := m.calendar.Cursor(); !d.IsZero() {
		return d.String()
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar, or the
// last error.
func (m Model) keyHints() string {
	if m.statusErr != nil {
		return theme.ErrorStyle.Render(describeError(m.statusErr))
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewChecklist:
		return "space toggle | enter save | esc cancel"
	case ViewHabits:
		return "n new | e edit | a archive | d delete | esc back"
	case ViewProgress:
		return "esc back"
	default:
		return "q quit | ? help | enter check | [ ] month | t today | n new | H habits | p progress"
	}
}

// describeError turns engine errors into a one-line status.
func describeError(err error) string {
	switch {
	case model.IsKind(err, model.KindAuthExpired):
		return "session expired: run `habitcal login` and press r"
	case model.IsKind(err, model.KindNetwork):
		return "offline: " + err.Error() + " (r to retry)"
	case model.IsKind(err, model.KindConflict):
		return "save rejected: " + err.Error()
	default:
		return err.Error()
	}
}

func (m *Model) shift(delta int) tea.Cmd {
	v := m.calendar.Month()
	if v.Year == 0 {
		return nil
	}
	m.loading = true
	shifted := time.Date(v.Year, v.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return m.navigate(shifted.Year(), shifted.Month(), model.Date{})
}

func (m *Model) goToday() tea.Cmd {
	m.loading = true
	today := m.engine.Today()
	return m.navigate(today.Year, today.Month, today)
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	v := m.calendar.Month()
	if v.Year == 0 {
		today := m.engine.Today()
		return m.navigate(today.Year, today.Month, today)
	}
	return m.navigate(v.Year, v.Month, m.calendar.Cursor())
}

func (m *Model) quit() tea.Cmd {
	m.watcher.Stop()
	m.engine.CloseProgress()
	return tea.Quit
}

// navigate returns a command loading a month; cursor is where the day
// cursor goes once it is shown.
func (m Model) navigate(year int, month time.Month, cursor model.Date) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		view, err := e.Navigate(ctx, year, month)
		return monthLoadedMsg{view: view, cursor: cursor, err: err}
	}
}

func (m Model) save(date model.Date, ids []string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		day, err := e.Save(ctx, date, ids)
		return daySavedMsg{date: date, ids: ids, day: day, err: err}
	}
}

func (m Model) openProgress() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := e.OpenProgress(ctx)
		return progressLoadedMsg{summaries: s, err: err}
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c.Name {
	case command.Today:
		return m.goToday()
	case command.Goto:
		m.loading = true
		return m.navigate(c.Month.Year, c.Month.Month, model.Date{})
	case command.NewHabit:
		m.currentView = ViewHabits
		return m.habitView.OpenCreate()
	case command.Habits:
		m.currentView = ViewHabits
		m.habitView.Open()
		return nil
	case command.Progress:
		return m.openProgress()
	case command.Refresh:
		return m.reload()
	case command.Help:
		m.previousView = ViewCalendar
		m.currentView = ViewHelp
		return nil
	case command.Quit:
		return m.quit()
	}
	return nil
}

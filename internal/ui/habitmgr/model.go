package habitmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/keys"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/theme"
	"github.com/nhle/habit-calendar/internal/ui/habitform"
)

// Service is the subset of the engine the habit manager drives.
type Service interface {
	Habits() []model.Habit
	CreateHabit(ctx context.Context, in model.HabitInput) (model.Habit, error)
	UpdateHabit(ctx context.Context, id string, in model.HabitInput) (model.Habit, error)
	ArchiveHabit(ctx context.Context, id string) error
	DeleteHabit(ctx context.Context, id string) error
}

// CloseMsg signals the parent to close the habit view.
type CloseMsg struct{}

// ChangedMsg signals that habits were created, updated, archived or
// deleted and the month was reloaded.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type savedMsg struct {
	verb string
	err  error
}

// Model is the Bubble Tea model for habit management.
type Model struct {
	mode        mode
	svc         Service
	keys        *keys.KeyMap
	habits      []model.Habit
	selectedIdx int
	form        habitform.Model
	confirmForm *huh.Form
	confirm     *bool
	// closeAfterForm returns straight to the calendar once a form opened
	// from outside the list is done.
	closeAfterForm bool
	statusMsg      string
	width          int
	height         int
}

// New creates a new habit manager model.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		svc:     svc,
		keys:    k,
		form:    habitform.New(width, height),
		confirm: new(bool),
		width:   width, height: height,
	}
}

// Init reads the habits of the loaded month.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open shows the list.
func (m *Model) Open() {
	m.mode = modeList
	m.closeAfterForm = false
	m.statusMsg = ""
	m.reload()
}

// OpenCreate jumps straight into a new-habit form.
func (m *Model) OpenCreate() tea.Cmd {
	m.reload()
	m.closeAfterForm = true
	m.mode = modeForm
	return m.form.StartCreate()
}

func (m *Model) reload() {
	m.habits = m.svc.Habits()
	if m.selectedIdx >= len(m.habits) {
		m.selectedIdx = len(m.habits) - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case habitform.SubmittedMsg:
		return m, m.save(msg)

	case habitform.CancelMsg:
		return m.formDone()

	case savedMsg:
		m.reload()
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Habit " + msg.verb
		}
		changed := func() tea.Msg { return ChangedMsg{} }
		if m.mode == modeForm && m.closeAfterForm && msg.err == nil {
			m.mode = modeList
			return m, tea.Batch(changed, func() tea.Msg { return CloseMsg{} })
		}
		m.mode = modeList
		return m, changed

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) formDone() (Model, tea.Cmd) {
	m.mode = modeList
	if m.closeAfterForm {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.habits) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.habits)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.habits) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.habits) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NewHabit):
		m.mode = modeForm
		return m, m.form.StartCreate()

	case key.Matches(msg, m.keys.Edit):
		h, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeForm
		return m, m.form.StartEdit(h)

	case key.Matches(msg, m.keys.Archive):
		h, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.archive(h.ID)

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		*m.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (model.Habit, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.habits) {
		return model.Habit{}, false
	}
	return m.habits[m.selectedIdx], true
}

func (m Model) buildConfirmForm() *huh.Form {
	h, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete habit %q?", h.Title)).
				Description("Its whole check-in history is removed. Archive keeps it.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if h, ok := m.selected(); ok && *m.confirm {
			return m, m.remove(h.ID)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the habit manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.form.View()
	case modeConfirmDelete:
		if m.confirmForm == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Habits"))
	b.WriteString("\n\n")

	if len(m.habits) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No habits yet. Press 'n' to create one."))
	} else {
		for i, h := range m.habits {
			label := fmt.Sprintf("%s  %s", theme.HabitStyle(h.Color).Render(iconLabel(h.Icon)), h.Title)
			label += lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
				fmt.Sprintf("  %d× / %d %s · since %s", h.TargetCount, h.PeriodValue, h.PeriodUnit, h.StartDate))

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | a archive | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// iconLabel shows image icons as a placeholder; terminals can't draw them.
func iconLabel(i model.Icon) string {
	if i.IsImage() {
		return "▣"
	}
	return i.Glyph
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form.SetSize(width, height)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) save(msg habitform.SubmittedMsg) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if msg.ID == "" {
			_, err := svc.CreateHabit(context.Background(), msg.Input)
			return savedMsg{verb: "created", err: err}
		}
		_, err := svc.UpdateHabit(context.Background(), msg.ID, msg.Input)
		return savedMsg{verb: "updated", err: err}
	}
}

func (m Model) remove(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.DeleteHabit(context.Background(), id)
		return savedMsg{verb: "deleted", err: err}
	}
}

func (m Model) archive(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.ArchiveHabit(context.Background(), id)
		return savedMsg{verb: "archived", err: err}
	}
}

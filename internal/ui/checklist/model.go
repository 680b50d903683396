package checklist

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/theme"
)

// SaveMsg carries the checked habits of a date.
type SaveMsg struct {
	Date model.Date
	IDs  []string
}

// CancelMsg is dispatched when the checklist is closed without saving.
type CancelMsg struct{ Date model.Date }

// Model is the per-day habit checklist.
type Model struct {
	form    *huh.Form
	date    model.Date
	checked *[]string
	empty   bool
	saving  bool
	err     error
	width   int
	height  int
}

// New creates a checklist model.
func New(width, height int) Model {
	return Model{checked: new([]string), width: width, height: height}
}

// Start opens the checklist of date with items pre-checked as done.
func (m *Model) Start(date model.Date, items []engine.ChecklistItem) tea.Cmd {
	m.date = date
	m.saving = false
	m.err = nil
	m.empty = len(items) == 0
	*m.checked = (*m.checked)[:0]

	opts := make([]huh.Option[string], len(items))
	for i, it := range items {
		label := fmt.Sprintf("%s %s", it.Habit.Icon.Glyph, it.Habit.Title)
		if it.Habit.Icon.IsImage() {
			label = "▣ " + it.Habit.Title
		}
		opts[i] = huh.NewOption(label, it.Habit.ID).Selected(it.Done)
		if it.Done {
			*m.checked = append(*m.checked, it.Habit.ID)
		}
	}
	if m.empty {
		m.form = nil
		return nil
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(date.String()).
				Description("space toggles, enter saves").
				Options(opts...).
				Value(m.checked),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// Date is the date being edited.
func (m Model) Date() model.Date {
	return m.date
}

// Saving reports whether a save is in flight.
func (m Model) Saving() bool {
	return m.saving
}

// Failed shows err and reopens the form with the user's unsaved choice
// so they can retry.
func (m *Model) Failed(err error, items []engine.ChecklistItem, keep []string) tea.Cmd {
	want := make(map[string]bool, len(keep))
	for _, id := range keep {
		want[id] = true
	}
	retry := make([]engine.ChecklistItem, len(items))
	for i, it := range items {
		retry[i] = engine.ChecklistItem{Habit: it.Habit, Done: want[it.Habit.ID]}
	}
	cmd := m.Start(m.date, retry)
	m.err = err
	return cmd
}

// Update forwards to the form and emits SaveMsg or CancelMsg when done.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.empty {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "enter") {
			date := m.date
			return m, func() tea.Msg { return CancelMsg{Date: date} }
		}
		return m, nil
	}
	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	date := m.date
	switch m.form.State {
	case huh.StateCompleted:
		m.saving = true
		ids := append([]string(nil), *m.checked...)
		return m, func() tea.Msg { return SaveMsg{Date: date, IDs: ids} }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{Date: date} }
	}
	return m, cmd
}

// View renders the checklist panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	content := titleStyle.Render("Check-in")

	switch {
	case m.empty:
		content += "\n" + lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).
			Render("No habits yet. Press esc, then 'n' to create one.")
	case m.saving:
		content += "\n" + theme.HelpStyle.Render("Saving "+m.date.String()+"...")
	case m.form != nil:
		content += "\n" + m.form.View()
	}
	if m.err != nil {
		content += "\n" + theme.ErrorStyle.Render(m.err.Error())
	}
	return theme.PanelStyle.Width(m.formWidth()).Render(content)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 36 {
		w = 36
	}
	return w
}

package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	hprogress "github.com/nhle/habit-calendar/internal/progress"
	"github.com/nhle/habit-calendar/internal/theme"
)

// CloseMsg signals the parent to close the progress panel.
type CloseMsg struct{}

// Model lists each habit's completion rate since it started.
type Model struct {
	summaries []hprogress.Summary
	bar       progress.Model
	width     int
	height    int
}

// New creates the progress panel.
func New(width, height int) Model {
	bar := progress.New(progress.WithDefaultGradient())
	m := Model{bar: bar}
	m.SetSize(width, height)
	return m
}

// SetSummaries replaces the counters shown.
func (m *Model) SetSummaries(s []hprogress.Summary) {
	m.summaries = s
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update closes the panel on esc or p.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "p", "q":
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders one bar per habit.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Progress"))
	b.WriteString("\n\n")

	if len(m.summaries) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).
			Render("No active habits."))
	}
	for _, s := range m.summaries {
		glyph := s.Icon.Glyph
		if s.Icon.IsImage() {
			glyph = "▣"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", glyph, s.Title))
		b.WriteString(m.bar.ViewAs(s.Rate()))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
			fmt.Sprintf("  %d of %d days since %s", s.Completed, s.ElapsedDays, s.StartDate)))
		b.WriteString("\n\n")
	}

	b.WriteString(theme.HelpStyle.Render("esc back"))
	return theme.PanelStyle.Width(m.width - 4).Render(b.String())
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = width - 12
	if m.bar.Width > 60 {
		m.bar.Width = 60
	}
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}
}

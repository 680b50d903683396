package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/keys"
	"github.com/nhle/habit-calendar/internal/theme"
)

// Model is the help overlay: key bindings, palette commands and the
// colour legend of the month grid.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		heading.MarginBottom(1).Render("Keys"),
		m.help.View(m.keys),
		"",
		heading.Render("Commands"),
		commands(),
		"",
		heading.Render("Day numbers"),
		legend(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

var commandHelp = [][2]string{
	{"today", "jump to the current month"},
	{"goto YYYY-MM", "open another month"},
	{"new", "create a habit"},
	{"habits", "manage habits"},
	{"progress", "completion per habit"},
	{"refresh", "reload the month from the store"},
	{"quit", "leave"},
}

func commands() string {
	rows := make([]string, len(commandHelp))
	for i, c := range commandHelp {
		rows[i] = theme.SelectedItemStyle.Width(16).Render(":"+c[0]) + theme.HelpStyle.Render(c[1])
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// legend explains the day number colours.
func legend() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		theme.DayNumberStyle(true, false, false, false).Render("12"), theme.HelpStyle.Render(" Sunday or holiday   "),
		theme.DayNumberStyle(false, true, false, false).Render("12"), theme.HelpStyle.Render(" Saturday   "),
		theme.DayNumberStyle(false, false, false, true).Render("12"), theme.HelpStyle.Render(" today"),
	)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

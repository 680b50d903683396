package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Today    Name = "today"
	Goto     Name = "goto"
	NewHabit Name = "new"
	Habits   Name = "habits"
	Progress Name = "progress"
	Refresh  Name = "refresh"
	Help     Name = "help"
	Quit     Name = "quit"
)

var aliases = map[string]Name{
	"today":    Today,
	"t":        Today,
	"goto":     Goto,
	"g":        Goto,
	"new":      NewHabit,
	"habits":   Habits,
	"progress": Progress,
	"p":        Progress,
	"refresh":  Refresh,
	"r":        Refresh,
	"help":     Help,
	"quit":     Quit,
	"q":        Quit,
}

// Command is a parsed palette line. Month is set for Goto only and holds
// the first day of the target month.
type Command struct {
	Name  Name
	Month model.Date
}

// Parse turns a palette line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name, ok := aliases[fields[0]]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
	c := Command{Name: name}
	if name != Goto {
		return c, nil
	}
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("usage: goto YYYY-MM")
	}
	t, err := time.Parse("2006-01", fields[1])
	if err != nil {
		return Command{}, fmt.Errorf("goto: %q is not YYYY-MM", fields[1])
	}
	c.Month = model.NewDate(t.Year(), t.Month(), 1)
	return c, nil
}

// RunMsg is emitted when the user enters a valid command.
type RunMsg struct {
	Command Command
}

var suggestions = []string{"today", "goto ", "new", "habits", "progress", "refresh", "help", "quit"}

const historySize = 20

// Model is the ':' command line. Invalid input keeps the palette open and
// shows the parse error under the prompt.
type Model struct {
	input   textinput.Model
	err     error
	history []string
	recall  int
	width   int
	height  int
}

// New creates a new command line model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "today | goto YYYY-MM | new | habits | progress | refresh | quit"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions)
	ti.Width = width - 6

	return Model{input: ti, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command line.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m.submit()
		case "up":
			m.step(-1)
			return m, nil
		case "down":
			m.step(1)
			return m, nil
		}
		m.err = nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	c, err := Parse(line)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.remember(line)
	m.input.Reset()
	m.err = nil
	return m, func() tea.Msg { return RunMsg{Command: c} }
}

func (m *Model) remember(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
	}
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	m.recall = len(m.history)
}

// step moves through history; stepping past the newest entry clears the line.
func (m *Model) step(dir int) {
	next := m.recall + dir
	if next < 0 || next > len(m.history) {
		return
	}
	m.recall = next
	if next == len(m.history) {
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[next])
	m.input.CursorEnd()
}

// View renders the command line.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Command")

	rows := []string{title, m.input.View()}
	if m.err != nil {
		rows = append(rows, theme.ErrorStyle.Render(m.err.Error()))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SetSize updates the command line dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus clears any stale error and gives keyboard focus to the input.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	m.recall = len(m.history)
	return m.input.Focus()
}

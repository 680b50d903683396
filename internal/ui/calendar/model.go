// Package calendar draws the month grid and moves the day cursor over it.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/keys"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/render"
	"github.com/nhle/habit-calendar/internal/theme"
	"github.com/nhle/habit-calendar/internal/ui"
)

// SelectMsg asks the parent to select a date of the shown month.
type SelectMsg struct{ Date model.Date }

// ShiftMsg asks the parent to load the month Delta months away and put the
// cursor on Cursor once it is loaded.
type ShiftMsg struct {
	Delta  int
	Cursor model.Date
}

// OpenDayMsg asks the parent to open the checklist of a date.
type OpenDayMsg struct{ Date model.Date }

// Model is the month grid view.
type Model struct {
	view    engine.MonthView
	cursor  model.Date
	columns int
	keys    *keys.KeyMap
	width   int
	height  int
}

// New creates an empty grid; SetMonth fills it.
func New(k *keys.KeyMap, columns, width, height int) Model {
	if columns < 1 {
		columns = render.DefaultColumns
	}
	return Model{keys: k, columns: columns, width: width, height: height}
}

// SetMonth replaces the shown month. The cursor is kept when it lies in
// the new month and otherwise moves to its first day.
func (m *Model) SetMonth(v engine.MonthView) {
	m.view = v
	if v.Year == 0 {
		return
	}
	if m.cursor.Year != v.Year || m.cursor.Month != v.Month {
		m.cursor = model.NewDate(v.Year, v.Month, 1)
	}
}

// SetSize updates the grid dimensions; cells are resized on the next View.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetDay replaces one day after a save.
func (m *Model) SetDay(d engine.DayView) {
	for i := range m.view.Days {
		if !m.view.Days[i].Empty && m.view.Days[i].Date == d.Date {
			m.view.Days[i] = d
			return
		}
	}
}

// SetCursor moves the cursor to date if it is in the shown month.
func (m *Model) SetCursor(date model.Date) {
	if date.Year == m.view.Year && date.Month == m.view.Month {
		m.cursor = date
	}
}

// Cursor returns the date under the cursor.
func (m Model) Cursor() model.Date {
	return m.cursor
}

// Month returns the shown month view.
func (m Model) Month() engine.MonthView {
	return m.view
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update moves the cursor. Moves that leave the month become ShiftMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.view.Year == 0 {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Left):
		return m.move(-1)
	case key.Matches(keyMsg, m.keys.Right):
		return m.move(1)
	case key.Matches(keyMsg, m.keys.Up):
		return m.move(-7)
	case key.Matches(keyMsg, m.keys.Down):
		return m.move(7)
	case key.Matches(keyMsg, m.keys.Select):
		date := m.cursor
		return m, func() tea.Msg { return OpenDayMsg{Date: date} }
	}
	return m, nil
}

func (m Model) move(days int) (Model, tea.Cmd) {
	next := m.cursor.AddDays(days)
	if next.Year == m.view.Year && next.Month == m.view.Month {
		m.cursor = next
		return m, func() tea.Msg { return SelectMsg{Date: next} }
	}
	delta := 1
	if next.Before(m.cursor) {
		delta = -1
	}
	return m, func() tea.Msg { return ShiftMsg{Delta: delta, Cursor: next} }
}

// View renders the weekday header and the grid.
func (m Model) View() string {
	if m.view.Year == 0 {
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Padding(1, 2).
			Render("Loading month...")
	}

	weeks := m.view.Weeks()
	layout := ui.NewLayout(m.width, m.height+2)
	cellW, cellH := layout.CellSize(len(weeks))

	header := make([]string, 7)
	for i := range header {
		wd := time.Weekday(i)
		header[i] = theme.WeekdayHeaderStyle(wd == time.Sunday, wd == time.Saturday).
			Width(cellW + 2).Render(wd.String()[:3])
	}

	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	for _, week := range weeks {
		cells := make([]string, len(week))
		for i, d := range week {
			cells[i] = m.renderCell(d, cellW, cellH)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCell(d engine.DayView, w, h int) string {
	if d.Empty {
		return theme.EmptyCellStyle.Width(w).Height(h).Render("")
	}

	number := theme.DayNumberStyle(d.IsSunday, d.IsSaturday, d.IsHoliday, d.IsToday).
		Render(fmt.Sprintf("%2d", d.DayNumber))
	lines := []string{number}

	if d.Icons.Emphasis {
		// A lone icon gets a line of its own, centred.
		icon := d.Icons.Icons[0]
		lines = append(lines, lipgloss.PlaceHorizontal(w, lipgloss.Center,
			theme.HabitStyle(icon.Color).Bold(true).Render(glyph(icon))))
	} else {
		for _, row := range d.Icons.Grid(m.columns) {
			parts := make([]string, len(row))
			for i, icon := range row {
				parts[i] = theme.HabitStyle(icon.Color).Render(glyph(icon))
			}
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	if d.Icons.Overflow > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render(fmt.Sprintf("+%d", d.Icons.Overflow)))
	}

	style := theme.CellStyle
	if d.Date == m.cursor {
		style = theme.SelectedCellStyle
	}
	return style.Width(w).Height(h).MaxHeight(h + 2).Render(strings.Join(lines, "\n"))
}

func glyph(icon render.Icon) string {
	if icon.IsImage() {
		return "▣"
	}
	return icon.Glyph
}

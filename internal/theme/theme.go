package theme

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the month title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorOrange).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps side panels and overlays.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorOrange).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorOrange)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle marks failed loads and saves in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// Day cell styles.
var (
	CellStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder)

	SelectedCellStyle = CellStyle.
				BorderForeground(ColorOrange).
				BorderStyle(lipgloss.ThickBorder())

	EmptyCellStyle = lipgloss.NewStyle().
			Border(lipgloss.HiddenBorder())
)

// DayNumberStyle colours a day number: holidays and Sundays red, Saturdays
// blue, today bold and underlined.
func DayNumberStyle(sunday, saturday, holiday, today bool) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(ColorWhite)
	switch {
	case holiday, sunday:
		s = s.Foreground(ColorRed)
	case saturday:
		s = s.Foreground(ColorBlue)
	}
	if today {
		s = s.Bold(true).Underline(true)
	}
	return s
}

// WeekdayHeaderStyle styles the Sun..Sat labels above the grid.
func WeekdayHeaderStyle(sunday, saturday bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
	switch {
	case sunday:
		return s.Foreground(ColorRed)
	case saturday:
		return s.Foreground(ColorBlue)
	default:
		return s.Foreground(ColorGray)
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HabitStyle returns a style in the habit's colour, or the accent colour
// when hex is not #RRGGBB.
func HabitStyle(hex string) lipgloss.Style {
	if !hexColor.MatchString(hex) {
		return lipgloss.NewStyle().Foreground(ColorOrange)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

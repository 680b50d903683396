package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// CellSize returns the inner width and height of one day cell for a grid
// of the given number of weeks, leaving room for the weekday header row
// and cell borders. Cells never shrink below 4x2.
func (l Layout) CellSize(weeks int) (width, height int) {
	if weeks <= 0 {
		weeks = 6
	}
	width = l.ContentWidth()/7 - 2
	height = (l.ContentHeight()-1)/weeks - 2
	if width < 4 {
		width = 4
	}
	if height < 2 {
		height = 2
	}
	return width, height
}

// RenderHeader renders the top bar with the month title on the left and
// a status on the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	return theme.HeaderStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, l.fill(theme.HeaderStyle,
			l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered)), statusRendered),
	)
}

// RenderStatusBar renders the bottom bar with keyboard hints or an error.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered,
		l.fill(theme.StatusBarStyle, l.Width-lipgloss.Width(rendered)))
}

// fill pads a bar to the full width in the bar's background.
func (l Layout) fill(style lipgloss.Style, gap int) string {
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content),
		statusBar,
	)
}

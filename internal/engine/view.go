package engine

import (
	"time"

	"github.com/nhle/habit-calendar/internal/calendar"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/render"
)

// DayView is one grid cell with its icons.
type DayView struct {
	calendar.Cell
	Icons render.CellIcons
}

// MonthView is everything needed to draw a month.
type MonthView struct {
	Year   int
	Month  time.Month
	Days   []DayView
	Habits []model.Habit
}

// Weeks splits the days into rows of seven.
func (v MonthView) Weeks() [][]DayView {
	var weeks [][]DayView
	for i := 0; i+7 <= len(v.Days); i += 7 {
		weeks = append(weeks, v.Days[i:i+7])
	}
	return weeks
}

// Title is "YYYY-MM".
func (v MonthView) Title() string {
	return time.Date(v.Year, v.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// ChecklistItem is one habit in a day's checklist.
type ChecklistItem struct {
	Habit model.Habit
	Done  bool
}

// View renders the loaded month. It returns an empty view before the
// first successful Navigate.
func (e *Engine) View() MonthView {
	w, ok := e.cache.Window()
	if !ok {
		return MonthView{}
	}
	habits := e.loader.Habits()
	lookup := render.HabitLookup(habits)

	cells := calendar.BuildGrid(w.Year(), w.Month(), e.marks())
	days := make([]DayView, len(cells))
	for i, c := range cells {
		days[i] = DayView{Cell: c}
		if !c.Empty {
			days[i].Icons = e.renderer.Render(e.cache.Get(c.Date), lookup)
		}
	}
	return MonthView{Year: w.Year(), Month: w.Month(), Days: days, Habits: habits}
}

// Day re-renders a single cell of the loaded month.
func (e *Engine) Day(date model.Date) DayView {
	w, ok := e.cache.Window()
	if !ok || !w.Contains(date) {
		return DayView{Cell: calendar.Cell{Empty: true}}
	}
	cells := calendar.BuildGrid(w.Year(), w.Month(), e.marks())
	i := calendar.Find(cells, date)
	if i < 0 {
		return DayView{Cell: calendar.Cell{Empty: true}}
	}
	return DayView{
		Cell:  cells[i],
		Icons: e.renderer.Render(e.cache.Get(date), render.HabitLookup(e.loader.Habits())),
	}
}

// Checklist lists every active habit with whether it is done on date.
func (e *Engine) Checklist(date model.Date) []ChecklistItem {
	done := make(map[string]bool)
	for _, id := range e.cache.Get(date) {
		done[id] = true
	}
	habits := e.loader.Habits()
	items := make([]ChecklistItem, len(habits))
	for i, h := range habits {
		items[i] = ChecklistItem{Habit: h, Done: done[h.ID]}
	}
	return items
}

func (e *Engine) marks() calendar.Marks {
	today := e.Today()
	selected := e.Selected()
	m := calendar.Marks{
		Today:    today,
		Selected: selected,
	}
	if e.holidays != nil {
		m.Holiday = e.holidays.Has
	}
	return m
}

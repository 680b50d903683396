// Package calendar builds the month grid shown by the habit calendar.
//
// The grid uses a variable week count: a month occupies
// ceil((offset+days)/7) rows of seven cells, so February 2015 (starts on a
// Sunday, 28 days) has four rows and a 31-day month starting on a Saturday
// has six.
package calendar

import (
	"time"

	"github.com/nhle/habit-calendar/internal/model"
)

// Cell is one slot of the month grid. Empty cells pad the first and last
// week; Day cells carry the date and its decorations.
type Cell struct {
	Empty      bool
	DayNumber  int
	Date       model.Date
	Weekday    time.Weekday
	IsSunday   bool
	IsSaturday bool
	IsToday    bool
	IsSelected bool
	IsHoliday  bool
}

// Marks decorates Day cells. The zero value marks nothing.
type Marks struct {
	Today    model.Date
	Selected model.Date
	Holiday  func(model.Date) bool
}

// BuildGrid returns weeks*7 cells for the month, Sunday first.
func BuildGrid(year int, month time.Month, marks Marks) []Cell {
	offset := FirstWeekdayOffset(year, month)
	lastDay := DaysIn(year, month)
	total := WeekCount(year, month) * 7

	cells := make([]Cell, total)
	for i := range cells {
		day := i - offset + 1
		if day < 1 || day > lastDay {
			cells[i] = Cell{Empty: true}
			continue
		}
		date := model.Date{Year: year, Month: month, Day: day}
		wd := time.Weekday(i % 7)
		cells[i] = Cell{
			DayNumber:  day,
			Date:       date,
			Weekday:    wd,
			IsSunday:   wd == time.Sunday,
			IsSaturday: wd == time.Saturday,
			IsToday:    date == marks.Today,
			IsSelected: date == marks.Selected,
			IsHoliday:  marks.Holiday != nil && marks.Holiday(date),
		}
	}
	return cells
}

// DaysIn returns the number of days in a month ("day 0 of next month").
func DaysIn(year int, month time.Month) int {
	return model.NewDate(year, month+1, 0).Day
}

// FirstWeekdayOffset is the weekday of day 1, Sunday = 0.
func FirstWeekdayOffset(year int, month time.Month) int {
	return int(model.Date{Year: year, Month: month, Day: 1}.Weekday())
}

// WeekCount is the number of grid rows the month needs.
func WeekCount(year int, month time.Month) int {
	return (FirstWeekdayOffset(year, month) + DaysIn(year, month) + 6) / 7
}

// Weeks splits a grid into rows of seven.
func Weeks(cells []Cell) [][]Cell {
	rows := make([][]Cell, 0, len(cells)/7)
	for start := 0; start+7 <= len(cells); start += 7 {
		rows = append(rows, cells[start:start+7])
	}
	return rows
}

// Find returns the index of date's cell, or -1.
func Find(cells []Cell, date model.Date) int {
	for i, c := range cells {
		if !c.Empty && c.Date == date {
			return i
		}
	}
	return -1
}

// ShiftMonth moves (year, month) by delta months.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	d := model.NewDate(year, month+time.Month(delta), 1)
	return d.Year, d.Month
}

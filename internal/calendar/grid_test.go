package calendar

import (
	"testing"
	"time"

	"github.com/nhle/habit-calendar/internal/model"
)

func TestBuildGridLeapFebruary(t *testing.T) {
	cells := BuildGrid(2024, time.February, Marks{})

	if len(cells) != 35 {
		t.Fatalf("expected 35 cells, got %d", len(cells))
	}
	for i := 0; i < 4; i++ {
		if !cells[i].Empty {
			t.Fatalf("cell %d should be empty", i)
		}
	}
	first := cells[4]
	if first.DayNumber != 1 || first.Weekday != time.Thursday {
		t.Fatalf("day 1 = %+v, want Thursday", first)
	}

	last := 0
	for _, c := range cells {
		if !c.Empty && c.DayNumber > last {
			last = c.DayNumber
		}
	}
	if last != 29 {
		t.Fatalf("last day = %d, want 29", last)
	}
}

func TestBuildGridProperties(t *testing.T) {
	for year := 2023; year <= 2025; year++ {
		for month := time.January; month <= time.December; month++ {
			cells := BuildGrid(year, month, Marks{})
			offset := FirstWeekdayOffset(year, month)
			lastDay := DaysIn(year, month)

			if want := WeekCount(year, month) * 7; len(cells) != want {
				t.Fatalf("%d-%02d: %d cells, want %d", year, month, len(cells), want)
			}
			if len(cells) < offset+lastDay || len(cells)-7 >= offset+lastDay {
				t.Fatalf("%d-%02d: week count not minimal", year, month)
			}

			for day := 1; day <= lastDay; day++ {
				c := cells[offset+day-1]
				if c.Empty || c.DayNumber != day {
					t.Fatalf("%d-%02d: cell %d = %+v, want day %d", year, month, offset+day-1, c, day)
				}
				want := model.Date{Year: year, Month: month, Day: day}
				if c.Date != want {
					t.Fatalf("%d-%02d: date %s, want %s", year, month, c.Date, want)
				}
				if got, _ := model.ParseDate(c.Date.String()); got != c.Date {
					t.Fatalf("iso round trip failed for %s", c.Date)
				}
				if c.Weekday != c.Date.Weekday() {
					t.Fatalf("%s: weekday %s, want %s", c.Date, c.Weekday, c.Date.Weekday())
				}
				if c.IsSunday != (c.Weekday == time.Sunday) || c.IsSaturday != (c.Weekday == time.Saturday) {
					t.Fatalf("%s: weekend flags wrong", c.Date)
				}
			}
			for i, c := range cells {
				inMonth := i >= offset && i < offset+lastDay
				if c.Empty == inMonth {
					t.Fatalf("%d-%02d: cell %d empty=%v", year, month, i, c.Empty)
				}
			}
		}
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2023, time.February, 28},
		{2024, time.February, 29},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestBuildGridMarks(t *testing.T) {
	today := model.MustParseDate("2024-05-15")
	selected := model.MustParseDate("2024-05-20")
	holiday := model.MustParseDate("2024-05-05")

	cells := BuildGrid(2024, time.May, Marks{
		Today:    today,
		Selected: selected,
		Holiday:  func(d model.Date) bool { return d == holiday },
	})

	for _, c := range cells {
		if c.Empty {
			continue
		}
		if c.IsToday != (c.Date == today) {
			t.Errorf("%s IsToday = %v", c.Date, c.IsToday)
		}
		if c.IsSelected != (c.Date == selected) {
			t.Errorf("%s IsSelected = %v", c.Date, c.IsSelected)
		}
		if c.IsHoliday != (c.Date == holiday) {
			t.Errorf("%s IsHoliday = %v", c.Date, c.IsHoliday)
		}
	}
}

func TestBuildGridIsDeterministic(t *testing.T) {
	a := BuildGrid(2025, time.March, Marks{})
	b := BuildGrid(2025, time.March, Marks{})
	if len(a) != len(b) {
		t.Fatalf("length differs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if rows := Weeks(a); len(rows) != len(a)/7 || len(rows[0]) != 7 {
		t.Fatalf("Weeks split wrong: %d rows", len(rows))
	}
}

func TestShiftMonth(t *testing.T) {
	if y, m := ShiftMonth(2024, time.December, 1); y != 2025 || m != time.January {
		t.Fatalf("got %d-%s", y, m)
	}
	if y, m := ShiftMonth(2024, time.January, -1); y != 2023 || m != time.December {
		t.Fatalf("got %d-%s", y, m)
	}
	cells := BuildGrid(2024, time.March, Marks{})
	if i := Find(cells, model.MustParseDate("2024-03-01")); i != 5 {
		t.Fatalf("Find = %d, want 5 (March 2024 starts on Friday)", i)
	}
}

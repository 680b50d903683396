package commands

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/habit-calendar/internal/calendar"
	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/render"
)

func TestHabitOptionsInput(t *testing.T) {
	o := &HabitOptions{Glyph: "🏃", Unit: "week", Every: 1, Target: 3, Start: "2024-01-15"}
	in, err := o.Input("Run")
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if in.StartDate != model.NewDate(2024, time.January, 15) || in.TargetCount != 3 || in.PeriodUnit != "week" {
		t.Fatalf("input = %+v", in)
	}

	o.Start = "15/01/2024"
	if _, err := o.Input("Run"); err == nil {
		t.Fatalf("malformed start accepted")
	}
}

func TestChecklistJSON(t *testing.T) {
	date := model.NewDate(2024, time.March, 10)
	out := checklistJSON(date, []engine.ChecklistItem{
		{Habit: model.Habit{ID: "a"}, Done: true},
		{Habit: model.Habit{ID: "b"}},
	})
	if len(out.Done) != 1 || out.Done[0] != "a" || len(out.Undone) != 1 || out.Undone[0] != "b" {
		t.Fatalf("out = %+v", out)
	}
}

func TestMonthJSONSkipsPadding(t *testing.T) {
	cells := calendar.BuildGrid(2024, time.February, calendar.Marks{})
	days := make([]engine.DayView, len(cells))
	for i, c := range cells {
		days[i] = engine.DayView{Cell: c}
		if c.DayNumber == 14 {
			days[i].Icons = render.New(1, 1).Render([]string{"x", "y"}, nil)
		}
	}
	out := monthJSON(engine.MonthView{Year: 2024, Month: time.February, Days: days})
	if len(out) != 29 {
		t.Fatalf("got %d days, want 29", len(out))
	}
	if d := out[13]; len(d.Habits) != 1 || d.More != 1 {
		t.Fatalf("day 14 = %+v", d)
	}
}

func TestBarWidth(t *testing.T) {
	for _, rate := range []float64{0, 0.5, 1} {
		got := bar(rate, 10)
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 10 {
			t.Fatalf("bar(%v) has %d cells", rate, n)
		}
	}
}

func TestRootOptionsFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	ro := &RootOptions{
		ConfigPath:  filepath.Join(dir, "missing.yaml"),
		Owner:       "me",
		MetricsAddr: ":9999",
	}
	if err := ro.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := ro.Config()
	if cfg.Session.OwnerID != "me" || cfg.Log.MetricsAddr != ":9999" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Store.Driver != model.DriverSQLite || cfg.Display.Capacity != 6 {
		t.Fatalf("defaults missing: %+v", cfg)
	}
}

func TestCommandTree(t *testing.T) {
	root := New()
	for _, path := range [][]string{
		{"ui"}, {"month"}, {"check"}, {"progress"}, {"login"}, {"logout"}, {"version"},
		{"habit", "add"}, {"habit", "edit"}, {"habit", "list"}, {"habit", "archive"}, {"habit", "rm"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

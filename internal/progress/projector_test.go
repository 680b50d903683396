package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/habit-calendar/internal/model"
	hsync "github.com/nhle/habit-calendar/internal/sync"
)

type countStore struct {
	counts map[string]int
	err    error
	calls  int

	start, end model.Date
}

func (s *countStore) ListLogs(ctx context.Context, ownerID string, start, end model.Date) ([]model.LogEntry, error) {
	return nil, nil
}

func (s *countStore) DeleteLogs(ctx context.Context, ownerID string, date model.Date, habitIDs []string) error {
	return nil
}

func (s *countStore) UpsertLogs(ctx context.Context, entries []model.LogEntry) error {
	return nil
}

func (s *countStore) CountCompletions(ctx context.Context, ownerID string, habitIDs []string, start, end model.Date) (map[string]int, error) {
	s.calls++
	s.start, s.end = start, end
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out, nil
}

func TestElapsedDays(t *testing.T) {
	d := model.MustParseDate
	cases := []struct {
		start, today string
		want         int
	}{
		{"2024-03-01", "2024-03-01", 1},
		{"2024-03-01", "2024-03-10", 10},
		{"2024-02-28", "2024-03-01", 3},
		{"2024-03-10", "2024-03-01", 1},
		{"2023-12-31", "2024-01-01", 2},
	}
	for _, tc := range cases {
		if got := ElapsedDays(d(tc.start), d(tc.today)); got != tc.want {
			t.Errorf("ElapsedDays(%s, %s) = %d, want %d", tc.start, tc.today, got, tc.want)
		}
	}
}

func TestProjectorAppliesDeltas(t *testing.T) {
	today := model.MustParseDate("2024-03-10")
	habits := []model.Habit{
		{ID: "h1", Title: "Run", StartDate: model.MustParseDate("2024-03-01")},
		{ID: "h2", Title: "Read", StartDate: model.MustParseDate("2024-02-20")},
		{ID: "h3", Title: "Sleep", StartDate: model.MustParseDate("2024-03-05")},
	}
	cs := &countStore{counts: map[string]int{"h1": 4, "h2": 7}}
	p := NewProjector(cs, nil)

	if err := p.Open(context.Background(), "o", habits, today); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if cs.start.String() != "2024-02-20" || cs.end.String() != "2024-03-11" {
		t.Fatalf("queried [%s, %s)", cs.start, cs.end)
	}

	p.Apply(hsync.Delta{
		Date:     model.MustParseDate("2024-03-09"),
		ToInsert: []string{"h3"},
		ToDelete: []string{"h1"},
	})
	// Future dates are outside the counted range.
	p.Apply(hsync.Delta{Date: model.MustParseDate("2024-03-20"), ToInsert: []string{"h2"}})

	got := p.Summaries(today)
	want := map[string][2]int{"h1": {3, 10}, "h2": {7, 20}, "h3": {1, 6}}
	for _, s := range got {
		w := want[s.HabitID]
		if s.Completed != w[0] || s.ElapsedDays != w[1] {
			t.Errorf("%s: completed %d elapsed %d, want %v", s.HabitID, s.Completed, s.ElapsedDays, w)
		}
	}
	if cs.calls != 1 {
		t.Fatalf("store queried %d times, want 1", cs.calls)
	}
}

func TestProjectorClosedIgnoresDeltas(t *testing.T) {
	cs := &countStore{counts: map[string]int{"h1": 1}}
	p := NewProjector(cs, nil)
	today := model.MustParseDate("2024-03-10")
	habits := []model.Habit{{ID: "h1", StartDate: today}}

	if err := p.Open(context.Background(), "o", habits, today); err != nil {
		t.Fatal(err)
	}
	p.Close()
	p.Apply(hsync.Delta{Date: today, ToInsert: []string{"h1"}})
	if p.IsOpen() || len(p.Summaries(today)) != 0 {
		t.Fatalf("closed projector still reporting")
	}
}

func TestProjectorOpenError(t *testing.T) {
	p := NewProjector(&countStore{err: errors.New("boom")}, nil)
	if err := p.Open(context.Background(), "o", nil, model.MustParseDate("2024-01-01")); err == nil {
		t.Fatalf("expected error")
	}
	if p.IsOpen() {
		t.Fatalf("projector opened despite error")
	}
}

func TestSummaryRate(t *testing.T) {
	if r := (Summary{Completed: 5, ElapsedDays: 10}).Rate(); r != 0.5 {
		t.Fatalf("rate = %v", r)
	}
	if r := (Summary{Completed: 12, ElapsedDays: 10}).Rate(); r != 1 {
		t.Fatalf("rate = %v", r)
	}
}

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/store"
	"github.com/nhle/habit-calendar/tests/testutil"
)

const owner = "owner-1"

func newHabit(title string, created time.Time) model.Habit {
	return model.Habit{
		OwnerID:     owner,
		Title:       title,
		Icon:        model.Icon{Glyph: model.DefaultGlyph},
		Color:       model.DefaultColor,
		PeriodUnit:  model.PeriodDay,
		PeriodValue: 1,
		TargetCount: 1,
		StartDate:   model.MustParseDate("2024-01-01"),
		CreatedAt:   created,
	}
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) store.Store { return testutil.NewTestStore(t) })
}

func TestPostgresStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) store.Store { return testutil.NewPostgresTestStore(t) })
}

func runStoreTests(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("habits ordered by creation", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

		second, err := s.CreateHabit(ctx, newHabit("Read", base.Add(time.Hour)))
		if err != nil {
			t.Fatalf("CreateHabit: %v", err)
		}
		first, err := s.CreateHabit(ctx, newHabit("Run", base))
		if err != nil {
			t.Fatalf("CreateHabit: %v", err)
		}

		habits, err := s.ListActiveHabits(ctx, owner)
		if err != nil {
			t.Fatalf("ListActiveHabits: %v", err)
		}
		if len(habits) != 2 || habits[0].ID != first.ID || habits[1].ID != second.ID {
			t.Fatalf("unexpected order: %+v", habits)
		}
		if habits[0].StartDate != model.MustParseDate("2024-01-01") {
			t.Fatalf("start date = %s", habits[0].StartDate)
		}

		if err := s.DeactivateHabit(ctx, owner, first.ID); err != nil {
			t.Fatalf("DeactivateHabit: %v", err)
		}
		habits, _ = s.ListActiveHabits(ctx, owner)
		if len(habits) != 1 || habits[0].ID != second.ID {
			t.Fatalf("deactivated habit still listed: %+v", habits)
		}
		if _, err := s.GetHabit(ctx, owner, first.ID); err != nil {
			t.Fatalf("deactivated habit should remain readable: %v", err)
		}
	})

	t.Run("update and missing habit", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		h, err := s.CreateHabit(ctx, newHabit("Stretch", time.Now()))
		if err != nil {
			t.Fatalf("CreateHabit: %v", err)
		}
		h.Title = "Stretch twice"
		h.Icon = model.Icon{Glyph: "🧘"}
		if err := s.UpdateHabit(ctx, h); err != nil {
			t.Fatalf("UpdateHabit: %v", err)
		}
		got, err := s.GetHabit(ctx, owner, h.ID)
		if err != nil {
			t.Fatalf("GetHabit: %v", err)
		}
		if got.Title != "Stretch twice" || got.Icon.Glyph != "🧘" {
			t.Fatalf("update not applied: %+v", got)
		}

		if _, err := s.GetHabit(ctx, owner, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
		if err := s.DeleteHabit(ctx, "someone-else", h.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("delete across owners: got %v, want ErrNotFound", err)
		}
	})

	t.Run("empty title rejected", func(t *testing.T) {
		s := open(t)
		_, err := s.CreateHabit(context.Background(), newHabit("  ", time.Now()))
		if !model.IsKind(err, model.KindValidation) {
			t.Fatalf("got %v, want validation error", err)
		}
	})

	t.Run("log lifecycle", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		a, _ := s.CreateHabit(ctx, newHabit("A", time.Now()))
		b, _ := s.CreateHabit(ctx, newHabit("B", time.Now().Add(time.Second)))
		d1 := model.MustParseDate("2024-02-29")
		d2 := model.MustParseDate("2024-03-01")

		entries := []model.LogEntry{
			{HabitID: a.ID, Date: d1, OwnerID: owner},
			{HabitID: b.ID, Date: d1, OwnerID: owner},
			{HabitID: a.ID, Date: d2, OwnerID: owner},
		}
		if err := s.UpsertLogs(ctx, entries); err != nil {
			t.Fatalf("UpsertLogs: %v", err)
		}
		// Re-inserting existing keys is a no-op.
		if err := s.UpsertLogs(ctx, entries[:1]); err != nil {
			t.Fatalf("UpsertLogs (repeat): %v", err)
		}

		feb, err := s.ListLogs(ctx, owner, model.MustParseDate("2024-02-01"), model.MustParseDate("2024-03-01"))
		if err != nil {
			t.Fatalf("ListLogs: %v", err)
		}
		if len(feb) != 2 {
			t.Fatalf("February logs = %d, want 2 (end is exclusive)", len(feb))
		}

		if err := s.DeleteLogs(ctx, owner, d1, []string{a.ID, b.ID}); err != nil {
			t.Fatalf("DeleteLogs: %v", err)
		}
		feb, _ = s.ListLogs(ctx, owner, model.MustParseDate("2024-02-01"), model.MustParseDate("2024-03-01"))
		if len(feb) != 0 {
			t.Fatalf("logs remain after delete: %+v", feb)
		}

		counts, err := s.CountCompletions(ctx, owner, []string{a.ID, b.ID},
			model.MustParseDate("2024-01-01"), model.MustParseDate("2024-04-01"))
		if err != nil {
			t.Fatalf("CountCompletions: %v", err)
		}
		if counts[a.ID] != 1 || counts[b.ID] != 0 {
			t.Fatalf("counts = %v", counts)
		}

		if err := s.DeleteHabit(ctx, owner, a.ID); err != nil {
			t.Fatalf("DeleteHabit: %v", err)
		}
		all, _ := s.ListLogs(ctx, owner, model.MustParseDate("2024-01-01"), model.MustParseDate("2025-01-01"))
		if len(all) != 0 {
			t.Fatalf("logs not cascaded: %+v", all)
		}
	})

	t.Run("log for unknown habit conflicts", func(t *testing.T) {
		s := open(t)
		err := s.UpsertLogs(context.Background(), []model.LogEntry{
			{HabitID: "ghost", Date: model.MustParseDate("2024-01-01"), OwnerID: owner},
		})
		if !model.IsKind(err, model.KindConflict) {
			t.Fatalf("got %v, want conflict", err)
		}
	})
}

func TestSQLiteSettings(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get on empty = %v, %v", ok, err)
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
}

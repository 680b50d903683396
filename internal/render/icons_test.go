package render

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/nhle/habit-calendar/internal/model"
)

func TestRenderDedupThenTruncate(t *testing.T) {
	ids := []string{"h1", "h1", "h2", "h3", "h4", "h5", "h6", "h7"}
	got := New(6, 2).Render(ids, nil)

	want := []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	if !reflect.DeepEqual(got.HabitIDs(), want) {
		t.Fatalf("got %v, want %v", got.HabitIDs(), want)
	}
	if got.Overflow != 1 {
		t.Fatalf("overflow = %d, want 1", got.Overflow)
	}
	if got.Rows != 3 || got.Emphasis {
		t.Fatalf("rows %d emphasis %v", got.Rows, got.Emphasis)
	}
}

func TestRenderLengthProperty(t *testing.T) {
	r := New(4, 2)
	for n := 0; n <= 9; n++ {
		var ids []string
		for i := 0; i < n; i++ {
			ids = append(ids, fmt.Sprintf("h%d", i%5), fmt.Sprintf("h%d", i%5))
		}
		distinct := n
		if distinct > 5 {
			distinct = 5
		}
		want := distinct
		if want > 4 {
			want = 4
		}

		got := r.Render(ids, nil).HabitIDs()
		if len(got) != want {
			t.Fatalf("n=%d: len %d, want %d", n, len(got), want)
		}
		seen := make(map[string]bool)
		for i, id := range got {
			if seen[id] {
				t.Fatalf("n=%d: duplicate %s", n, id)
			}
			seen[id] = true
			if id != fmt.Sprintf("h%d", i) {
				t.Fatalf("n=%d: order broken at %d: %v", n, i, got)
			}
		}
	}
}

func TestRenderIcons(t *testing.T) {
	lookup := HabitLookup([]model.Habit{
		{ID: "img", Icon: model.Icon{ImageURL: "https://example.com/a.png"}, Color: "#112233"},
		{ID: "run", Icon: model.Icon{Glyph: "🏃"}, Color: "#445566"},
	})

	got := New(0, 0).Render([]string{"img", "run", "gone"}, lookup)
	if len(got.Icons) != 3 {
		t.Fatalf("icons = %+v", got.Icons)
	}
	if !got.Icons[0].IsImage() || got.Icons[0].Glyph != "" {
		t.Fatalf("image icon = %+v", got.Icons[0])
	}
	if got.Icons[1].Glyph != "🏃" || got.Icons[1].Color != "#445566" {
		t.Fatalf("glyph icon = %+v", got.Icons[1])
	}
	if got.Icons[2].Glyph != model.DefaultGlyph {
		t.Fatalf("unknown habit icon = %+v", got.Icons[2])
	}
}

func TestRenderEmphasis(t *testing.T) {
	r := New(6, 2)
	if !r.Render([]string{"a", "a"}, nil).Emphasis {
		t.Fatalf("single icon should be emphasized")
	}
	if r.Render([]string{"a", "b"}, nil).Emphasis {
		t.Fatalf("two icons should not be emphasized")
	}
	if empty := r.Render(nil, nil); empty.Emphasis || len(empty.Icons) != 0 || empty.Rows != 0 {
		t.Fatalf("empty render = %+v", empty)
	}
}

func TestGrid(t *testing.T) {
	c := New(6, 2).Render([]string{"a", "b", "c"}, nil)
	rows := c.Grid(2)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("grid = %+v", rows)
	}
}

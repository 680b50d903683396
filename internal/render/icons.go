// Package render turns a day's completion list into the icons drawn in its
// calendar cell.
package render

import (
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/sync"
)

const (
	DefaultCapacity = 6
	DefaultColumns  = 2
)

// Icon is one habit's mark in a cell.
type Icon struct {
	HabitID string
	model.Icon
	Color string
}

// CellIcons is what a day cell shows.
type CellIcons struct {
	Icons []Icon
	// Emphasis is set when exactly one icon is shown; it is drawn larger.
	Emphasis bool
	// Rows is the number of icon rows at the renderer's column count.
	Rows int
	// Overflow counts distinct habits that did not fit. Display only.
	Overflow int
}

// Lookup resolves a habit id to its habit.
type Lookup func(habitID string) (model.Habit, bool)

// HabitLookup indexes habits by id.
func HabitLookup(habits []model.Habit) Lookup {
	byID := make(map[string]model.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}
	return func(id string) (model.Habit, bool) {
		h, ok := byID[id]
		return h, ok
	}
}

// Renderer lays out at most Capacity icons in Columns columns.
type Renderer struct {
	Capacity int
	Columns  int
}

// New returns a renderer, substituting defaults for non-positive values.
func New(capacity, columns int) Renderer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if columns <= 0 {
		columns = DefaultColumns
	}
	return Renderer{Capacity: capacity, Columns: columns}
}

// Render deduplicates ids keeping first-seen order, truncates to the
// capacity, and maps each id to its icon. Ids the lookup does not know are
// drawn with the default glyph.
func (r Renderer) Render(ids []string, lookup Lookup) CellIcons {
	r = New(r.Capacity, r.Columns)

	distinct := sync.Dedup(ids)
	shown := distinct
	if len(shown) > r.Capacity {
		shown = shown[:r.Capacity]
	}

	out := CellIcons{
		Icons:    make([]Icon, 0, len(shown)),
		Emphasis: len(shown) == 1,
		Rows:     (len(shown) + r.Columns - 1) / r.Columns,
		Overflow: len(distinct) - len(shown),
	}
	for _, id := range shown {
		icon := Icon{HabitID: id, Icon: model.Icon{Glyph: model.DefaultGlyph}, Color: model.DefaultColor}
		if lookup != nil {
			if h, ok := lookup(id); ok {
				icon.Color = h.Color
				if h.Icon.IsImage() {
					icon.Icon = model.Icon{ImageURL: h.Icon.ImageURL}
				} else if h.Icon.Glyph != "" {
					icon.Icon = model.Icon{Glyph: h.Icon.Glyph}
				}
			}
		}
		out.Icons = append(out.Icons, icon)
	}
	return out
}

// HabitIDs returns the ids in display order.
func (c CellIcons) HabitIDs() []string {
	ids := make([]string, len(c.Icons))
	for i, icon := range c.Icons {
		ids[i] = icon.HabitID
	}
	return ids
}

// Grid splits the icons into rows of the given width.
func (c CellIcons) Grid(columns int) [][]Icon {
	if columns <= 0 {
		columns = DefaultColumns
	}
	var rows [][]Icon
	for i := 0; i < len(c.Icons); i += columns {
		end := i + columns
		if end > len(c.Icons) {
			end = len(c.Icons)
		}
		rows = append(rows, c.Icons[i:end])
	}
	return rows
}

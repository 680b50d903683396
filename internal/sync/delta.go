package sync

import "github.com/nhle/habit-calendar/internal/model"

// Delta is the change that turns one date's cached completion set into the
// desired one. ToInsert and ToDelete are always disjoint.
type Delta struct {
	Date     model.Date
	ToInsert []string
	ToDelete []string
}

// Empty reports whether applying the delta would change nothing.
func (d Delta) Empty() bool {
	return len(d.ToInsert) == 0 && len(d.ToDelete) == 0
}

// Change returns the net effect of the delta on habitID's completion
// count: +1, -1 or 0.
func (d Delta) Change(habitID string) int {
	n := 0
	for _, id := range d.ToInsert {
		if id == habitID {
			n++
		}
	}
	for _, id := range d.ToDelete {
		if id == habitID {
			n--
		}
	}
	return n
}

// Diff computes the delta from existing to incoming. Both inputs may hold
// duplicates; outputs are deduplicated and keep first-seen order.
func Diff(existing, incoming []string) Delta {
	return Delta{
		ToInsert: Difference(incoming, existing),
		ToDelete: Difference(existing, incoming),
	}
}

// Difference returns the distinct elements of a not present in b, in the
// order they first appear in a.
func Difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, id := range b {
		exclude[id] = struct{}{}
	}
	var out []string
	for _, id := range Dedup(a) {
		if _, ok := exclude[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Dedup returns ids without repeats, keeping the first occurrence of each.
func Dedup(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

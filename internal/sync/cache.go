package sync

import (
	gosync "sync"
	"time"

	"github.com/nhle/habit-calendar/internal/model"
)

// Window is the half-open date range [Start, End) covered by one month load.
type Window struct {
	Start model.Date
	End   model.Date
}

// MonthWindow returns the window of the given month.
func MonthWindow(year int, month time.Month) Window {
	first := model.NewDate(year, month, 1)
	return Window{Start: first, End: first.FirstOfNextMonth()}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d model.Date) bool {
	return !d.Before(w.Start) && d.Before(w.End)
}

// Year and Month identify the month the window covers.
func (w Window) Year() int { return w.Start.Year }
func (w Window) Month() time.Month { return w.Start.Month }

// LogCache maps each date of the loaded month to the habit ids completed on
// it. It only ever holds one month; navigating replaces it wholesale.
type LogCache struct {
	mu     gosync.RWMutex
	window Window
	loaded bool
	token  Token
	days   map[model.Date][]string

	// edits holds single-date replacements, numbered by editSeq, so a
	// window load that read the store before an edit landed cannot undo it.
	editSeq uint64
	edits   map[model.Date]edit
}

type edit struct {
	ids []string
	seq uint64
}

// NewLogCache returns an empty cache with no window loaded.
func NewLogCache() *LogCache {
	return &LogCache{
		days:  make(map[model.Date][]string),
		edits: make(map[model.Date]edit),
	}
}

// Get returns the distinct habit ids completed on date, in the order they
// were first recorded. Dates with nothing recorded return nil.
func (c *LogCache) Get(date model.Date) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Dedup(c.days[date])
}

// Raw returns the ids stored for date exactly as loaded, duplicates included.
func (c *LogCache) Raw(date model.Date) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.days[date]...)
}

// Window returns the loaded window, and false if nothing was loaded yet.
func (c *LogCache) Window() (Window, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window, c.loaded
}

// Contains reports whether date is inside the loaded window.
func (c *LogCache) Contains(date model.Date) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded && c.window.Contains(date)
}

// Snapshot returns a deduplicated copy of every non-empty date.
func (c *LogCache) Snapshot() map[model.Date][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[model.Date][]string, len(c.days))
	for d, ids := range c.days {
		if len(ids) > 0 {
			out[d] = Dedup(ids)
		}
	}
	return out
}

// Replace sets the completion set of a single date. Dates outside the
// loaded window are ignored and Replace reports false.
func (c *LogCache) Replace(date model.Date, ids []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || !c.window.Contains(date) {
		return false
	}
	c.editSeq++
	c.edits[date] = edit{ids: append([]string(nil), ids...), seq: c.editSeq}
	if len(ids) == 0 {
		delete(c.days, date)
		return true
	}
	c.days[date] = append([]string(nil), ids...)
	return true
}

// editMark numbers the latest edit. A load takes it before reading the
// store and passes it to replaceWindow.
func (c *LogCache) editMark() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editSeq
}

// replaceWindow swaps in a freshly loaded month if current still holds for
// tok when evaluated under the cache lock. Edits made after since are laid
// over days, since the read may have missed them; older edits are dropped.
func (c *LogCache) replaceWindow(tok Token, w Window, days map[model.Date][]string, since uint64, current func(Token) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !current(tok) || tok < c.token {
		return false
	}
	for d, e := range c.edits {
		if e.seq <= since || !w.Contains(d) {
			delete(c.edits, d)
			continue
		}
		if len(e.ids) == 0 {
			delete(days, d)
		} else {
			days[d] = append([]string(nil), e.ids...)
		}
	}
	c.window = w
	c.loaded = true
	c.token = tok
	c.days = days
	return true
}

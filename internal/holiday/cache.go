// Package holiday keeps a per-year set of public holidays for highlighting
// calendar cells. Lookups never fail: when nothing is known about a year
// the answer is simply "not a holiday".
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/habit-calendar/internal/kv"
	"github.com/nhle/habit-calendar/internal/metrics"
	"github.com/nhle/habit-calendar/internal/model"
)

// Source lists the holiday dates of a year for a country.
type Source interface {
	Holidays(ctx context.Context, year int, country string) ([]model.Date, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, year int, country string) ([]model.Date, error)

func (f SourceFunc) Holidays(ctx context.Context, year int, country string) ([]model.Date, error) {
	return f(ctx, year, country)
}

// Cache is a cache-first, network-fallback set of holiday dates per year.
// Entries are never refreshed once populated.
type Cache struct {
	kv      kv.Store
	source  Source
	country string
	logger  *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	years map[int]map[model.Date]struct{}
}

// NewCache builds a Cache. store may be nil, in which case nothing is
// persisted between sessions.
func NewCache(store kv.Store, source Source, country string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		kv:      store,
		source:  source,
		country: country,
		logger:  logger,
		years:   make(map[int]map[model.Date]struct{}),
	}
}

// Ensure makes the holidays of year available to Has. It returns
// immediately if the year is already cached; failures leave an empty set.
func (c *Cache) Ensure(ctx context.Context, year int) {
	if c.loaded(year) {
		return
	}
	_, _, _ = c.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		if c.loaded(year) {
			return nil, nil
		}
		c.store(year, c.fill(ctx, year))
		return nil, nil
	})
}

// Has reports whether date is a known holiday. Years never ensured have
// no holidays.
func (c *Cache) Has(date model.Date) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.years[date.Year][date]
	return ok
}

// Dates returns the cached holidays of year in no particular order.
func (c *Cache) Dates(year int) []model.Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Date, 0, len(c.years[year]))
	for d := range c.years[year] {
		out = append(out, d)
	}
	return out
}

func (c *Cache) loaded(year int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.years[year]
	return ok
}

func (c *Cache) store(year int, dates []model.Date) {
	set := make(map[model.Date]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	c.mu.Lock()
	c.years[year] = set
	c.mu.Unlock()
}

// fill resolves a year from the key-value store, then the source.
func (c *Cache) fill(ctx context.Context, year int) []model.Date {
	key := c.key(year)
	log := c.logger.With(zap.Int("year", year), zap.String("country", c.country))

	if c.kv != nil {
		raw, ok, err := c.kv.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("Reading cached holidays failed", zap.Error(err))
		case ok:
			dates, err := decodeDates(raw)
			if err == nil {
				metrics.IncrementHolidayFetch("kv")
				log.Debug("Holidays loaded from local store", zap.Int("count", len(dates)))
				return dates
			}
			log.Warn("Cached holidays unreadable, refetching", zap.Error(err))
		}
	}

	if c.source == nil {
		return nil
	}
	dates, err := c.source.Holidays(ctx, year, c.country)
	if err != nil {
		metrics.IncrementHolidayFetch("failed")
		log.Warn("Holiday fetch failed, continuing without holidays", zap.Error(err))
		return nil
	}
	metrics.IncrementHolidayFetch("network")

	if c.kv != nil {
		raw, err := encodeDates(dates)
		if err == nil {
			err = c.kv.Set(ctx, key, raw)
		}
		if err != nil {
			log.Warn("Persisting holidays failed", zap.Error(err))
		}
	}
	log.Debug("Holidays fetched", zap.Int("count", len(dates)))
	return dates
}

func (c *Cache) key(year int) string {
	return fmt.Sprintf("holidays/%s/%d", c.country, year)
}

func encodeDates(dates []model.Date) (string, error) {
	if dates == nil {
		dates = []model.Date{}
	}
	b, err := json.Marshal(dates)
	if err != nil {
		return "", fmt.Errorf("encoding holidays: %w", err)
	}
	return string(b), nil
}

func decodeDates(raw string) ([]model.Date, error) {
	var dates []model.Date
	if err := json.Unmarshal([]byte(raw), &dates); err != nil {
		return nil, fmt.Errorf("decoding holidays: %w", err)
	}
	return dates, nil
}

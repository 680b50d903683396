package holiday

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/nhle/habit-calendar/internal/model"
)

// ICalSource reads holidays from an iCalendar feed. The URL may contain
// {year} and {country} placeholders; every VEVENT whose DTSTART falls in
// the requested year counts as a holiday.
type ICalSource struct {
	urlTemplate string
	httpClient  *http.Client
}

// NewICalSource creates a source for the given feed URL template.
func NewICalSource(urlTemplate string) *ICalSource {
	return &ICalSource{
		urlTemplate: urlTemplate,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Holidays implements Source.
func (s *ICalSource) Holidays(ctx context.Context, year int, country string) ([]model.Date, error) {
	url := strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{country}", country,
	).Replace(s.urlTemplate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, "fetch holiday feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewError(model.KindNetwork, "fetch holiday feed",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
	}

	cal, err := ical.NewDecoder(resp.Body).Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding holiday feed: %w", err)
	}

	return eventDates(cal, year)
}

// eventDates collects the start dates of cal's events that fall in year.
func eventDates(cal *ical.Calendar, year int) ([]model.Date, error) {
	var dates []model.Date
	seen := make(map[model.Date]bool)
	for _, event := range cal.Events() {
		prop := event.Props.Get(ical.PropDateTimeStart)
		if prop == nil {
			continue
		}
		// All-day events carry floating dates; read them as UTC so the
		// calendar date is taken verbatim.
		t, err := prop.DateTime(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing DTSTART %q: %w", prop.Value, err)
		}
		d := model.DateOf(t)
		if d.Year != year || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	return dates, nil
}

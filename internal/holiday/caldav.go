package holiday

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/nhle/habit-calendar/internal/model"
)

// CalDAVSource reads holidays from one calendar on a CalDAV server, e.g. a
// subscribed holiday calendar in iCloud or Nextcloud. The country is
// implied by the calendar.
type CalDAVSource struct {
	endpoint     string
	calendarPath string
	httpClient   *http.Client

	mu     sync.Mutex
	client *caldav.Client
}

// NewCalDAVSource creates a source for the calendar at calendarPath on
// endpoint, authenticating with basic auth when username is set.
func NewCalDAVSource(endpoint, calendarPath, username, password string) *CalDAVSource {
	var transport http.RoundTripper = http.DefaultTransport
	if username != "" {
		transport = &basicAuthTransport{username: username, password: password}
	}
	return &CalDAVSource{
		endpoint:     endpoint,
		calendarPath: calendarPath,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

func (s *CalDAVSource) connect() (*caldav.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := caldav.NewClient(s.httpClient, s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to CalDAV: %w", err)
	}
	s.client = client
	return client, nil
}

// Holidays implements Source.
func (s *CalDAVSource) Holidays(ctx context.Context, year int, _ string) ([]model.Date, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
			}},
		},
	}
	objects, err := client.QueryCalendar(ctx, s.calendarPath, query)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, "query holiday calendar", err)
	}
	return objectDates(objects, year)
}

// objectDates merges the event dates of every object, skipping objects
// without data.
func objectDates(objects []caldav.CalendarObject, year int) ([]model.Date, error) {
	var dates []model.Date
	seen := make(map[model.Date]bool)
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		ds, err := eventDates(obj.Data, year)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", obj.Path, err)
		}
		for _, d := range ds {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	return dates, nil
}

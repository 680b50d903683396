package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nhle/habit-calendar/internal/model"
)

// DefaultNagerURL is the public Nager.Date API.
const DefaultNagerURL = "https://date.nager.at"

// nagerHoliday is one element of the PublicHolidays response.
type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// NagerSource fetches public holidays from a Nager.Date compatible API.
// It retries with exponential backoff on HTTP 429 and rate-limits its own
// requests.
type NagerSource struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewNagerSource creates a source for baseURL (DefaultNagerURL if empty)
// allowing at most perSecond requests per second.
func NewNagerSource(baseURL string, perSecond float64) *NagerSource {
	if baseURL == "" {
		baseURL = DefaultNagerURL
	}
	if perSecond <= 0 {
		perSecond = 2
	}
	return &NagerSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		maxRetries: 3,
	}
}

// Holidays implements Source.
func (s *NagerSource) Holidays(ctx context.Context, year int, country string) ([]model.Date, error) {
	path := fmt.Sprintf("/api/v3/PublicHolidays/%d/%s", year, strings.ToUpper(country))

	var resp []nagerHoliday
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	dates := make([]model.Date, 0, len(resp))
	for _, h := range resp {
		d, err := model.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		if d.Year == year {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// get performs a GET with rate limiting and 429 backoff and decodes JSON.
func (s *NagerSource) get(ctx context.Context, path string, result interface{}) error {
	url := s.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return model.NewError(model.KindNetwork, "fetch holidays", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return model.NewError(model.KindNetwork, "fetch holidays",
				fmt.Errorf("executing request GET %s: %w", path, err))
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return model.NewError(model.KindNetwork, "fetch holidays",
				fmt.Errorf("reading response body: %w", readErr))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on GET %s", path)
			select {
			case <-ctx.Done():
				return model.NewError(model.KindNetwork, "fetch holidays", ctx.Err())
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode == http.StatusNoContent {
			// Unknown country or year.
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return model.NewError(model.KindNetwork, "fetch holidays",
				fmt.Errorf("unexpected status %d on GET %s: %s", resp.StatusCode, path, string(body)))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
		}
		return nil
	}

	return model.NewError(model.KindNetwork, "fetch holidays",
		fmt.Errorf("max retries (%d) exceeded: %w", s.maxRetries, lastErr))
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// Package weather provides an OpenWeatherMap client for current
// conditions and the 5-day/3-hour forecast.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gatherhq/gather/internal/httpkit"
)

// DefaultBaseURL is the OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client is an OpenWeatherMap API client. All requests use metric
// units.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a weather client. baseURL may be empty to use the
// public API.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
		logger:     logger,
	}
}

// Current holds the fields of a current-conditions response that the
// assistant reports.
type Current struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Name string `json:"name"`
}

// Condition returns the primary condition description, or "unknown".
func (c *Current) Condition() string {
	if len(c.Weather) == 0 || c.Weather[0].Description == "" {
		return "unknown"
	}
	return c.Weather[0].Description
}

// forecastResponse is the raw 3-hour-interval forecast payload.
type forecastResponse struct {
	List []struct {
		DtTxt   string `json:"dt_txt"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
	} `json:"list"`
}

// Day is one day of forecast, aggregated from the 3-hour intervals.
type Day struct {
	Date      string
	High      float64
	Low       float64
	Condition string
}

// NotFoundError reports a location OpenWeatherMap does not know.
type NotFoundError struct {
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find weather for %q; try just the city name or city with "+
		"country code like \"Lisbon,PT\"", e.Location)
}

// GetCurrent fetches current conditions for a location. The location
// may be "city" or "city,countrycode"; when a qualified lookup returns
// 404 the bare city is retried, since users often supply a state code
// where the API wants a country.
func (c *Client) GetCurrent(ctx context.Context, location string) (*Current, error) {
	var out Current
	if err := c.getWithFallback(ctx, "/weather", location, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForecast fetches the forecast for a location and aggregates the
// 3-hour intervals into per-day high/low/condition summaries, capped
// at days entries (at most 5, the API's horizon).
func (c *Client) GetForecast(ctx context.Context, location string, days int) ([]Day, error) {
	if days <= 0 || days > 5 {
		days = 5
	}

	var raw forecastResponse
	if err := c.getWithFallback(ctx, "/forecast", location, &raw); err != nil {
		return nil, err
	}

	type agg struct {
		high, low  float64
		conditions map[string]int
	}
	byDay := make(map[string]*agg)
	for _, entry := range raw.List {
		date, _, _ := strings.Cut(entry.DtTxt, " ")
		if date == "" {
			continue
		}
		a, ok := byDay[date]
		if !ok {
			a = &agg{high: entry.Main.TempMax, low: entry.Main.TempMin, conditions: map[string]int{}}
			byDay[date] = a
		}
		if entry.Main.TempMax > a.high {
			a.high = entry.Main.TempMax
		}
		if entry.Main.TempMin < a.low {
			a.low = entry.Main.TempMin
		}
		if len(entry.Weather) > 0 {
			a.conditions[entry.Weather[0].Description]++
		}
	}

	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > days {
		dates = dates[:days]
	}

	out := make([]Day, 0, len(dates))
	for _, d := range dates {
		a := byDay[d]
		out = append(out, Day{Date: d, High: a.high, Low: a.low, Condition: dominantCondition(a.conditions)})
	}
	return out, nil
}

// dominantCondition picks the most frequent condition of the day,
// breaking ties alphabetically so output is stable.
func dominantCondition(counts map[string]int) string {
	best, bestN := "unknown", 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

// getWithFallback performs the query, retrying a "city,CC" lookup as
// bare "city" when the qualified form 404s.
func (c *Client) getWithFallback(ctx context.Context, path, location string, out any) error {
	query := strings.TrimSpace(location)
	status, err := c.get(ctx, path, query, out)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	if status == http.StatusNotFound {
		if city, _, found := strings.Cut(query, ","); found {
			c.logger.Debug("weather lookup 404, retrying without qualifier",
				"location", query, "city", city)
			status, err = c.get(ctx, path, strings.TrimSpace(city), out)
			if err != nil {
				return err
			}
			if status == http.StatusOK {
				return nil
			}
		}
		if status == http.StatusNotFound {
			return &NotFoundError{Location: location}
		}
	}

	return fmt.Errorf("weather API returned status %d", status)
}

// get performs one API call. Non-200 statuses are returned for the
// caller to interpret; only transport and decode failures are errors.
func (c *Client) get(ctx context.Context, path, query string, out any) (int, error) {
	u := fmt.Sprintf("%s%s?q=%s&appid=%s&units=metric",
		c.baseURL, path, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("weather request: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 1<<20)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read weather response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode weather response: %w", err)
	}
	return resp.StatusCode, nil
}

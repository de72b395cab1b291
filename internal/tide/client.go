package tide

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pmulloy/kitewind/internal/httputil"
	"github.com/pmulloy/kitewind/internal/models"
)

const DefaultBaseURL = "https://api.stormglass.io/v2/tide/extremes/point"

// windowHours is the 7-day fetch window. Extremes (not the full sea-level
// series) keep each request cheap against the provider's tight daily quota;
// the dense hourly curve is derived locally.
const windowHours = 7 * 24

// Client fetches tidal extreme events. A circuit breaker bounds quota burn
// when the provider is failing: while open, requests are rejected locally and
// the caller degrades to simulation.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tide-extremes",
		MaxRequests: 2,
		Interval:    5 * time.Minute,
		Timeout:     10 * time.Minute,
	})
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httputil.NewClient(),
		breaker: cb,
	}
}

type extremesResponse struct {
	Data []struct {
		Time   string  `json:"time"`
		Height float64 `json:"height"`
		Type   string  `json:"type"`
	} `json:"data"`
}

// FetchExtremes issues one GET for the window's tidal extremes and converts
// event times to hours since the window start.
func (c *Client) FetchExtremes(lat, lng float64, start, end time.Time) ([]models.TideExtreme, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%.4f", lat))
	values.Set("lng", fmt.Sprintf("%.4f", lng))
	values.Set("start", start.UTC().Format(time.RFC3339))
	values.Set("end", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch extremes: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("fetch extremes: status %d: %s", resp.StatusCode, string(b))
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	var data extremesResponse
	if err := json.Unmarshal(body.([]byte), &data); err != nil {
		return nil, fmt.Errorf("unmarshal extremes: %w", err)
	}

	extremes := make([]models.TideExtreme, 0, len(data.Data))
	for _, ev := range data.Data {
		ts, err := time.Parse(time.RFC3339, ev.Time)
		if err != nil {
			continue
		}
		typ := models.TideLow
		if strings.EqualFold(ev.Type, "high") {
			typ = models.TideHigh
		}
		extremes = append(extremes, models.TideExtreme{
			Hour:  ts.Sub(start).Hours(),
			Level: ev.Height,
			Type:  typ,
		})
	}
	sort.Slice(extremes, func(i, j int) bool { return extremes[i].Hour < extremes[j].Hour })
	return extremes, nil
}

package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pmulloy/kitewind/internal/httputil"
	"github.com/pmulloy/kitewind/internal/metrics"
	"github.com/pmulloy/kitewind/internal/models"
)

// KnotsPerKmh converts provider wind speeds (km/h) to knots.
const KnotsPerKmh = 0.539957

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1"
	forecastDays   = 7
)

const (
	dailyVariables  = "windspeed_10m_max,windgusts_10m_max,winddirection_10m_dominant,temperature_2m_max,precipitation_sum"
	hourlyVariables = "windspeed_10m,windgusts_10m,winddirection_10m,temperature_2m,precipitation"
)

// Client fetches and normalizes raw model forecasts. Every successful fetch
// is written into the cache; a fresh cache entry short-circuits the network
// entirely.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *Cache
}

func NewClient(baseURL string, cache *Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  httputil.NewClient(),
		cache:   cache,
	}
}

// dailyBlock and hourlyBlock are the provider's parallel-array payloads.
// The requested variable list pins the field names, so a missing array is a
// provider contract change, not a normal case; it is zero-filled but logged.
type dailyBlock struct {
	Time         []string  `json:"time"`
	WindSpeedMax []float64 `json:"windspeed_10m_max"`
	WindGustMax  []float64 `json:"windgusts_10m_max"`
	WindDirDom   []float64 `json:"winddirection_10m_dominant"`
	TempMax      []float64 `json:"temperature_2m_max"`
	PrecipSum    []float64 `json:"precipitation_sum"`
}

type hourlyBlock struct {
	Time      []string  `json:"time"`
	WindSpeed []float64 `json:"windspeed_10m"`
	WindGust  []float64 `json:"windgusts_10m"`
	WindDir   []float64 `json:"winddirection_10m"`
	Temp      []float64 `json:"temperature_2m"`
	Precip    []float64 `json:"precipitation"`
}

type forecastResponse struct {
	Daily  *dailyBlock  `json:"daily"`
	Hourly *hourlyBlock `json:"hourly"`
}

// FetchDaily returns 7 daily points for (lat, lng, model), from cache when
// fresh.
func (c *Client) FetchDaily(ctx context.Context, lat, lng float64, model string) ([]models.ForecastPoint, error) {
	key := Key{Lat: lat, Lng: lng, Model: model, Granularity: models.GranularityDaily}
	if points, ok := c.cache.Get(key); ok {
		return points, nil
	}

	body, err := c.fetch(ctx, lat, lng, model, models.GranularityDaily)
	if err != nil {
		return nil, err
	}

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ProviderError{Model: model, Msg: fmt.Sprintf("unmarshal: %v", err)}
	}
	if data.Daily == nil {
		return nil, &ProviderError{Model: model, Msg: "response missing daily block"}
	}

	d := data.Daily
	checkSchema(model, "daily", len(d.Time), map[string]int{
		"windspeed_10m_max":          len(d.WindSpeedMax),
		"windgusts_10m_max":          len(d.WindGustMax),
		"winddirection_10m_dominant": len(d.WindDirDom),
		"temperature_2m_max":         len(d.TempMax),
		"precipitation_sum":          len(d.PrecipSum),
	})

	points := make([]models.ForecastPoint, forecastDays)
	for i := 0; i < forecastDays; i++ {
		points[i] = models.ForecastPoint{
			Time:          parseDay(at(d.Time, i)),
			WindSpeed:     fat(d.WindSpeedMax, i) * KnotsPerKmh,
			GustSpeed:     fat(d.WindGustMax, i) * KnotsPerKmh,
			WindDirection: fat(d.WindDirDom, i),
			Temperature:   fat(d.TempMax, i),
			Precipitation: fat(d.PrecipSum, i),
		}
	}

	c.cache.Put(key, points)
	return points, nil
}

// FetchHourly returns exactly 24 points for the requested day, sliced from
// the provider's 7-day hourly response at dayOffset*24.
func (c *Client) FetchHourly(ctx context.Context, lat, lng float64, model string, dayOffset int) ([]models.ForecastPoint, error) {
	key := Key{Lat: lat, Lng: lng, Model: model, Granularity: models.GranularityHourly, DayOffset: dayOffset}
	if points, ok := c.cache.Get(key); ok {
		return points, nil
	}

	body, err := c.fetch(ctx, lat, lng, model, models.GranularityHourly)
	if err != nil {
		return nil, err
	}

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ProviderError{Model: model, Msg: fmt.Sprintf("unmarshal: %v", err)}
	}
	if data.Hourly == nil {
		return nil, &ProviderError{Model: model, Msg: "response missing hourly block"}
	}

	h := data.Hourly
	checkSchema(model, "hourly", len(h.Time), map[string]int{
		"windspeed_10m":     len(h.WindSpeed),
		"windgusts_10m":     len(h.WindGust),
		"winddirection_10m": len(h.WindDir),
		"temperature_2m":    len(h.Temp),
		"precipitation":     len(h.Precip),
	})

	start := dayOffset * 24
	points := make([]models.ForecastPoint, 24)
	for i := 0; i < 24; i++ {
		j := start + i
		points[i] = models.ForecastPoint{
			Time:          parseHour(at(h.Time, j)),
			WindSpeed:     fat(h.WindSpeed, j) * KnotsPerKmh,
			GustSpeed:     fat(h.WindGust, j) * KnotsPerKmh,
			WindDirection: fat(h.WindDir, j),
			Temperature:   fat(h.Temp, j),
			Precipitation: fat(h.Precip, j),
		}
	}

	c.cache.Put(key, points)
	return points, nil
}

// fetch performs the GET against the per-model endpoint, retrying transient
// statuses with exponential backoff. Non-retryable failures are returned as
// ProviderError immediately.
func (c *Client) fetch(ctx context.Context, lat, lng float64, model string, gran models.Granularity) ([]byte, error) {
	spec, ok := modelTable[model]
	if !ok {
		return nil, &ProviderError{Model: model, Msg: "unrecognized model"}
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lng))
	values.Set("timezone", "auto")
	values.Set("forecast_days", fmt.Sprintf("%d", forecastDays))
	if gran == models.GranularityDaily {
		values.Set("daily", dailyVariables)
	} else {
		values.Set("hourly", hourlyVariables)
	}
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, spec.path, values.Encode())

	var body []byte
	started := time.Now()
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(&ProviderError{Model: model, Msg: err.Error()})
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return backoff.Permanent(&ProviderError{Model: model, Msg: fmt.Sprintf("fetch: %v", err)})
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Retryable; becomes the returned error if retries run out.
			return &ProviderError{Model: model, Status: resp.StatusCode, Msg: "transient status"}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(&ProviderError{Model: model, Status: resp.StatusCode, Msg: string(b)})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(&ProviderError{Model: model, Msg: fmt.Sprintf("read body: %v", err)})
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second
	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	metrics.ModelFetchLatency.WithLabelValues(model).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ModelFetchesTotal.WithLabelValues(model, "error").Inc()
		var perr *ProviderError
		if !errors.As(err, &perr) {
			perr = &ProviderError{Model: model, Msg: err.Error()}
		}
		return nil, perr
	}
	metrics.ModelFetchesTotal.WithLabelValues(model, "ok").Inc()
	return body, nil
}

// checkSchema flags provider arrays that are missing or shorter than the time
// axis. Values are still zero-filled so a partially broken response degrades
// rather than failing, but the mismatch is visible in the logs.
func checkSchema(model, block string, timeLen int, lengths map[string]int) {
	for field, n := range lengths {
		if n < timeLen {
			log.Printf("model %s: %s.%s has %d values for %d timesteps", model, block, field, n, timeLen)
		}
	}
}

func at(xs []string, i int) string {
	if i < 0 || i >= len(xs) {
		return ""
	}
	return xs[i]
}

func fat(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}

func parseDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseHour(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

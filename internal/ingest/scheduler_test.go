package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pmulloy/kitewind/internal/forecast"
	"github.com/pmulloy/kitewind/internal/models"
	"github.com/pmulloy/kitewind/internal/tide"
)

func fakeDailyPayload() map[string]interface{} {
	week := func(v float64) []float64 {
		out := make([]float64, 7)
		for i := range out {
			out[i] = v
		}
		return out
	}
	return map[string]interface{}{
		"daily": map[string]interface{}{
			"time": []string{
				"2026-08-28", "2026-08-29", "2026-08-30", "2026-08-31",
				"2026-09-01", "2026-09-02", "2026-09-03",
			},
			"windspeed_10m_max":          week(18),
			"windgusts_10m_max":          week(25),
			"winddirection_10m_dominant": week(210),
			"temperature_2m_max":         week(17),
			"precipitation_sum":          week(1),
		},
	}
}

func TestRefreshOnce_WarmsForecastCache(t *testing.T) {
	var requests int64
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		json.NewEncoder(w).Encode(fakeDailyPayload())
	}))
	defer provider.Close()

	cache := forecast.NewCache(forecast.DefaultTTL)
	client := forecast.NewClient(provider.URL, cache)
	forecasts := forecast.NewService(cache, client, []string{forecast.ModelGFS, forecast.ModelICON})
	tides := tide.NewService(nil, nil)

	spots := []models.Spot{{Name: "Tarifa", Lat: 36.01, Lng: -5.60}}
	sched := NewScheduler(forecasts, tides, nil, spots)
	sched.RefreshOnce(context.Background())

	if got := atomic.LoadInt64(&requests); got != 2 {
		t.Fatalf("refresh issued %d requests, want 2 (one per model)", got)
	}

	// A consumer query right after a refresh answers from warm cache.
	if _, err := forecasts.FetchDaily(context.Background(), 36.01, -5.60, forecast.ModelBlend); err != nil {
		t.Fatalf("FetchDaily after refresh: %v", err)
	}
	if got := atomic.LoadInt64(&requests); got != 2 {
		t.Errorf("cached blend still issued requests: %d total, want 2", got)
	}
}

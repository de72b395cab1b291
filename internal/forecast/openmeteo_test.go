package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dailyPayload(winds []float64) map[string]interface{} {
	n := len(winds)
	times := make([]string, n)
	gusts := make([]float64, n)
	dirs := make([]float64, n)
	temps := make([]float64, n)
	precips := make([]float64, n)
	for i := range winds {
		times[i] = fmt.Sprintf("2026-08-%02d", 28+i%3)
		gusts[i] = winds[i] + 5
		dirs[i] = 180
		temps[i] = 21
	}
	return map[string]interface{}{
		"daily": map[string]interface{}{
			"time":                       times,
			"windspeed_10m_max":          winds,
			"windgusts_10m_max":          gusts,
			"winddirection_10m_dominant": dirs,
			"temperature_2m_max":         temps,
			"precipitation_sum":          precips,
		},
	}
}

func hourlyPayload(hours int) map[string]interface{} {
	times := make([]string, hours)
	winds := make([]float64, hours)
	gusts := make([]float64, hours)
	dirs := make([]float64, hours)
	temps := make([]float64, hours)
	precips := make([]float64, hours)
	for i := 0; i < hours; i++ {
		times[i] = fmt.Sprintf("2026-08-28T%02d:00", i%24)
		winds[i] = float64(i) // index-valued, to verify slicing
		dirs[i] = 90
	}
	return map[string]interface{}{
		"hourly": map[string]interface{}{
			"time":              times,
			"windspeed_10m":     winds,
			"windgusts_10m":     gusts,
			"winddirection_10m": dirs,
			"temperature_2m":    temps,
			"precipitation":     precips,
		},
	}
}

func serveJSON(t *testing.T, requests *int64, payload interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt64(requests, 1)
		}
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestFetchDaily_NormalizesAndConverts(t *testing.T) {
	winds := []float64{10, 12, 14, 16, 18, 20, 22}
	srv := serveJSON(t, nil, dailyPayload(winds))
	defer srv.Close()

	client := NewClient(srv.URL, NewCache(DefaultTTL))
	points, err := client.FetchDaily(context.Background(), -36.79, 146.97, ModelGFS)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}

	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	want := 10 * KnotsPerKmh
	if math.Abs(points[0].WindSpeed-want) > 1e-9 {
		t.Errorf("wind speed = %v knots, want %v (10 km/h converted)", points[0].WindSpeed, want)
	}
	if points[0].Temperature != 21 {
		t.Errorf("temperature = %v, want 21 (no conversion)", points[0].Temperature)
	}
}

func TestFetchDaily_CacheIdempotence(t *testing.T) {
	var requests int64
	srv := serveJSON(t, &requests, dailyPayload([]float64{10, 10, 10, 10, 10, 10, 10}))
	defer srv.Close()

	client := NewClient(srv.URL, NewCache(DefaultTTL))
	first, err := client.FetchDaily(context.Background(), 36.01, -5.6, ModelICON)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := client.FetchDaily(context.Background(), 36.01, -5.6, ModelICON)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if got := atomic.LoadInt64(&requests); got != 1 {
		t.Errorf("issued %d requests within TTL, want exactly 1", got)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}
}

func TestFetchHourly_SlicesRequestedDay(t *testing.T) {
	srv := serveJSON(t, nil, hourlyPayload(7*24))
	defer srv.Close()

	client := NewClient(srv.URL, NewCache(DefaultTTL))
	points, err := client.FetchHourly(context.Background(), 0, 0, ModelECMWF, 2)
	if err != nil {
		t.Fatalf("FetchHourly: %v", err)
	}

	if len(points) != 24 {
		t.Fatalf("got %d points, want exactly 24", len(points))
	}
	// Hour values are index-valued in the fixture; day 2 starts at index 48.
	want := 48 * KnotsPerKmh
	if math.Abs(points[0].WindSpeed-want) > 1e-9 {
		t.Errorf("first point wind = %v, want %v (index 48)", points[0].WindSpeed, want)
	}
}

func TestFetchHourly_ShortResponseZeroFills(t *testing.T) {
	srv := serveJSON(t, nil, hourlyPayload(24))
	defer srv.Close()

	client := NewClient(srv.URL, NewCache(DefaultTTL))
	points, err := client.FetchHourly(context.Background(), 0, 0, ModelGFS, 6)
	if err != nil {
		t.Fatalf("FetchHourly: %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("got %d points, want 24", len(points))
	}
	if points[0].WindSpeed != 0 {
		t.Errorf("out-of-range slice wind = %v, want 0", points[0].WindSpeed)
	}
}

func TestFetchDaily_ProviderErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewCache(DefaultTTL))
	_, err := client.FetchDaily(context.Background(), 0, 0, ModelGEM)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if perr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", perr.Status)
	}
}

func TestFetchDaily_UnrecognizedModel(t *testing.T) {
	client := NewClient("http://example.invalid", NewCache(DefaultTTL))
	_, err := client.FetchDaily(context.Background(), 0, 0, "wrf")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError for unknown model", err)
	}
}

func TestBlender_PartialFailureStillBlends(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gfs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dailyPayload([]float64{10, 10, 10, 10, 10, 10, 10}))
	})
	mux.HandleFunc("/dwd-icon", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	blender := NewBlender(NewClient(srv.URL, NewCache(DefaultTTL)), []string{ModelGFS, ModelICON})
	points, err := blender.Daily(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}

	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	// Only one model survived, so the edge-case confidence applies.
	if points[0].Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 for single surviving model", points[0].Confidence)
	}
}

func TestBlender_AllModelsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadRequest)
	}))
	defer srv.Close()

	blender := NewBlender(NewClient(srv.URL, NewCache(DefaultTTL)), []string{ModelGFS, ModelICON})
	_, err := blender.Daily(context.Background(), 0, 0)

	var allFailed *AllModelsFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("error = %v, want AllModelsFailedError", err)
	}
	if len(allFailed.Errs) != 2 {
		t.Errorf("collected %d errors, want 2", len(allFailed.Errs))
	}
}

func TestBlender_BlendsAcrossModels(t *testing.T) {
	mux := http.NewServeMux()
	for path, wind := range map[string]float64{"/gfs": 10, "/dwd-icon": 20} {
		w := wind
		mux.HandleFunc(path, func(rw http.ResponseWriter, r *http.Request) {
			json.NewEncoder(rw).Encode(dailyPayload([]float64{w, w, w, w, w, w, w}))
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	blender := NewBlender(NewClient(srv.URL, NewCache(DefaultTTL)), []string{ModelGFS, ModelICON})
	points, err := blender.Daily(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}

	// Weighted mean of 10 km/h (gfs, w=1.0) and 20 km/h (icon, w=1.15),
	// both converted to knots, rounded to one decimal.
	wantKmh := (10*1.0 + 20*1.15) / (1.0 + 1.15)
	want := math.Round(wantKmh*KnotsPerKmh*10) / 10
	if points[0].WindSpeed != want {
		t.Errorf("blended wind = %v, want %v", points[0].WindSpeed, want)
	}
	if points[0].Spread == 0 {
		t.Error("spread = 0, want nonzero for disagreeing models")
	}
}

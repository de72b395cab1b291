package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/pmulloy/kitewind/internal/forecast"
	"github.com/pmulloy/kitewind/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/forecast/daily?lat=&lng=&model=
func (s *Server) handleDailyForecast(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}
	model := r.URL.Query().Get("model")
	if model == "" {
		model = forecast.ModelBlend
	}

	points, err := s.forecasts.FetchDaily(r.Context(), lat, lng, model)
	if err != nil {
		writeForecastError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// GET /api/forecast/hourly?lat=&lng=&model=&day=
func (s *Server) handleHourlyForecast(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}
	model := r.URL.Query().Get("model")
	if model == "" {
		model = forecast.ModelBlend
	}
	day, err := dayOffset(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := s.forecasts.FetchHourly(r.Context(), lat, lng, model, day)
	if err != nil {
		writeForecastError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// GET /api/tide?lat=&lng= resolves the cache/seed/fetch chain and reports
// whether real data backs subsequent curve queries.
func (s *Server) handleTide(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}
	hasReal := s.tides.FetchTideData(lat, lng)
	writeJSON(w, http.StatusOK, map[string]bool{"realData": hasReal})
}

type tideCurveResponse struct {
	Levels []float64         `json:"levels"`
	Peaks  []models.TidePeak `json:"peaks"`
}

// GET /api/tide/curve?lat=&lng=&day= answers purely from cache or simulation.
func (s *Server) handleTideCurve(w http.ResponseWriter, r *http.Request) {
	lat, _, ok := coords(w, r)
	if !ok {
		return
	}
	day, err := dayOffset(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	levels := make([]float64, 24)
	for h := 0; h < 24; h++ {
		levels[h] = s.tides.TideAt(day, float64(h), lat)
	}
	writeJSON(w, http.StatusOK, tideCurveResponse{
		Levels: levels,
		Peaks:  s.tides.TidePeaks(day, lat),
	})
}

// POST /api/cache/clear
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.forecasts.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func coords(w http.ResponseWriter, r *http.Request) (lat, lng float64, ok bool) {
	var err error
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid lat")
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid lng")
		return 0, 0, false
	}
	return lat, lng, true
}

func dayOffset(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return 0, nil
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 0 || day > 6 {
		return 0, fmt.Errorf("day must be 0-6")
	}
	return day, nil
}

func writeForecastError(w http.ResponseWriter, err error) {
	var allFailed *forecast.AllModelsFailedError
	var provider *forecast.ProviderError
	switch {
	case errors.As(err, &allFailed), errors.As(err, &provider):
		httpError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("api: forecast: %v", err)
		httpError(w, http.StatusInternalServerError, "internal error")
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

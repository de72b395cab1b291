// Package ingest keeps the engine's caches warm for the configured home
// spots so consumer-facing queries answer without waiting on providers.
package ingest

import (
	"context"
	"log"
	"time"

	"github.com/pmulloy/kitewind/internal/forecast"
	"github.com/pmulloy/kitewind/internal/models"
	"github.com/pmulloy/kitewind/internal/store"
	"github.com/pmulloy/kitewind/internal/tide"
)

const defaultInterval = 15 * time.Minute

type Scheduler struct {
	forecasts *forecast.Service
	tides     *tide.Service
	store     *store.Store
	spots     []models.Spot
	interval  time.Duration
}

func NewScheduler(forecasts *forecast.Service, tides *tide.Service, st *store.Store, spots []models.Spot) *Scheduler {
	return &Scheduler{
		forecasts: forecasts,
		tides:     tides,
		store:     st,
		spots:     spots,
		interval:  defaultInterval,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled. The
// interval matches the forecast cache TTL, so a warm spot never misses.
func (s *Scheduler) Run(ctx context.Context) {
	s.RefreshOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce re-blends the forecast and re-resolves tide data for every
// configured spot, then sweeps stale durable tide rows. Failures are logged
// and skipped; the next tick retries naturally.
func (s *Scheduler) RefreshOnce(ctx context.Context) {
	for _, spot := range s.spots {
		if _, err := s.forecasts.FetchDaily(ctx, spot.Lat, spot.Lng, forecast.ModelBlend); err != nil {
			log.Printf("refresh: forecast %s: %v", spot.Name, err)
		}
		if !s.tides.FetchTideData(spot.Lat, spot.Lng) {
			log.Printf("refresh: tide %s: no real data, simulation in use", spot.Name)
		}
	}

	if s.store != nil {
		today := models.DateKey(time.Now())
		if n, err := s.store.DeleteStaleTideRecords(today); err != nil {
			log.Printf("refresh: sweep stale tide records: %v", err)
		} else if n > 0 {
			log.Printf("refresh: swept %d stale tide records", n)
		}
	}
}

package tide

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pmulloy/kitewind/internal/metrics"
	"github.com/pmulloy/kitewind/internal/models"
)

// DurableCache persists tide records across restarts. Implemented by the
// sqlite store.
type DurableCache interface {
	GetTideRecord(gridKey, date string) (*models.TideRecord, error)
	PutTideRecord(gridKey string, rec *models.TideRecord) error
}

// Service owns the tide state for one engine instance: an in-memory cache of
// today's records per grid cell, an optional durable cache, the seed dataset,
// and the provider client. All of it is injected, never ambient.
type Service struct {
	client  *Client      // nil when no provider key is configured
	durable DurableCache // may be nil
	now     func() time.Time

	mu     sync.Mutex
	memory map[string]*models.TideRecord

	// flight guarantees at most one outbound fetch per grid cell at a
	// time; concurrent callers attach to the same pending result.
	flight singleflight.Group
}

func NewService(client *Client, durable DurableCache) *Service {
	return &Service{
		client:  client,
		durable: durable,
		now:     time.Now,
		memory:  make(map[string]*models.TideRecord),
	}
}

// resolver attempts to produce today's record for a grid cell without
// touching the network. Resolvers run in chain() order; the first hit wins.
type resolver struct {
	name string
	fn   func(gridKey, date string, lat, lng float64) (*models.TideRecord, bool)
}

func (s *Service) chain() []resolver {
	return []resolver{
		{name: "memory", fn: s.resolveMemory},
		{name: "durable", fn: s.resolveDurable},
		{name: "seed", fn: s.resolveSeed},
	}
}

func (s *Service) resolveMemory(gridKey, date string, lat, lng float64) (*models.TideRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.memory[gridKey]
	if !ok {
		return nil, false
	}
	if rec.Date != date {
		// Date rollover: yesterday's record is a miss.
		delete(s.memory, gridKey)
		return nil, false
	}
	return rec, true
}

func (s *Service) resolveDurable(gridKey, date string, lat, lng float64) (*models.TideRecord, bool) {
	if s.durable == nil {
		return nil, false
	}
	rec, err := s.durable.GetTideRecord(gridKey, date)
	if err != nil {
		log.Printf("tide: durable cache read %s: %v", gridKey, err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	return rec, true
}

func (s *Service) resolveSeed(gridKey, date string, lat, lng float64) (*models.TideRecord, bool) {
	return seedRecord(lat, lng, date)
}

// FetchTideData resolves real tide data for a location, fetching from the
// provider only when every cache level misses. The boolean is "real data is
// now cached": false means the caller should lean on the simulator. Fetch
// failures are logged, not returned; display falls through to simulation.
func (s *Service) FetchTideData(lat, lng float64) bool {
	gridKey := models.GridKey(lat, lng)
	date := models.DateKey(s.now())

	for _, r := range s.chain() {
		if rec, ok := r.fn(gridKey, date, lat, lng); ok {
			metrics.TideResolutionsTotal.WithLabelValues(r.name).Inc()
			s.remember(gridKey, rec)
			return true
		}
	}

	if s.client == nil {
		metrics.TideResolutionsTotal.WithLabelValues("simulated").Inc()
		return false
	}

	v, err, _ := s.flight.Do(gridKey, func() (interface{}, error) {
		return s.fetchRemote(lat, lng, date)
	})
	if err != nil {
		// Not cached: the next independent call may retry.
		log.Printf("tide: fetch %s: %v", gridKey, err)
		metrics.TideFetchesTotal.WithLabelValues("error").Inc()
		return false
	}

	s.remember(gridKey, v.(*models.TideRecord))
	metrics.TideFetchesTotal.WithLabelValues("ok").Inc()
	metrics.TideResolutionsTotal.WithLabelValues("network").Inc()
	return true
}

func (s *Service) fetchRemote(lat, lng float64, date string) (*models.TideRecord, error) {
	start := startOfDay(s.now())
	end := start.Add(windowHours * time.Hour)

	extremes, err := s.client.FetchExtremes(lat, lng, start, end)
	if err != nil {
		return nil, err
	}

	levels := InterpolateHourly(extremes, windowHours)
	if len(levels) == 0 {
		return nil, fmt.Errorf("too few extremes (%d)", len(extremes))
	}

	rec := &models.TideRecord{
		Date:      date,
		Lat:       lat,
		Lng:       lng,
		SeaLevels: levels,
		Extremes:  extremes,
	}
	if s.durable != nil {
		if err := s.durable.PutTideRecord(models.GridKey(lat, lng), rec); err != nil {
			log.Printf("tide: durable cache write: %v", err)
		}
	}
	return rec, nil
}

func (s *Service) remember(gridKey string, rec *models.TideRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[gridKey] = rec
}

// TideAt returns the sea level in meters for (dayOffset, hour) at this
// latitude: the nearest cached hourly sample within 1.5 hours when a record
// exists for the latitude band, the simulator otherwise. Never touches the
// network, so chart code may call it per render.
func (s *Service) TideAt(dayOffset int, hour float64, lat float64) float64 {
	if rec := s.recordForLat(lat); rec != nil {
		abs := float64(dayOffset)*24 + hour
		if level, ok := nearestLevel(rec.SeaLevels, abs); ok {
			return level
		}
	}
	return Simulate(dayOffset, hour, lat)
}

// TidePeaks returns the day's high/low events: cached extremes when present,
// simulated peaks otherwise.
func (s *Service) TidePeaks(dayOffset int, lat float64) []models.TidePeak {
	if rec := s.recordForLat(lat); rec != nil {
		lo := float64(dayOffset) * 24
		var peaks []models.TidePeak
		for _, ex := range rec.Extremes {
			if ex.Hour < lo || ex.Hour >= lo+24 {
				continue
			}
			h := ex.Hour - lo
			peaks = append(peaks, models.TidePeak{
				Hour:  h,
				Time:  clockTime(h),
				Level: ex.Level,
				Type:  ex.Type,
			})
		}
		if len(peaks) > 0 {
			return peaks
		}
	}
	return SimulatePeaks(dayOffset, lat)
}

func (s *Service) recordForLat(lat float64) *models.TideRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := models.DateKey(s.now())
	for _, rec := range s.memory {
		if rec.Date == date && math.Abs(rec.Lat-lat) <= models.GridCellDegrees {
			return rec
		}
	}
	return nil
}

func nearestLevel(levels []models.HourlyLevel, abs float64) (float64, bool) {
	const maxDistance = 1.5
	best, bestDist := 0.0, math.MaxFloat64
	for _, l := range levels {
		if d := math.Abs(float64(l.Hour) - abs); d < bestDist {
			bestDist = d
			best = l.Level
		}
	}
	if bestDist <= maxDistance {
		return best, true
	}
	return 0, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package forecast

import (
	"sync"
	"time"

	"github.com/pmulloy/kitewind/internal/metrics"
	"github.com/pmulloy/kitewind/internal/models"
)

// DefaultTTL is how long a cached per-model forecast stays valid.
const DefaultTTL = 15 * time.Minute

// Key identifies one cached forecast sequence.
type Key struct {
	Lat         float64
	Lng         float64
	Model       string
	Granularity models.Granularity
	DayOffset   int
}

type entry struct {
	storedAt time.Time
	points   []models.ForecastPoint
}

// Cache holds normalized per-model forecasts with a TTL. Expiry is lazy:
// an expired entry is treated as absent on read but left in place until the
// next successful fetch overwrites it. Blended forecasts are never stored
// here; they are recomputed from the cached per-model data.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]entry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]entry),
		now:     time.Now,
	}
}

// Get returns the cached points for key if they are still within TTL.
func (c *Cache) Get(key Key) ([]models.ForecastPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		metrics.ForecastCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ForecastCacheLookups.WithLabelValues("hit").Inc()
	return e.points, true
}

// Put stores points under key, overwriting any previous entry.
func (c *Cache) Put(key Key, points []models.ForecastPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{storedAt: c.now(), points: points}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]entry)
}

package routes

import (
	"fmt"
	"sync"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
)

// Cache is a small in-memory route cache keyed by rounded coordinate
// pairs. It is injectable rather than a package singleton so tests
// can spy on it. There is no capacity bound: entries are tiny and
// session-scoped, and staleness is purely time-based.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	route Route
	ts    time.Time
}

// DefaultTTL is the freshness window for cached routes.
const DefaultTTL = 5 * time.Minute

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

// Coordinates are rounded to 4 decimal places (~11m) so jittery GPS
// fixes still hit the same entry.
func cacheKey(a, b models.LatLng) string {
	return fmt.Sprintf("%.4f,%.4f-%.4f,%.4f", a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func (c *Cache) Get(a, b models.LatLng) (Route, bool) {
	k := cacheKey(a, b)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return Route{}, false
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return Route{}, false
	}
	return e.route, true
}

func (c *Cache) Set(a, b models.LatLng, r Route) {
	k := cacheKey(a, b)
	c.mu.Lock()
	c.store[k] = cacheEntry{route: r, ts: c.now()}
	c.mu.Unlock()
}

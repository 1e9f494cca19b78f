package insights

import (
	"math"
	"sync"
	"time"

	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/sirupsen/logrus"
)

// CacheEntry is the single remembered generation result.
type CacheEntry struct {
	Fingerprint string     `json:"fingerprint"`
	Insights    Insights   `json:"insights"`
	RawMetrics  RawMetrics `json:"rawMetrics"`
	GeneratedAt time.Time  `json:"generatedAt"`
	CachedAt    time.Time  `json:"cachedAt"`
}

// Cache holds at most one entry. An entry is usable while its fingerprint matches and its age
// does not exceed the freshness window.
type Cache struct {
	mu    sync.RWMutex
	entry *CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type CacheOption func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry when it is still valid for fingerprint.
func (c *Cache) Get(fingerprint string) (CacheEntry, bool) {
	return c.lookup(fingerprint, true)
}

func (c *Cache) Valid(fingerprint string) bool {
	_, ok := c.lookup(fingerprint, false)
	return ok
}

func (c *Cache) lookup(fingerprint string, verbose bool) (CacheEntry, bool) {
	c.mu.RLock()
	entry := c.entry
	c.mu.RUnlock()
	if entry == nil {
		return CacheEntry{}, false
	}

	logger := config.GetLogger()
	age := c.now().Sub(entry.CachedAt)
	ageMinutes := math.Round(age.Minutes())
	if age > c.ttl {
		if verbose {
			logger.WithFields(logrus.Fields{"field": "insightsCache", "age_min": ageMinutes}).Info("cache expired")
		}
		return CacheEntry{}, false
	}
	if entry.Fingerprint != fingerprint {
		if verbose {
			logger.WithFields(logrus.Fields{"field": "insightsCache"}).Info("data changed, cache invalidated")
		}
		return CacheEntry{}, false
	}
	if verbose {
		logger.WithFields(logrus.Fields{"field": "insightsCache", "age_min": ageMinutes}).Info("cache hit")
	}
	return *entry, true
}

// Put replaces the entry unconditionally. A zero CachedAt is stamped with the cache clock.
func (c *Cache) Put(entry CacheEntry) {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}
	c.mu.Lock()
	c.entry = &entry
	c.mu.Unlock()
	config.GetLogger().WithFields(logrus.Fields{
		"field":       "insightsCache",
		"fingerprint": entry.Fingerprint,
	}).Info("cache updated with new insights")
}

// Snapshot returns the current entry regardless of validity.
func (c *Cache) Snapshot() (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return CacheEntry{}, false
	}
	return *c.entry, true
}

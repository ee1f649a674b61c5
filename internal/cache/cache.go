// Package cache holds the process-wide, time-boxed memoization of
// completed searches, plus prefix-based reuse for incremental typing.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

// DefaultTTL is how long a completed search stays reusable.
const DefaultTTL = 5 * time.Minute

type entry struct {
	results  []domain.SearchResult
	storedAt time.Time
}

// Cache memoizes completed searches keyed by lowercased query text.
// Entries with zero results are never stored, so an empty miss always
// re-executes instead of being pinned for the TTL.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
}

// New creates a cache with the given TTL (0 means DefaultTTL).
// cacheTotal is a counter vec with label "result" ("hit"/"miss"); nil disables it.
func New(ttl time.Duration, cacheTotal *prometheus.CounterVec) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		now:        time.Now,
		cacheTotal: cacheTotal,
	}
}

// WithClock overrides the time source, for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the cached results for a query. Expired and empty entries
// are misses; expired entries are evicted on the way out.
func (c *Cache) Get(query string) ([]domain.SearchResult, bool) {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.inc("miss")
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.inc("miss")
		return nil, false
	}

	c.inc("hit")
	out := make([]domain.SearchResult, len(e.results))
	copy(out, e.results)
	return out, true
}

// Put stores a completed search. Empty result sets are dropped.
func (c *Cache) Put(query string, results []domain.SearchResult) {
	if len(results) == 0 {
		return
	}
	stored := make([]domain.SearchResult, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(query)] = entry{results: stored, storedAt: c.now()}
}

// PrefixHint scans for any live cached query that is a prefix of the given
// query and returns its result count. Used only as an instant suggestion of
// likely match volume while the authoritative fetch is in flight.
func (c *Cache) PrefixHint(query string) (int, bool) {
	key := Key(query)
	if key == "" {
		return 0, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	best := -1
	count := 0
	for k, e := range c.entries {
		if c.now().Sub(e.storedAt) > c.ttl {
			continue
		}
		// Prefer the longest cached prefix.
		if strings.HasPrefix(key, k) && len(k) > best {
			best = len(k)
			count = len(e.results)
		}
	}
	if best < 0 {
		return 0, false
	}
	return count, true
}

// Key normalizes a query into its cache key.
func Key(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

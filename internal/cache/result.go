// Package cache memoizes station list pages by query signature.
package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bikeshare-backend/internal/model"
)

// Stats counts cache traffic since creation.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
	Entries       int   `json:"entries"`
}

// ResultCache maps query signatures to computed pages. Entries expire a
// fixed TTL after insertion; reads do not extend their lifetime.
type ResultCache struct {
	items   *gocache.Cache
	ttl     time.Duration
	enabled bool

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

// New creates a cache whose entries live for ttl. Expired entries are
// purged every cleanupInterval. A non-positive ttl disables caching.
func New(ttl, cleanupInterval time.Duration) *ResultCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 2 * ttl
	}
	return &ResultCache{
		items:   gocache.New(ttl, cleanupInterval),
		ttl:     ttl,
		enabled: ttl > 0,
	}
}

// Get returns a copy of the page cached under signature.
func (c *ResultCache) Get(signature string) ([]model.Station, bool) {
	if !c.enabled {
		c.misses.Add(1)
		return nil, false
	}
	v, found := c.items.Get(signature)
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return clonePage(v.([]model.Station)), true
}

// Set stores a copy of page under signature.
func (c *ResultCache) Set(signature string, page []model.Station) {
	if !c.enabled {
		return
	}
	c.items.Set(signature, clonePage(page), c.ttl)
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.invalidations.Add(1)
	c.items.Flush()
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *ResultCache) Len() int {
	return c.items.ItemCount()
}

// Stats returns a snapshot of the counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.items.ItemCount(),
	}
}

func clonePage(page []model.Station) []model.Station {
	out := make([]model.Station, len(page))
	copy(out, page)
	return out
}

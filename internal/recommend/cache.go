// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/metrics"
)

// cacheEntry holds one cached response with its bookkeeping.
type cacheEntry struct {
	response     Response
	cachedAt     time.Time
	expiresAt    time.Time
	hitCount     int64
	lastAccessed time.Time
}

// expired reports whether the entry is past its lifetime at now.
func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// MaxEntries bounds the number of cached responses. When the
	// cache is full, the oldest 10% of entries by last access are
	// evicted to make room.
	MaxEntries int

	// DefaultTTL applies to sections without an explicit lifetime.
	DefaultTTL time.Duration
}

// Cache stores recommendation responses keyed by canonical request
// key. Entries expire per section lifetime and are also reclaimed
// lazily on read and in bulk by PerformMaintenance.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int
	defaultTTL time.Duration
	logger     zerolog.Logger

	now func() time.Time
}

// NewCache creates a Cache. Zero or negative options fall back to
// 1000 entries and a 30 minute lifetime.
func NewCache(opts CacheOptions, logger zerolog.Logger) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1000
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 30 * time.Minute
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: opts.MaxEntries,
		defaultTTL: opts.DefaultTTL,
		logger:     logger.With().Str("component", "reccache").Logger(),
		now:        time.Now,
	}
}

// Get returns the cached response for the request, if present and not
// expired. Expired entries are removed on access. A returned response
// is marked as a cache hit and reports zero processing time.
func (c *Cache) Get(req Request) (Response, bool) {
	key := cacheKey(req.normalized())
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.CacheMisses.Inc()
		return Response{}, false
	}
	if entry.expired(now) {
		delete(c.entries, key)
		metrics.CacheMisses.Inc()
		metrics.CacheEvictions.WithLabelValues("expired").Inc()
		metrics.CacheEntries.Set(float64(len(c.entries)))
		return Response{}, false
	}

	entry.hitCount++
	entry.lastAccessed = now
	metrics.CacheHits.Inc()

	resp := copyResponse(entry.response)
	resp.Metadata.CacheHit = true
	resp.Metadata.ProcessingTime = 0
	return resp, true
}

// Set caches a response for the request under the section lifetime
// and returns the entry's expiry. Responses with no tracks are not
// cached so transient generation failures do not pin empty results;
// for those the zero time is returned.
func (c *Cache) Set(req Request, resp Response) time.Time {
	if len(resp.Tracks) == 0 {
		return time.Time{}
	}
	req = req.normalized()
	key := cacheKey(req)
	now := c.now()
	ttl := req.Section.TTL(c.defaultTTL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	expiry := now.Add(ttl)
	stored := copyResponse(resp)
	stored.ValidUntil = expiry
	c.entries[key] = &cacheEntry{
		response:     stored,
		cachedAt:     now,
		expiresAt:    expiry,
		lastAccessed: now,
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return expiry
}

// InvalidateUser removes every cached response for the user across
// all sections. It returns the number of entries removed.
func (c *Cache) InvalidateUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if keyMatchesUser(key, userID) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("invalidated").Add(float64(removed))
		metrics.CacheEntries.Set(float64(len(c.entries)))
		c.logger.Debug().Str("user_id", userID).Int("removed", removed).
			Msg("Invalidated user cache entries")
	}
	return removed
}

// InvalidateUserSection removes the user's cached responses for one
// section, leaving the user's other sections and every other user's
// entries for the same section intact. It returns the number of
// entries removed.
func (c *Cache) InvalidateUserSection(userID string, section SectionType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if keyMatchesUserSection(key, userID, section) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("invalidated").Add(float64(removed))
		metrics.CacheEntries.Set(float64(len(c.entries)))
		c.logger.Debug().Str("user_id", userID).Str("section", string(section)).
			Int("removed", removed).Msg("Invalidated user section cache entries")
	}
	return removed
}

// InvalidateSection removes every user's cached responses for the
// section, for operational use such as a global section refresh. It
// returns the number of entries removed.
func (c *Cache) InvalidateSection(section SectionType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if keyMatchesSection(key, section) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("invalidated").Add(float64(removed))
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	return removed
}

// PerformMaintenance sweeps expired entries and, when the cache is
// above 90% of capacity afterwards, evicts the least recently used
// entries back down. Safe to call from a periodic job while reads and
// writes continue.
func (c *Cache) PerformMaintenance() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	expired := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			expired++
		}
	}
	if expired > 0 {
		metrics.CacheEvictions.WithLabelValues("expired").Add(float64(expired))
	}

	if len(c.entries) > c.maxEntries*9/10 {
		c.evictOldestLocked()
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))

	c.logger.Debug().Int("expired", expired).Int("entries", len(c.entries)).
		Msg("Cache maintenance completed")
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldestLocked removes the oldest 10% of entries by last access
// time, at least one. Caller holds the write lock.
func (c *Cache) evictOldestLocked() {
	if len(c.entries) == 0 {
		return
	}

	type aged struct {
		key          string
		lastAccessed time.Time
	}
	byAge := make([]aged, 0, len(c.entries))
	for key, entry := range c.entries {
		byAge = append(byAge, aged{key: key, lastAccessed: entry.lastAccessed})
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].lastAccessed.Before(byAge[j].lastAccessed)
	})

	count := len(byAge) / 10
	if count < 1 {
		count = 1
	}
	for _, victim := range byAge[:count] {
		delete(c.entries, victim.key)
	}
	metrics.CacheEvictions.WithLabelValues("capacity").Add(float64(count))
}

// copyResponse deep copies a response so callers cannot mutate cached
// state through the returned slice.
func copyResponse(resp Response) Response {
	out := resp
	out.Tracks = make([]Track, len(resp.Tracks))
	copy(out.Tracks, resp.Tracks)
	return out
}

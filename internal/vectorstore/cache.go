package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/rediscache"
)

// DefaultQueryCacheTTL is 30 minutes; vector search results change only
// when the underlying index is re-ingested, so a longer TTL than the
// embedding cache's is safe.
const DefaultQueryCacheTTL = 30 * time.Minute

// QueryCache caches Query results by (vector, top_k, filter). Thread-safe
// via sync.RWMutex. Entries auto-expire after TTL.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*queryCacheEntry
	ttl     time.Duration
	stopCh  chan struct{}
	l2      *rediscache.Tier
}

type queryCacheEntry struct {
	results   []model.ScoredChunk
	createdAt time.Time
	expiresAt time.Time
}

// NewQueryCache creates a QueryCache with the given TTL and starts
// background cleanup. l2 is an optional Redis second tier; nil disables it.
func NewQueryCache(ttl time.Duration, l2 *rediscache.Tier) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	c := &QueryCache{
		entries: make(map[string]*queryCacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
		l2:      l2,
	}
	go c.cleanup()
	return c
}

// Get returns cached results for (vec, topK, filter) if present and not expired.
func (c *QueryCache) Get(ctx context.Context, vec []float32, topK int, filter Filter) ([]model.ScoredChunk, bool) {
	key := queryCacheKey(vec, topK, filter)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		if time.Now().After(entry.expiresAt) {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		} else {
			slog.Debug("vectorstore query cache hit", "key", key, "age_ms", time.Since(entry.createdAt).Milliseconds())
			return entry.results, true
		}
	}

	if b, ok := c.l2.Get(ctx, key); ok {
		var results []model.ScoredChunk
		if err := json.Unmarshal(b, &results); err == nil {
			c.setLocal(key, results)
			return results, true
		}
	}
	return nil, false
}

// Set stores results for (vec, topK, filter) in the cache.
func (c *QueryCache) Set(ctx context.Context, vec []float32, topK int, filter Filter, results []model.ScoredChunk) {
	key := queryCacheKey(vec, topK, filter)
	c.setLocal(key, results)
	if b, err := json.Marshal(results); err == nil {
		c.l2.Set(ctx, key, b)
	}
}

func (c *QueryCache) setLocal(key string, results []model.ScoredChunk) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = &queryCacheEntry{
		results:   results,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()
}

// InvalidateAll clears the cache. Call this after a re-ingest changes the
// index, since stale vector-store results could serve deleted chunks.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*queryCacheEntry)
	c.mu.Unlock()
}

// Len returns the number of entries in the cache.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop halts the background cleanup goroutine.
func (c *QueryCache) Stop() {
	close(c.stopCh)
}

func (c *QueryCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			before := len(c.entries)
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			after := len(c.entries)
			c.mu.Unlock()
			if before != after {
				slog.Debug("vectorstore query cache cleanup", "removed", before-after, "remaining", after)
			}
		case <-c.stopCh:
			return
		}
	}
}

func queryCacheKey(vec []float32, topK int, filter Filter) string {
	h := sha256.New()
	for _, f := range vec {
		fmt.Fprintf(h, "%x", f)
	}
	fmt.Fprintf(h, ":%d:%s:%s:%s:%s:%v", topK, filter.DocType, filter.Anatomy, filter.Product, filter.Treatment, filter.DocIDs)
	return fmt.Sprintf("qc:%x", h.Sum(nil)[:16])
}

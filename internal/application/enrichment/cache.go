package enrichment

import (
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	domain "github.com/codelens-ai/codelens/internal/domain/enrichment"
)

// resultCache memoizes enrichment results keyed by content identity, so
// identical findings across runs and re-submissions hit the cache. Entries
// are invalidated lazily: Get checks age against the TTL at read time.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]cacheEntry
}

type cacheEntry struct {
	result   domain.Result
	storedAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{ttl: ttl, entries: make(map[uint64]cacheEntry)}
}

// cacheKey hashes (file content, file path, line, rule id); cache identity
// follows content, not the batch.
func cacheKey(content, file string, line int, rule string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(content)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(file)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(line))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(rule)
	return h.Sum64()
}

func (c *resultCache) Get(key uint64, now time.Time) (domain.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return domain.Result{}, false
	}
	if now.Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return domain.Result{}, false
	}
	return e.result, true
}

func (c *resultCache) Put(key uint64, r domain.Result, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: r, storedAt: now}
}

// Sweep drops expired entries eagerly. Not required for correctness, only
// bounds memory.
func (c *resultCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

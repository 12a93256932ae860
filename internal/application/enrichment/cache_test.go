package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/codelens-ai/codelens/internal/domain/enrichment"
)

func TestCacheKeyIdentity(t *testing.T) {
	k1 := cacheKey("content", "a.py", 10, "rule")
	k2 := cacheKey("content", "a.py", 10, "rule")
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, cacheKey("changed", "a.py", 10, "rule"))
	assert.NotEqual(t, k1, cacheKey("content", "b.py", 10, "rule"))
	assert.NotEqual(t, k1, cacheKey("content", "a.py", 11, "rule"))
	assert.NotEqual(t, k1, cacheKey("content", "a.py", 10, "other"))
}

func TestCacheGetPut(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(time.Hour)
	key := cacheKey("x", "a.py", 1, "r")

	_, ok := c.Get(key, now)
	assert.False(t, ok)

	c.Put(key, domain.Result{ID: "r1", Summary: "s"}, now)
	got, ok := c.Get(key, now.Add(59*time.Minute))
	require.True(t, ok)
	assert.Equal(t, "s", got.Summary)
}

func TestCacheLazyExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(time.Hour)
	key := cacheKey("x", "a.py", 1, "r")
	c.Put(key, domain.Result{ID: "r1"}, now)

	_, ok := c.Get(key, now.Add(time.Hour))
	assert.False(t, ok, "entry at exactly TTL is stale")
	assert.Equal(t, 0, c.Len(), "stale entry removed on read")
}

func TestCacheSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(time.Hour)
	c.Put(cacheKey("x", "a.py", 1, "r"), domain.Result{}, now)
	c.Put(cacheKey("y", "b.py", 2, "r"), domain.Result{}, now.Add(30*time.Minute))

	removed := c.Sweep(now.Add(70 * time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())
}

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSearchCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "batman")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "batman", v)

	now = now.Add(2 * time.Minute)

	v, expired, ok := c.GetWithExpiry("a")
	assert.True(t, ok)
	assert.True(t, expired)
	assert.Equal(t, "batman", v, "stale value is still served")

	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "strict Get drops the expired item")
}

func TestSearchCacheEviction(t *testing.T) {
	c := NewSearchCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Delete("a")
	assert.Equal(t, 1, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestGlobalCache(t *testing.T) {
	Cache = nil
	CacheSet("k", 1, time.Minute)
	_, ok := CacheGet("k")
	assert.False(t, ok)

	InitCache()
	CacheSet("k", 1, time.Minute)
	v, ok := CacheGet("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

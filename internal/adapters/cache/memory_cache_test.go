package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

func newTestCache(ttl time.Duration) *MemoryCache {
	c := NewMemoryCache(ttl, time.Hour, zap.NewNop())
	c.Close()
	return c
}

func verdict(score int) *core.AIAnalysis {
	return &core.AIAnalysis{
		Score:      score,
		Label:      core.LabelPhishing,
		Success:    true,
		TokensUsed: 300,
		Model:      "test-model",
	}
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := newTestCache(time.Hour)

	c.Set("key-1", verdict(80))

	got, ok := c.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, 80, got.Score)
	assert.Equal(t, core.LabelPhishing, got.Label)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := newTestCache(time.Hour)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestCache(time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("key-1", verdict(80))

	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, ok := c.Get("key-1")
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, ok = c.Get("key-1")
	assert.False(t, ok)
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	c := newTestCache(time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("stale", verdict(80))
	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	c.Set("fresh", verdict(40))

	c.evictExpired()

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestMemoryCache_CopiesOnReadAndWrite(t *testing.T) {
	c := newTestCache(time.Hour)

	original := verdict(80)
	c.Set("key-1", original)
	original.Score = 1

	got, ok := c.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, 80, got.Score)

	got.Score = 2
	again, ok := c.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, 80, again.Score)
}

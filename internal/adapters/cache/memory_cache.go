// Package cache provides the in-memory verdict cache that keeps repeated
// content from triggering repeated external AI calls.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

type entry struct {
	analysis  core.AIAnalysis
	expiresAt time.Time
}

// MemoryCache is an in-memory TTL implementation of core.VerdictCache
type MemoryCache struct {
	entries map[string]entry
	mu      sync.RWMutex
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	now     func() time.Time
}

// NewMemoryCache creates a verdict cache with the given entry TTL. A
// background task evicts expired entries at cleanupFreq intervals.
func NewMemoryCache(ttl, cleanupFreq time.Duration, logger *zap.Logger) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go c.cleanupLoop(cleanupFreq)

	return c
}

// Get retrieves a cached verdict by content key
func (c *MemoryCache) Get(key string) (*core.AIAnalysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}

	analysis := e.analysis
	return &analysis, true
}

// Set stores a verdict under a content key
func (c *MemoryCache) Set(key string, analysis *core.AIAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		analysis:  *analysis,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background cleanup task
func (c *MemoryCache) Close() error {
	close(c.stopCh)
	return nil
}

func (c *MemoryCache) cleanupLoop(freq time.Duration) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now()
	removed := 0
	for key, e := range c.entries {
		if cutoff.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("Evicted expired verdict cache entries", zap.Int("count", removed))
	}
}

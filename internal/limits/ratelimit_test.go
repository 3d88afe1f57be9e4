package limits

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(time.Hour, 3)

	assert.True(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-a"))

	assert.Equal(t, 3, limiter.Count("client-a"))
}

func TestRateLimiter_ClientsIndependent(t *testing.T) {
	limiter := NewRateLimiter(time.Hour, 1)

	assert.True(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-b"))
	assert.False(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-b"))

	assert.Equal(t, 2, limiter.ActiveClients())
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiterWithClock(time.Hour, 2, func() time.Time { return current })

	assert.True(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-a"))

	current = current.Add(61 * time.Minute)

	assert.True(t, limiter.Allow("client-a"))
	assert.Equal(t, 1, limiter.Count("client-a"))
}

func TestRateLimiter_ConcurrentNeverExceedsMax(t *testing.T) {
	limiter := NewRateLimiter(time.Hour, 10)

	const workers = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("shared-client") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
}

func TestRateLimiter_ExpiredClientRemoved(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiterWithClock(time.Minute, 5, func() time.Time { return current })

	assert.True(t, limiter.Allow("client-a"))
	current = current.Add(2 * time.Minute)

	assert.Equal(t, 0, limiter.Count("client-a"))
	assert.Equal(t, 0, limiter.ActiveClients())
}

package limits

import (
	"sync"
	"time"
)

// RateLimiter caps AI-invoking requests per client within a rolling
// window. Check-then-append is atomic across concurrent requests.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	clients map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per client
// within the rolling window
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return NewRateLimiterWithClock(window, max, time.Now)
}

// NewRateLimiterWithClock creates a limiter with an injectable clock for tests
func NewRateLimiterWithClock(window time.Duration, max int, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		clients: make(map[string][]time.Time),
		now:     now,
	}
}

// Allow records a request for the client if it is within the limit.
// Returns false once the client has used its window allowance.
func (l *RateLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.pruneLocked(clientID, now)

	if len(recent) >= l.max {
		l.clients[clientID] = recent
		return false
	}
	l.clients[clientID] = append(recent, now)
	return true
}

// ActiveClients returns the number of clients with requests in the window
func (l *RateLimiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Count returns the number of requests the client has made within the
// current window
func (l *RateLimiter) Count(clientID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.pruneLocked(clientID, l.now())
	if len(recent) > 0 {
		l.clients[clientID] = recent
	}
	return len(recent)
}

// pruneLocked drops timestamps older than the window. Caller must hold
// the lock.
func (l *RateLimiter) pruneLocked(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	stamps := l.clients[clientID]

	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.clients, clientID)
		return nil
	}
	return kept
}

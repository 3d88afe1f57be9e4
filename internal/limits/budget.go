// Package limits holds the shared mutable budget and rate state consumed
// by every analysis request. Both types are safe for concurrent use and
// are injected rather than shared through package globals so tests can
// instantiate isolated instances.
package limits

import (
	"sync"
	"time"
)

// CostBudget caps daily spend on external AI calls. Callers reserve an
// estimated cost before invoking the analyzer, then either commit the
// actual cost or release the reservation. The check-then-charge sequence
// is atomic: concurrent requests cannot race past the daily limit.
type CostBudget struct {
	mu         sync.Mutex
	dailyLimit float64
	spent      float64
	reserved   float64
	day        string
	now        func() time.Time
}

// NewCostBudget creates a budget with the given daily limit in dollars
func NewCostBudget(dailyLimit float64) *CostBudget {
	return NewCostBudgetWithClock(dailyLimit, time.Now)
}

// NewCostBudgetWithClock creates a budget with an injectable clock for tests
func NewCostBudgetWithClock(dailyLimit float64, now func() time.Time) *CostBudget {
	return &CostBudget{
		dailyLimit: dailyLimit,
		day:        now().UTC().Format("2006-01-02"),
		now:        now,
	}
}

// Reserve atomically checks the budget and holds the estimated cost.
// Returns false when the reservation would push spend past the daily
// limit; in that case nothing is held.
func (b *CostBudget) Reserve(estimate float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolloverLocked()

	if b.spent+b.reserved+estimate > b.dailyLimit {
		return false
	}
	b.reserved += estimate
	return true
}

// Commit replaces a reservation with the actual charged cost. Called only
// for calls that returned usable token-usage data. The charged total is
// clamped at the daily limit.
func (b *CostBudget) Commit(estimate, actual float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolloverLocked()

	b.reserved -= estimate
	if b.reserved < 0 {
		b.reserved = 0
	}
	b.spent += actual
	if b.spent > b.dailyLimit {
		b.spent = b.dailyLimit
	}
}

// Release drops a reservation without charging, used for aborted or
// failed calls
func (b *CostBudget) Release(estimate float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolloverLocked()

	b.reserved -= estimate
	if b.reserved < 0 {
		b.reserved = 0
	}
}

// Spent returns the cost charged so far today
func (b *CostBudget) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolloverLocked()
	return b.spent
}

// Remaining returns the unreserved budget left today
func (b *CostBudget) Remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolloverLocked()

	remaining := b.dailyLimit - b.spent - b.reserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limit returns the configured daily limit
func (b *CostBudget) Limit() float64 {
	return b.dailyLimit
}

// rolloverLocked resets counters when the UTC calendar day has changed.
// Caller must hold the lock.
func (b *CostBudget) rolloverLocked() {
	today := b.now().UTC().Format("2006-01-02")
	if today != b.day {
		b.day = today
		b.spent = 0
		b.reserved = 0
	}
}

package limits

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCostBudget_ReserveCommit(t *testing.T) {
	budget := NewCostBudget(1.0)

	assert.True(t, budget.Reserve(0.4))
	assert.InDelta(t, 0.6, budget.Remaining(), 1e-9)

	budget.Commit(0.4, 0.3)
	assert.InDelta(t, 0.3, budget.Spent(), 1e-9)
	assert.InDelta(t, 0.7, budget.Remaining(), 1e-9)
}

func TestCostBudget_ReserveRelease(t *testing.T) {
	budget := NewCostBudget(1.0)

	assert.True(t, budget.Reserve(0.4))
	budget.Release(0.4)

	assert.InDelta(t, 0.0, budget.Spent(), 1e-9)
	assert.InDelta(t, 1.0, budget.Remaining(), 1e-9)
}

func TestCostBudget_ReserveRejectsOverLimit(t *testing.T) {
	budget := NewCostBudget(1.0)

	assert.True(t, budget.Reserve(0.6))
	assert.False(t, budget.Reserve(0.6), "second reservation would exceed the limit")

	// The failed reservation held nothing
	assert.InDelta(t, 0.4, budget.Remaining(), 1e-9)
}

func TestCostBudget_ConcurrentReservationsNeverExceedLimit(t *testing.T) {
	budget := NewCostBudget(1.0)

	const workers = 100
	const estimate = 0.05 // only 20 can fit

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if budget.Reserve(estimate) {
				budget.Commit(estimate, estimate)
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, granted)
	assert.InDelta(t, 1.0, budget.Spent(), 1e-9)
	assert.InDelta(t, 0.0, budget.Remaining(), 1e-9)
}

func TestCostBudget_CommitClampsAtLimit(t *testing.T) {
	budget := NewCostBudget(1.0)

	assert.True(t, budget.Reserve(0.9))
	// Actual cost came in above the estimate
	budget.Commit(0.9, 1.5)

	assert.InDelta(t, 1.0, budget.Spent(), 1e-9)
	assert.False(t, budget.Reserve(0.01))
}

func TestCostBudget_DailyRollover(t *testing.T) {
	current := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	budget := NewCostBudgetWithClock(1.0, func() time.Time { return current })

	assert.True(t, budget.Reserve(1.0))
	budget.Commit(1.0, 1.0)
	assert.False(t, budget.Reserve(0.1))

	// Cross the UTC midnight boundary
	current = current.Add(20 * time.Minute)

	assert.True(t, budget.Reserve(0.1))
	assert.InDelta(t, 0.0, budget.Spent(), 1e-9)
}

func TestCostBudget_RolloverUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// Local midnight has passed but the UTC day has not changed
	current := time.Date(2026, 3, 1, 23, 0, 0, 0, loc) // 13:00 UTC
	budget := NewCostBudgetWithClock(1.0, func() time.Time { return current })

	assert.True(t, budget.Reserve(1.0))
	budget.Commit(1.0, 1.0)

	current = current.Add(2 * time.Hour) // local day rolls, UTC day does not
	assert.False(t, budget.Reserve(0.1))
}

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

func testRecord(id string) *core.AnalysisRecord {
	return &core.AnalysisRecord{
		ID:           id,
		SenderDomain: "sender.example",
		RuleScore:    35,
		RuleLabel:    core.LabelSuspicious,
		AIScore:      75,
		AILabel:      core.LabelPhishing,
		AISuccess:    true,
		CostEstimate: 0.0011,
		AnalyzedAt:   time.Now().UTC(),
	}
}

func TestMemoryStore_AppendAndGet(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testRecord("rec-1")))

	got, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "sender.example", got.SenderDomain)
	assert.Equal(t, 35, got.RuleScore)
	assert.Equal(t, core.LabelPhishing, got.AILabel)
}

func TestMemoryStore_AppendOnce(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testRecord("rec-1")))

	second := testRecord("rec-1")
	second.RuleScore = 99
	assert.ErrorIs(t, s.Append(ctx, second), ErrDuplicate)

	// The original record is untouched
	got, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 35, got.RuleScore)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CopiesOnWriteAndRead(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	record := testRecord("rec-1")
	require.NoError(t, s.Append(ctx, record))

	// Mutating the caller's record after Append must not affect the store
	record.RuleScore = 99
	got, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 35, got.RuleScore)

	// Mutating a returned record must not affect later reads
	got.RuleScore = 7
	again, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 35, again.RuleScore)
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			_ = s.Append(ctx, testRecord(id))
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

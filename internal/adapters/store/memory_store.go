package store

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an analysis record is not found
	ErrNotFound = errors.New("analysis record not found")
	// ErrDuplicate is returned when a record with the same ID already exists
	ErrDuplicate = errors.New("analysis record already exists")
)

// MemoryStore is an in-memory implementation of the ResultStore interface
type MemoryStore struct {
	records map[string]*core.AnalysisRecord
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory result store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*core.AnalysisRecord),
		logger:  logger,
	}
}

// Append stores an analysis record. Records are append-once: a second
// record with the same ID is rejected.
func (s *MemoryStore) Append(ctx context.Context, record *core.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return ErrDuplicate
	}

	stored := *record
	s.records[record.ID] = &stored
	return nil
}

// Get retrieves an analysis record by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := *record
	return &result, nil
}

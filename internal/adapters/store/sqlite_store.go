package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ResultStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite result store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			sender_domain TEXT,
			rule_score INTEGER,
			rule_label TEXT,
			ai_score INTEGER,
			ai_label TEXT,
			ai_success BOOLEAN,
			ai_skip_reason TEXT,
			cost_estimate REAL,
			analyzed_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyses_sender ON analyses(sender_domain)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Append stores an analysis record. The primary key makes records
// append-once: a second record with the same ID is rejected.
func (s *SQLiteStore) Append(ctx context.Context, record *core.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, sender_domain, rule_score, rule_label, ai_score, ai_label, ai_success, ai_skip_reason, cost_estimate, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.SenderDomain, record.RuleScore, string(record.RuleLabel),
		record.AIScore, string(record.AILabel), record.AISuccess, record.AISkipReason,
		record.CostEstimate, record.AnalyzedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// Get retrieves an analysis record by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	var record core.AnalysisRecord
	var ruleLabel, aiLabel, analyzedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender_domain, rule_score, rule_label, ai_score, ai_label, ai_success, ai_skip_reason, cost_estimate, analyzed_at
		FROM analyses
		WHERE id = ?
	`, id).Scan(&record.ID, &record.SenderDomain, &record.RuleScore, &ruleLabel,
		&record.AIScore, &aiLabel, &record.AISuccess, &record.AISkipReason,
		&record.CostEstimate, &analyzedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query analysis record: %w", err)
	}

	record.RuleLabel = core.Label(ruleLabel)
	record.AILabel = core.Label(aiLabel)
	ts, err := time.Parse(time.RFC3339, analyzedAt)
	if err != nil {
		s.logger.Error("Failed to parse analyzed_at timestamp", zap.Error(err))
	} else {
		record.AnalyzedAt = ts
	}

	return &record, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

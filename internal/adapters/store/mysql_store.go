package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ResultStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL result store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id VARCHAR(36) PRIMARY KEY,
			sender_domain VARCHAR(255),
			rule_score INT,
			rule_label VARCHAR(16),
			ai_score INT,
			ai_label VARCHAR(16),
			ai_success BOOLEAN,
			ai_skip_reason VARCHAR(32),
			cost_estimate DOUBLE,
			analyzed_at TIMESTAMP,
			INDEX idx_analyses_sender (sender_domain)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Append stores an analysis record. The primary key makes records
// append-once: a second record with the same ID is rejected.
func (s *MySQLStore) Append(ctx context.Context, record *core.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, sender_domain, rule_score, rule_label, ai_score, ai_label, ai_success, ai_skip_reason, cost_estimate, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.SenderDomain, record.RuleScore, string(record.RuleLabel),
		record.AIScore, string(record.AILabel), record.AISuccess, record.AISkipReason,
		record.CostEstimate, record.AnalyzedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// Get retrieves an analysis record by ID
func (s *MySQLStore) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	var record core.AnalysisRecord
	var ruleLabel, aiLabel string
	var analyzedAt time.Time

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
	record.AnalyzedAt = analyzedAt

	return &record, nil
}

// Close closes the underlying database
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

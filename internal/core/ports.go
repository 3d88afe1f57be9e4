package core

import (
	"context"
)

// AIAnalyzer defines the interface for delegated AI phishing analysis.
// Implementations always return a result: failures are reported through
// AIAnalysis.Success and AIAnalysis.ErrorReason, never as an error.
type AIAnalyzer interface {
	// Analyze sends sanitized email features to the external analyzer
	Analyze(ctx context.Context, input *SanitizedInput) *AIAnalysis
}

// RuleAnalyzer defines the interface for the deterministic rule engine
type RuleAnalyzer interface {
	// Analyze evaluates every rule against the parsed email
	Analyze(email *ParsedEmail) RuleAnalysis
}

// Sanitizer defines the privacy boundary that prepares email data for
// external analysis
type Sanitizer interface {
	// Sanitize strips all personally identifying content
	Sanitize(email *ParsedEmail) *SanitizedInput
}

// VerdictCache stores recent successful AI analyses so identical
// content does not trigger repeated external calls
type VerdictCache interface {
	// Get retrieves a cached verdict by content key
	Get(key string) (*AIAnalysis, bool)

	// Set stores a verdict under a content key
	Set(key string, analysis *AIAnalysis)
}

// ResultStore defines the interface for persisting analysis records
type ResultStore interface {
	// Append stores a completed analysis record, keyed by its ID
	Append(ctx context.Context, record *AnalysisRecord) error

	// Get retrieves a stored record by ID
	Get(ctx context.Context, id string) (*AnalysisRecord, error)
}

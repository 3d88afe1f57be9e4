package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/parser"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for phishing analysis
type CliFilter struct {
	service    *core.AnalysisService
	parser     *parser.Parser
	logger     *zap.Logger
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.AnalysisService, emailParser *parser.Parser, logger *zap.Logger, verbose, jsonOutput bool) (*CliFilter, error) {
	return &CliFilter{
		service:    service,
		parser:     emailParser,
		logger:     logger,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}, nil
}

// ProcessEmail analyzes a raw email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, clientID string, raw []byte) (*core.AnalysisResponse, error) {
	email, err := f.parser.Parse(raw)
	if err != nil {
		f.logger.Error("Failed to parse email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}

	if f.jsonOutput {
		response, err := f.service.Analyze(ctx, clientID, email)
		if err != nil {
			f.logger.Error("Failed to analyze email", zap.Error(err))
			return nil, err
		}
		return response, printJSON(response)
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Headers.FromAddr)
	fmt.Printf("To: %s\n", email.Headers.ToAddr)
	fmt.Printf("Subject: %s\n", email.Headers.Subject)
	fmt.Printf("Size: %d bytes, URLs: %d\n", email.RawSize, len(email.URLs))
	for _, warning := range email.ParseWarnings {
		fmt.Printf("Warning: %s\n", warning)
	}

	if f.verbose {
		preview := email.TextBody
		if preview == "" {
			preview = email.HTMLAsText
		}
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	response, err := f.service.Analyze(ctx, clientID, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	rule := response.RuleAnalysis
	fmt.Printf("\n=== Rule Results ===\n")
	fmt.Printf("Score: %d (label: %s)\n", rule.Score, rule.Label)
	fmt.Printf("Rules fired: %d of %d\n", rule.RulesFired, rule.RulesChecked)
	for _, ev := range rule.Evidence {
		fmt.Printf("- [%s] %s (weight %d)\n", ev.ID, ev.Description, ev.Weight)
	}

	fmt.Printf("\n=== AI Results ===\n")
	switch {
	case response.AISkipReason != "":
		fmt.Printf("Skipped: %s\n", response.AISkipReason)
	case response.AIAnalysis != nil && response.AIAnalysis.Success:
		ai := response.AIAnalysis
		fmt.Printf("Score: %d (label: %s)\n", ai.Score, ai.Label)
		fmt.Printf("Model: %s, tokens: %d, cost: $%.6f\n", ai.Model, ai.TokensUsed, ai.CostEstimate)
		for _, ev := range ai.Evidence {
			fmt.Printf("- [%s] %s (weight %d)\n", ev.ID, ev.Description, ev.Weight)
		}
	case response.AIAnalysis != nil:
		fmt.Printf("Failed: %s\n", response.AIAnalysis.ErrorReason)
	}

	fmt.Printf("\nProcessing time: %v\n", duration)

	return response, nil
}

// jsonResult is the machine-readable CLI output shape
type jsonResult struct {
	ID           string          `json:"id"`
	RuleScore    int             `json:"rule_score"`
	RuleLabel    core.Label      `json:"rule_label"`
	RuleEvidence []core.Evidence `json:"rule_evidence"`
	AISkipReason string          `json:"ai_skip_reason,omitempty"`
	AIScore      *int            `json:"ai_score,omitempty"`
	AILabel      core.Label      `json:"ai_label,omitempty"`
	AIEvidence   []core.Evidence `json:"ai_evidence,omitempty"`
	AIError      string          `json:"ai_error,omitempty"`
	Model        string          `json:"model,omitempty"`
	TokensUsed   int             `json:"tokens_used,omitempty"`
	CostEstimate float64         `json:"cost_estimate,omitempty"`
	AnalyzedAt   time.Time       `json:"analyzed_at"`
}

// printJSON writes the analysis response as a single JSON object
func printJSON(response *core.AnalysisResponse) error {
	result := jsonResult{
		ID:           response.ID,
		RuleScore:    response.RuleAnalysis.Score,
		RuleLabel:    response.RuleAnalysis.Label,
		RuleEvidence: response.RuleAnalysis.Evidence,
		AISkipReason: response.AISkipReason,
		AnalyzedAt:   response.AnalyzedAt,
	}
	if ai := response.AIAnalysis; ai != nil {
		if ai.Success {
			score := ai.Score
			result.AIScore = &score
			result.AILabel = ai.Label
			result.AIEvidence = ai.Evidence
		} else {
			result.AIError = ai.ErrorReason
		}
		result.Model = ai.Model
		result.TokensUsed = ai.TokensUsed
		result.CostEstimate = ai.CostEstimate
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

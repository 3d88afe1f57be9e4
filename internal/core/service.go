package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/limits"
	"github.com/mikey/phishing-detector/internal/metrics"
	"github.com/mikey/phishing-detector/internal/whitelist"
)

// ErrNilEmail is returned when the upstream parser produced no email
var ErrNilEmail = errors.New("no parsed email to analyze")

// RoutingConfig controls when the AI analyzer is invoked
type RoutingConfig struct {
	// SkipBelow skips the AI call when the rule score is at or below
	// this value; the deterministic verdict is already confident
	SkipBelow int

	// SkipAbove skips the AI call when the rule score is at or above
	// this value
	SkipAbove int

	// EstimatedCostPerCall is reserved against the daily budget before
	// each AI invocation
	EstimatedCostPerCall float64
}

// AnalysisService orchestrates the scoring pipeline: rule analysis,
// routing, sanitization, delegated AI analysis, and persistence
type AnalysisService struct {
	engine    RuleAnalyzer
	sanitizer Sanitizer
	ai        AIAnalyzer
	budget    *limits.CostBudget
	limiter   *limits.RateLimiter
	store     ResultStore
	cache     VerdictCache
	trusted   *whitelist.Checker
	routing   RoutingConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAnalysisService creates the orchestrating service. Budget and rate
// limiter are the process-wide shared instances; store, cache, trusted
// checker, and metrics may be nil.
func NewAnalysisService(
	engine RuleAnalyzer,
	sanitizer Sanitizer,
	ai AIAnalyzer,
	budget *limits.CostBudget,
	limiter *limits.RateLimiter,
	store ResultStore,
	cache VerdictCache,
	trusted *whitelist.Checker,
	routing RoutingConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		engine:    engine,
		sanitizer: sanitizer,
		ai:        ai,
		budget:    budget,
		limiter:   limiter,
		store:     store,
		cache:     cache,
		trusted:   trusted,
		routing:   routing,
		metrics:   m,
		logger:    logger,
	}
}

// Analyze runs the full pipeline for one email. The rule analysis always
// succeeds; the AI analysis may be skipped (with a reason) or fail (with
// Success=false), neither of which is an error. The only error case is a
// missing email from the upstream parser.
func (s *AnalysisService) Analyze(ctx context.Context, clientID string, email *ParsedEmail) (*AnalysisResponse, error) {
	if email == nil {
		return nil, ErrNilEmail
	}

	ruleAnalysis := s.engine.Analyze(email)

	response := &AnalysisResponse{
		ID:           uuid.NewString(),
		RuleAnalysis: ruleAnalysis,
		AnalyzedAt:   time.Now(),
	}

	if skip := s.routeDecision(clientID, &ruleAnalysis, email); skip != "" {
		response.AISkipReason = skip
		s.logger.Info("AI analysis skipped",
			zap.String("id", response.ID),
			zap.String("reason", skip),
			zap.Int("rule_score", ruleAnalysis.Score))
		if s.metrics != nil {
			s.metrics.ObserveAISkip(skip)
		}
	} else {
		response.AIAnalysis = s.invokeAI(ctx, email)
	}

	s.observe(response)
	s.persist(ctx, response, email)

	return response, nil
}

// routeDecision returns a skip reason, or empty when the AI should run.
// Budget reservation happens here: when the decision is to invoke, the
// estimated cost is already held.
func (s *AnalysisService) routeDecision(clientID string, rule *RuleAnalysis, email *ParsedEmail) string {
	if s.trusted != nil && s.trusted.IsTrusted(email.Headers.FromAddr) {
		return SkipTrustedDomain
	}
	if rule.Score <= s.routing.SkipBelow || rule.Score >= s.routing.SkipAbove {
		return SkipScoreExtreme
	}
	if !s.limiter.Allow(clientID) {
		return SkipRateLimited
	}
	if !s.budget.Reserve(s.routing.EstimatedCostPerCall) {
		return SkipBudgetExceeded
	}
	return ""
}

// invokeAI sanitizes the email, runs the delegated analysis, and settles
// the budget reservation. Cost is charged only for calls that returned
// usable token-usage data. A cached verdict for identical content skips
// the external call entirely.
func (s *AnalysisService) invokeAI(ctx context.Context, email *ParsedEmail) *AIAnalysis {
	estimate := s.routing.EstimatedCostPerCall

	sanitized := s.sanitizer.Sanitize(email)
	key := verdictKey(sanitized)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.budget.Release(estimate)
			s.logger.Debug("AI verdict served from cache",
				zap.String("key", key),
				zap.Int("score", cached.Score))
			if s.metrics != nil {
				s.metrics.ObserveAICall("cache_hit", 0, 0)
			}
			// A hit consumes no tokens and incurs no cost
			hit := *cached
			hit.TokensUsed = 0
			hit.CostEstimate = 0
			return &hit
		}
	}

	analysis := s.ai.Analyze(ctx, sanitized)

	if analysis.Success && analysis.TokensUsed > 0 {
		s.budget.Commit(estimate, analysis.CostEstimate)
	} else {
		s.budget.Release(estimate)
	}

	if s.cache != nil && analysis.Success {
		s.cache.Set(key, analysis)
	}

	if s.metrics != nil {
		outcome := "success"
		if !analysis.Success {
			outcome = "failure"
		}
		s.metrics.ObserveAICall(outcome, analysis.Duration.Seconds(), analysis.TokensUsed)
		s.metrics.SetDailyCost(s.budget.Spent())
	}

	return analysis
}

// observe updates pipeline metrics for a completed response
func (s *AnalysisService) observe(response *AnalysisResponse) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveAnalysis(string(response.RuleAnalysis.Label),
		response.RuleAnalysis.Duration.Seconds())
	for _, ev := range response.RuleAnalysis.Evidence {
		s.metrics.ObserveRuleFired(ev.ID)
	}
}

// persist appends the analysis record. Store failures are logged, never
// surfaced: the caller still receives the analysis.
func (s *AnalysisService) persist(ctx context.Context, response *AnalysisResponse, email *ParsedEmail) {
	if s.store == nil {
		return
	}

	record := &AnalysisRecord{
		ID:           response.ID,
		SenderDomain: senderDomain(email.Headers.FromAddr),
		RuleScore:    response.RuleAnalysis.Score,
		RuleLabel:    response.RuleAnalysis.Label,
		AISkipReason: response.AISkipReason,
		AnalyzedAt:   response.AnalyzedAt,
	}
	if ai := response.AIAnalysis; ai != nil {
		record.AIScore = ai.Score
		record.AILabel = ai.Label
		record.AISuccess = ai.Success
		record.CostEstimate = ai.CostEstimate
	}

	if err := s.store.Append(ctx, record); err != nil {
		s.logger.Error("Failed to persist analysis record",
			zap.String("id", record.ID),
			zap.Error(err))
	}
}

// verdictKey hashes the sanitized input so identical content maps to the
// same cached verdict. The key is derived after sanitization, so it never
// embeds PII.
func verdictKey(input *SanitizedInput) string {
	h := sha256.New()
	io.WriteString(h, input.SenderDomain)
	io.WriteString(h, "\x00")
	io.WriteString(h, input.Subject)
	io.WriteString(h, "\x00")
	io.WriteString(h, input.Body)
	io.WriteString(h, "\x00")
	io.WriteString(h, input.AuthSummary)
	for _, u := range input.URLs {
		io.WriteString(h, "\x00")
		io.WriteString(h, u.Domain)
		io.WriteString(h, u.Path)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func senderDomain(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == '@' {
			return strings.ToLower(addr[i+1:])
		}
	}
	return ""
}

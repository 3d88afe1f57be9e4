package rules

import (
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

// Engine runs the fixed ordered rule set against parsed emails.
// Analysis is pure: no I/O, no input mutation, deterministic output.
type Engine struct {
	rules      []Rule
	thresholds Thresholds
	maxScore   int
	logger     *zap.Logger
}

// NewEngine creates a rule engine with the given weight table and
// label thresholds
func NewEngine(weights Weights, thresholds Thresholds, logger *zap.Logger) *Engine {
	ruleSet := []Rule{
		NewHeaderMismatchRule(weights.HeaderMismatch),
		NewReplyToMismatchRule(weights.ReplyToMismatch),
		NewAuthFailureRule(weights.AuthFailure),
		NewUrgentLanguageRule(weights.UrgentLanguage),
		NewURLShortenerRule(weights.URLShortener),
		NewSuspiciousTLDRule(weights.SuspiciousTLD),
		NewUnicodeSpoofRule(weights.UnicodeSpoof),
		NewGenericGreetingRule(weights.GenericGreeting),
		NewAttachmentKeywordsRule(weights.AttachmentKeywords),
	}

	maxScore := 0
	for _, r := range ruleSet {
		maxScore += r.Weight()
	}

	logger.Info("Rule engine initialized",
		zap.Int("rules", len(ruleSet)),
		zap.Int("max_score", maxScore))

	return &Engine{
		rules:      ruleSet,
		thresholds: thresholds,
		maxScore:   maxScore,
		logger:     logger,
	}
}

// MaxScore returns the maximum possible rule score
func (e *Engine) MaxScore() int {
	return e.maxScore
}

// Rules returns id, description, and weight for every loaded rule,
// in evaluation order
func (e *Engine) Rules() []core.Evidence {
	info := make([]core.Evidence, 0, len(e.rules))
	for _, r := range e.rules {
		info = append(info, core.Evidence{
			ID:          r.ID(),
			Description: r.Description(),
			Weight:      r.Weight(),
		})
	}
	return info
}

// Analyze evaluates every rule exactly once against the email. A rule
// that fails on malformed input counts as not triggered; it never aborts
// the analysis. Evidence is collected in rule declaration order.
func (e *Engine) Analyze(email *core.ParsedEmail) core.RuleAnalysis {
	start := time.Now()

	results := make([]core.RuleResult, 0, len(e.rules))
	evidence := make([]core.Evidence, 0, len(e.rules))
	score := 0

	for _, rule := range e.rules {
		detail, triggered := e.checkRule(rule, email)
		results = append(results, core.RuleResult{
			RuleID:    rule.ID(),
			Triggered: triggered,
			Weight:    rule.Weight(),
			Evidence:  detail,
		})
		if triggered {
			score += rule.Weight()
			evidence = append(evidence, core.Evidence{
				ID:          rule.ID(),
				Description: detail,
				Weight:      rule.Weight(),
			})
		}
	}

	if score > e.maxScore {
		score = e.maxScore
	}

	duration := time.Since(start)
	label := e.thresholds.Label(score)

	e.logger.Debug("Rule analysis complete",
		zap.Int("score", score),
		zap.String("label", string(label)),
		zap.Int("rules_fired", len(evidence)),
		zap.Duration("duration", duration))

	return core.RuleAnalysis{
		Score:        score,
		Label:        label,
		Evidence:     evidence,
		Results:      results,
		RulesChecked: len(e.rules),
		RulesFired:   len(evidence),
		Duration:     duration,
	}
}

// checkRule isolates a single rule evaluation so malformed input can
// only disable that rule
func (e *Engine) checkRule(rule Rule, email *core.ParsedEmail) (detail string, triggered bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Rule evaluation failed",
				zap.String("rule", rule.ID()),
				zap.Any("panic", r))
			detail = ""
			triggered = false
		}
	}()
	return rule.Check(email)
}

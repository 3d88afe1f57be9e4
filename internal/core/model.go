package core

import (
	"strings"
	"time"
)

// Label classifies the phishing risk of an email.
type Label string

const (
	LabelSafe       Label = "Safe"
	LabelSuspicious Label = "Suspicious"
	LabelPhishing   Label = "Phishing"
)

// ParsedURL represents a URL extracted from email content
type ParsedURL struct {
	Raw        string
	Normalized string
	Domain     string
	Path       string
	Context    string
}

// ParsedHeaders represents the extracted and decoded email headers
type ParsedHeaders struct {
	FromAddr              string
	FromDisplay           string
	ToAddr                string
	ReplyTo               string
	ReturnPath            string
	Subject               string
	Date                  string
	MessageID             string
	AuthenticationResults string
	Raw                   map[string][]string
}

// Get returns the first value for the named header, case-insensitively
func (h *ParsedHeaders) Get(name string) string {
	for k, v := range h.Raw {
		if len(v) > 0 && strings.EqualFold(k, name) {
			return v[0]
		}
	}
	return ""
}

// ParsedEmail is the structured email record produced by the parsing
// collaborator and consumed by the scoring pipeline
type ParsedEmail struct {
	Headers       ParsedHeaders
	TextBody      string
	HTMLBody      string
	HTMLAsText    string
	URLs          []ParsedURL
	RawSize       int
	ParseWarnings []string
}

// Evidence is a structured explanation of why a signal contributed to a score
type Evidence struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// RuleResult is the outcome of evaluating a single rule
type RuleResult struct {
	RuleID    string
	Triggered bool
	Weight    int
	Evidence  string
}

// RuleAnalysis is the deterministic rule-engine verdict for one email
type RuleAnalysis struct {
	Score        int
	Label        Label
	Evidence     []Evidence
	Results      []RuleResult
	RulesChecked int
	RulesFired   int
	Duration     time.Duration
}

// ContentSummary describes free text structurally without carrying it verbatim
type ContentSummary struct {
	Greeting        string
	UrgencyPhrases  int
	Personalization float64
}

// SanitizedURL is a URL reduced to its structural pattern
type SanitizedURL struct {
	Domain string
	Path   string
}

// SanitizedInput is the analysis-safe representation sent to the external
// AI service. It must never contain a literal email address, phone number,
// account number, IP address, or personal name.
type SanitizedInput struct {
	SenderDomain    string
	RecipientDomain string
	Subject         string
	Body            string
	Summary         ContentSummary
	URLs            []SanitizedURL
	AuthSummary     string
}

// AIAnalysis is the validated result of a delegated AI analysis.
// Success=false carries the reason; a failure never crosses the adapter
// boundary as an error.
type AIAnalysis struct {
	Score        int
	Label        Label
	Evidence     []Evidence
	TokensUsed   int
	CostEstimate float64
	Success      bool
	ErrorReason  string
	Duration     time.Duration
	Model        string
}

// Skip reasons recorded when the orchestrator decides not to invoke the AI
const (
	SkipScoreExtreme   = "score_extreme"
	SkipRateLimited    = "rate_limited"
	SkipBudgetExceeded = "budget_exceeded"
	SkipTrustedDomain  = "trusted_domain"
)

// AnalysisResponse is the combined pipeline output. The rule and AI scores
// are independent views and are never fused into a single number.
type AnalysisResponse struct {
	ID           string
	RuleAnalysis RuleAnalysis
	AIAnalysis   *AIAnalysis
	AISkipReason string
	AnalyzedAt   time.Time
}

// AnalysisRecord is the append-once persistence record for one analysis
type AnalysisRecord struct {
	ID           string
	SenderDomain string
	RuleScore    int
	RuleLabel    Label
	AIScore      int
	AILabel      Label
	AISuccess    bool
	AISkipReason string
	CostEstimate float64
	AnalyzedAt   time.Time
}

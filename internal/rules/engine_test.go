package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultWeights(), DefaultThresholds(), zap.NewNop())
}

func phishingEmail() *core.ParsedEmail {
	return &core.ParsedEmail{
		Headers: core.ParsedHeaders{
			FromAddr:              "security@paypal-alerts.top",
			FromDisplay:           "PayPal Support",
			ToAddr:                "bob@example.com",
			ReplyTo:               "help@collect-mail.com",
			Subject:               "Urgent: verify your account within 24 hours",
			AuthenticationResults: "mx.example.com; spf=fail smtp.mailfrom=paypal-alerts.top; dkim=none; dmarc=fail",
		},
		TextBody: "Dear Customer, your invoice is overdue. Click below to pay.",
		URLs: []core.ParsedURL{
			{Raw: "http://bit.ly/3xYz", Normalized: "http://bit.ly/3xYz", Domain: "bit.ly", Path: "/3xYz"},
		},
	}
}

func cleanEmail() *core.ParsedEmail {
	return &core.ParsedEmail{
		Headers: core.ParsedHeaders{
			FromAddr:              "alice@example.com",
			FromDisplay:           "Alice Jones",
			ToAddr:                "bob@example.com",
			Subject:               "Lunch tomorrow",
			AuthenticationResults: "mx.example.com; spf=pass; dkim=pass; dmarc=pass",
		},
		TextBody: "Hi Bob, are we still on for lunch tomorrow at noon?",
	}
}

func TestEngine_PhishingEmailFiresExpectedRules(t *testing.T) {
	engine := newTestEngine(t)

	analysis := engine.Analyze(phishingEmail())

	fired := make(map[string]bool)
	for _, ev := range analysis.Evidence {
		fired[ev.ID] = true
	}

	assert.True(t, fired[RuleHeaderMismatch])
	assert.True(t, fired[RuleReplyToMismatch])
	assert.True(t, fired[RuleAuthFailure])
	assert.True(t, fired[RuleUrgentLanguage])
	assert.True(t, fired[RuleURLShortener])
	assert.True(t, fired[RuleSuspiciousTLD])
	assert.True(t, fired[RuleGenericGreeting])
	assert.True(t, fired[RuleAttachmentKeywords])
	assert.False(t, fired[RuleUnicodeSpoof])

	// 15+10+20+10+10+10+5+5
	assert.Equal(t, 85, analysis.Score)
	assert.Equal(t, core.LabelPhishing, analysis.Label)
	assert.Equal(t, 9, analysis.RulesChecked)
	assert.Equal(t, 8, analysis.RulesFired)
}

func TestEngine_CleanEmailScoresZero(t *testing.T) {
	engine := newTestEngine(t)

	analysis := engine.Analyze(cleanEmail())

	assert.Equal(t, 0, analysis.Score)
	assert.Equal(t, core.LabelSafe, analysis.Label)
	assert.Empty(t, analysis.Evidence)
	assert.Equal(t, 9, analysis.RulesChecked)
	assert.Len(t, analysis.Results, 9)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := newTestEngine(t)
	email := phishingEmail()

	first := engine.Analyze(email)
	second := engine.Analyze(email)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Evidence, second.Evidence)
}

func TestEngine_EvidenceInDeclarationOrder(t *testing.T) {
	engine := newTestEngine(t)

	analysis := engine.Analyze(phishingEmail())

	require.NotEmpty(t, analysis.Evidence)
	order := make(map[string]int, 9)
	for i, info := range engine.Rules() {
		order[info.ID] = i
	}
	last := -1
	for _, ev := range analysis.Evidence {
		pos, ok := order[ev.ID]
		require.True(t, ok)
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestEngine_MaxScore(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, 95, engine.MaxScore())
}

func TestEngine_EmptyEmailDoesNotPanic(t *testing.T) {
	engine := newTestEngine(t)

	analysis := engine.Analyze(&core.ParsedEmail{})

	assert.Equal(t, 0, analysis.Score)
	assert.Equal(t, core.LabelSafe, analysis.Label)
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine(t)
	email := phishingEmail()
	headers := email.Headers
	body := email.TextBody
	urls := len(email.URLs)

	engine.Analyze(email)

	assert.Equal(t, headers, email.Headers)
	assert.Equal(t, body, email.TextBody)
	assert.Len(t, email.URLs, urls)
}

func TestThresholds_LabelBoundaries(t *testing.T) {
	thresholds := DefaultThresholds()

	cases := []struct {
		score int
		label core.Label
	}{
		{0, core.LabelSafe},
		{20, core.LabelSafe},
		{21, core.LabelSuspicious},
		{50, core.LabelSuspicious},
		{51, core.LabelPhishing},
		{95, core.LabelPhishing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, thresholds.Label(tc.score), "score %d", tc.score)
	}
}

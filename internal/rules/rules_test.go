package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/phishing-detector/internal/core"
)

func emailFrom(display, addr string) *core.ParsedEmail {
	return &core.ParsedEmail{
		Headers: core.ParsedHeaders{
			FromDisplay: display,
			FromAddr:    addr,
		},
	}
}

func TestHeaderMismatchRule(t *testing.T) {
	rule := NewHeaderMismatchRule(15)

	cases := []struct {
		name    string
		display string
		from    string
		fired   bool
	}{
		{"brand keyword with wrong domain", "PayPal Support", "alerts@secure-pp.net", true},
		{"brand keyword with canonical domain", "PayPal", "service@paypal.com", false},
		{"brand keyword with canonical subdomain", "Amazon Orders", "no-reply@mail.amazon.com", false},
		{"embedded domain differs", "support@chase.com", "helpdesk@fakemail.ru", true},
		{"embedded domain matches", "alice@example.com", "alice@example.com", false},
		{"no display name", "", "bob@example.com", false},
		{"plain name", "Alice Jones", "alice@example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, fired := rule.Check(emailFrom(tc.display, tc.from))
			assert.Equal(t, tc.fired, fired)
		})
	}
}

func TestHeaderMismatchRule_StableEvidenceAcrossRuns(t *testing.T) {
	rule := NewHeaderMismatchRule(15)
	email := emailFrom("Amazon Prime via PayPal Billing", "alerts@evil.example")

	first, fired := rule.Check(email)
	assert.True(t, fired)
	// Brands are checked in declaration order, so the first listed brand
	// supplies the evidence
	assert.Equal(t, "Display name references 'paypal' but From domain is 'evil.example'", first)

	for i := 0; i < 200; i++ {
		evidence, fired := rule.Check(email)
		assert.True(t, fired)
		assert.Equal(t, first, evidence)
	}
}

func TestReplyToMismatchRule(t *testing.T) {
	rule := NewReplyToMismatchRule(10)

	email := emailFrom("", "alice@example.com")
	_, fired := rule.Check(email)
	assert.False(t, fired, "no Reply-To header")

	email.Headers.ReplyTo = "alice@mail.example.com"
	_, fired = rule.Check(email)
	assert.False(t, fired, "subdomain of the From domain")

	email.Headers.ReplyTo = "collector@elsewhere.org"
	detail, fired := rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, "elsewhere.org")
}

func TestAuthFailureRule(t *testing.T) {
	rule := NewAuthFailureRule(20)

	cases := []struct {
		name    string
		results string
		fired   bool
	}{
		{"all passing", "mx.example.com; spf=pass; dkim=pass; dmarc=pass", false},
		{"spf fail", "mx.example.com; spf=fail smtp.mailfrom=evil.com", true},
		{"spf softfail", "spf=softfail", true},
		{"dkim none", "spf=pass; dkim=none", true},
		{"dmarc fail", "spf=pass; dkim=pass; dmarc=fail", true},
		{"missing header", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email := &core.ParsedEmail{}
			email.Headers.AuthenticationResults = tc.results
			_, fired := rule.Check(email)
			assert.Equal(t, tc.fired, fired)
		})
	}
}

func TestAuthFailureRule_ReceivedSPFFallback(t *testing.T) {
	rule := NewAuthFailureRule(20)

	cases := []struct {
		name        string
		authResults string
		receivedSPF string
		fired       bool
	}{
		{"spf fail verdict", "", "fail (mx.example.com: domain of evil.com does not designate sender)", true},
		{"spf softfail verdict", "", "SoftFail (transitioning)", true},
		{"spf pass verdict", "", "pass (mx.example.com: sender authorized)", false},
		{"neither header", "", "", false},
		{"authentication-results takes precedence", "spf=pass; dkim=pass; dmarc=pass", "fail", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email := &core.ParsedEmail{}
			email.Headers.AuthenticationResults = tc.authResults
			email.Headers.Raw = map[string][]string{"Received-Spf": {tc.receivedSPF}}
			_, fired := rule.Check(email)
			assert.Equal(t, tc.fired, fired)
		})
	}
}

func TestUrgentLanguageRule(t *testing.T) {
	rule := NewUrgentLanguageRule(10)

	email := &core.ParsedEmail{TextBody: "Please verify your account, this is urgent."}
	detail, fired := rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, "urgent")

	email = &core.ParsedEmail{}
	email.Headers.Subject = "Account suspended: act now"
	_, fired = rule.Check(email)
	assert.True(t, fired, "subject counts too")

	email = &core.ParsedEmail{TextBody: "See you at the meeting next week."}
	_, fired = rule.Check(email)
	assert.False(t, fired)
}

func TestURLShortenerRule(t *testing.T) {
	rule := NewURLShortenerRule(10)

	email := &core.ParsedEmail{URLs: []core.ParsedURL{
		{Domain: "example.com"},
		{Domain: "BIT.LY"},
	}}
	detail, fired := rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, "BIT.LY")

	email = &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "example.com"}}}
	_, fired = rule.Check(email)
	assert.False(t, fired)
}

func TestSuspiciousTLDRule(t *testing.T) {
	rule := NewSuspiciousTLDRule(10)

	email := &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "login.example.xyz"}}}
	detail, fired := rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, ".xyz")

	email = emailFrom("", "deals@promo.click")
	_, fired = rule.Check(email)
	assert.True(t, fired, "sender domain is checked too")

	email = &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "example.com"}}}
	_, fired = rule.Check(email)
	assert.False(t, fired)
}

func TestUnicodeSpoofRule(t *testing.T) {
	rule := NewUnicodeSpoofRule(10)

	// Cyrillic "а" in an otherwise Latin domain
	email := &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "pаypal.com"}}}
	detail, fired := rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, "mixed-script")

	// Entirely Cyrillic domain: non-ASCII but single script
	email = &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "почта.рф"}}}
	detail, fired = rule.Check(email)
	assert.True(t, fired)
	assert.Contains(t, detail, "non-ASCII")

	email = &core.ParsedEmail{URLs: []core.ParsedURL{{Domain: "paypal.com"}}}
	_, fired = rule.Check(email)
	assert.False(t, fired)
}

func TestGenericGreetingRule(t *testing.T) {
	rule := NewGenericGreetingRule(5)

	email := &core.ParsedEmail{TextBody: "Dear Customer, we noticed unusual activity."}
	_, fired := rule.Check(email)
	assert.True(t, fired)

	email = &core.ParsedEmail{HTMLAsText: "Hello there! Valued member update."}
	_, fired = rule.Check(email)
	assert.True(t, fired, "HTML-derived text counts")

	email = &core.ParsedEmail{TextBody: "Dear Alice, here are the documents you asked for."}
	_, fired = rule.Check(email)
	assert.False(t, fired, "personalized greeting")
}

func TestAttachmentKeywordsRule(t *testing.T) {
	rule := NewAttachmentKeywordsRule(5)

	withURL := []core.ParsedURL{{Domain: "example.com"}}

	email := &core.ParsedEmail{TextBody: "Your invoice is attached.", URLs: withURL}
	_, fired := rule.Check(email)
	assert.True(t, fired)

	email = &core.ParsedEmail{TextBody: "Your invoice is attached."}
	_, fired = rule.Check(email)
	assert.False(t, fired, "keyword without any URL")

	email = &core.ParsedEmail{TextBody: "See you soon.", URLs: withURL}
	_, fired = rule.Check(email)
	assert.False(t, fired, "URL without any keyword")
}

func TestBaseDomain(t *testing.T) {
	cases := map[string]string{
		"example.com":       "example.com",
		"mail.example.com":  "example.com",
		"a.b.example.co.uk": "example.co.uk",
		"example.co.uk":     "example.co.uk",
		"EXAMPLE.COM":       "example.com",
		"localhost":         "localhost",
	}
	for in, want := range cases {
		assert.Equal(t, want, baseDomain(in), in)
	}
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "example.com", emailDomain("alice@example.com"))
	assert.Equal(t, "example.com", emailDomain("\"a@b\"@EXAMPLE.COM"))
	assert.Equal(t, "", emailDomain("not-an-address"))
	assert.Equal(t, "", emailDomain("trailing@"))
}

func TestGreetingHelpers(t *testing.T) {
	assert.True(t, HasGenericGreeting("Dear Customer, welcome"))
	assert.False(t, HasGenericGreeting("Dear Alice, welcome"))
	assert.True(t, HasPersonalGreeting("Dear Alice, welcome"))
	assert.False(t, HasPersonalGreeting("Dear customer, welcome"))
	assert.Equal(t, 2, UrgencyPhraseCount("urgent: act now"))
}

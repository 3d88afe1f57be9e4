package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

// HeaderMismatchRule detects a display name impersonating a brand or
// another domain while the actual From domain does not match
type HeaderMismatchRule struct {
	weight int
}

// NewHeaderMismatchRule creates a new header mismatch rule
func NewHeaderMismatchRule(weight int) *HeaderMismatchRule {
	return &HeaderMismatchRule{weight: weight}
}

func (r *HeaderMismatchRule) ID() string { return RuleHeaderMismatch }

func (r *HeaderMismatchRule) Description() string {
	return "Display name impersonates a brand or domain that differs from the From domain"
}

func (r *HeaderMismatchRule) Weight() int { return r.weight }

// Check compares the display name against the sender domain
func (r *HeaderMismatchRule) Check(email *core.ParsedEmail) (string, bool) {
	display := strings.ToLower(email.Headers.FromDisplay)
	fromDomain := emailDomain(email.Headers.FromAddr)
	if display == "" || fromDomain == "" {
		return "", false
	}

	fromBase := baseDomain(fromDomain)

	// Brand keyword in the display name with a non-canonical sender domain
	for _, entry := range brandDomains {
		if !strings.Contains(display, entry.brand) {
			continue
		}
		matches := false
		for _, domain := range entry.canonical {
			if fromBase == domain || strings.HasSuffix(fromDomain, "."+domain) {
				matches = true
				break
			}
		}
		if !matches {
			return fmt.Sprintf("Display name references '%s' but From domain is '%s'", entry.brand, fromDomain), true
		}
	}

	// Domain-like token embedded in the display name that differs
	// from the actual sender domain
	if embedded := displayDomainPattern.FindString(display); embedded != "" {
		if baseDomain(embedded) != fromBase {
			return fmt.Sprintf("Display name suggests '%s' but From domain is '%s'", embedded, fromDomain), true
		}
	}

	return "", false
}

// ReplyToMismatchRule detects a Reply-To domain that differs from the
// From domain, a common redirection tactic
type ReplyToMismatchRule struct {
	weight int
}

// NewReplyToMismatchRule creates a new Reply-To mismatch rule
func NewReplyToMismatchRule(weight int) *ReplyToMismatchRule {
	return &ReplyToMismatchRule{weight: weight}
}

func (r *ReplyToMismatchRule) ID() string { return RuleReplyToMismatch }

func (r *ReplyToMismatchRule) Description() string {
	return "Reply-To domain differs from From domain"
}

func (r *ReplyToMismatchRule) Weight() int { return r.weight }

// Check compares the subdomain-stripped Reply-To and From domains
func (r *ReplyToMismatchRule) Check(email *core.ParsedEmail) (string, bool) {
	if email.Headers.ReplyTo == "" {
		return "", false
	}
	fromDomain := emailDomain(email.Headers.FromAddr)
	replyDomain := emailDomain(email.Headers.ReplyTo)
	if fromDomain == "" || replyDomain == "" {
		return "", false
	}
	if baseDomain(fromDomain) != baseDomain(replyDomain) {
		return fmt.Sprintf("From domain '%s' differs from Reply-To domain '%s'", fromDomain, replyDomain), true
	}
	return "", false
}

// authFailPatterns match failing SPF/DKIM/DMARC result tokens
var authFailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)spf\s*=\s*(fail|softfail|none|neutral)`),
	regexp.MustCompile(`(?i)dkim\s*=\s*(fail|none|neutral)`),
	regexp.MustCompile(`(?i)dmarc\s*=\s*(fail|none)`),
}

// AuthFailureRule detects failing authentication results
type AuthFailureRule struct {
	weight int
}

// NewAuthFailureRule creates a new authentication failure rule
func NewAuthFailureRule(weight int) *AuthFailureRule {
	return &AuthFailureRule{weight: weight}
}

func (r *AuthFailureRule) ID() string { return RuleAuthFailure }

func (r *AuthFailureRule) Description() string {
	return "Authentication-Results indicates SPF/DKIM/DMARC failure"
}

func (r *AuthFailureRule) Weight() int { return r.weight }

// Check scans the Authentication-Results header for failure tokens.
// When that header is absent, the Received-SPF header is checked
// instead; some MTAs record only the SPF verdict.
func (r *AuthFailureRule) Check(email *core.ParsedEmail) (string, bool) {
	authResults := strings.ToLower(email.Headers.AuthenticationResults)
	if authResults == "" {
		return r.checkReceivedSPF(email)
	}

	var failures []string
	for _, pattern := range authFailPatterns {
		for _, match := range pattern.FindAllString(authResults, -1) {
			failures = append(failures, strings.ReplaceAll(match, " ", ""))
		}
	}
	if len(failures) == 0 {
		return "", false
	}
	return "Authentication failures detected: " + strings.Join(uniqueStrings(failures), ", "), true
}

// checkReceivedSPF inspects the leading verdict token of Received-SPF
func (r *AuthFailureRule) checkReceivedSPF(email *core.ParsedEmail) (string, bool) {
	fields := strings.Fields(strings.ToLower(email.Headers.Get("Received-SPF")))
	if len(fields) == 0 {
		return "", false
	}
	switch fields[0] {
	case "fail", "softfail", "none", "neutral":
		return "Received-SPF verdict is " + fields[0], true
	}
	return "", false
}

package rules

import (
	"regexp"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

// Rule IDs, in fixed declaration order
const (
	RuleHeaderMismatch     = "HEADER_MISMATCH"
	RuleReplyToMismatch    = "REPLYTO_MISMATCH"
	RuleAuthFailure        = "AUTH_FAILURE"
	RuleUrgentLanguage     = "URGENT_LANGUAGE"
	RuleURLShortener       = "URL_SHORTENER"
	RuleSuspiciousTLD      = "SUSPICIOUS_TLD"
	RuleUnicodeSpoof       = "UNICODE_SPOOF"
	RuleGenericGreeting    = "GENERIC_GREETING"
	RuleAttachmentKeywords = "ATTACHMENT_KEYWORDS"
)

// Weights holds the configurable weight table for the rule set
type Weights struct {
	HeaderMismatch     int
	ReplyToMismatch    int
	AuthFailure        int
	UrgentLanguage     int
	URLShortener       int
	SuspiciousTLD      int
	UnicodeSpoof       int
	GenericGreeting    int
	AttachmentKeywords int
}

// DefaultWeights returns the standard weight table
func DefaultWeights() Weights {
	return Weights{
		HeaderMismatch:     15,
		ReplyToMismatch:    10,
		AuthFailure:        20,
		UrgentLanguage:     10,
		URLShortener:       10,
		SuspiciousTLD:      10,
		UnicodeSpoof:       10,
		GenericGreeting:    5,
		AttachmentKeywords: 5,
	}
}

// Thresholds maps a rule score to a risk label
type Thresholds struct {
	SafeMax       int
	SuspiciousMax int
}

// DefaultThresholds returns the standard label thresholds:
// 0-20 Safe, 21-50 Suspicious, 51+ Phishing.
func DefaultThresholds() Thresholds {
	return Thresholds{SafeMax: 20, SuspiciousMax: 50}
}

// Label derives the risk label for a score
func (t Thresholds) Label(score int) core.Label {
	switch {
	case score <= t.SafeMax:
		return core.LabelSafe
	case score <= t.SuspiciousMax:
		return core.LabelSuspicious
	default:
		return core.LabelPhishing
	}
}

// Rule is a single independent phishing signal check. Check must not
// mutate the email and must not perform I/O.
type Rule interface {
	// ID returns the stable rule identifier
	ID() string

	// Description explains what the rule detects
	Description() string

	// Weight returns the points added to the score when the rule fires
	Weight() int

	// Check evaluates the rule, returning evidence text and whether it fired
	Check(email *core.ParsedEmail) (string, bool)
}

// urlShorteners lists common link shortening services
var urlShorteners = map[string]bool{
	"bit.ly":        true,
	"tinyurl.com":   true,
	"t.co":          true,
	"goo.gl":        true,
	"ow.ly":         true,
	"is.gd":         true,
	"buff.ly":       true,
	"adf.ly":        true,
	"short.link":    true,
	"tiny.cc":       true,
	"rb.gy":         true,
	"cutt.ly":       true,
	"short.io":      true,
	"rebrandly.com": true,
	"clck.ru":       true,
}

// suspiciousTLDs lists frequently abused top-level domains
var suspiciousTLDs = []string{
	".top", ".xyz", ".click", ".cam", ".zip", ".download",
	".work", ".men", ".date", ".racing", ".loan", ".science",
	".cf", ".tk", ".ml", ".ga", ".country", ".stream",
}

// urgentPatterns matches pressure language in subject and body
var urgentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\burgent\b`),
	regexp.MustCompile(`(?i)\bimmediate\s+action\b`),
	regexp.MustCompile(`(?i)\bexpires?\s+today\b`),
	regexp.MustCompile(`(?i)\bverify\s+(?:your\s+account|now)\b`),
	regexp.MustCompile(`(?i)\bsuspend(?:ed)?\s+account\b`),
	regexp.MustCompile(`(?i)\bact\s+now\b`),
	regexp.MustCompile(`(?i)\btime\s+sensitive\b`),
	regexp.MustCompile(`(?i)\blimited\s+time\b`),
	regexp.MustCompile(`(?i)\b24\s+hours?\b`),
	regexp.MustCompile(`(?i)\bexpir(?:e|ing)\s+soon\b`),
}

// genericGreetings matches impersonal salutations
var genericGreetings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdear\s+(?:user|customer|client|member|sir|madam)\b`),
	regexp.MustCompile(`(?i)\bvalued\s+(?:customer|client|member)\b`),
	regexp.MustCompile(`(?i)\bhello\s+(?:user|customer|there)\b`),
	regexp.MustCompile(`(?i)\bgreetings?\s+(?:user|customer)\b`),
}

// attachmentKeywords are payment and document lures
var attachmentKeywords = []string{
	"invoice", "payment", "receipt", "bill", "statement",
	"document", "attachment", "pdf", "download", "password",
}

// brandEntry pairs a brand keyword seen in display names with the
// canonical domains that brand sends from
type brandEntry struct {
	brand     string
	canonical []string
}

// brandDomains is checked in fixed order so the first matching brand
// always supplies the evidence text
var brandDomains = []brandEntry{
	{"paypal", []string{"paypal.com"}},
	{"apple", []string{"apple.com", "icloud.com"}},
	{"amazon", []string{"amazon.com"}},
	{"microsoft", []string{"microsoft.com", "outlook.com", "live.com"}},
	{"google", []string{"google.com", "gmail.com"}},
	{"netflix", []string{"netflix.com"}},
	{"facebook", []string{"facebook.com", "meta.com"}},
	{"instagram", []string{"instagram.com"}},
	{"linkedin", []string{"linkedin.com"}},
	{"dropbox", []string{"dropbox.com"}},
	{"docusign", []string{"docusign.com", "docusign.net"}},
	{"fedex", []string{"fedex.com"}},
	{"ups", []string{"ups.com"}},
	{"usps", []string{"usps.com"}},
	{"dhl", []string{"dhl.com"}},
	{"chase", []string{"chase.com"}},
	{"wells fargo", []string{"wellsfargo.com"}},
	{"bank of america", []string{"bankofamerica.com"}},
	{"irs", []string{"irs.gov"}},
}

// displayDomainPattern finds domain-like tokens embedded in display names
var displayDomainPattern = regexp.MustCompile(`[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// emailDomain extracts the lowercase domain from an email address
func emailDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}

// secondLevelSuffixes are common registries where the registrable domain
// spans three labels
var secondLevelSuffixes = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true,
	"com.au": true, "net.au": true,
	"co.jp": true, "co.nz": true, "co.za": true,
	"com.br": true, "com.mx": true, "com.cn": true,
}

// baseDomain strips subdomains, leaving the registrable domain
func baseDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	labels := strings.Split(domain, ".")
	if len(labels) <= 2 {
		return domain
	}
	suffix := strings.Join(labels[len(labels)-2:], ".")
	if secondLevelSuffixes[suffix] && len(labels) >= 3 {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return suffix
}

// combinedText joins the subject and both body renderings for text rules
func combinedText(email *core.ParsedEmail) string {
	return email.Headers.Subject + " " + email.TextBody + " " + email.HTMLAsText
}

// uniqueStrings returns the distinct values in order of first occurrence
func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// limitList truncates a list for evidence display
func limitList(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

// UrgencyPhraseCount counts matches of the curated urgency phrase list
// in the given text
func UrgencyPhraseCount(text string) int {
	count := 0
	for _, pattern := range urgentPatterns {
		count += len(pattern.FindAllString(text, -1))
	}
	return count
}

// HasGenericGreeting reports whether the text opens with an impersonal
// salutation from the curated greeting list
func HasGenericGreeting(text string) bool {
	for _, pattern := range genericGreetings {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// personalGreeting matches salutations addressed to a capitalized name
var personalGreeting = regexp.MustCompile(`\b(?:[Dd]ear|[Hh]i|[Hh]ello)\s+[A-Z][a-z]+\b`)

// HasPersonalGreeting reports whether the text greets a specific name
func HasPersonalGreeting(text string) bool {
	return personalGreeting.MatchString(text) && !HasGenericGreeting(text)
}

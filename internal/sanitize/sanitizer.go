// Package sanitize implements the privacy boundary between parsed email
// content and the external AI analyzer. Nothing personally identifying
// may pass through it.
package sanitize

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/rules"
	"github.com/mikey/phishing-detector/internal/utils"
)

// Placeholder tokens substituted for detected PII
const (
	TokenEmail = "[EMAIL]"
	TokenPhone = "[PHONE]"
	TokenID    = "[ID]"
	TokenIP    = "[IP]"
	TokenName  = "[NAME]"
	TokenPath  = "[PATH]"
)

// Greeting classifications emitted in the content summary
const (
	GreetingGeneric      = "generic"
	GreetingPersonalized = "personalized"
	GreetingNone         = "none"
)

// piiPattern pairs a detector with its replacement token. Order matters:
// broader patterns run first so fragments don't survive a partial match.
type piiPattern struct {
	re    *regexp.Regexp
	token string
}

var defaultPatterns = []piiPattern{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), TokenEmail},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), TokenIP},
	{regexp.MustCompile(`\+?\d{0,3}[\s.\-(]*\d{3}[\s.\-)]*\d{3}[\s.\-]*\d{4}\b`), TokenPhone},
	{regexp.MustCompile(`#?\d{6,}\b`), TokenID},
	{regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`), TokenName},
}

// leakCheck patterns verify no PII survived redaction. A field that still
// matches after redaction is omitted entirely.
var leakChecks = []*regexp.Regexp{
	regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`\d{6,}`),
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
}

// authResultPattern extracts spf/dkim/dmarc result tokens only
var authResultPattern = regexp.MustCompile(`(?i)\b(spf|dkim|dmarc)\s*=\s*([a-z]+)`)

// pathSegmentPattern flags path segments likely to carry identifiers
var pathSegmentPattern = regexp.MustCompile(`\d`)

// Config bounds the size of sanitized output
type Config struct {
	MaxSubjectLength int
	MaxBodyLength    int
	MaxURLs          int
}

// DefaultConfig returns the standard output size limits
func DefaultConfig() Config {
	return Config{
		MaxSubjectLength: 200,
		MaxBodyLength:    2000,
		MaxURLs:          10,
	}
}

// Sanitizer produces analysis-safe representations of parsed emails
type Sanitizer struct {
	cfg           Config
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewSanitizer creates a new sanitizer
func NewSanitizer(cfg Config, textProcessor *utils.TextProcessor, logger *zap.Logger) *Sanitizer {
	return &Sanitizer{
		cfg:           cfg,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Sanitize strips all personally identifying content from the email,
// keeping only domains, redacted text, structural summaries, and URL
// patterns. A field that cannot be redacted safely is omitted.
func (s *Sanitizer) Sanitize(email *core.ParsedEmail) *core.SanitizedInput {
	body := email.TextBody
	if body == "" {
		body = email.HTMLAsText
	}

	// Structural summary is computed before redaction so greeting and
	// personalization signals survive; only aggregates leave this function.
	summary := s.summarize(email, body)

	out := &core.SanitizedInput{
		SenderDomain:    domainOf(email.Headers.FromAddr),
		RecipientDomain: domainOf(email.Headers.ToAddr),
		Subject:         s.redactField(email.Headers.Subject, s.cfg.MaxSubjectLength, "subject"),
		Body:            s.redactField(body, s.cfg.MaxBodyLength, "body"),
		Summary:         summary,
		URLs:            s.sanitizeURLs(email.URLs),
		AuthSummary:     authSummary(email.Headers.AuthenticationResults),
	}

	s.logger.Debug("Email sanitized",
		zap.String("sender_domain", out.SenderDomain),
		zap.Int("urls", len(out.URLs)),
		zap.Int("body_len", len(out.Body)))

	return out
}

// redactField replaces PII with placeholder tokens and truncates. Returns
// the empty string when redaction cannot be verified.
func (s *Sanitizer) redactField(text string, maxLen int, field string) string {
	if text == "" {
		return ""
	}
	for _, p := range defaultPatterns {
		text = p.re.ReplaceAllString(text, p.token)
	}
	for _, check := range leakChecks {
		if check.MatchString(text) {
			s.logger.Warn("Field omitted: redaction left identifying content",
				zap.String("field", field))
			return ""
		}
	}
	return s.textProcessor.ProcessText(text, maxLen)
}

// sanitizeURLs reduces URLs to domain plus scrubbed path pattern. Query
// strings are dropped entirely; identifier-bearing path segments are
// replaced with a placeholder.
func (s *Sanitizer) sanitizeURLs(urls []core.ParsedURL) []core.SanitizedURL {
	max := s.cfg.MaxURLs
	if max <= 0 || max > len(urls) {
		max = len(urls)
	}

	out := make([]core.SanitizedURL, 0, max)
	for _, u := range urls[:max] {
		if u.Domain == "" {
			continue
		}
		out = append(out, core.SanitizedURL{
			Domain: strings.ToLower(u.Domain),
			Path:   scrubPath(u.Path),
		})
	}
	return out
}

// scrubPath replaces path segments that look like identifiers
func scrubPath(path string) string {
	if path == "" || path == "/" {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if pathSegmentPattern.MatchString(seg) || len(seg) > 16 || strings.Contains(seg, "@") {
			segments[i] = TokenPath
		}
	}
	return strings.Join(segments, "/")
}

// summarize classifies the greeting and counts urgency signals without
// forwarding any text
func (s *Sanitizer) summarize(email *core.ParsedEmail, body string) core.ContentSummary {
	text := email.Headers.Subject + " " + body

	greeting := GreetingNone
	personalization := 0.0
	switch {
	case rules.HasGenericGreeting(body):
		greeting = GreetingGeneric
	case rules.HasPersonalGreeting(body):
		greeting = GreetingPersonalized
		personalization = 0.5
	}

	// A recipient referenced by mailbox name suggests a targeted message
	if local := localPart(email.Headers.ToAddr); len(local) >= 3 &&
		strings.Contains(strings.ToLower(body), strings.ToLower(local)) {
		personalization += 0.5
	}
	if personalization > 1.0 {
		personalization = 1.0
	}

	return core.ContentSummary{
		Greeting:        greeting,
		UrgencyPhrases:  rules.UrgencyPhraseCount(text),
		Personalization: personalization,
	}
}

// authSummary keeps only the mechanism=result tokens from the
// Authentication-Results header
func authSummary(authResults string) string {
	if authResults == "" {
		return ""
	}
	matches := authResultPattern.FindAllStringSubmatch(authResults, -1)
	if len(matches) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(matches))
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		token := strings.ToLower(m[1]) + "=" + strings.ToLower(m[2])
		if !seen[token] {
			seen[token] = true
			parts = append(parts, token)
		}
	}
	return strings.Join(parts, " ")
}

// domainOf returns the domain of an address, never the local part
func domainOf(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}

// localPart returns the mailbox name of an address; used only for
// in-process personalization scoring, never emitted
func localPart(addr string) string {
	at := strings.Index(addr, "@")
	if at <= 0 {
		return ""
	}
	return addr[:at]
}

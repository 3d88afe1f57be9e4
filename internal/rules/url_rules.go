package rules

import (
	"strings"
	"unicode"

	"github.com/mikey/phishing-detector/internal/core"
)

// URLShortenerRule detects links through URL shortening services
type URLShortenerRule struct {
	weight int
}

// NewURLShortenerRule creates a new URL shortener rule
func NewURLShortenerRule(weight int) *URLShortenerRule {
	return &URLShortenerRule{weight: weight}
}

func (r *URLShortenerRule) ID() string { return RuleURLShortener }

func (r *URLShortenerRule) Description() string {
	return "Contains URLs from shortening services"
}

func (r *URLShortenerRule) Weight() int { return r.weight }

// Check matches extracted URL domains against the shortener list
func (r *URLShortenerRule) Check(email *core.ParsedEmail) (string, bool) {
	var shorteners []string
	for _, u := range email.URLs {
		if urlShorteners[strings.ToLower(u.Domain)] {
			shorteners = append(shorteners, u.Domain)
		}
	}
	if len(shorteners) == 0 {
		return "", false
	}
	return "URL shorteners found: " + strings.Join(uniqueStrings(shorteners), ", "), true
}

// SuspiciousTLDRule detects URLs under frequently abused TLDs
type SuspiciousTLDRule struct {
	weight int
}

// NewSuspiciousTLDRule creates a new suspicious TLD rule
func NewSuspiciousTLDRule(weight int) *SuspiciousTLDRule {
	return &SuspiciousTLDRule{weight: weight}
}

func (r *SuspiciousTLDRule) ID() string { return RuleSuspiciousTLD }

func (r *SuspiciousTLDRule) Description() string {
	return "Contains URLs with suspicious TLDs"
}

func (r *SuspiciousTLDRule) Weight() int { return r.weight }

// Check matches URL domains and the sender domain against the TLD list
func (r *SuspiciousTLDRule) Check(email *core.ParsedEmail) (string, bool) {
	var flagged []string

	checkDomain := func(domain string) {
		domain = strings.ToLower(domain)
		for _, tld := range suspiciousTLDs {
			if strings.HasSuffix(domain, tld) {
				flagged = append(flagged, domain+" ("+tld+")")
				return
			}
		}
	}

	for _, u := range email.URLs {
		checkDomain(u.Domain)
	}
	if sender := emailDomain(email.Headers.FromAddr); sender != "" {
		checkDomain(sender)
	}

	if len(flagged) == 0 {
		return "", false
	}
	unique := uniqueStrings(flagged)
	return "Suspicious TLDs found: " + strings.Join(limitList(unique, 5), ", "), true
}

// UnicodeSpoofRule detects homograph attacks: non-ASCII characters or
// mixed scripts in URL domains
type UnicodeSpoofRule struct {
	weight int
}

// NewUnicodeSpoofRule creates a new Unicode spoofing rule
func NewUnicodeSpoofRule(weight int) *UnicodeSpoofRule {
	return &UnicodeSpoofRule{weight: weight}
}

func (r *UnicodeSpoofRule) ID() string { return RuleUnicodeSpoof }

func (r *UnicodeSpoofRule) Description() string {
	return "Potential Unicode spoofing in domains"
}

func (r *UnicodeSpoofRule) Weight() int { return r.weight }

// Check flags non-ASCII domains and domains mixing alphabetic scripts
func (r *UnicodeSpoofRule) Check(email *core.ParsedEmail) (string, bool) {
	var flagged []string
	for _, u := range email.URLs {
		domain := u.Domain
		if domain == "" {
			continue
		}
		if isASCII(domain) {
			continue
		}
		if hasMixedScripts(domain) {
			flagged = append(flagged, domain+" (mixed-script)")
		} else {
			flagged = append(flagged, domain+" (non-ASCII)")
		}
	}
	if len(flagged) == 0 {
		return "", false
	}
	unique := uniqueStrings(flagged)
	return "Suspicious domains: " + strings.Join(limitList(unique, 3), ", "), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// spoofableScripts are the scripts commonly mixed in homograph attacks
var spoofableScripts = []*unicode.RangeTable{
	unicode.Latin,
	unicode.Cyrillic,
	unicode.Greek,
}

// hasMixedScripts reports whether alphabetic runes in the domain come
// from more than one script
func hasMixedScripts(domain string) bool {
	seen := -1
	for _, r := range domain {
		if !unicode.IsLetter(r) {
			continue
		}
		for i, script := range spoofableScripts {
			if unicode.Is(script, r) {
				if seen >= 0 && seen != i {
					return true
				}
				seen = i
				break
			}
		}
	}
	return false
}

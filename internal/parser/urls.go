package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"

	"github.com/mikey/phishing-detector/internal/core"
)

const maxURLsPerEmail = 500

// urlPattern is broad by design: phishing URLs frequently abuse unusual
// characters that stricter patterns miss
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]}]+`)

// trackingParams are marketing parameters stripped during normalization
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
	"msclkid":      true,
	"_ga":          true,
	"mc_cid":       true,
	"mc_eid":       true,
}

// extractURLs finds, normalizes, and deduplicates URLs across the text
// body, HTML body, subject, and return path
func extractURLs(textBody, htmlBody string, headers *core.ParsedHeaders, warnings *[]string) []core.ParsedURL {
	contexts := []struct {
		name    string
		content string
	}{
		{"text_body", textBody},
		{"html_body", htmlBody},
		{"subject", headers.Subject},
		{"return_path", headers.ReturnPath},
	}

	var urls []core.ParsedURL
	seen := make(map[string]bool)

	for _, c := range contexts {
		if c.content == "" {
			continue
		}
		for _, loc := range urlPattern.FindAllStringIndex(c.content, -1) {
			if len(urls) >= maxURLsPerEmail {
				*warnings = append(*warnings, fmt.Sprintf("URL limit reached: %d", maxURLsPerEmail))
				return urls
			}

			raw := strings.TrimRight(c.content[loc[0]:loc[1]], ".,;:")
			normalized := normalizeURL(raw)
			if seen[normalized] {
				continue
			}
			seen[normalized] = true

			domain, path := splitURL(normalized)

			urls = append(urls, core.ParsedURL{
				Raw:        raw,
				Normalized: normalized,
				Domain:     domain,
				Path:       path,
				Context:    surrounding(c.content, loc[0], loc[1]),
			})
		}
	}
	return urls
}

// normalizeURL lowercases the host, decodes punycode, and strips
// tracking parameters
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.ToLower(u.Host)
	if strings.Contains(host, "xn--") {
		if decoded, err := idna.ToUnicode(host); err == nil {
			host = decoded
		}
	}
	u.Host = host

	if u.RawQuery != "" {
		kept := make([]string, 0)
		for _, param := range strings.Split(u.RawQuery, "&") {
			key := param
			if eq := strings.IndexByte(param, '='); eq >= 0 {
				key = param[:eq]
			}
			if !trackingParams[strings.ToLower(key)] {
				kept = append(kept, param)
			}
		}
		u.RawQuery = strings.Join(kept, "&")
	}

	return u.String()
}

// splitURL returns the lowercase host and path of a normalized URL
func splitURL(normalized string) (domain, path string) {
	u, err := url.Parse(normalized)
	if err != nil {
		return "invalid", ""
	}
	return strings.ToLower(u.Hostname()), u.Path
}

// surrounding returns up to 20 characters of context on each side of
// the match
func surrounding(content string, start, end int) string {
	ctxStart := start - 20
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + 20
	if ctxEnd > len(content) {
		ctxEnd = len(content)
	}
	return strings.ReplaceAll(content[ctxStart:ctxEnd], "\n", " ")
}

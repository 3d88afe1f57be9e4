// Package parser turns raw RFC822 messages into the structured email
// record consumed by the scoring pipeline. Parsing is defensive: size
// limits, charset fallbacks, and header cleaning guard against
// malicious input. A parse failure here is the pipeline's only fatal
// error.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/mikey/phishing-detector/internal/core"
)

// Security limits
const (
	maxRawSize       = 25 * 1024 * 1024
	maxPartSize      = 1024 * 1024
	maxHeaderSize    = 64 * 1024
	maxMultipartNest = 8
)

var consecutiveNewlines = regexp.MustCompile(`\n{3,}`)

// Parser parses raw email bytes into core.ParsedEmail records
type Parser struct {
	logger *zap.Logger
}

// New creates a new email parser
func New(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse parses a raw message. The returned warnings list records parts
// that were skipped or truncated without failing the parse.
func (p *Parser) Parse(raw []byte) (*core.ParsedEmail, error) {
	if len(raw) > maxRawSize {
		return nil, fmt.Errorf("email too large: %d bytes", len(raw))
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	var warnings []string

	headers := p.extractHeaders(msg, &warnings)
	textBody, htmlBody := p.extractBody(msg, &warnings)
	htmlAsText := htmlToText(htmlBody, &warnings)
	urls := extractURLs(textBody, htmlBody, &headers, &warnings)

	email := &core.ParsedEmail{
		Headers:       headers,
		TextBody:      cleanText(textBody),
		HTMLBody:      htmlBody,
		HTMLAsText:    cleanText(htmlAsText),
		URLs:          urls,
		RawSize:       len(raw),
		ParseWarnings: warnings,
	}

	p.logger.Debug("Email parsed",
		zap.Int("raw_size", email.RawSize),
		zap.Int("urls", len(email.URLs)),
		zap.Int("warnings", len(warnings)))

	return email, nil
}

// extractHeaders decodes and cleans the headers the pipeline cares about
func (p *Parser) extractHeaders(msg *mail.Message, warnings *[]string) core.ParsedHeaders {
	get := func(name string) string {
		value := msg.Header.Get(name)
		if len(value) > maxHeaderSize {
			*warnings = append(*warnings, fmt.Sprintf("header %s truncated", name))
			value = value[:maxHeaderSize]
		}
		return cleanHeaderValue(value)
	}

	fromDisplay, fromAddr := parseAddress(get("From"))
	_, toAddr := parseAddress(get("To"))
	_, replyTo := parseAddress(get("Reply-To"))

	raw := make(map[string][]string, len(msg.Header))
	for k, v := range msg.Header {
		raw[k] = v
	}

	return core.ParsedHeaders{
		FromAddr:              fromAddr,
		FromDisplay:           fromDisplay,
		ToAddr:                toAddr,
		ReplyTo:               replyTo,
		ReturnPath:            get("Return-Path"),
		Subject:               get("Subject"),
		Date:                  get("Date"),
		MessageID:             get("Message-ID"),
		AuthenticationResults: get("Authentication-Results"),
		Raw:                   raw,
	}
}

// parseAddress splits an address header into display name and address.
// On malformed input the raw value is kept as the address so downstream
// rules still see it.
func parseAddress(value string) (display, addr string) {
	if value == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(value)
	if err != nil {
		return "", strings.TrimSpace(value)
	}
	return cleanHeaderValue(parsed.Name), parsed.Address
}

// extractBody walks the MIME structure collecting text/plain and
// text/html parts
func (p *Parser) extractBody(msg *mail.Message, warnings *[]string) (textBody, htmlBody string) {
	contentType := msg.Header.Get("Content-Type")
	encoding := msg.Header.Get("Content-Transfer-Encoding")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			*warnings = append(*warnings, "multipart message without boundary")
			return "", ""
		}
		return p.walkMultipart(msg.Body, boundary, 0, warnings)
	}

	content, err := decodePart(msg.Body, encoding)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("failed to decode body: %v", err))
		return "", ""
	}
	if mediaType == "text/html" {
		return "", content
	}
	return content, ""
}

// walkMultipart recursively collects text parts, bounded by nesting depth
func (p *Parser) walkMultipart(r io.Reader, boundary string, depth int, warnings *[]string) (textBody, htmlBody string) {
	if depth > maxMultipartNest {
		*warnings = append(*warnings, "multipart nesting too deep")
		return "", ""
	}

	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("failed to read part: %v", err))
			break
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}

		if strings.HasPrefix(partType, "multipart/") {
			if nested := partParams["boundary"]; nested != "" {
				t, h := p.walkMultipart(part, nested, depth+1, warnings)
				textBody += t
				htmlBody += h
			}
			continue
		}

		switch partType {
		case "text/plain", "text/html":
			content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding"))
			if err != nil {
				*warnings = append(*warnings, fmt.Sprintf("failed to decode %s part: %v", partType, err))
				continue
			}
			if partType == "text/plain" {
				textBody += content + "\n"
			} else {
				htmlBody += content + "\n"
			}
		}
	}
	return textBody, htmlBody
}

// decodePart reads a body part honoring its transfer encoding, bounded
// by the per-part size limit
func decodePart(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, newBase64Cleaner(r))
	}

	data, err := io.ReadAll(io.LimitReader(r, maxPartSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// base64Cleaner drops whitespace so wrapped base64 bodies decode cleanly
type base64Cleaner struct {
	r io.Reader
}

func newBase64Cleaner(r io.Reader) *base64Cleaner {
	return &base64Cleaner{r: r}
}

func (c *base64Cleaner) Read(p []byte) (int, error) {
	buf := make([]byte, len(p))
	n, err := c.r.Read(buf)
	j := 0
	for _, b := range buf[:n] {
		switch b {
		case '\r', '\n', ' ', '\t':
		default:
			p[j] = b
			j++
		}
	}
	return j, err
}

// htmlToText renders HTML to plain text for the content rules
func htmlToText(html string, warnings *[]string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("html to text conversion failed: %v", err))
		return ""
	}
	doc.Find("script,style").Remove()
	return doc.Text()
}

// cleanHeaderValue decodes MIME encoded words, normalizes unicode, and
// strips control characters
func cleanHeaderValue(value string) string {
	if value == "" {
		return ""
	}

	decoder := mime.WordDecoder{}
	if decoded, err := decoder.DecodeHeader(value); err == nil {
		value = decoded
	}

	value = norm.NFKC.String(value)

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '\t' || r == '\n' || r == '\r' || r == ' ' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// cleanText normalizes unicode and collapses excess blank lines
func cleanText(content string) string {
	if content == "" {
		return ""
	}
	content = norm.NFKC.String(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = consecutiveNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestParser() *Parser {
	return New(zap.NewNop())
}

func TestParse_PlainTextEmail(t *testing.T) {
	raw := strings.Join([]string{
		"From: \"Acme Billing\" <billing@acme.example>",
		"To: alice@corp.example",
		"Reply-To: replies@acme.example",
		"Return-Path: bounce@acme.example",
		"Subject: Your invoice",
		"Message-ID: <abc123@acme.example>",
		"Authentication-Results: mx.corp.example; spf=pass dkim=pass dmarc=pass",
		"",
		"Hello Alice,",
		"",
		"Your invoice is attached.",
		"",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "billing@acme.example", email.Headers.FromAddr)
	assert.Equal(t, "Acme Billing", email.Headers.FromDisplay)
	assert.Equal(t, "alice@corp.example", email.Headers.ToAddr)
	assert.Equal(t, "replies@acme.example", email.Headers.ReplyTo)
	assert.Equal(t, "Your invoice", email.Headers.Subject)
	assert.Equal(t, "<abc123@acme.example>", email.Headers.MessageID)
	assert.Contains(t, email.Headers.AuthenticationResults, "spf=pass")
	assert.Equal(t, "Hello Alice,\n\nYour invoice is attached.", email.TextBody)
	assert.Empty(t, email.HTMLBody)
	assert.Equal(t, len(raw), email.RawSize)
	assert.Empty(t, email.ParseWarnings)
}

func TestParse_DecodesEncodedWordHeaders(t *testing.T) {
	raw := strings.Join([]string{
		"From: =?utf-8?q?Caf=C3=A9_Support?= <support@cafe.example>",
		"Subject: =?utf-8?q?Caf=C3=A9_offer?=",
		"",
		"body",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Café Support", email.Headers.FromDisplay)
	assert.Equal(t, "Café offer", email.Headers.Subject)
}

func TestParse_NormalizesFullwidthHeaders(t *testing.T) {
	// Fullwidth "ＰａｙＰａｌ" compatibility-folds to plain ASCII so the
	// rules see the brand name the spoofer is imitating
	raw := strings.Join([]string{
		"From: =?utf-8?q?=EF=BC=B0=EF=BD=81=EF=BD=99=EF=BC=B0=EF=BD=81=EF=BD=8C?= <alerts@paypal-alerts.top>",
		"Subject: test",
		"",
		"body",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "PayPal", email.Headers.FromDisplay)
}

func TestParse_MalformedFromKeepsRawValue(t *testing.T) {
	raw := strings.Join([]string{
		"From: not a valid address",
		"Subject: test",
		"",
		"body",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "not a valid address", email.Headers.FromAddr)
	assert.Empty(t, email.Headers.FromDisplay)
}

func TestParse_MultipartAlternative(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: test",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"frontier\"",
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Urgent: verify your account at the caf=C3=A9 desk=",
		" today",
		"--frontier",
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: base64",
		"",
		"PGh0bWw+PGJvZHk+PHA+Q2xpY2sgPGEgaHJlZj0i",
		"aHR0cHM6Ly9iaXQubHkveCI+aGVyZTwvYT48",
		"L3A+PHNjcmlwdD52YXIgYT0xOzwvc2NyaXB0Pjxz",
		"dHlsZT5we308L3N0eWxlPjwvYm9keT48L2h0",
		"bWw+",
		"--frontier--",
		"",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	// Quoted-printable decoded, including the soft line break
	assert.Equal(t, "Urgent: verify your account at the café desk today", email.TextBody)

	// Base64 decoded despite line wrapping
	assert.Contains(t, email.HTMLBody, `<a href="https://bit.ly/x">here</a>`)

	// Rendered text keeps the link text, drops script and style content
	assert.Contains(t, email.HTMLAsText, "Click here")
	assert.NotContains(t, email.HTMLAsText, "var a=1;")
	assert.NotContains(t, email.HTMLAsText, "p{}")

	// The link was extracted from the HTML part
	require.Len(t, email.URLs, 1)
	assert.Equal(t, "bit.ly", email.URLs[0].Domain)
	assert.Contains(t, email.URLs[0].Context, "here")
}

func TestParse_NestedMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: test",
		"Content-Type: multipart/mixed; boundary=\"outer\"",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=\"inner\"",
		"",
		"--inner",
		"Content-Type: text/plain",
		"",
		"nested text",
		"--inner--",
		"--outer",
		"Content-Type: application/pdf",
		"",
		"binarybinarybinary",
		"--outer--",
		"",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "nested text", email.TextBody)
	// Non-text parts are ignored, not collected
	assert.NotContains(t, email.TextBody, "binary")
}

func TestParse_MultipartWithoutBoundary(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: test",
		"Content-Type: multipart/alternative",
		"",
		"orphaned content",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Empty(t, email.TextBody)
	assert.Contains(t, email.ParseWarnings, "multipart message without boundary")
}

func TestParse_RejectsOversizedMessage(t *testing.T) {
	raw := make([]byte, maxRawSize+1)
	_, err := newTestParser().Parse(raw)
	assert.Error(t, err)
}

func TestParse_RejectsNonMessage(t *testing.T) {
	_, err := newTestParser().Parse([]byte("not an email at all"))
	assert.Error(t, err)
}

func TestParse_CollapsesBlankLines(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: test",
		"",
		"first",
		"",
		"",
		"",
		"",
		"second   ",
		"",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "first\n\nsecond", email.TextBody)
}

func TestExtractURLs_NormalizationAndDedup(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: test",
		"",
		"First: https://Example.COM/login?utm_source=mail&id=7.",
		"Again: https://example.com/login?id=7",
		"Other: http://xn--80akhbyknj4f.example/path",
		"",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	require.Len(t, email.URLs, 2)

	// Host lowercased, tracking parameter and trailing punctuation
	// stripped; the second occurrence deduplicates against the first
	first := email.URLs[0]
	assert.Equal(t, "https://example.com/login?id=7", first.Normalized)
	assert.Equal(t, "example.com", first.Domain)
	assert.Equal(t, "/login", first.Path)
	assert.Contains(t, first.Context, "First:")

	// Punycode hosts are decoded to their unicode form
	assert.Equal(t, "испытание.example", email.URLs[1].Domain)
}

func TestExtractURLs_FromSubject(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: visit https://deals.example.xyz/now",
		"",
		"no links here",
	}, "\n")

	email, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)

	require.Len(t, email.URLs, 1)
	assert.Equal(t, "deals.example.xyz", email.URLs[0].Domain)
}

func TestCleanHeaderValue_StripsControlCharacters(t *testing.T) {
	assert.Equal(t, "safe value", cleanHeaderValue("safe\x00 va\x1blue"))
	assert.Equal(t, "", cleanHeaderValue(""))
}

func TestNormalizeURL_KeepsNonTrackingParams(t *testing.T) {
	got := normalizeURL("https://example.com/a?utm_campaign=x&token=abc&fbclid=y")
	assert.Equal(t, "https://example.com/a?token=abc", got)
}

func TestBase64Cleaner(t *testing.T) {
	r := newBase64Cleaner(strings.NewReader("aGVs\r\nbG8 =\t"))
	buf := make([]byte, 32)
	n, _ := r.Read(buf)
	assert.Equal(t, "aGVsbG8=", string(buf[:n]))
}

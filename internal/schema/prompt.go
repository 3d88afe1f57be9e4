package schema

import (
	"fmt"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

const promptHeader = `You are a phishing detection system. Analyze the following sanitized email and rate its phishing risk.
Respond with a JSON object containing:
- score: integer between 0 and 100 (higher means more likely phishing)
- label: "Safe" (score 0-30), "Suspicious" (score 31-69), or "Phishing" (score 70-100)
- evidence: array of {"id": UPPERCASE_SNAKE_CASE string, "description": string, "weight": integer 1-100}

The email has been sanitized: addresses, phone numbers, account numbers, and
names are replaced by placeholder tokens, and URLs are reduced to domain and
path pattern.`

const promptFooter = `Respond only with the JSON object and nothing else.`

// BuildPrompt renders a sanitized input as the analyzer prompt. Only
// fields of the sanitized representation appear in the output.
func BuildPrompt(input *core.SanitizedInput) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nEmail:\n")
	fmt.Fprintf(&b, "Sender domain: %s\n", input.SenderDomain)
	fmt.Fprintf(&b, "Recipient domain: %s\n", input.RecipientDomain)
	fmt.Fprintf(&b, "Subject: %s\n", input.Subject)
	fmt.Fprintf(&b, "Authentication: %s\n", input.AuthSummary)
	fmt.Fprintf(&b, "Greeting style: %s\n", input.Summary.Greeting)
	fmt.Fprintf(&b, "Urgency phrases: %d\n", input.Summary.UrgencyPhrases)
	fmt.Fprintf(&b, "Personalization: %.2f\n", input.Summary.Personalization)
	if len(input.URLs) > 0 {
		b.WriteString("URLs:\n")
		for _, u := range input.URLs {
			fmt.Fprintf(&b, "- %s%s\n", u.Domain, u.Path)
		}
	}
	b.WriteString("Body:\n")
	b.WriteString(input.Body)
	b.WriteString("\n\n")
	b.WriteString(promptFooter)
	return b.String()
}

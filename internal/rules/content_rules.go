package rules

import (
	"fmt"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

// UrgentLanguageRule detects pressure language in the subject or body
type UrgentLanguageRule struct {
	weight int
}

// NewUrgentLanguageRule creates a new urgent language rule
func NewUrgentLanguageRule(weight int) *UrgentLanguageRule {
	return &UrgentLanguageRule{weight: weight}
}

func (r *UrgentLanguageRule) ID() string { return RuleUrgentLanguage }

func (r *UrgentLanguageRule) Description() string {
	return "Contains urgent or pressure language"
}

func (r *UrgentLanguageRule) Weight() int { return r.weight }

// Check matches the curated urgency phrase list
func (r *UrgentLanguageRule) Check(email *core.ParsedEmail) (string, bool) {
	text := combinedText(email)

	var matches []string
	for _, pattern := range urgentPatterns {
		matches = append(matches, pattern.FindAllString(text, -1)...)
	}
	if len(matches) == 0 {
		return "", false
	}
	unique := uniqueStrings(matches)
	return "Urgent language detected: " + strings.Join(limitList(unique, 5), ", "), true
}

// GenericGreetingRule detects impersonal salutations lacking a name
type GenericGreetingRule struct {
	weight int
}

// NewGenericGreetingRule creates a new generic greeting rule
func NewGenericGreetingRule(weight int) *GenericGreetingRule {
	return &GenericGreetingRule{weight: weight}
}

func (r *GenericGreetingRule) ID() string { return RuleGenericGreeting }

func (r *GenericGreetingRule) Description() string {
	return "Uses generic greetings without personalization"
}

func (r *GenericGreetingRule) Weight() int { return r.weight }

// Check matches the generic greeting pattern list against the body
func (r *GenericGreetingRule) Check(email *core.ParsedEmail) (string, bool) {
	text := email.TextBody + " " + email.HTMLAsText

	var matches []string
	for _, pattern := range genericGreetings {
		matches = append(matches, pattern.FindAllString(text, -1)...)
	}
	if len(matches) == 0 {
		return "", false
	}
	unique := uniqueStrings(matches)
	return "Generic greetings: " + strings.Join(limitList(unique, 3), ", "), true
}

// AttachmentKeywordsRule detects attachment and payment lures that
// co-occur with at least one link
type AttachmentKeywordsRule struct {
	weight int
}

// NewAttachmentKeywordsRule creates a new attachment keywords rule
func NewAttachmentKeywordsRule(weight int) *AttachmentKeywordsRule {
	return &AttachmentKeywordsRule{weight: weight}
}

func (r *AttachmentKeywordsRule) ID() string { return RuleAttachmentKeywords }

func (r *AttachmentKeywordsRule) Description() string {
	return "Mentions attachments or payments with links present"
}

func (r *AttachmentKeywordsRule) Weight() int { return r.weight }

// Check requires a keyword match and at least one URL in the same email
func (r *AttachmentKeywordsRule) Check(email *core.ParsedEmail) (string, bool) {
	if len(email.URLs) == 0 {
		return "", false
	}
	text := strings.ToLower(combinedText(email))

	var found []string
	for _, keyword := range attachmentKeywords {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	return fmt.Sprintf("Keywords '%s' with %d URLs present",
		strings.Join(limitList(found, 3), ", "), len(email.URLs)), true
}

// Package schema validates external AI analyzer responses against the
// strict contract. Non-conforming responses are rejected, never coerced.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

const (
	maxEvidenceItems  = 20
	maxEvidenceID     = 50
	maxEvidenceDetail = 500
)

// Score bands the external analyzer must label consistently
const (
	safeScoreMax     = 30
	phishingScoreMin = 70
)

var evidenceIDPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// Response is the wire shape of an AI analyzer reply
type Response struct {
	Score    int             `json:"score"`
	Label    string          `json:"label"`
	Evidence []core.Evidence `json:"evidence"`
}

// Parse extracts and validates a Response from raw analyzer output.
// Model output sometimes wraps the JSON object in prose, so parsing falls
// back to the outermost brace pair before giving up.
func Parse(raw string) (*Response, error) {
	data := []byte(raw)

	resp, err := decodeStrict(data)
	if err != nil {
		start := bytes.IndexByte(data, '{')
		end := bytes.LastIndexByte(data, '}')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in response: %w", err)
		}
		resp, err = decodeStrict(data[start : end+1])
		if err != nil {
			return nil, fmt.Errorf("invalid JSON response: %w", err)
		}
	}

	if err := Validate(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// decodeStrict unmarshals a response, rejecting unknown fields
func decodeStrict(data []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate checks a decoded response against the schema: score range,
// label enum, score/label consistency, and evidence constraints
func Validate(resp *Response) error {
	if resp.Score < 0 || resp.Score > 100 {
		return fmt.Errorf("score %d outside range 0-100", resp.Score)
	}

	label := core.Label(resp.Label)
	switch label {
	case core.LabelSafe, core.LabelSuspicious, core.LabelPhishing:
	default:
		return fmt.Errorf("unknown label %q", resp.Label)
	}

	switch {
	case resp.Score >= phishingScoreMin && label != core.LabelPhishing:
		return fmt.Errorf("score %d requires label %s, got %s", resp.Score, core.LabelPhishing, label)
	case resp.Score <= safeScoreMax && label != core.LabelSafe:
		return fmt.Errorf("score %d requires label %s, got %s", resp.Score, core.LabelSafe, label)
	case resp.Score > safeScoreMax && resp.Score < phishingScoreMin && label != core.LabelSuspicious:
		return fmt.Errorf("score %d requires label %s, got %s", resp.Score, core.LabelSuspicious, label)
	}

	if len(resp.Evidence) > maxEvidenceItems {
		return fmt.Errorf("evidence list too long: %d items", len(resp.Evidence))
	}
	for i, ev := range resp.Evidence {
		if ev.ID == "" || len(ev.ID) > maxEvidenceID || !evidenceIDPattern.MatchString(ev.ID) {
			return fmt.Errorf("evidence[%d]: invalid id %q", i, ev.ID)
		}
		if trimmed := strings.TrimSpace(ev.Description); trimmed == "" || len(ev.Description) > maxEvidenceDetail {
			return fmt.Errorf("evidence[%d]: invalid description", i)
		}
		if ev.Weight < 1 || ev.Weight > 100 {
			return fmt.Errorf("evidence[%d]: weight %d outside range 1-100", i, ev.Weight)
		}
	}
	return nil
}

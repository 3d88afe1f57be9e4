package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTrusted(t *testing.T) {
	checker := NewChecker([]string{"Partner.Example", "  corp.example  ", ""}, zap.NewNop())

	tests := []struct {
		name    string
		from    string
		trusted bool
	}{
		{"exact match", "billing@partner.example", true},
		{"case insensitive", "billing@PARTNER.EXAMPLE", true},
		{"second domain", "it@corp.example", true},
		{"unknown domain", "billing@other.example", false},
		{"subdomain is not trusted", "billing@mail.partner.example", false},
		{"lookalike suffix", "billing@evilpartner.example", false},
		{"no at sign", "partner.example", false},
		{"two at signs", "a@b@partner.example", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.trusted, checker.IsTrusted(tt.from))
		})
	}
}

func TestIsTrusted_EmptyList(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsTrusted("anyone@anywhere.example"))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "openai", cfg.GetString("ai.provider"))
	assert.Equal(t, 15, cfg.GetInt("rules.weights.header_mismatch"))
	assert.Equal(t, 20, cfg.GetInt("rules.weights.auth_failure"))
	assert.Equal(t, 20, cfg.GetInt("rules.safe_max"))
	assert.Equal(t, 50, cfg.GetInt("rules.suspicious_max"))
	assert.Equal(t, 5.0, cfg.GetFloat64("limits.daily_cost_limit"))
	assert.Equal(t, "memory", cfg.GetString("store.type"))
	assert.Empty(t, cfg.GetStringSlice("trusted.domains"))
}

func TestDefaultRuleWeightsSumToMaxScore(t *testing.T) {
	cfg := defaultConfig()

	weights := []string{
		"header_mismatch", "replyto_mismatch", "auth_failure",
		"urgent_language", "url_shortener", "suspicious_tld",
		"unicode_spoof", "generic_greeting", "attachment_keywords",
	}
	total := 0
	for _, name := range weights {
		total += cfg.GetInt("rules.weights." + name)
	}
	assert.Equal(t, 95, total)
}

func TestGetDuration(t *testing.T) {
	cfg := defaultConfig()

	timeout, err := cfg.GetDuration("ai.timeout")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	cfg.GetViper().Set("ai.timeout", "not a duration")
	_, err = cfg.GetDuration("ai.timeout")
	assert.Error(t, err)
}

func TestGetAIConfig(t *testing.T) {
	cfg := defaultConfig()

	ai, err := cfg.GetAIConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", ai.Provider)
	assert.Equal(t, 2, ai.MaxRetries)
	assert.Equal(t, 0.002, ai.EstimatedCostPerCall)
}

func TestGetLimitsConfig(t *testing.T) {
	cfg := defaultConfig()

	limits, err := cfg.GetLimitsConfig()
	require.NoError(t, err)
	assert.Equal(t, 5.0, limits.DailyCostLimit)
	assert.Equal(t, time.Hour, limits.RateWindow)
	assert.Equal(t, 50, limits.RateMaxRequests)
}

func TestGetCacheConfig(t *testing.T) {
	cfg := defaultConfig()

	cache, err := cfg.GetCacheConfig()
	require.NoError(t, err)
	assert.True(t, cache.Enabled)
	assert.Equal(t, 24*time.Hour, cache.TTL)
	assert.Equal(t, time.Hour, cache.CleanupInterval)
}

func TestGetServerConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.GetViper().Set("server.block_phishing", true)
	cfg.GetViper().Set("server.relay.enabled", true)

	server := cfg.GetServerConfig()
	assert.Equal(t, "smtp", server.FilterType)
	assert.Equal(t, "0.0.0.0:10025", server.ListenAddress)
	assert.True(t, server.BlockPhishing)
	assert.Equal(t, "X-Phishing-Score", server.ScoreHeader)
	assert.True(t, server.RelayEnabled)
	assert.Equal(t, 10026, server.RelayPort)
}

func TestSetOverridesDefault(t *testing.T) {
	cfg := defaultConfig()
	cfg.GetViper().Set("routing.skip_below", 25)

	routing := cfg.GetRoutingConfig()
	assert.Equal(t, 25, routing.SkipBelow)
	assert.Equal(t, 80, routing.SkipAbove)
}

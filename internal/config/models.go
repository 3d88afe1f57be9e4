package config

import (
	"time"
)

// AIConfig holds provider-independent AI analysis settings.
type AIConfig struct {
	Provider             string
	Timeout              time.Duration
	MaxRetries           int
	EstimatedCostPerCall float64
	CostPer1KInput       float64
	CostPer1KOutput      float64
}

// OpenAIConfig holds the OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// BedrockConfig holds the AWS Bedrock-specific settings.
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// GeminiConfig holds the Google Gemini-specific settings.
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// LimitsConfig holds the cost budget and rate limiter settings.
type LimitsConfig struct {
	DailyCostLimit  float64
	RateWindow      time.Duration
	RateMaxRequests int
}

// CacheConfig holds the verdict cache settings.
type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// RoutingConfig holds the AI routing thresholds.
type RoutingConfig struct {
	SkipBelow int
	SkipAbove int
}

// SanitizeConfig holds the sanitizer output caps.
type SanitizeConfig struct {
	MaxSubjectLength int
	MaxBodyLength    int
	MaxURLs          int
}

// ServerConfig holds the SMTP filter server settings.
type ServerConfig struct {
	FilterType    string
	ListenAddress string
	BlockPhishing bool
	ScoreHeader   string
	LabelHeader   string
	AIScoreHeader string
	AISkipHeader  string
	RelayEnabled  bool
	RelayAddress  string
	RelayPort     int
}

// GetAIConfig returns the provider-independent AI settings.
func (c *Config) GetAIConfig() (AIConfig, error) {
	timeout, err := c.GetDuration("ai.timeout")
	if err != nil {
		return AIConfig{}, err
	}
	return AIConfig{
		Provider:             c.GetString("ai.provider"),
		Timeout:              timeout,
		MaxRetries:           c.GetInt("ai.max_retries"),
		EstimatedCostPerCall: c.GetFloat64("ai.estimated_cost_per_call"),
		CostPer1KInput:       c.GetFloat64("ai.cost_per_1k_input_tokens"),
		CostPer1KOutput:      c.GetFloat64("ai.cost_per_1k_output_tokens"),
	}, nil
}

// GetOpenAIConfig returns the OpenAI settings.
func (c *Config) GetOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: c.GetFloat64("openai.temperature"),
		TopP:        c.GetFloat64("openai.top_p"),
	}
}

// GetBedrockConfig returns the Bedrock settings.
func (c *Config) GetBedrockConfig() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: c.GetFloat64("bedrock.temperature"),
		TopP:        c.GetFloat64("bedrock.top_p"),
	}
}

// GetGeminiConfig returns the Gemini settings.
func (c *Config) GetGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: c.GetFloat64("gemini.temperature"),
		TopP:        c.GetFloat64("gemini.top_p"),
	}
}

// GetLimitsConfig returns the budget and rate limiter settings.
func (c *Config) GetLimitsConfig() (LimitsConfig, error) {
	window, err := c.GetDuration("limits.rate_window")
	if err != nil {
		return LimitsConfig{}, err
	}
	return LimitsConfig{
		DailyCostLimit:  c.GetFloat64("limits.daily_cost_limit"),
		RateWindow:      window,
		RateMaxRequests: c.GetInt("limits.rate_max_requests"),
	}, nil
}

// GetCacheConfig returns the verdict cache settings.
func (c *Config) GetCacheConfig() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_interval")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:         c.GetBool("cache.enabled"),
		TTL:             ttl,
		CleanupInterval: cleanup,
	}, nil
}

// GetRoutingConfig returns the AI routing thresholds.
func (c *Config) GetRoutingConfig() RoutingConfig {
	return RoutingConfig{
		SkipBelow: c.GetInt("routing.skip_below"),
		SkipAbove: c.GetInt("routing.skip_above"),
	}
}

// GetSanitizeConfig returns the sanitizer output caps.
func (c *Config) GetSanitizeConfig() SanitizeConfig {
	return SanitizeConfig{
		MaxSubjectLength: c.GetInt("sanitize.max_subject_length"),
		MaxBodyLength:    c.GetInt("sanitize.max_body_length"),
		MaxURLs:          c.GetInt("sanitize.max_urls"),
	}
}

// GetServerConfig returns the SMTP filter server settings.
func (c *Config) GetServerConfig() ServerConfig {
	return ServerConfig{
		FilterType:    c.GetString("server.filter_type"),
		ListenAddress: c.GetString("server.listen_address"),
		BlockPhishing: c.GetBool("server.block_phishing"),
		ScoreHeader:   c.GetString("server.headers.score"),
		LabelHeader:   c.GetString("server.headers.label"),
		AIScoreHeader: c.GetString("server.headers.ai_score"),
		AISkipHeader:  c.GetString("server.headers.ai_skip"),
		RelayEnabled:  c.GetBool("server.relay.enabled"),
		RelayAddress:  c.GetString("server.relay.address"),
		RelayPort:     c.GetInt("server.relay.port"),
	}
}

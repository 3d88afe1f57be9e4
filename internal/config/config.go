package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishing-detector/")
	v.AddConfigPath("$HOME/.phishing-detector")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHING_DETECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI provider defaults
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.timeout", "10s")
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.estimated_cost_per_call", 0.002)
	v.SetDefault("ai.cost_per_1k_input_tokens", 0.00015)
	v.SetDefault("ai.cost_per_1k_output_tokens", 0.0006)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// Rule weights
	v.SetDefault("rules.weights.header_mismatch", 15)
	v.SetDefault("rules.weights.replyto_mismatch", 10)
	v.SetDefault("rules.weights.auth_failure", 20)
	v.SetDefault("rules.weights.urgent_language", 10)
	v.SetDefault("rules.weights.url_shortener", 10)
	v.SetDefault("rules.weights.suspicious_tld", 10)
	v.SetDefault("rules.weights.unicode_spoof", 10)
	v.SetDefault("rules.weights.generic_greeting", 5)
	v.SetDefault("rules.weights.attachment_keywords", 5)

	// Label thresholds
	v.SetDefault("rules.safe_max", 20)
	v.SetDefault("rules.suspicious_max", 50)

	// Routing
	v.SetDefault("routing.skip_below", 10)
	v.SetDefault("routing.skip_above", 80)

	// Budget and rate limits
	v.SetDefault("limits.daily_cost_limit", 5.0)
	v.SetDefault("limits.rate_window", "1h")
	v.SetDefault("limits.rate_max_requests", 50)

	// Sanitizer output caps
	v.SetDefault("sanitize.max_subject_length", 200)
	v.SetDefault("sanitize.max_body_length", 2000)
	v.SetDefault("sanitize.max_urls", 10)

	// Trusted sender domains (AI call skipped, rules still run)
	v.SetDefault("trusted.domains", []string{})

	// Server defaults
	v.SetDefault("server.filter_type", "smtp")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.block_phishing", false)
	v.SetDefault("server.headers.score", "X-Phishing-Score")
	v.SetDefault("server.headers.label", "X-Phishing-Label")
	v.SetDefault("server.headers.ai_score", "X-Phishing-AI-Score")
	v.SetDefault("server.headers.ai_skip", "X-Phishing-AI-Skip")
	v.SetDefault("server.metrics_address", "0.0.0.0:9090")
	v.SetDefault("server.relay.enabled", false)
	v.SetDefault("server.relay.address", "127.0.0.1")
	v.SetDefault("server.relay.port", 10026)

	// Verdict cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "1h")

	// Result store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/phishing_analyses.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/phishing_detector?parseTime=true")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

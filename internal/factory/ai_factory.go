package factory

import (
	"fmt"

	"github.com/mikey/phishing-detector/internal/adapters/bedrock"
	"github.com/mikey/phishing-detector/internal/adapters/gemini"
	"github.com/mikey/phishing-detector/internal/adapters/openai"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

// AIFactory creates AI analyzer clients
type AIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAIFactory creates a new AI factory
func NewAIFactory(cfg *config.Config, logger *zap.Logger) *AIFactory {
	return &AIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates an AI analyzer based on the configured provider
func (f *AIFactory) CreateAnalyzer() (core.AIAnalyzer, error) {
	provider := f.cfg.GetString("ai.provider")

	switch provider {
	case "openai":
		if f.cfg.GetString("openai.api_key") == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		return openai.NewFactory(f.cfg, f.logger).CreateAnalyzer()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateAnalyzer()
	case "gemini":
		if f.cfg.GetString("gemini.api_key") == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		return gemini.NewFactory(f.cfg, f.logger).CreateAnalyzer()
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", provider)
	}
}

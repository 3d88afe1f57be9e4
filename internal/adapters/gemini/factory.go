package gemini

import (
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a new GeminiClient
func (f *Factory) CreateAnalyzer() (core.AIAnalyzer, error) {
	aiCfg, err := f.cfg.GetAIConfig()
	if err != nil {
		return nil, err
	}
	geminiCfg := f.cfg.GetGeminiConfig()

	return NewGeminiClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		float32(geminiCfg.Temperature),
		float32(geminiCfg.TopP),
		aiCfg.Timeout,
		aiCfg.MaxRetries,
		aiCfg.CostPer1KInput,
		aiCfg.CostPer1KOutput,
		f.logger,
	)
}

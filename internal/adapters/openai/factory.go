package openai

import (
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a new OpenAIClient
func (f *Factory) CreateAnalyzer() (core.AIAnalyzer, error) {
	aiCfg, err := f.cfg.GetAIConfig()
	if err != nil {
		return nil, err
	}
	openaiCfg := f.cfg.GetOpenAIConfig()

	client := openai.NewClient(openaiCfg.APIKey)

	return NewOpenAIClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		float32(openaiCfg.Temperature),
		float32(openaiCfg.TopP),
		aiCfg.Timeout,
		aiCfg.MaxRetries,
		aiCfg.CostPer1KInput,
		aiCfg.CostPer1KOutput,
		f.logger,
	), nil
}

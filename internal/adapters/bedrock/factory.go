package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"go.uber.org/zap"
)

// Factory creates Bedrock analyzer clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a new BedrockClient
func (f *Factory) CreateAnalyzer() (core.AIAnalyzer, error) {
	aiCfg, err := f.cfg.GetAIConfig()
	if err != nil {
		return nil, err
	}
	bedrockCfg := f.cfg.GetBedrockConfig()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)

	return NewBedrockClient(
		client,
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		float32(bedrockCfg.Temperature),
		float32(bedrockCfg.TopP),
		aiCfg.Timeout,
		aiCfg.MaxRetries,
		aiCfg.CostPer1KInput,
		aiCfg.CostPer1KOutput,
		f.logger,
	), nil
}

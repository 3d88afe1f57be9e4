package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/schema"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the AIAnalyzer interface using
// Google Gemini
type GeminiClient struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	modelName  string
	timeout    time.Duration
	maxRetries int
	retryPause time.Duration
	costIn     float64
	costOut    float64
	logger     *zap.Logger
}

// NewGeminiClient creates a new Gemini analyzer client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	timeout time.Duration,
	maxRetries int,
	costPer1KInput float64,
	costPer1KOutput float64,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:     client,
		model:      model,
		modelName:  modelName,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryPause: time.Second,
		costIn:     costPer1KInput,
		costOut:    costPer1KOutput,
		logger:     logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Analyze sends the sanitized email to Gemini and validates the response.
// All failures are reported in the result; it never returns an error.
func (c *GeminiClient) Analyze(ctx context.Context, input *core.SanitizedInput) *core.AIAnalysis {
	start := time.Now()
	prompt := schema.BuildPrompt(input)

	var lastReason string
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return c.failure(start, lastReason)
			case <-time.After(c.retryPause):
			}
		}

		analysis, reason := c.analyzeOnce(ctx, prompt)
		if analysis != nil {
			analysis.Duration = time.Since(start)
			return analysis
		}
		lastReason = reason
		c.logger.Warn("Gemini analysis attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("reason", reason))
		if ctx.Err() != nil {
			break
		}
	}

	return c.failure(start, lastReason)
}

// analyzeOnce performs a single API call and schema validation
func (c *GeminiClient) analyzeOnce(ctx context.Context, prompt string) (*core.AIAnalysis, string) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Sprintf("request failed: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, "empty response"
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := schema.Parse(responseText)
	if err != nil {
		return nil, fmt.Sprintf("invalid response: %v", err)
	}

	var tokens int
	var cost float64
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
		cost = float64(resp.UsageMetadata.PromptTokenCount)/1000*c.costIn +
			float64(resp.UsageMetadata.CandidatesTokenCount)/1000*c.costOut
	}

	return &core.AIAnalysis{
		Score:        parsed.Score,
		Label:        core.Label(parsed.Label),
		Evidence:     parsed.Evidence,
		TokensUsed:   tokens,
		CostEstimate: cost,
		Success:      true,
		Model:        c.modelName,
	}, ""
}

func (c *GeminiClient) failure(start time.Time, reason string) *core.AIAnalysis {
	if reason == "" {
		reason = "request cancelled"
	}
	return &core.AIAnalysis{
		Success:     false,
		ErrorReason: reason,
		Duration:    time.Since(start),
		Model:       c.modelName,
	}
}

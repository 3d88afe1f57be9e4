package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/schema"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the AIAnalyzer interface using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	timeout     time.Duration
	maxRetries  int
	retryPause  time.Duration
	costIn      float64
	costOut     float64
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI analyzer client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	timeout time.Duration,
	maxRetries int,
	costPer1KInput float64,
	costPer1KOutput float64,
	logger *zap.Logger,
) *OpenAIClient {
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		timeout:     timeout,
		maxRetries:  maxRetries,
		retryPause:  time.Second,
		costIn:      costPer1KInput,
		costOut:     costPer1KOutput,
		logger:      logger,
	}
}

// Analyze sends the sanitized email to OpenAI and validates the response.
// All failures are reported in the result; it never returns an error.
func (c *OpenAIClient) Analyze(ctx context.Context, input *core.SanitizedInput) *core.AIAnalysis {
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
		c.logger.Warn("OpenAI analysis attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("reason", reason))
		if ctx.Err() != nil {
			break
		}
	}

	return c.failure(start, lastReason)
}

// analyzeOnce performs a single API call and schema validation
func (c *OpenAIClient) analyzeOnce(ctx context.Context, prompt string) (*core.AIAnalysis, string) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return nil, fmt.Sprintf("request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, "empty response"
	}

	parsed, err := schema.Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Sprintf("invalid response: %v", err)
	}

	tokens := resp.Usage.TotalTokens
	cost := float64(resp.Usage.PromptTokens)/1000*c.costIn +
		float64(resp.Usage.CompletionTokens)/1000*c.costOut

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

func (c *OpenAIClient) failure(start time.Time, reason string) *core.AIAnalysis {
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

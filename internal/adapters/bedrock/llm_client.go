package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/schema"
	"go.uber.org/zap"
)

// BedrockClient is an implementation of the AIAnalyzer interface using
// Amazon Bedrock
type BedrockClient struct {
	client      *bedrockruntime.Client
	modelID     string
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

// NewBedrockClient creates a new Bedrock analyzer client
func NewBedrockClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	timeout time.Duration,
	maxRetries int,
	costPer1KInput float64,
	costPer1KOutput float64,
	logger *zap.Logger,
) *BedrockClient {
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
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

// Analyze sends the sanitized email to Bedrock and validates the response.
// All failures are reported in the result; it never returns an error.
func (c *BedrockClient) Analyze(ctx context.Context, input *core.SanitizedInput) *core.AIAnalysis {
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
		c.logger.Warn("Bedrock analysis attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("reason", reason))
		if ctx.Err() != nil {
			break
		}
	}

	return c.failure(start, lastReason)
}

// analyzeOnce performs a single API call and schema validation
func (c *BedrockClient) analyzeOnce(ctx context.Context, prompt string) (*core.AIAnalysis, string) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.buildPayload(prompt)
	if err != nil {
		return nil, fmt.Sprintf("failed to marshal request payload: %v", err)
	}

	resp, err := c.client.InvokeModel(callCtx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Sprintf("request failed: %v", err)
	}

	responseText, err := c.extractText(resp.Body)
	if err != nil {
		return nil, fmt.Sprintf("unexpected response shape: %v", err)
	}

	parsed, err := schema.Parse(responseText)
	if err != nil {
		return nil, fmt.Sprintf("invalid response: %v", err)
	}

	// Bedrock's InvokeModel response carries no token usage, so tokens
	// are estimated from text length at roughly four bytes per token.
	inputTokens := len(prompt) / 4
	outputTokens := len(responseText) / 4
	cost := float64(inputTokens)/1000*c.costIn + float64(outputTokens)/1000*c.costOut

	return &core.AIAnalysis{
		Score:        parsed.Score,
		Label:        core.Label(parsed.Label),
		Evidence:     parsed.Evidence,
		TokensUsed:   inputTokens + outputTokens,
		CostEstimate: cost,
		Success:      true,
		Model:        c.modelID,
	}, ""
}

// buildPayload creates the model-family-specific request body
func (c *BedrockClient) buildPayload(prompt string) ([]byte, error) {
	if c.isAnthropicModel() {
		return json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	}
	if c.isAmazonTitanModel() {
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	}
	return json.Marshal(map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"top_p":       c.topP,
	})
}

// extractText pulls the generated text out of the model-family-specific
// response body
func (c *BedrockClient) extractText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}
	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(body), nil
}

func (c *BedrockClient) failure(start time.Time, reason string) *core.AIAnalysis {
	if reason == "" {
		reason = "request cancelled"
	}
	return &core.AIAnalysis{
		Success:     false,
		ErrorReason: reason,
		Duration:    time.Since(start),
		Model:       c.modelID,
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

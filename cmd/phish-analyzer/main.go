package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/phishing-detector/internal/adapters/filter"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/factory"
	"github.com/mikey/phishing-detector/internal/limits"
	"github.com/mikey/phishing-detector/internal/logging"
	"github.com/mikey/phishing-detector/internal/parser"
	"github.com/mikey/phishing-detector/internal/rules"
	"github.com/mikey/phishing-detector/internal/sanitize"
	"github.com/mikey/phishing-detector/internal/whitelist"
	"go.uber.org/zap"
)

var (
	// AI provider flags
	provider    = flag.String("provider", "openai", "AI provider (openai, bedrock, gemini)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for AI response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for AI generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for AI generation")
	noAI        = flag.Bool("no-ai", false, "Run rule analysis only, skip the AI call")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Detection flags
	trustedDomains = flag.String("trusted", "", "Comma-separated list of trusted sender domains")
	skipBelow      = flag.Int("skip-below", 10, "Skip AI when the rule score is at or below this value")
	skipAbove      = flag.Int("skip-above", 80, "Skip AI when the rule score is at or above this value")
	dailyLimit     = flag.Float64("daily-limit", 5.0, "Daily AI cost limit in dollars")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonOut    = flag.Bool("json", false, "Print the analysis result as JSON")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	raw, err := readEmail(logger)
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	service, err := buildService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build analysis pipeline", zap.Error(err))
	}

	emailParser := parser.New(logger)
	cliFilter, err := filter.NewCliFilter(service, emailParser, logger, *verbose, *jsonOut)
	if err != nil {
		logger.Fatal("Failed to create CLI filter", zap.Error(err))
	}

	if _, err := cliFilter.ProcessEmail(context.Background(), "cli", raw); err != nil {
		os.Exit(1)
	}
}

// readEmail reads the raw message from the input file or stdin
func readEmail(logger *zap.Logger) ([]byte, error) {
	if *inputFile != "" {
		logger.Info("Reading email from file", zap.String("file", *inputFile))
		return os.ReadFile(*inputFile)
	}
	logger.Info("Reading email from stdin")
	return io.ReadAll(os.Stdin)
}

// buildService assembles the analysis pipeline without the DI container;
// a one-shot CLI run has no daemon lifecycle to manage
func buildService(cfg *config.Config, logger *zap.Logger) (*core.AnalysisService, error) {
	weights := rules.Weights{
		HeaderMismatch:     cfg.GetInt("rules.weights.header_mismatch"),
		ReplyToMismatch:    cfg.GetInt("rules.weights.replyto_mismatch"),
		AuthFailure:        cfg.GetInt("rules.weights.auth_failure"),
		UrgentLanguage:     cfg.GetInt("rules.weights.urgent_language"),
		URLShortener:       cfg.GetInt("rules.weights.url_shortener"),
		SuspiciousTLD:      cfg.GetInt("rules.weights.suspicious_tld"),
		UnicodeSpoof:       cfg.GetInt("rules.weights.unicode_spoof"),
		GenericGreeting:    cfg.GetInt("rules.weights.generic_greeting"),
		AttachmentKeywords: cfg.GetInt("rules.weights.attachment_keywords"),
	}
	thresholds := rules.Thresholds{
		SafeMax:       cfg.GetInt("rules.safe_max"),
		SuspiciousMax: cfg.GetInt("rules.suspicious_max"),
	}
	engine := rules.NewEngine(weights, thresholds, logger)

	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	sanitizeCfg := cfg.GetSanitizeConfig()
	sanitizer := sanitize.NewSanitizer(sanitize.Config{
		MaxSubjectLength: sanitizeCfg.MaxSubjectLength,
		MaxBodyLength:    sanitizeCfg.MaxBodyLength,
		MaxURLs:          sanitizeCfg.MaxURLs,
	}, textProcessor, logger)

	aiCfg, err := cfg.GetAIConfig()
	if err != nil {
		return nil, err
	}

	var aiClient core.AIAnalyzer
	if !*noAI {
		aiClient, err = factory.NewAIFactory(cfg, logger).CreateAnalyzer()
		if err != nil {
			return nil, err
		}
	}

	limitsCfg, err := cfg.GetLimitsConfig()
	if err != nil {
		return nil, err
	}
	budget := limits.NewCostBudget(limitsCfg.DailyCostLimit)
	limiter := limits.NewRateLimiter(limitsCfg.RateWindow, limitsCfg.RateMaxRequests)

	trusted := whitelist.NewChecker(cfg.GetStringSlice("trusted.domains"), logger)

	routingCfg := cfg.GetRoutingConfig()
	routing := core.RoutingConfig{
		SkipBelow:            routingCfg.SkipBelow,
		SkipAbove:            routingCfg.SkipAbove,
		EstimatedCostPerCall: aiCfg.EstimatedCostPerCall,
	}
	if *noAI {
		// Force the score-extreme skip for every message
		routing.SkipBelow = 100
	}

	// One-shot run: no store, no verdict cache, no metrics
	return core.NewAnalysisService(
		engine, sanitizer, aiClient, budget, limiter,
		nil, nil, trusted, routing, nil, logger,
	), nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("ai.provider", *provider)

	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	}

	v.Set("routing.skip_below", *skipBelow)
	v.Set("routing.skip_above", *skipAbove)
	v.Set("limits.daily_cost_limit", *dailyLimit)

	if *trustedDomains != "" {
		domains := strings.Split(*trustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("trusted.domains", domains)
	} else {
		v.Set("trusted.domains", []string{})
	}

	return config.NewFromViper(v)
}

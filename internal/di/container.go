package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/adapters/cache"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/factory"
	"github.com/mikey/phishing-detector/internal/limits"
	"github.com/mikey/phishing-detector/internal/logging"
	"github.com/mikey/phishing-detector/internal/metrics"
	"github.com/mikey/phishing-detector/internal/parser"
	"github.com/mikey/phishing-detector/internal/ports"
	"github.com/mikey/phishing-detector/internal/rules"
	"github.com/mikey/phishing-detector/internal/sanitize"
	"github.com/mikey/phishing-detector/internal/utils"
	"github.com/mikey/phishing-detector/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewAIFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register email parser
	if err := container.Provide(parser.New); err != nil {
		return nil, err
	}

	// Register rule engine
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.RuleAnalyzer {
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
		return rules.NewEngine(weights, thresholds, logger)
	}); err != nil {
		return nil, err
	}

	// Register sanitizer
	if err := container.Provide(func(cfg *config.Config, tp *utils.TextProcessor, logger *zap.Logger) core.Sanitizer {
		sanitizeCfg := cfg.GetSanitizeConfig()
		return sanitize.NewSanitizer(sanitize.Config{
			MaxSubjectLength: sanitizeCfg.MaxSubjectLength,
			MaxBodyLength:    sanitizeCfg.MaxBodyLength,
			MaxURLs:          sanitizeCfg.MaxURLs,
		}, tp, logger)
	}); err != nil {
		return nil, err
	}

	// Register shared cost budget and rate limiter
	if err := container.Provide(func(cfg *config.Config) (*limits.CostBudget, *limits.RateLimiter, error) {
		limitsCfg, err := cfg.GetLimitsConfig()
		if err != nil {
			return nil, nil, err
		}
		budget := limits.NewCostBudget(limitsCfg.DailyCostLimit)
		limiter := limits.NewRateLimiter(limitsCfg.RateWindow, limitsCfg.RateMaxRequests)
		return budget, limiter, nil
	}); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.VerdictCache, error) {
		cacheCfg, err := cfg.GetCacheConfig()
		if err != nil {
			return nil, err
		}
		var verdicts core.VerdictCache
		if cacheCfg.Enabled {
			verdicts = cache.NewMemoryCache(cacheCfg.TTL, cacheCfg.CleanupInterval, logger)
		}
		return verdicts, nil
	}); err != nil {
		return nil, err
	}

	// Register trusted domain checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetStringSlice("trusted.domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.New); err != nil {
		return nil, err
	}

	// Register AI analyzer
	if err := container.Provide(func(f *factory.AIFactory) (core.AIAnalyzer, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return nil, err
	}

	// Register result store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ResultStore, error) {
		return f.CreateResultStore()
	}); err != nil {
		return nil, err
	}

	// Register routing config
	if err := container.Provide(func(cfg *config.Config) (core.RoutingConfig, error) {
		aiCfg, err := cfg.GetAIConfig()
		if err != nil {
			return core.RoutingConfig{}, err
		}
		routingCfg := cfg.GetRoutingConfig()
		return core.RoutingConfig{
			SkipBelow:            routingCfg.SkipBelow,
			SkipAbove:            routingCfg.SkipAbove,
			EstimatedCostPerCall: aiCfg.EstimatedCostPerCall,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

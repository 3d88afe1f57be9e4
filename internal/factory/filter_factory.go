package factory

import (
	"fmt"

	"github.com/mikey/phishing-detector/internal/adapters/filter"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/parser"
	"github.com/mikey/phishing-detector/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
	parser  *parser.Parser
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService, emailParser *parser.Parser) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		parser:  emailParser,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	serverCfg := f.cfg.GetServerConfig()

	switch serverCfg.FilterType {
	case "smtp":
		return filter.NewSMTPFilter(
			f.service,
			f.parser,
			f.logger,
			serverCfg.ListenAddress,
			serverCfg.BlockPhishing,
			serverCfg.ScoreHeader,
			serverCfg.LabelHeader,
			serverCfg.AIScoreHeader,
			serverCfg.AISkipHeader,
			serverCfg.RelayAddress,
			serverCfg.RelayPort,
			serverCfg.RelayEnabled,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.parser,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}

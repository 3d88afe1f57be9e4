package ports

import (
	"context"

	"github.com/mikey/phishing-detector/internal/core"
)

// EmailFilter defines the interface for email filtering entrypoints
type EmailFilter interface {
	// ProcessEmail analyzes a raw email on behalf of a client and returns
	// the combined pipeline result
	ProcessEmail(ctx context.Context, clientID string, raw []byte) (*core.AnalysisResponse, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}

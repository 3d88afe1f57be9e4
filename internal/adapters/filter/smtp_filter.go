package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/parser"
	"go.uber.org/zap"
)

// SMTPFilter implements a Postfix-style SMTP content filter that scores
// incoming mail and re-injects it with analysis headers
type SMTPFilter struct {
	service       *core.AnalysisService
	parser        *parser.Parser
	logger        *zap.Logger
	listenAddr    string
	server        *smtp.Server
	blockPhishing bool
	scoreHeader   string
	labelHeader   string
	aiScoreHeader string
	aiSkipHeader  string
	relayAddr     string
	relayPort     int
	relayEnabled  bool
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.AnalysisService,
	emailParser *parser.Parser,
	logger *zap.Logger,
	listenAddr string,
	blockPhishing bool,
	scoreHeader string,
	labelHeader string,
	aiScoreHeader string,
	aiSkipHeader string,
	relayAddr string,
	relayPort int,
	relayEnabled bool,
) *SMTPFilter {
	return &SMTPFilter{
		service:       service,
		parser:        emailParser,
		logger:        logger,
		listenAddr:    listenAddr,
		blockPhishing: blockPhishing,
		scoreHeader:   scoreHeader,
		labelHeader:   labelHeader,
		aiScoreHeader: aiScoreHeader,
		aiSkipHeader:  aiSkipHeader,
		relayAddr:     relayAddr,
		relayPort:     relayPort,
		relayEnabled:  relayEnabled,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail parses and analyzes a raw email on behalf of a client
func (f *SMTPFilter) ProcessEmail(ctx context.Context, clientID string, raw []byte) (*core.AnalysisResponse, error) {
	email, err := f.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}
	return f.service.Analyze(ctx, clientID, email)
}

// relay sends the annotated email onward using go-smtp
func (f *SMTPFilter) relay(sender string, recipients []string, emailData []byte) error {
	relayAddr := fmt.Sprintf("%s:%d", f.relayAddr, f.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// annotate prepends the analysis headers to the raw message
func (f *SMTPFilter) annotate(raw []byte, response *core.AnalysisResponse) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %d\r\n", f.scoreHeader, response.RuleAnalysis.Score)
	fmt.Fprintf(&buf, "%s: %s\r\n", f.labelHeader, response.RuleAnalysis.Label)
	if ai := response.AIAnalysis; ai != nil && ai.Success {
		fmt.Fprintf(&buf, "%s: %d\r\n", f.aiScoreHeader, ai.Score)
	}
	if response.AISkipReason != "" {
		fmt.Fprintf(&buf, "%s: %s\r\n", f.aiSkipHeader, response.AISkipReason)
	}

	buf.Write(raw)
	return buf.Bytes()
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	clientID := "unknown"
	if addr := c.Conn().RemoteAddr(); addr != nil {
		if host, _, err := net.SplitHostPort(addr.String()); err == nil {
			clientID = host
		} else {
			clientID = addr.String()
		}
	}
	return &smtpSession{
		filter:     b.filter,
		clientID:   clientID,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	clientID   string
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for this filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data scores the message and either rejects it or relays it onward with
// analysis headers prepended
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := s.filter.ProcessEmail(ctx, s.clientID, raw)
	if err != nil {
		// Parse failures never block delivery
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", s.sender))
		if s.filter.relayEnabled {
			return s.filter.relay(s.sender, s.recipients, raw)
		}
		return nil
	}

	rule := response.RuleAnalysis
	if s.filter.blockPhishing && rule.Label == core.LabelPhishing {
		s.filter.logger.Info("Rejecting phishing email",
			zap.String("from", s.sender),
			zap.Int("score", rule.Score),
			zap.Int("rules_fired", rule.RulesFired))
		return fmt.Errorf("550 Rejected as phishing (score: %d)", rule.Score)
	}

	annotated := s.filter.annotate(raw, response)

	if s.filter.relayEnabled {
		if err := s.filter.relay(s.sender, s.recipients, annotated); err != nil {
			s.filter.logger.Error("Failed to relay email",
				zap.Error(err),
				zap.String("sender", s.sender))
			return err
		}
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("client", s.clientID),
		zap.Int("rule_score", rule.Score),
		zap.String("rule_label", string(rule.Label)),
		zap.String("ai_skip", response.AISkipReason))

	return nil
}

// Logout handles SMTP logout (not needed for this filter)
func (s *smtpSession) Logout() error {
	return nil
}

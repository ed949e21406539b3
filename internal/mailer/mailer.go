package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/config"
)

// Mailer delivers a confirmation code to a member. Failures are reported to
// the caller; state committed before the send is never rolled back.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, code, displayName string) error
}

// New selects the API-backed mailer when a server token is configured and the
// log-only mailer otherwise.
func New(cfg config.MailerConfig, logger *zap.Logger) Mailer {
	if cfg.APIToken == "" {
		logger.Warn("MAILER_API_TOKEN not provided; confirmation codes will only be logged")
		return &logMailer{logger: logger}
	}
	return &apiMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// apiMailer posts messages to a Postmark-style transactional email API.
type apiMailer struct {
	cfg    config.MailerConfig
	client *http.Client
}

type apiEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

func (m *apiMailer) SendConfirmationCode(ctx context.Context, email, code, displayName string) error {
	greeting := "Hello"
	if displayName != "" {
		greeting = "Hello " + displayName
	}
	payload := apiEmail{
		From:     m.cfg.FromEmail,
		To:       email,
		Subject:  "Your confirmation code",
		TextBody: fmt.Sprintf("%s,\n\nYour confirmation code is: %s\n\nEnter it to confirm your membership account.", greeting, code),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", m.cfg.APIToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}
	return nil
}

// logMailer records deliveries without sending anything. The code itself is
// deliberately absent from the log line.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) SendConfirmationCode(_ context.Context, email, _, displayName string) error {
	m.logger.Info("confirmation code delivery (stub)",
		zap.String("to", email),
		zap.String("display_name", displayName),
	)
	return nil
}

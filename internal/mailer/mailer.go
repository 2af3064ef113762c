// Package mailer sends transactional mail through the outbound mail
// service. Delivery failures are reported to the caller but never roll
// back committed business state.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/northpeak/logistics-api/internal/config"
	"go.uber.org/zap"
)

// Mailer sends the welcome mail to newly registered staff.
type Mailer interface {
	SendWelcome(ctx context.Context, name, email string) error
}

// Client is the HTTP implementation of Mailer.
type Client struct {
	httpClient *http.Client
	cfg        *config.MailerConfig
	logger     *zap.Logger
}

func NewClient(cfg *config.MailerConfig, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// SendWelcome mails the onboarding message to a new staff account.
func (c *Client) SendWelcome(ctx context.Context, name, email string) error {
	if !c.cfg.Enabled {
		c.logger.Debug("mailer disabled, skipping welcome mail", zap.String("email", email))
		return nil
	}

	body := map[string]string{
		"from":     c.cfg.From,
		"to":       email,
		"subject":  "Welcome to NorthPeak Logistics",
		"template": "staff-welcome",
		"name":     name,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/send", bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mail service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("mail service error (%d): %s - %s", resp.StatusCode, errorResp.Error, errorResp.Message)
		}
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}

	return nil
}

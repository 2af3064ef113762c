// Package identity talks to the external identity provider that owns
// staff credentials. The workflow core only needs three narrow
// operations, captured by the Provider interface.
package identity

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

// Provider provisions and removes staff identities with the external
// user-management service.
type Provider interface {
	CreateUser(ctx context.Context, name, email, phone string) (string, error)
	UpdateUser(ctx context.Context, externalID, name, phone string) error
	DeleteUser(ctx context.Context, externalID string) error
}

// Client is the HTTP implementation of Provider.
type Client struct {
	httpClient *http.Client
	cfg        *config.IdentityConfig
	logger     *zap.Logger
}

func NewClient(cfg *config.IdentityConfig, logger *zap.Logger) *Client {
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

// CreateUser registers an identity and returns its external reference.
func (c *Client) CreateUser(ctx context.Context, name, email, phone string) (string, error) {
	body := map[string]string{
		"name":  name,
		"email": email,
		"phone": phone,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("identity provider returned no user id")
	}
	return result.ID, nil
}

// UpdateUser updates the mutable profile fields of an identity.
func (c *Client) UpdateUser(ctx context.Context, externalID, name, phone string) error {
	body := map[string]string{
		"name":  name,
		"phone": phone,
	}
	return c.do(ctx, http.MethodPut, "/users/"+externalID, body, nil)
}

// DeleteUser removes the identity from the provider.
func (c *Client) DeleteUser(ctx context.Context, externalID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+externalID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode identity request: %w", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("identity provider error (%d): %s - %s", resp.StatusCode, errorResp.Error, errorResp.Message)
		}
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode identity response: %w", err)
		}
	}
	return nil
}

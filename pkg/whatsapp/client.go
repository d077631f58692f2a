// Package whatsapp posts rendered messages to a Z-API compatible webhook.
// The lifecycle core treats delivery as a collaborator: it hands over text
// and a phone number and only logs the outcome.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the configured send-text webhook.
type Client struct {
	webhookURL  string
	clientToken string
	httpClient  *http.Client
}

// ClientConfig tunes the webhook client.
type ClientConfig struct {
	WebhookURL  string
	ClientToken string
	Timeout     time.Duration
}

// NewClient builds a webhook client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		webhookURL:  cfg.WebhookURL,
		clientToken: cfg.ClientToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type sendTextPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendText delivers a plain-text message to the destination phone number.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	if c.webhookURL == "" {
		return fmt.Errorf("whatsapp webhook url not configured")
	}

	body, err := json.Marshal(sendTextPayload{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("marshal send-text payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send-text request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.clientToken != "" {
		req.Header.Set("Client-Token", c.clientToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post send-text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send-text webhook returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}

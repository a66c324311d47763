package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jkimani/campus-delivery-backend/pkg/config"
)

const sendEndpoint = "https://api.sendgrid.com/v3/mail/send"

// HTTPDoer lets tests swap the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends transactional email through the Sendgrid v3 API.
type Client struct {
	cfg  config.SendgridConfig
	http HTTPDoer
}

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// NewClient builds a Sendgrid client. A missing API key yields a
// disabled client whose Send is a no-op, so email stays optional in
// development environments.
func NewClient(cfg config.SendgridConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the client has credentials to send.
func (c *Client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

// Send delivers the message. Callers treat failures as best-effort.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": msg.To}}},
		},
		"from":    map[string]string{"email": c.cfg.DefaultFrom},
		"subject": msg.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": msg.Body},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendEndpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send mail: status %d", resp.StatusCode)
	}
	return nil
}

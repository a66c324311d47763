package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/config"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// Tokens last an hour; refresh a little early.
	tokenSlack = 2 * time.Minute
)

// HTTPDoer lets tests swap the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Daraja API for STK push payments.
type Client struct {
	cfg  config.MpesaConfig
	http HTTPDoer
	now  func() time.Time

	mtx          sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

// NewClient builds a Daraja client from configuration.
func NewClient(cfg config.MpesaConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("mpesa base url is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("mpesa consumer credentials are required")
	}
	if cfg.ShortCode == "" || cfg.Passkey == "" {
		return nil, fmt.Errorf("mpesa short code and passkey are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}, nil
}

// STKPush sends a payment prompt to the customer handset and returns
// the provider acknowledgement. The CheckoutRequestID in the response
// is the correlation key for the asynchronous callback.
func (c *Client) STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, description string) (*STKPushResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format("20060102150405")
	body := STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          stkPassword(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   c.cfg.TransactionType,
		Amount:            amount.Round(0).String(),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal stk push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stk push request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read stk push response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stk push rejected: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed STKPushResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode stk push response: %w", err)
	}
	if parsed.ResponseCode != "0" {
		return nil, fmt.Errorf("stk push declined: %s", parsed.ResponseDescription)
	}
	if parsed.CheckoutRequestID == "" {
		return nil, fmt.Errorf("stk push response missing checkout request id")
	}
	return &parsed, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpires) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa token request: status %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	ttl := time.Hour
	if parsed.ExpiresIn != "" {
		if parsedTTL, err := time.ParseDuration(parsed.ExpiresIn + "s"); err == nil {
			ttl = parsedTTL
		}
	}

	c.accessToken = parsed.AccessToken
	c.tokenExpires = c.now().Add(ttl - tokenSlack)
	return c.accessToken, nil
}

func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

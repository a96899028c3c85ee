package thornode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://thornode.ninerealms.com"

// Client reads pool and network state from a THORNode REST endpoint with
// retry and timeout support.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the THORNode client
type ClientConfig struct {
	BaseURL      string
	ClientID     string // sent as x-client-id; public nodes rate limit anonymous callers
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// HTTPError is a non-2xx response
type HTTPError struct {
	StatusCode int
	Path       string
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("thornode %s: http %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("thornode %s: http %d: %s", e.Path, e.StatusCode, b)
}

// retryable reports whether a status is worth another attempt
func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewClient creates a new THORNode client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      baseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// Pools fetches every pool
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	var out []Pool
	if err := c.get(ctx, "/thorchain/pools", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InboundAddresses fetches per-chain vault addresses, fees and halt flags
func (c *Client) InboundAddresses(ctx context.Context) ([]InboundAddress, error) {
	var out []InboundAddress
	if err := c.get(ctx, "/thorchain/inbound_addresses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mimir fetches the protocol's admin/node-voted constants
func (c *Client) Mimir(ctx context.Context) (Mimir, error) {
	out := Mimir{}
	if err := c.get(ctx, "/thorchain/mimir", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OutboundQueue fetches scheduled outbound payments
func (c *Client) OutboundQueue(ctx context.Context) ([]OutboundItem, error) {
	var out []OutboundItem
	if err := c.get(ctx, "/thorchain/queue/outbound", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get performs a GET with retry logic and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"path":    path,
			}).Debug("retrying thornode request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		body, err := c.doRequest(ctx, path)
		if err != nil {
			lastErr = err
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && !httpErr.retryable() {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.clientID != "" {
		req.Header.Set("x-client-id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Path: path, Body: body}
	}
	return body, nil
}

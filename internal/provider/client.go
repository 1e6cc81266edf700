// Package provider calls the remote DDNS update endpoint.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"ddnsup/internal/version"

	"go.uber.org/zap"
)

// maxBodySize caps how much of a reply is read
const maxBodySize = 1 << 20

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 30 * time.Second

// Client performs update calls against one endpoint URL
type Client struct {
	endpoint *url.URL
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the overall request timeout of the default HTTP client.
// A client given with WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the endpoint at rawURL
func NewClient(rawURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("provider url %s must use HTTP(S) protocol", rawURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		endpoint: u,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}
	return c, nil
}

// Update asks the provider to point hostname at the caller's address.
// A transport fault is returned as an error; anything the provider
// answered is returned as a Result.
func (c *Client) Update(ctx context.Context, hostname, token string) (Result, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("hostname", hostname)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("client"))

	c.logger.Debug("Calling update provider",
		zap.String("endpoint", c.endpoint.Redacted()),
		zap.String("hostname", hostname))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// url.Error carries the full URL including the token
			err = uerr.Err
		}
		return Result{}, fmt.Errorf("update request to %s failed: %w", c.endpoint.Host, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read provider response: %w", err)
	}

	c.logger.Debug("Provider responded",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	res := ParseResult(body)
	if !res.OK() && res.Message == "" && resp.StatusCode >= 400 {
		res.Message = fmt.Sprintf("provider returned HTTP %d", resp.StatusCode)
	}
	return res, nil
}

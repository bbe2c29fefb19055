// Package transport provides the HTTP fetch capability used by the catalog
// fetcher, with built-in retry logic, rate limit handling, and typed errors.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"vidsync/retry"
)

// Client wraps an HTTP client with retry logic and rate limit handling.
// It implements the catalog fetcher's Transport contract: GET a URL,
// return the body bytes, error on non-success status.
type Client struct {
	base   *http.Client
	config *Config
	pacer  *Pacer
}

// Config holds HTTP client configuration including retry and pacing settings.
type Config struct {
	// Timeout for individual HTTP requests
	Timeout time.Duration

	// Retry configuration
	Retry retry.Config

	// UserAgent for HTTP requests
	UserAgent string

	// MinRequestInterval spaces successive requests to the same host.
	MinRequestInterval time.Duration

	// Transport configures the underlying connection pool.
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int
	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int
	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	IdleConnTimeout time.Duration
	// ForceAttemptHTTP2 forces HTTP/2 for servers that don't explicitly support it.
	ForceAttemptHTTP2 bool
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:            30 * time.Second,
		Retry:              retry.DefaultConfig(),
		UserAgent:          "vidsync/1.0",
		MinRequestInterval: 100 * time.Millisecond,
		Transport: TransportConfig{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   cfg.Transport.ForceAttemptHTTP2,
	}

	return &Client{
		base: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
		pacer:  NewPacer(cfg.MinRequestInterval),
	}
}

// Fetch performs a GET request and returns the response body.
// It retries transient failures, honors Retry-After on rate limiting,
// and returns a typed error for non-success status codes.
func (c *Client) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	if err := c.pacer.Wait(ctx, urlStr); err != nil {
		return nil, err
	}

	var body []byte

	err := retry.Do(ctx, c.config.Retry, c.isRetryableError, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.base.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable {
			retryAfter := parseRetryAfter(resp.Header)
			c.pacer.RecordRateLimit(urlStr, retryAfter)
			return &RateLimitError{
				StatusCode: resp.StatusCode,
				RetryAfter: retryAfter,
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return &StatusError{
				StatusCode: resp.StatusCode,
				Body:       respBody,
			}
		}

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		body = respBody
		return nil
	})

	if err != nil {
		return nil, err
	}

	c.pacer.RecordSuccess(urlStr)
	return body, nil
}

// isRetryableError determines if a request error is worth retrying.
func (c *Client) isRetryableError(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}

	// Rate limit responses are retryable after the backoff period.
	if _, ok := err.(*RateLimitError); ok {
		return true
	}

	// Other status errors are retryable only for 5xx.
	if statusErr, ok := err.(*StatusError); ok {
		return statusErr.StatusCode >= 500
	}

	return true
}

// parseRetryAfter extracts the Retry-After header value.
// Returns zero if the header is absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}

	return 0
}

// Close closes idle connections held by the client.
func (c *Client) Close() error {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	return nil
}

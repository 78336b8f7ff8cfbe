// Package httpclient provides the outbound HTTP client used to fetch source
// lists and to call the remote rule engine.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// NoTimeout leaves requests bounded only by their context
	NoTimeout time.Duration = -1

	// DefaultMaxTries is the default number of attempts for idempotent requests
	DefaultMaxTries = 3

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "reader-api/1.0"
)

// ErrResponseTooLarge is returned when a response body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response too large")

var errInvalidRequest = errors.New("invalid request")

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body.
	// Transient failures are retried.
	Get(ctx context.Context, url string) ([]byte, error)

	// Post sends body as JSON and returns the response body. It is never retried.
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *DefaultClient) {
		c.client = client
	}
}

// WithRetry sets the number of GET attempts and the first retry interval.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *DefaultClient) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}
		if initialInterval > 0 {
			c.initialInterval = initialInterval
		}
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	maxTries        uint
	initialInterval time.Duration
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout. A negative timeout (NoTimeout) sets no
// client-level limit.
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxTries:        DefaultMaxTries,
		initialInterval: backoff.DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the client-level request timeout. Zero means none.
func (c *DefaultClient) Timeout() time.Duration {
	return c.client.Timeout
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.do(ctx, http.MethodGet, url, nil)
		if err == nil {
			return body, nil
		}
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		zap.S().Debugw("Retrying HTTP request", "url", url, "attempt", attempt, "error", err)
		return nil, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(c.maxTries))
}

// Post performs an HTTP POST request with a JSON body
func (c *DefaultClient) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *DefaultClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w: %w", errInvalidRequest, err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("%w: response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			ErrResponseTooLarge, resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			ErrResponseTooLarge, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	return body, nil
}

// retryable reports whether err is worth another attempt. Cancellation and
// client errors are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrResponseTooLarge), errors.Is(err, errInvalidRequest):
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}

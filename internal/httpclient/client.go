// Package httpclient is the rate-limited, retrying HTTP client shared by the
// market data fetcher and the prediction service client.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client wraps http.Client with a rate limiter and exponential backoff.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxRetry   time.Duration
}

// Options holds options for creating a new Client.
type Options struct {
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	MaxRetryTimeout time.Duration
	ProxyURL        string
}

// New creates a Client, filling unset options with defaults.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 1
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		Limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		MaxRetry:   opts.MaxRetryTimeout,
	}
}

// StatusError is a non-2xx response. Body holds the raw response body.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// DoOnce waits for the limiter and sends the request built by newRequest a
// single time. It returns the body of a 2xx response; other statuses come back
// as *StatusError.
func (c *Client) DoOnce(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := newRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: b}
	}
	return b, nil
}

// Do is DoOnce retried with exponential backoff for up to MaxRetry. Transport
// failures and retryable statuses are retried; anything else is returned at once.
func (c *Client) Do(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	operation := func() error {
		b, err := c.DoOnce(ctx, newRequest)
		if err != nil {
			if !Retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.MaxRetry
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// Retryable reports whether a DoOnce error is worth another attempt: transport
// failures and 5xx/429 statuses, unless ctx is already done.
func Retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if se, ok := IsStatus(err); ok {
		return se.Retryable()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsStatus reports whether err carries a StatusError and returns it.
func IsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

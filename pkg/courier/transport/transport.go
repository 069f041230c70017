// Package transport provides the resilient HTTP client courier providers
// use to reach their remote APIs. It retries transient failures with
// exponential backoff and knows nothing about shipment types.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 3
	defaultBackoffFactor = 0.3 // seconds
	defaultMaxBackoff    = 10 * time.Second
)

// defaultRetryStatuses are the HTTP statuses retried alongside connect and
// read failures.
var defaultRetryStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusGatewayTimeout,
}

// Config holds transport configuration.
type Config struct {
	// BaseURL is joined with relative request paths. Fully-qualified
	// request URLs bypass it.
	BaseURL string

	// Timeout bounds each individual attempt (connect + read).
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BackoffFactor is the initial backoff interval in seconds; intervals
	// grow exponentially from it.
	BackoffFactor float64

	// MaxBackoff caps the interval between attempts.
	MaxBackoff time.Duration

	// RetryStatuses overrides the set of retry-eligible HTTP statuses.
	RetryStatuses []int

	// Headers are merged into every request; per-call headers override them.
	Headers map[string]string
}

// Client is a retrying HTTP client with a shared connection pool.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxRetries    int
	initialDelay  time.Duration
	maxBackoff    time.Duration
	retryStatuses map[int]struct{}
	headers       map[string]string
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports that every attempt ended in a retry-eligible HTTP
// status. Non-retryable statuses are returned as ordinary responses for the
// caller to inspect.
type StatusError struct {
	StatusCode int
	Attempts   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts, last status %d", e.Attempts, e.StatusCode)
}

// New creates a transport client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	factor := cfg.BackoffFactor
	if factor <= 0 {
		factor = defaultBackoffFactor
	}

	maxBackoff := cfg.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = defaultMaxBackoff
	}

	statuses := cfg.RetryStatuses
	if len(statuses) == 0 {
		statuses = defaultRetryStatuses
	}
	retrySet := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		retrySet[s] = struct{}{}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:    maxRetries,
		initialDelay:  time.Duration(factor * float64(time.Second)),
		maxBackoff:    maxBackoff,
		retryStatuses: retrySet,
		headers:       headers,
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, headers)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body []byte, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, headers)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body []byte, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, headers)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, headers)
}

// Do performs a request, retrying connect failures, read failures, and
// retry-eligible statuses until the retry budget is spent. The body is
// replayed from memory on every attempt.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*Response, error) {
	target := c.resolveURL(path)

	var resp *Response
	attempts := 0

	op := func() error {
		attempts++
		r, err := c.attempt(ctx, method, target, body, headers)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if _, retry := c.retryStatuses[r.StatusCode]; retry {
			return &StatusError{StatusCode: r.StatusCode, Attempts: attempts}
		}
		resp = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialDelay
	bo.MaxInterval = c.maxBackoff
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, statusErr
		}
		return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, target, attempts, err)
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, method, target string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// resolveURL joins a relative path to the base URL. Fully-qualified URLs
// pass through untouched so providers with raw protocol envelopes can target
// arbitrary endpoints.
func (c *Client) resolveURL(path string) string {
	if strings.Contains(path, "://") || c.baseURL == "" {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

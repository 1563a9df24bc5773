// Package httpclient provides the JSON over HTTP plumbing shared by the Glean and NetSuite clients.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP request
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// maxErrorMessageSize caps how much of an error body is kept in HTTPError
	maxErrorMessageSize = 4096

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "ns-glean-sync/1.0"
)

// Client is an interface for JSON HTTP operations
type Client interface {
	// PostJSON encodes payload as JSON, posts it to url and returns the
	// response body for any 2xx status. Other statuses yield *HTTPError and
	// failures to reach the server yield *TransportError.
	PostJSON(ctx context.Context, url string, payload any, opts ...RequestOption) (*Response, error)
}

// Response is a successful HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// RequestOption customizes an outgoing request
type RequestOption func(*http.Request)

// WithHeader sets a request header
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearerToken sets the Authorization header. The token is never logged.
func WithBearerToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Option configures the DefaultClient
type Option func(*DefaultClient)

// WithHTTPClient replaces the underlying *http.Client, e.g. with one whose
// transport signs requests. Its Timeout is overridden by the client timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(dc *DefaultClient) {
		if c != nil {
			dc.client = c
		}
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewDefaultClient creates a new client bounded by timeout per request.
// If timeout is 0, uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dc := &DefaultClient{
		client:  &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(dc)
	}

	// Copy so a shared *http.Client passed in is not mutated.
	c := *dc.client
	c.Timeout = timeout
	dc.client = &c

	return dc
}

// Timeout returns the per-request timeout
func (c *DefaultClient) Timeout() time.Duration {
	return c.timeout
}

// PostJSON performs an HTTP POST with a JSON body
func (c *DefaultClient) PostJSON(ctx context.Context, url string, payload any, opts ...RequestOption) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(respBody)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode, url, errorMessage(resp, respBody))
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// errorMessage returns the remote error body verbatim (trimmed and capped),
// falling back to the status line when the body is empty.
func errorMessage(resp *http.Response, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return resp.Status
	}
	if len(msg) > maxErrorMessageSize {
		cut := maxErrorMessageSize
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

// IsTimeout reports whether err is a request that ran out of time
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te) && te.Timeout()
}

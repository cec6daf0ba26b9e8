package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second

	// DefaultRequestTimeout bounds a single request when the caller passes
	// no timeout.
	DefaultRequestTimeout = 10 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if the request failed
	// before receiving a response.
	StatusCode int

	// Header holds the response headers. Nil if no response was received.
	Header http.Header

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport error. nil means a response was
	// received, whatever its status code.
	Error error
}

// StatusError reports a non-2xx response from an API.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int

	// Message is a short excerpt of the response body.
	Message string

	// RetryAfter is the parsed Retry-After header, zero if absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// HTTPStatusCode returns the response status code.
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is an HTTP client wrapper for status APIs.
//
// Client uses per-request timeouts via context rather than a global
// timeout. Response bodies are limited to 1MB.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new [Client] with a pooled transport.
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch performs an HTTP request and returns a structured [Response].
//
// If method is empty, GET is used. A non-positive timeout falls back to
// [DefaultRequestTimeout]. Fetch always returns a Response; errors are
// captured in its Error field.
func (c *Client) Fetch(ctx context.Context, method, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Latency:    time.Since(start),
	}
}

// GetJSON issues a GET request and decodes a 2xx JSON body into out.
//
// Non-2xx responses are returned as *[StatusError]. Transport and decode
// errors are wrapped with the request URL.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, timeout time.Duration, out any) error {
	resp := c.Fetch(ctx, http.MethodGet, url, headers, timeout)
	if resp.Error != nil {
		return fmt.Errorf("GET %s: %w", url, resp.Error)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     http.MethodGet,
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    excerpt(resp.Body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", url, err)
	}
	return nil
}

// Close closes all idle connections in the client's pool.
// Safe to call multiple times and on a nil client; the client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// excerpt trims a response body for inclusion in error messages.
func excerpt(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// parseRetryAfter parses a Retry-After header given in seconds.
// HTTP-date values are ignored.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(strings.TrimSpace(v) + "s")
	if err != nil || d < 0 {
		return 0
	}
	return d
}

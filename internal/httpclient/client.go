// Package httpclient wraps outbound HTTP calls to providers and webhooks with bounded retries.
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
)

// DefaultBackoff is the base delay of the linear backoff between attempts.
const DefaultBackoff = 200 * time.Millisecond

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError reports a non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Service, e.Status, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config configures a Client.
type Config struct {
	// Service names the remote side in errors, e.g. "slack webhook".
	Service    string
	Timeout    time.Duration
	RetryLimit int
	Backoff    time.Duration
	Client     *http.Client
}

// Client sends requests with a linear backoff between failed attempts. Transport errors, 429 and
// 5xx responses are retried; other responses are returned immediately.
type Client struct {
	service    string
	retryLimit int
	backoff    time.Duration
	hc         *http.Client
}

// New builds a Client from cfg, applying defaults.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = "http"
	}
	return &Client{
		service:    service,
		retryLimit: max(cfg.RetryLimit, 0),
		backoff:    backoff,
		hc:         hc,
	}
}

// Request describes one logical call. Body is replayed on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do executes req, retrying per the client policy, and returns the first successful response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		resp, err := c.once(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < attempts-1 {
			if waitErr := sleep(ctx, time.Duration(attempt+1)*c.backoff); waitErr != nil {
				return nil, waitErr
			}
		}
	}
	return nil, lastErr
}

// PostJSON marshals payload and posts it to url.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", c.service, err)
	}
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Header: h, Body: body})
}

func (c *Client) once(ctx context.Context, r Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.service, err)
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response body: %w", c.service, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

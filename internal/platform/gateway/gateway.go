// Package gateway is the authenticated API client for the dashboard backend.
// It owns no business logic and no session state: it reads the bearer token
// through a TokenSource on each request and converts every failure into one of
// the typed errors in this package, so callers never see a raw transport error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TokenSource supplies the current bearer token, or "" when no session exists.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string {
	return f()
}

// errorBody is the structured error payload the backend returns on failures.
type errorBody struct {
	Detail string `json:"detail"`
}

// Client issues JSON requests against the backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// New creates a Client for baseURL. tokens may be nil for unauthenticated use.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// Call performs method on endpoint. A non-nil body is JSON-encoded; a non-nil
// out receives the decoded success payload. Every returned error is a
// *ValidationError, *ServerError, *AuthError, or *NetworkError.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	authed := false
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("transport failure")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return statusToError(resp.StatusCode, eb.Detail, authed)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			// A garbled success body is indistinguishable from a broken
			// connection as far as the user is concerned.
			return &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// Get is shorthand for Call with GET and no request body.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Call(ctx, http.MethodGet, endpoint, nil, out)
}

// Post is shorthand for Call with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Call(ctx, http.MethodPost, endpoint, body, out)
}

// Delete is shorthand for Call with DELETE and no request body.
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.Call(ctx, http.MethodDelete, endpoint, nil, out)
}

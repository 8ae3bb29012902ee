package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the current bearer token for authenticated requests.
// An empty string means no token is held.
type TokenSource func() string

// Observer receives timing information for every completed round trip.
type Observer func(method, path string, status int, elapsed time.Duration)

// Client is a typed HTTP client for the Cuentas Claras REST backend. All
// requests authenticate with a bearer token in the Authorization header,
// except the token exchange endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	observe    Observer
	logger     *slog.Logger
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource installs the bearer token provider.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) { c.token = source }
}

// WithObserver installs a round trip observer, typically metrics recording.
func WithObserver(observe Observer) Option {
	return func(c *Client) { c.observe = observe }
}

// WithLogger installs a structured logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client rooted at baseURL (no trailing slash required).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      func() string { return "" },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// do executes a JSON round trip. A nil body sends no payload; a nil out
// discards the response body. When authenticated is true the current bearer
// token is attached if one is held.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	if c == nil {
		return fmt.Errorf("api client is nil")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if c.observe != nil {
			c.observe(method, path, 0, elapsed)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.ErrorContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if c.observe != nil {
		c.observe(method, path, resp.StatusCode, elapsed)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return c.errorFromResponse(resp)
}

// errorFromResponse converts a non-2xx response into the error taxonomy.
func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	detail, fields := decodeErrorBody(raw)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &StatusError{Status: resp.StatusCode, Detail: detail, sentinel: ErrUnauthorized}
	case resp.StatusCode == http.StatusForbidden:
		return &StatusError{Status: resp.StatusCode, Detail: detail, sentinel: ErrForbidden}
	case resp.StatusCode == http.StatusNotFound:
		return &StatusError{Status: resp.StatusCode, Detail: detail, sentinel: ErrNotFound}
	case resp.StatusCode >= 500:
		return &StatusError{Status: resp.StatusCode, Detail: detail, sentinel: ErrServer}
	case len(fields) > 0:
		return &ValidationError{Fields: fields}
	default:
		return &StatusError{Status: resp.StatusCode, Detail: detail, sentinel: errors.New("api: request rejected")}
	}
}

// decodeErrorBody interprets the Django REST error conventions: either a
// top-level {"detail": "..."} / {"error": "..."} message or a map of field
// names to message lists.
func decodeErrorBody(raw []byte) (detail string, fields map[string]string) {
	if len(raw) == 0 {
		return "", nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw)), nil
	}

	for _, key := range []string{"detail", "error", "mensaje"} {
		if msg, ok := payload[key]; ok {
			var text string
			if err := json.Unmarshal(msg, &text); err == nil && text != "" {
				return text, nil
			}
		}
	}

	fields = make(map[string]string, len(payload))
	for field, msg := range payload {
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			fields[field] = strings.Join(list, " ")
			continue
		}
		var text string
		if err := json.Unmarshal(msg, &text); err == nil {
			fields[field] = text
		}
	}
	if len(fields) == 0 {
		return "", nil
	}
	return "", fields
}

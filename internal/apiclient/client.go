// Package apiclient builds outgoing requests to the upstream REST backend,
// joining relative paths to the configured base URL and attaching a bearer
// credential when the caller requires one.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// TokenSource yields a fresh bearer token for the active session. An
// implementation returning an error means no credential can be attached.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client issues JSON requests against the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a client for the given base URL. tokens may be nil when the
// client only serves unauthenticated calls.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
	}
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, tokens: tokens}
}

// WithTokens returns a copy of the client that authenticates with the given
// source. Used to bind a request-scoped session to the shared client.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// BuildURL resolves an endpoint: absolute URLs pass through untouched,
// relative paths are joined to the base URL with slashes normalized exactly
// once.
func (c *Client) BuildURL(endpoint string) string {
	if absoluteURL.MatchString(endpoint) {
		return endpoint
	}
	base := strings.TrimSuffix(c.baseURL, "/")
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return base + endpoint
}

// Options customize a single request.
type Options struct {
	// Body is JSON-encoded when non-nil.
	Body any
	// ContentType overrides the Content-Type set for a body.
	ContentType string
	// RequireAuth attaches a bearer token from the token source. Without an
	// active session the request goes out unauthenticated; the backend's
	// 401 is the caller's signal.
	RequireAuth bool
}

// Do issues the request and returns the raw response. Non-2xx statuses are
// not errors here; callers inspect the status and decide.
func (c *Client) Do(ctx context.Context, method, endpoint string, opts Options) (*http.Response, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BuildURL(endpoint), bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		contentType := opts.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}

	if opts.RequireAuth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return c.httpClient.Do(req)
}

// Get is shorthand for an unauthenticated GET.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, Options{})
}

// DecodeList decodes a JSON response body that is either a bare array or a
// {"result": [...]} wrapper; both shapes occur upstream.
func DecodeList[T any](r io.Reader) ([]T, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return list, nil
	}
	var wrapper struct {
		Result []T `json:"result"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode wrapped list: %w", err)
	}
	return wrapper.Result, nil
}

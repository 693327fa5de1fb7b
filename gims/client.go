package gims

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// automationPrefix is the base path of the resource API.
	automationPrefix = "/automation"

	// refreshPath is the token refresh endpoint, relative to the instance
	// URL (not the automation prefix).
	refreshPath = "/security/token/refresh/"
)

// Errors returned by Config validation.
var (
	ErrURLRequired          = errors.New("gims: URL is required")
	ErrAccessTokenRequired  = errors.New("gims: access token is required")
	ErrRefreshTokenRequired = errors.New("gims: refresh token is required")
)

// Config configures a Client.
type Config struct {
	// URL is the base URL of the GIMS instance, without the /automation
	// suffix. Required. A trailing slash is trimmed.
	URL string

	// AccessToken is the short-lived bearer credential. Required.
	AccessToken string

	// RefreshToken is the longer-lived credential exchanged for a new
	// access token when the current one expires. Required.
	RefreshToken string

	// VerifySSL controls TLS certificate verification.
	// Default: true. Set false for self-signed instance certificates.
	VerifySSL bool

	// Timeout bounds each individual HTTP request.
	// Default: 30s. Streaming connections are bounded separately.
	Timeout time.Duration
}

// validate checks that required fields are set.
func (c *Config) validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}
	if c.AccessToken == "" {
		return ErrAccessTokenRequired
	}
	if c.RefreshToken == "" {
		return ErrRefreshTokenRequired
	}
	return nil
}

// Client is an HTTP client for the GIMS Automation API. It owns the mutable
// credential pair for the process lifetime: on a 401 it exchanges the refresh
// token for a new access token exactly once and retries the original request.
//
// Contract:
// - Concurrency: safe for concurrent use; refresh is serialized so parallel
//   401s trigger at most one token exchange.
// - Context: every request honors cancellation and deadlines.
type Client struct {
	baseURL    string
	altURL     string
	httpClient *http.Client
	verifySSL  bool
	timeout    time.Duration

	mu      sync.Mutex
	access  string
	refresh string
}

// NewClient creates a client for the GIMS instance described by cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	u := strings.TrimRight(cfg.URL, "/")
	return &Client{
		baseURL:    u + automationPrefix,
		altURL:     u,
		httpClient: newHTTPClient(cfg.VerifySSL, timeout),
		verifySSL:  cfg.VerifySSL,
		timeout:    timeout,
		access:     cfg.AccessToken,
		refresh:    cfg.RefreshToken,
	}, nil
}

// BaseURL returns the GIMS instance URL the client was configured with,
// without the /automation suffix.
func (c *Client) BaseURL() string {
	return c.altURL
}

// Request performs one API request against the automation API and returns
// the raw JSON response body. A 204 yields a nil payload. On a 401 the
// refresh flow runs once and the request is retried exactly once; a failed
// refresh returns *AuthError and terminates the chain.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	// Proactive refresh: if the access token is a JWT that has already
	// expired, renew it before burning a guaranteed 401 round-trip. A
	// failure here falls through to the reactive path below.
	if used := c.accessToken(); tokenExpired(used, time.Now()) {
		_ = c.refreshAccess(ctx, used)
	}

	used := c.accessToken()
	raw, err := c.do(ctx, method, path, body, query, used)
	if !isAuthFailed(err) {
		return raw, err
	}

	if rerr := c.refreshAccess(ctx, used); rerr != nil {
		return nil, rerr
	}
	// A second 401 is surfaced as-is, never retried again.
	return c.do(ctx, method, path, body, query, c.accessToken())
}

// do performs a single request attempt with the given access token.
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, access string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gims: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("gims: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gims: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return handleResponse(resp)
}

// handleResponse classifies a response, returning the raw JSON payload on
// success and a typed error otherwise.
func handleResponse(resp *http.Response) (json.RawMessage, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apiError(401, "Authentication failed", "Token may be expired or invalid", ErrAuthFailed)
	case resp.StatusCode == http.StatusForbidden:
		return nil, apiError(403, "Permission denied", "Insufficient permissions for this operation", ErrPermissionDenied)
	case resp.StatusCode == http.StatusNotFound:
		return nil, apiError(404, "Not found", "The requested resource was not found", ErrNotFound)
	case resp.StatusCode >= 400:
		return nil, apiError(resp.StatusCode, "API error", errorDetail(resp), nil)
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gims: read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if !jsonContentType(resp.Header.Get("Content-Type")) {
		return nil, apiError(resp.StatusCode, "Unexpected response format",
			fmt.Sprintf("expected JSON, got %q", resp.Header.Get("Content-Type")), ErrNotJSON)
	}
	if !json.Valid(data) {
		return nil, apiError(resp.StatusCode, "Unexpected response format",
			"response declared JSON but failed to parse", ErrBadJSON)
	}
	return json.RawMessage(data), nil
}

// errorDetail extracts a sanitized detail string from an error response
// body. JSON bodies contribute their detail field; HTML pages are reduced
// to the page title or a tag-stripped snippet, never raw markup.
func errorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	if json.Valid(data) {
		return compactText(string(data))
	}
	if looksLikeHTML(data) {
		return sanitizeHTML(string(data))
	}
	return compactText(string(data))
}

// jsonContentType reports whether a Content-Type header declares JSON.
func jsonContentType(value string) bool {
	if value == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// isAuthFailed reports whether err is a 401 classification.
func isAuthFailed(err error) bool {
	return err != nil && errors.Is(err, ErrAuthFailed)
}

// accessToken returns the current access token under lock.
func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// newHTTPClient builds an HTTP client with the TLS verification toggle. A
// zero timeout produces a client suitable for long-lived streams.
func newHTTPClient(verifySSL bool, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if !verifySSL {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client.Transport = transport
	}
	return client
}

// get performs a GET request and decodes the response into out.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	raw, err := c.Request(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("gims: decode %s: %w", path, err)
	}
	return out, nil
}

// send performs a mutating request and decodes the response into out.
func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	raw, err := c.Request(ctx, method, path, body, nil)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("gims: decode %s: %w", path, err)
	}
	return out, nil
}

/**
 * @description
 * HTTP client for the donation campaign API. One idempotent read per
 * resource, no caching, no retry. Failures are classified into connectivity
 * errors (server unreachable) and server rejections (structured error body
 * surfaced verbatim when present), so callers can choose wording without
 * parsing responses themselves.
 *
 * The client attaches the stored session token and the anonymous client key
 * to every request when they are available.
 */

package campaignclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is used when no environment override is present.
	DefaultBaseURL = "http://localhost:8003"

	// BaseURLEnv overrides the backend origin, read once at construction.
	BaseURLEnv = "CAMPAIGN_API_BASE_URL"

	requestTimeout = 30 * time.Second
)

// ConnectivityError wraps a transport-level failure: the server could not be
// reached or did not answer in time.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "Unable to reach the server. Please check your connection and try again."
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// APIError is a server rejection with an HTTP status. Message carries the
// backend's own wording when the body supplied one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// QuotaError is the structured 403 returned when an anonymous caller is out
// of free uses of a gated feature.
type QuotaError struct {
	Feature              string        `json:"feature"`
	Usage                UsageSnapshot `json:"usage"`
	RegistrationRequired bool          `json:"registration_required"`
	Message              string        `json:"error"`
}

func (e *QuotaError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("free %s limit reached", e.Feature)
}

// TokenStore centralizes access to the persisted session token. Implementations
// must be safe for use from multiple goroutines.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	DeleteToken() error
}

// Client talks to the campaign API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	clientKey  string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL pins the backend origin, bypassing the environment lookup.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient substitutes the underlying transport, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithClientKey sets the anonymous usage identity sent on every request.
func WithClientKey(key string) Option {
	return func(c *Client) { c.clientKey = key }
}

// NewClient constructs a client. The backend origin comes from the
// CAMPAIGN_API_BASE_URL environment variable, read once here, falling back to
// the local default. The token store may be nil for purely anonymous use.
func NewClient(tokens TokenStore, opts ...Option) *Client {
	baseURL := strings.TrimSpace(os.Getenv(BaseURLEnv))
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the origin the client was constructed with.
func (c *Client) BaseURL() string { return c.baseURL }

// do executes one request and decodes the response into out when it is
// non-nil. Non-2xx responses become APIError or QuotaError; transport
// failures become ConnectivityError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, err := c.tokens.Token(); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if c.clientKey != "" {
		req.Header.Set("X-Client-Key", c.clientKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ConnectivityError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyRejection(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// classifyRejection turns an error response into the matching taxonomy value.
func classifyRejection(status int, body []byte) error {
	if status == http.StatusForbidden {
		var quota QuotaError
		if err := json.Unmarshal(body, &quota); err == nil && quota.RegistrationRequired {
			return &quota
		}
	}

	var envelope struct {
		Error string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = strings.TrimSpace(envelope.Error)
	}
	if message == "" {
		message = "The server rejected the request. Please try again."
	}
	return &APIError{StatusCode: status, Message: message}
}

// get is a convenience wrapper for idempotent reads.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Health probes the liveness endpoint, used only to classify connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

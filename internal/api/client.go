// Package api is the client for the remote inventory API. It owns the HTTP
// plumbing: session cookies, the optional bearer-token fallback, request
// IDs, and normalizing every failure into a typed *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request unless the caller's context is
// stricter.
const DefaultTimeout = 20 * time.Second

// Client talks to the remote inventory API. Credentials are carried by the
// cookie jar; a bearer token, when set, is sent as a fallback for servers
// behind cookie-stripping proxies.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests and by
// callers that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken seeds the bearer-token fallback, e.g. from the local token store.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout replaces DefaultTimeout as the per-request bound. Ignored
// when d is not positive.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout, Jar: jar},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	return c
}

// SetToken replaces the bearer-token fallback, typically after login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer-token fallback.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do issues one JSON request. A nil in sends no body, a nil out discards
// the response body. Failures are always *Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return &Error{Kind: KindValidation, Message: fmt.Sprintf("encoding request: %v", err)}
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send applies shared headers, executes the request and decodes the
// response. All requests funnel through here.
func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	slog.Debug("request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 400 {
		return normalizeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode,
			Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

// normalizeError turns an error response into an *Error. The server answers
// with either {"error": "..."} / {"message": "..."} JSON or plain text;
// both collapse into one message string.
func normalizeError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := strings.TrimSpace(string(payload))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Error != "" {
			message = body.Error
		} else if body.Message != "" {
			message = body.Message
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: message}
}

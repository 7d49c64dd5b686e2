// Package gateway is the typed client for the remote REST, auth and storage endpoints.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/session"
)

// ErrNotFound is returned when a lookup by id yields no row
var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx response. Body is the backend's message verbatim.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

// Message returns the backend message, or the status text when the body is empty
func (e *HTTPError) Message() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

// Config holds connection settings
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a gateway client
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway: invalid base url: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gateway: api key is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: hc,
	}, nil
}

// BaseURL returns the configured backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        any
	rawBody     []byte
	contentType string
	credential  string
	minimal     bool
	header      map[string]string
}

// do performs r and decodes a 2xx body into out when out is non-nil
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.rawBody != nil:
		body = bytes.NewReader(r.rawBody)
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", r.op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", r.op, err)
	}

	credential := r.credential
	if credential == "" {
		credential = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.minimal {
		req.Header.Set("Prefer", "return=minimal")
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	logger.Debug("HTTP Request",
		logger.F("op", r.op),
		logger.F("method", r.method),
		logger.F("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("op", r.op), logger.F("error", err), logger.F("url", target))
		return fmt.Errorf("%s: failed to connect: %w", r.op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP Response",
		logger.F("op", r.op),
		logger.F("status", resp.StatusCode),
		logger.F("statusText", resp.Status))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("Request rejected",
			logger.F("op", r.op),
			logger.F("status", resp.StatusCode),
			logger.F("response", string(respBody)))
		return &HTTPError{Op: r.op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Error("Failed to decode response", logger.F("op", r.op), logger.F("error", err))
		return fmt.Errorf("%s: failed to decode response: %w", r.op, err)
	}
	return nil
}

func requireSession(op string, sess session.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("%s: %w", op, session.ErrNoSession)
	}
	return nil
}

func eq(v string) string {
	return "eq." + v
}

// Package api calls the external news REST API on behalf of a visitor.
//
// The API lives outside this server. Which instance to call is decided by the
// operator: a configured base always wins, then a visitor's override if the operator
// allowlisted it, then the configured fallback (the proxy target or the site's own
// origin), then localhost. Nothing a visitor sends can point the server at a host the
// operator did not name.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/radioconexion/site/internal/metrics"
	"github.com/radioconexion/site/internal/session"
)

// DefaultBase is used when nothing else identifies the API
const DefaultBase = "http://localhost:8000"

// maxErrorBody caps how much of a failed response is quoted in an HTTPError
const maxErrorBody = 4 * 1024

// Config names the operator-configured API base, if any
type Config struct {
	Base string `env:"API_BASE"`
	// Key is an older name for Base; it also holds a full URL
	Key string `env:"API_KEY"`
	// AllowedBases is a comma-separated list of bases that a visitor's
	// api_base_override may select. Overrides naming anything else are ignored.
	AllowedBases string `env:"API_ALLOWED_BASES"`
	// Timeout bounds each request
	Timeout time.Duration `env:"API_TIMEOUT" default:"15s"`

	// Fallback is used when neither Base nor an allowed override applies
	Fallback string
}

// Client is shared by every visitor; bind it to one with As
type Client struct {
	configured string
	fallback   string
	allowed    map[string]bool
	http       *http.Client

	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	mu       sync.Mutex
}

// NewClient builds a client. If hc is nil, a client with cfg.Timeout is used.
func NewClient(cfg Config, hc *http.Client) *Client {
	configured := cfg.Base
	if configured == "" {
		configured = cfg.Key
	}
	fallback := trimBase(cfg.Fallback)
	if fallback == "" {
		fallback = DefaultBase
	}
	allowed := make(map[string]bool)
	for _, base := range strings.Split(cfg.AllowedBases, ",") {
		if base = trimBase(base); base != "" {
			allowed[base] = true
		}
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		configured: trimBase(configured),
		fallback:   fallback,
		allowed:    allowed,
		http:       hc,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

func trimBase(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// breaker returns the circuit breaker guarding base, so that one unreachable
// instance never fails calls made to another
func (c *Client) breaker(base string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[base]
	if !ok {
		cb = newBreaker("news-api " + base)
		c.breakers[base] = cb
	}
	return cb
}

// Request describes the optional parts of an API call
type Request struct {
	// Method defaults to GET
	Method string
	// Header is merged into the outgoing request. A caller-supplied Authorization
	// header is never replaced.
	Header http.Header
	// JSON, if non-nil, is encoded as the request body
	JSON any
	// Form, if non-nil, is sent as a multipart/form-data body
	Form map[string]string
}

// Caller is the Client bound to a single visitor
type Caller struct {
	client *Client
	store  session.Store
}

// As binds the client to a visitor's store
func (c *Client) As(store session.Store) *Caller {
	return &Caller{
		client: c,
		store:  store,
	}
}

// Base resolves the API base URL for this visitor, without a trailing slash
func (c *Caller) Base() string {
	if c.client.configured != "" {
		return c.client.configured
	}
	if override, ok := c.store.Get(session.KeyAPIBaseOverride); ok {
		if trimmed := trimBase(override); c.client.allowed[trimmed] {
			return trimmed
		}
	}
	return c.client.fallback
}

// URL joins path onto the visitor's base with exactly one slash
func (c *Caller) URL(path string) string {
	return joinURL(c.Base(), path)
}

func joinURL(base string, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// FetchJSON performs a request against the API and decodes the JSON response into
// out, which may be nil to discard the body. The visitor's bearer token is attached
// unless the caller already supplied an Authorization header. A non-2xx response
// yields an *HTTPError; a failure to reach the API yields an error matching
// ErrUnavailable.
func (c *Caller) FetchJSON(ctx context.Context, path string, r *Request, out any) error {
	if r == nil {
		r = &Request{}
	}
	base := c.Base()
	req, err := c.newRequest(ctx, joinURL(base, path), r)
	if err != nil {
		return err
	}

	body, err := c.client.do(base, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Caller) newRequest(ctx context.Context, target string, r *Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case r.Form != nil:
		data, formContentType, err := encodeMultipart(r.Form)
		if err != nil {
			return nil, err
		}
		body = data
		contentType = formContentType
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("authorization") == "" {
		if token, ok := c.store.Get(session.KeyAuthToken); ok {
			req.Header.Set("authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do sends the request through base's circuit breaker and returns the body of a 2xx
// response
func (c *Client) do(base string, req *http.Request) ([]byte, error) {
	body, err := c.breaker(base).Execute(func() ([]byte, error) {
		start := time.Now()
		res, err := c.http.Do(req)
		if err != nil {
			metrics.RecordAPIRequest(req.Method, 0, time.Since(start))
			return nil, &unavailableError{cause: err}
		}
		defer res.Body.Close()
		metrics.RecordAPIRequest(req.Method, res.StatusCode, time.Since(start))

		if res.StatusCode < 200 || res.StatusCode > 299 {
			text, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
			return nil, &HTTPError{
				StatusCode: res.StatusCode,
				Status:     statusText(res),
				Body:       strings.TrimSpace(string(text)),
			}
		}
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, &unavailableError{cause: err}
		}
		return body, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &unavailableError{cause: err}
	}
	return body, err
}

// statusText strips the numeric prefix from a response's status line
func statusText(res *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(res.Status, fmt.Sprintf("%d", res.StatusCode)))
}

// encodeMultipart writes fields as a multipart/form-data body
func encodeMultipart(fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to encode form field '%s': %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Package client wraps the transfer service's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/pkg/protocol"
	"github.com/transferdesk/transferdesk/pkg/retry"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client is the single configured HTTP client for the backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
	log         *zap.Logger

	mu             sync.RWMutex
	authToken      string
	onUnauthorized func()
}

// Config holds client configuration.
type Config struct {
	BaseURL   string        // e.g. http://localhost:8000/api
	Timeout   time.Duration // per request, 0 = 30s
	Retry     retry.Config  // applied to GET requests only
	AuthToken string
	Transport http.RoundTripper // wrapped by the logging transport
	Logger    *zap.Logger
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &loggingTransport{next: transport, log: cfg.Logger},
		},
		retryConfig: cfg.Retry,
		log:         cfg.Logger,
		authToken:   cfg.AuthToken,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthToken sets the bearer token for requests. An empty token sends none.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// AuthToken returns the current bearer token.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// OnUnauthorized registers fn to run when an authenticated request gets a 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// applyAuth adds the auth header and reports whether one was set.
func (c *Client) applyAuth(req *http.Request) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken == "" {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	return true
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send executes req and turns transport failures and error statuses into
// *NetworkError and *APIError. The caller owns the returned body.
func (c *Client) send(req *http.Request, path string, auth bool) (*http.Response, error) {
	authed := auth && c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: path, Err: err}
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: protocol.ParseErrorText(data),
		Method:  req.Method,
		Path:    path,
	}
	if resp.StatusCode == http.StatusUnauthorized && authed {
		c.unauthorized()
	}
	return nil, apiErr
}

type validator interface {
	Validate() error
}

// do sends an authenticated JSON request and decodes the JSON response into
// out, which may be nil. GET requests go through the retry config.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	return c.exec(ctx, method, path, query, in, out, true)
}

func (c *Client) exec(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
	}

	call := func(ctx context.Context) (struct{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.send(req, path, auth)
		if err != nil {
			if method == http.MethodGet && retryable(err) {
				return struct{}{}, retry.Retryable(err)
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()
		return struct{}{}, decode(resp.Body, path, out)
	}

	if method == http.MethodGet {
		_, err := retry.Do(ctx, c.retryConfig, call)
		return err
	}
	_, err := call(ctx)
	return err
}

// decode reads a JSON body into out and validates it at the boundary.
func decode(r io.Reader, path string, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", protocol.ErrMalformed, path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// escape makes an entry id safe as a single path segment.
func escape(id string) string {
	return url.PathEscape(id)
}

// loggingTransport logs every round trip at debug level.
type loggingTransport struct {
	next http.RoundTripper
	log  *zap.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.log.Debug("api request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	t.log.Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

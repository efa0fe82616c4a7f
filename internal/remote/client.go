// Package remote talks to the geotask HTTP backend. Client implements both
// the row gateway and the session provider so the sync engine can run
// against a server exactly as it runs against a local database.
package remote

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
	"sync"
	"time"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
)

const apiPrefix = "/api/v1"

// Client is a JSON client for the backend row API. It handles bearer token
// authentication. Each call is a single request; retrying is left to the
// caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     session.TokenStore
	logger     *slog.Logger

	mu     sync.Mutex
	token  string
	loaded bool
	user   *model.User
}

var (
	_ gateway.Gateway  = (*Client)(nil)
	_ session.Provider = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL. The session token
// is read from and persisted to tokens.
func NewClient(baseURL string, tokens session.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) currentToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		tok, err := c.tokens.Load()
		if err != nil {
			return "", fmt.Errorf("loading session token: %w", err)
		}
		c.token = tok
		c.loaded = true
	}
	return c.token, nil
}

func (c *Client) setToken(tok string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = tok
	c.loaded = true
	c.user = nil
	if tok == "" {
		return c.tokens.Clear()
	}
	return c.tokens.Save(tok)
}

func (c *Client) cachedUser() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) cacheUser(u *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		c.user = nil
		return
	}
	cp := *u
	c.user = &cp
}

// request describes one API call.
type request struct {
	entity string
	op     string
	method string
	path   string
	body   any
}

// do sends r and decodes a 2xx JSON response into result. Failures are
// returned as *gateway.Error classified by status code.
func (c *Client) do(ctx context.Context, r request, result any) error {
	url := c.baseURL + apiPrefix + r.path

	var payload []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return gateway.E(gateway.KindInternal, r.entity, r.op, fmt.Errorf("marshaling request body: %w", err))
		}
		payload = data
	}

	token, err := c.currentToken()
	if err != nil {
		return gateway.E(gateway.KindInternal, r.entity, r.op, err)
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, bodyReader)
	if err != nil {
		return gateway.E(gateway.KindInternal, r.entity, r.op, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gateway.E(gateway.KindNetwork, r.entity, r.op,
			fmt.Errorf("executing request %s %s: %w", r.method, r.path, err))
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return gateway.E(gateway.KindNetwork, r.entity, r.op, fmt.Errorf("reading response body: %w", readErr))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			c.cacheUser(nil)
		case http.StatusTooManyRequests:
			c.logger.Warn("rate limited", "path", r.path, "retry_after", resp.Header.Get("Retry-After"))
		}
		return statusError(r, resp.StatusCode, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return gateway.E(gateway.KindInternal, r.entity, r.op,
			fmt.Errorf("unmarshaling response from %s %s: %w", r.method, r.path, err))
	}
	return nil
}

// statusError classifies a non-2xx reply.
func statusError(r request, status int, body []byte) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	err := fmt.Errorf("%s %s: status %d: %s", r.method, r.path, status, msg)

	var kind gateway.Kind
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = gateway.KindValidation
	case http.StatusUnauthorized:
		kind = gateway.KindUnauthenticated
	case http.StatusForbidden:
		kind = gateway.KindPermissionDenied
	case http.StatusNotFound:
		kind = gateway.KindNotFound
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = gateway.KindNetwork
	default:
		kind = gateway.KindInternal
	}
	return gateway.E(kind, r.entity, r.op, err)
}

// fetchOne issues a GET for a single row. A 404 yields found == false.
func (c *Client) fetchOne(ctx context.Context, entity, path string, result any) (bool, error) {
	err := c.do(ctx, request{entity: entity, op: "fetch", method: http.MethodGet, path: path}, result)
	if gateway.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isUnauthorized reports whether err is a 401 from the backend.
func isUnauthorized(err error) bool {
	var gErr *gateway.Error
	return errors.As(err, &gErr) && gErr.Kind == gateway.KindUnauthenticated
}

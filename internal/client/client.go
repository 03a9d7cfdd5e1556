// Package client talks to the external products REST API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	loginPath    = "/api/auth/login"
	productsPath = "/api/products"

	maxErrorBody = 64 << 10
)

// Observer is notified after every call with the operation name and the
// outcome code ("ok" or the error Code).
type Observer func(op, outcome string)

// Client issues authenticated requests against the products API. A Client
// is bound to at most one session; use WithSession to derive a client for
// another user.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *auth.Session
	logger   *zap.Logger
	observer Observer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithLogger sets the logger used for failed calls
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a callback invoked after every call
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of the client that authenticates as s
func (c *Client) WithSession(s *auth.Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Login exchanges credentials for a token. It does not modify c.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{Username: username, Password: password}
	var out models.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, loginPath, body, &out, false)
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, c.fail("login", &APIError{Kind: ErrServer, Op: "login", Message: "login response has no token"})
	}
	return &out, nil
}

// List fetches the full collection in server order
func (c *Client) List(ctx context.Context) ([]models.InventoryItem, error) {
	var out models.ProductsEnvelope
	if err := c.do(ctx, "list", http.MethodGet, productsPath, nil, &out, true); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []models.InventoryItem{}
	}
	return out.Products, nil
}

// Create posts a new item and returns it with its server-assigned id
func (c *Client) Create(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error) {
	var out models.ProductEnvelope
	if err := c.do(ctx, "create", http.MethodPost, productsPath, in, &out, true); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// Update replaces the mutable fields of item id
func (c *Client) Update(ctx context.Context, id string, in models.ItemInput) (*models.InventoryItem, error) {
	var out models.ProductEnvelope
	if err := c.do(ctx, "update", http.MethodPut, productsPath+"/"+url.PathEscape(id), in, &out, true); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// Delete removes item id
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, productsPath+"/"+url.PathEscape(id), nil, nil, true)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}, authenticated bool) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if !c.session.Authenticated() {
			return c.fail(op, &APIError{Kind: ErrAuth, Op: op, Message: "no session token"})
		}
		req.Header.Set("Authorization", c.session.AuthorizationHeader())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, &APIError{Kind: ErrNetwork, Op: op, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := kindForStatus(resp.StatusCode)
		if !authenticated {
			// any rejected login is an auth failure
			kind = ErrAuth
		}
		return c.fail(op, &APIError{
			Kind:    kind,
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body, op),
		})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return c.fail(op, &APIError{Kind: ErrServer, Op: op, Status: resp.StatusCode, Message: "invalid response body", Err: err})
		}
	}

	c.observe(op, "ok")
	return nil
}

func (c *Client) fail(op string, e *APIError) error {
	c.logger.Warn("products api call failed",
		zap.String("op", op),
		zap.Int("status", e.Status),
		zap.String("kind", Code(e)),
		zap.Error(e),
	)
	c.observe(op, Code(e))
	return e
}

func (c *Client) observe(op, outcome string) {
	if c.observer != nil {
		c.observer(op, outcome)
	}
}

// errorMessage extracts {message} or {error} from an error body
func errorMessage(r io.Reader, op string) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body models.MessageResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if op == "login" {
		return "Login failed"
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 200 {
		return s
	}
	return ""
}

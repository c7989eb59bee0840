// Package client is the Go client for the Deep Brain REST API.
//
// The CLI uses it for everything that talks to a running server: login,
// account inspection, and mindmap/task reads. Idempotent GETs are cached
// on disk through [httputil.Cache] so repeated CLI invocations within the
// TTL skip the network; mutations always go to the server and invalidate
// the affected read keys.
//
// All methods are safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/httputil"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// DefaultTimeout bounds one API round trip.
const DefaultTimeout = 30 * time.Second

// defaultReadTTL keeps GET responses fresh enough for interactive use
// while absorbing rapid re-reads (list then view, poll loops).
const defaultReadTTL = 30 * time.Second

// Client talks to one Deep Brain server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *httputil.Cache
}

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string

	// Token is the bearer token for authenticated endpoints. Empty is
	// valid for login/register/public calls.
	Token string

	// HTTPClient overrides the transport. Nil means a client with
	// DefaultTimeout.
	HTTPClient *http.Client

	// Cache stores GET responses. Nil disables response caching.
	Cache *httputil.Cache
}

// New creates a client for the server at opts.BaseURL.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    hc,
		cache:   opts.Cache,
	}
}

// SetToken replaces the bearer token for subsequent calls.
func (c *Client) SetToken(token string) { c.token = token }

// =============================================================================
// Auth
// =============================================================================

// Login exchanges credentials for an access token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/login", body, &out); err != nil {
		return "", err
	}
	c.token = out.AccessToken
	return out.AccessToken, nil
}

// Register creates an account and returns the new user id.
func (c *Client) Register(ctx context.Context, email, username, password, fullName string) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	body := map[string]string{
		"email":     email,
		"username":  username,
		"password":  password,
		"full_name": fullName,
	}
	if err := c.post(ctx, "/api/auth/register", body, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Me returns the authenticated account. Never cached: it doubles as the
// token validity check.
func (c *Client) Me(ctx context.Context) (*store.User, error) {
	var u store.User
	if err := c.getFresh(ctx, "/api/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// =============================================================================
// Mindmaps
// =============================================================================

// ListMindmaps returns the user's documents, newest first.
func (c *Client) ListMindmaps(ctx context.Context, skip, limit int) ([]*mindmap.Document, error) {
	path := fmt.Sprintf("/api/mindmaps/?skip=%d&limit=%d", skip, limit)
	var docs []*mindmap.Document
	if err := c.get(ctx, path, "mindmaps:"+path, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetMindmap returns one document by id.
func (c *Client) GetMindmap(ctx context.Context, id string) (*mindmap.Document, error) {
	var doc mindmap.Document
	if err := c.get(ctx, "/api/mindmaps/"+id, "mindmaps:"+id, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateMindmap uploads a document and returns the stored copy. Cached
// listings age out within the read TTL rather than being invalidated.
func (c *Client) CreateMindmap(ctx context.Context, doc *mindmap.Document) (*mindmap.Document, error) {
	var out mindmap.Document
	if err := c.post(ctx, "/api/mindmaps/", doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMindmap removes a document.
func (c *Client) DeleteMindmap(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/mindmaps/"+id, nil, nil)
}

// =============================================================================
// Tasks
// =============================================================================

// GetTask returns one task. Terminal results are immutable, so polling
// callers get fresh reads while finished tasks come from cache.
func (c *Client) GetTask(ctx context.Context, id string) (*store.Task, error) {
	var t store.Task
	if ok, _ := c.cacheGet("tasks:"+id, &t); ok && t.Status.Terminal() {
		return &t, nil
	}
	if err := c.getFresh(ctx, "/api/tasks/"+id, &t); err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		c.cacheSet("tasks:"+id, &t)
	}
	return &t, nil
}

// WaitTask polls until the task reaches a terminal status or ctx expires.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration) (*store.Task, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.Status.Terminal() {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// =============================================================================
// LLM
// =============================================================================

// GenerateMindmap schedules a server-side generation and returns the task
// id for polling.
func (c *Client) GenerateMindmap(ctx context.Context, req map[string]any) (string, error) {
	var out struct {
		TaskID string `json:"task_id"`
	}
	if err := c.post(ctx, "/api/llm/generate-mindmap", req, &out); err != nil {
		return "", err
	}
	return out.TaskID, nil
}

// =============================================================================
// Health
// =============================================================================

// Health reports whether the server and its storage are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.getFresh(ctx, "/api/health", &struct{}{})
}

// =============================================================================
// Transport
// =============================================================================

// get serves from the response cache when fresh, otherwise fetches and
// stores. Transient server errors are retried with backoff.
func (c *Client) get(ctx context.Context, path, cacheKey string, out any) error {
	if ok, _ := c.cacheGet(cacheKey, out); ok {
		return nil
	}
	if err := c.getFresh(ctx, path, out); err != nil {
		return err
	}
	c.cacheSet(cacheKey, out)
	return nil
}

func (c *Client) getFresh(ctx context.Context, path string, out any) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, out)
	})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// do performs one request. Non-2xx responses decode the server's error
// envelope into a coded error; 5xx and transport failures come back
// retryable.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError turns an error response into the coded error the envelope
// describes. Responses without a parseable envelope map by status class.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var env errors.Envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Detail != "" {
		code := env.Code
		if code == "" {
			code = codeForStatus(resp.StatusCode)
		}
		apiErr := errors.New(code, "%s", env.Detail)
		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{Err: apiErr}
		}
		return apiErr
	}

	err := errors.New(codeForStatus(resp.StatusCode), "server answered %s", resp.Status)
	if resp.StatusCode >= 500 {
		return &httputil.RetryableError{Err: err}
	}
	return err
}

func codeForStatus(status int) errors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return errors.ErrCodeUnauthorized
	case status == http.StatusNotFound:
		return errors.ErrCodeNotFound
	case status == http.StatusConflict:
		return errors.ErrCodeConflict
	case status == http.StatusTooManyRequests:
		return errors.ErrCodeRateLimited
	case status >= 500:
		return errors.ErrCodeNetwork
	default:
		return errors.ErrCodeInvalidInput
	}
}

// =============================================================================
// Cache Helpers
// =============================================================================

func (c *Client) cacheGet(key string, v any) (bool, error) {
	if c.cache == nil {
		return false, nil
	}
	return c.cache.Get(key, v)
}

func (c *Client) cacheSet(key string, v any) {
	if c.cache == nil {
		return
	}
	_ = c.cache.Set(key, v)
}

// NewReadCache builds the on-disk GET cache at the conventional location.
func NewReadCache(dir string) (*httputil.Cache, error) {
	return httputil.NewCache(dir, defaultReadTTL)
}

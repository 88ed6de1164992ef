// Package api is the console's HTTP client for the vulnerability management
// REST API. Every call goes through Client.Do, which attaches the bearer
// token, defeats caches on reads, unwraps the response envelope and reports
// failures to the operator before returning them unchanged.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/vulnark/internal/log"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/version"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 32 << 20

// CacheBustParam is the query parameter added to every GET.
const CacheBustParam = "_t"

// TokenSource yields the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// UnauthorizedFunc is called after a 401 with the token the rejected request
// carried. The console uses it to force a logout and go back to login.
type UnauthorizedFunc func(ctx context.Context, token string)

// RequestValidator checks an outgoing request before it is sent.
type RequestValidator interface {
	ValidateRequest(ctx context.Context, method, path string, query url.Values, body []byte) error
}

// Client talks to the REST API.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	tokens         TokenSource
	notifier       notify.Notifier
	localizer      notify.Localizer
	onUnauthorized UnauthorizedFunc
	validator      RequestValidator
	logger         *log.Logger
	timeout        time.Duration
	uploadTimeout  time.Duration
	now            func() time.Time
	userAgent      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithNotifier sets the notice sink and the locale of built-in messages.
func WithNotifier(n notify.Notifier, locale string) Option {
	return func(c *Client) {
		c.notifier = n
		c.localizer = notify.NewLocalizer(locale)
	}
}

// WithUnauthorized sets the 401 handler.
func WithUnauthorized(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithValidator enables client-side request validation.
func WithValidator(v RequestValidator) Option {
	return func(c *Client) { c.validator = v }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each request that does not set its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUploadTimeout bounds bulk import calls.
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) { c.uploadTimeout = d }
}

// WithClock replaces time.Now, used for the cache-busting parameter.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:       u,
		httpClient:    &http.Client{},
		tokens:        TokenFunc(func() string { return "" }),
		notifier:      notify.Discard,
		localizer:     notify.NewLocalizer(notify.DefaultLocale),
		timeout:       30 * time.Second,
		uploadTimeout: 5 * time.Minute,
		now:           time.Now,
		userAgent:     version.GetInfo().UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrDefault(c.logger).WithComponent("api")
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token overrides the token source for this call.
	Token string
	// Quiet suppresses notices for best-effort calls.
	Quiet bool
	// Timeout overrides the client timeout (uploads use a longer one).
	Timeout time.Duration
}

// Get performs a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post performs a POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put performs a PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Do sends req. On success the envelope's data is decoded into out (which
// may be nil, or a *[]byte to receive the raw body). On failure the error is
// reported once and then returned as an *Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	token := req.Token
	if token == "" {
		token = c.tokens.Token()
	}
	requestID := uuid.NewString()

	apiErr := func(kind Kind, status int, msg string, cause error) *Error {
		return &Error{
			Kind:      kind,
			Status:    status,
			Method:    req.Method,
			Path:      req.Path,
			Message:   msg,
			RequestID: requestID,
			Err:       cause,
			token:     token,
		}
	}

	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return apiErr(KindValidation, 0, "", fmt.Errorf("marshal request body: %w", err))
		}
		payload = data
	}

	if c.validator != nil {
		if err := c.validator.ValidateRequest(ctx, req.Method, req.Path, req.Query, payload); err != nil {
			return apiErr(KindValidation, 0, "", err)
		}
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req, payload, token, requestID)
	if err != nil {
		return apiErr(KindValidation, 0, "", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.fail(ctx, req.Quiet, apiErr(KindNetwork, 0, "", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.fail(ctx, req.Quiet, apiErr(KindNetwork, resp.StatusCode, "", fmt.Errorf("read response: %w", err)))
	}

	c.logger.DebugContext(ctx, "api call",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(ctx, req.Quiet, apiErr(kindForStatus(resp.StatusCode), resp.StatusCode, messageFrom(body), nil))
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}

	code, msg, err := decodeEnvelope(body, out)
	if err != nil {
		return c.fail(ctx, req.Quiet, apiErr(KindDecode, resp.StatusCode, "", err))
	}
	if code != CodeOK {
		rejected := apiErr(KindRejected, resp.StatusCode, msg, nil)
		rejected.Code = code
		return c.fail(ctx, req.Quiet, rejected)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request, payload []byte, token, requestID string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")

	query := url.Values{}
	for k, vs := range req.Query {
		query[k] = append([]string(nil), vs...)
	}
	if req.Method == http.MethodGet {
		query.Set(CacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	u.RawQuery = query.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Method == http.MethodGet {
		httpReq.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		httpReq.Header.Set("Pragma", "no-cache")
		httpReq.Header.Set("Expires", "0")
	}
	return httpReq, nil
}

// decodeEnvelope unwraps the envelope into out and returns its code and
// message. Bodies without an envelope code are decoded directly and count
// as CodeOK.
func decodeEnvelope(body []byte, out any) (int, string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return CodeOK, "", nil
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Code == nil {
		if out == nil {
			return CodeOK, "", nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return 0, "", fmt.Errorf("decode response: %w", err)
		}
		return CodeOK, "", nil
	}

	if *env.Code != CodeOK {
		return *env.Code, env.Message, nil
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return CodeOK, env.Message, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return 0, "", fmt.Errorf("decode response data: %w", err)
	}
	return CodeOK, env.Message, nil
}

// fail reports err to the operator, runs the 401 handler and returns err
// itself so callers still see the original failure.
func (c *Client) fail(ctx context.Context, quiet bool, err *Error) error {
	if quiet || errors.Is(err.Err, context.Canceled) {
		c.logger.WithError(err).DebugContext(ctx, "api call failed")
		return err
	}
	c.logger.WithError(err).WarnContext(ctx, "api call failed")

	switch err.Kind {
	case KindAuthentication:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyUnauthorized, ""))
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, err.token)
		}
	case KindAuthorization:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyForbidden, ""))
	case KindNotFound:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyNotFound, ""))
	case KindServer:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyServerError, ""))
	case KindHTTP:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyRequestFailed, err.Message))
	case KindRejected:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyRejected, err.Message))
	case KindNetwork:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyUnreachable, ""))
	case KindDecode:
		c.notifier.Notify(c.localizer.Notice(notify.LevelError, notify.KeyRequestFailed, ""))
	}
	return err
}

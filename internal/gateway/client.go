// Package gateway is the single outgoing pipeline to the todo REST API.
//
// Every call carries the session's bearer token when there is one. A 401 on
// an authenticated call is handled here, once, for every caller: the session
// is expired, the user is told, and navigation is forced to the login page.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todoweb/internal/platform/metrics"
	"todoweb/internal/platform/tracer"
	dErrors "todoweb/pkg/domain-errors"
	"todoweb/pkg/platform/circuit"
)

const (
	// DefaultTimeout bounds every call.
	DefaultTimeout = 10 * time.Second

	LoginPath = "/auth/login"

	MessageSessionExpired = "Session expired. Please login again."
	MessageGeneric        = "An error occurred"
	MessageNetwork        = "Network error. Please check your connection and try again."

	maxErrorBody = 1 << 20
)

// TokenSource supplies the bearer token; "" means call anonymously.
type TokenSource interface {
	Token() string
}

// SessionClearer drops the session after the API rejected token. It
// reports false when token was already replaced by a newer sign-in.
type SessionClearer interface {
	ExpireToken(token string) bool
}

// Level classifies a user-visible notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// Navigator forces the user agent to path.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	clearer   SessionClearer
	notifier  Notifier
	navigator Navigator
	breaker   *circuit.Breaker

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithSessionClearer(sc SessionClearer) Option {
	return func(c *Client) {
		c.clearer = sc
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithBreaker fails calls fast with CodeNetwork while b is open. Only
// transport failures count against it; any HTTP response counts as success.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New creates a client for the API rooted at baseURL. tokens may be nil for a
// client that never authenticates.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get decodes the response into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one call. Errors are *domainerrors.Error with code
// CodeUnauthorized (the session was expired), CodeNetwork (timeout or
// unreachable API) or a request code carrying the API's message; a cancelled
// ctx returns ctx.Err().
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	route := routeLabel(path)
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, tracer.SpanGatewayCall,
		tracer.String(tracer.AttrHTTPMethod, method),
		tracer.String(tracer.AttrHTTPRoute, route),
	)
	outcome := "ok"
	defer func() {
		span.End(err)
		c.metrics.ObserveGatewayCall(method, route, outcome, time.Since(start).Seconds())
	}()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		outcome = "error"
		return err
	}
	token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	bearer := token != ""
	span.SetAttributes(tracer.Bool(tracer.AttrAuthAttached, bearer))

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			outcome = "circuit_open"
			return &dErrors.Error{Code: dErrors.CodeNetwork, Message: MessageNetwork, Err: err}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			outcome = "canceled"
			return ctxErr
		}
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		outcome = "network"
		c.logger.WarnContext(ctx, "api unreachable", "method", method, "route", route, "error", err)
		return &dErrors.Error{Code: dErrors.CodeNetwork, Message: MessageNetwork, Err: err}
	}
	defer resp.Body.Close()
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			outcome = "decode"
			return dErrors.Wrap(err, dErrors.CodeInternal, "invalid response from API")
		}
		return nil
	}

	apiErr := decodeError(resp)
	if resp.StatusCode == http.StatusUnauthorized && bearer {
		outcome = "expired"
		span.AddEvent(tracer.EventSessionExpired)
		c.sessionExpired(ctx, token)
		return dErrors.Request(dErrors.CodeUnauthorized, resp.StatusCode, MessageSessionExpired, apiErr.Errors)
	}

	outcome = "rejected"
	c.logger.DebugContext(ctx, "api rejected request",
		"method", method,
		"route", route,
		"status", resp.StatusCode,
		"message", apiErr.Message,
	)
	return requestError(resp.StatusCode, apiErr)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// sessionExpired is the one place the 401 side effects happen. A rejected
// token that a newer sign-in already replaced has none.
func (c *Client) sessionExpired(ctx context.Context, token string) {
	if c.clearer != nil && !c.clearer.ExpireToken(token) {
		c.logger.DebugContext(ctx, "api rejected a replaced bearer token")
		return
	}
	c.logger.InfoContext(ctx, "api rejected bearer token; expiring session")
	if c.notifier != nil {
		c.notifier.Notify(ctx, LevelError, MessageSessionExpired)
	}
	if c.navigator != nil {
		c.navigator.Navigate(ctx, LoginPath)
	}
}

// Ping checks that the API answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

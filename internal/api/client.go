package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/logging"
	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultTimeout    = 12 * time.Second
	DefaultRetries    = 1
	DefaultRetryDelay = 300 * time.Millisecond

	healthTimeout = 5 * time.Second
)

// Client talks to the BookNook REST backend. Every JSON call gets a per-attempt
// timeout and a bounded retry on network failures and 5xx answers.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	retries     int
	retryDelay  time.Duration
	devFallback bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the linear backoff step; attempt n waits step*(n+1).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithDevFallback answers read-only calls from a built-in demo catalog when
// the backend is unreachable.
func WithDevFallback(enabled bool) Option {
	return func(c *Client) { c.devFallback = enabled }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:    DefaultTimeout,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Error is the normalized failure of a backend call. Status is zero when no
// HTTP response was received.
type Error struct {
	Status  int
	Message string
	Data    any
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

func (e *Error) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsNetwork reports a transport failure or timeout, excluding caller cancellation.
func IsNetwork(err error) bool {
	var ae *Error
	if !errors.As(err, &ae) || ae.Status != 0 {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

type call struct {
	token       string
	body        any
	header      http.Header
	timeout     time.Duration
	retries     int
	contentType string
}

type CallOption func(*call)

func WithToken(token string) CallOption {
	return func(c *call) { c.token = token }
}

func WithBody(body any) CallOption {
	return func(c *call) { c.body = body }
}

func WithHeader(key, value string) CallOption {
	return func(c *call) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Set(key, value)
	}
}

func WithCallTimeout(d time.Duration) CallOption {
	return func(c *call) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithCallRetries(n int) CallOption {
	return func(c *call) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// Do sends a JSON request to endpoint (a path relative to the base URL) and
// decodes a JSON answer into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, endpoint string, out any, opts ...CallOption) error {
	cl := call{timeout: c.timeout, retries: c.retries, contentType: "application/json"}
	for _, o := range opts {
		o(&cl)
	}

	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return &Error{Message: "encode request body", Err: err}
		}
	}

	l := logging.FromContext(ctx)
	raw, err := backoff.Retry(ctx,
		func() ([]byte, error) {
			data, err := c.send(ctx, method, endpoint, payload, cl)
			if err != nil && !retryable(ctx, err) {
				return nil, backoff.Permanent(err)
			}
			return data, err
		},
		backoff.WithBackOff(&linearBackOff{step: c.retryDelay}),
		backoff.WithMaxTries(uint(cl.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.Warn("backend_request_retry",
				"method", method,
				"endpoint", endpoint,
				"status", StatusOf(err),
				"delay_ms", next.Milliseconds(),
				"error", err)
		}),
	)
	if err != nil {
		return normalize(err)
	}
	return decodeInto(raw, out)
}

// send performs a single attempt bounded by the call timeout.
func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, cl call) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	for k, vs := range cl.header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp, raw)
	}
	return raw, nil
}

func transportError(parent context.Context, err error) *Error {
	switch {
	case parent.Err() != nil:
		return &Error{Message: "request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Message: "request timeout", Err: err}
	default:
		return &Error{Message: "network error", Err: fmt.Errorf("do request: %w", err)}
	}
}

func httpError(resp *http.Response, raw []byte) *Error {
	data := parseBody(raw)
	msg := ""
	if m, ok := data.(map[string]any); ok {
		if s, ok := m["message"].(string); ok {
			msg = s
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(resp.Status)
		if msg == "" {
			msg = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
	}
	return &Error{Status: resp.StatusCode, Message: msg, Data: data}
}

// parseBody returns the JSON value of raw, the raw text when it is not JSON,
// or nil when empty.
func parseBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// retryable: transport failures and non-4xx statuses, unless the caller gave up.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Status == 0 || ae.Status < 400 || ae.Status > 499
}

func normalize(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "request canceled", Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}

func decodeInto(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if rm, ok := out.(*json.RawMessage); ok {
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Message: "decode response", Data: string(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.step * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

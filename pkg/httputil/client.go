package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/observability"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 512

// Client sends JSON requests with default headers and retries.
type Client struct {
	http    *http.Client
	headers map[string]string
	backoff Backoff
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetry replaces the retry policy. Attempts of 1 disables retries.
func WithRetry(b Backoff) ClientOption {
	return func(c *Client) { c.backoff = b }
}

// NewClient creates a Client. Headers are sent with every request;
// pass nil if none are needed.
func NewClient(headers map[string]string, opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: headers,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON encodes body, posts it to url and decodes the response into v.
// Transient failures are retried.
func (c *Client) PostJSON(ctx context.Context, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode request")
	}
	return c.backoff.Do(ctx, func() error {
		return c.do(ctx, http.MethodPost, url, payload, v)
	})
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return transportError(ctx, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "decode response")
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "request timed out")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return Transient(apperrors.Wrap(apperrors.ErrCodeTimeout, err, "request timed out"))
	}
	return Transient(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "request failed"))
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	msg := errorMessage(resp)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.New(apperrors.ErrCodeUnauthorized, "status %d: %s", code, msg)
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, "status %d: %s", code, msg)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return apperrors.Wrap(apperrors.ErrCodeRateLimited,
			&apperrors.RateLimitedError{RetryAfter: retryAfter, Message: msg}, "status %d", code)
	case code >= 500:
		return Transient(apperrors.New(apperrors.ErrCodeNetwork, "status %d: %s", code, msg))
	default:
		return apperrors.New(apperrors.ErrCodeNetwork, "status %d: %s", code, msg)
	}
}

// errorMessage extracts a readable message from an error response. JSON
// bodies of the form {"error":{"message":...}} are unwrapped.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

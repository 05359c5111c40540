package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer credential and is told when the backend rejects it.
type TokenSource interface {
	GetToken(ctx context.Context) string
	Expire(ctx context.Context) error
}

// Client calls the logistics backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

// NewClient builds a client for baseURL. tokens may be nil for anonymous calls.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Tokens:     tokens,
		Limiter:    limiter,
		Logger:     logger,
	}
}

type requestOptions struct {
	headers     http.Header
	contentType string
	multipart   bool
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithHeader adds a caller header. The bearer header always wins over an Authorization value.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers.Add(key, value)
	}
}

// WithMultipart sends body as-is with the given multipart content type.
func WithMultipart(contentType string) RequestOption {
	return func(o *requestOptions) {
		o.multipart = true
		o.contentType = contentType
	}
}

// Get, Post, Put and Delete are shorthands for Do.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends the request and decodes the envelope's data into out (when out is non-nil).
// For multipart requests body must be an io.Reader.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	o := requestOptions{headers: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := c.newRequest(ctx, method, path, body, &o)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("api: request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	c.Logger.Debug("api: response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("requestID", req.Header.Get("X-Request-ID")),
	)
	return c.handleResponse(ctx, resp, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, o *requestOptions) (*http.Request, error) {
	var reader io.Reader
	switch {
	case o.multipart:
		r, ok := body.(io.Reader)
		if !ok && body != nil {
			return nil, fmt.Errorf("multipart body must be an io.Reader, got %T", body)
		}
		reader = r
	case body != nil:
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if o.multipart {
		if o.contentType != "" {
			req.Header.Set("Content-Type", o.contentType)
		}
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	for k, vs := range o.headers {
		if o.multipart && http.CanonicalHeaderKey(k) == "Content-Type" {
			continue
		}
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if c.Tokens != nil {
		if token := c.Tokens.GetToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) handleResponse(ctx context.Context, resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrBackendUnreachable, err)
	}

	isJSON := isJSONContentType(resp.Header.Get("Content-Type"))
	var env Envelope
	var decodeErr error
	if isJSON && len(raw) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	// A rejected token is expired whatever the body looks like.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.Tokens != nil {
			if err := c.Tokens.Expire(ctx); err != nil {
				c.Logger.Warn("api: failed to clear rejected token", zap.Error(err))
			}
		}
		msg := env.Message
		if msg == "" {
			msg = "Session expired. Please log in again."
		}
		return newError(resp.StatusCode, msg)
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, decodeErr)
	}
	if !isJSON {
		return fmt.Errorf("%w: unexpected content type %q (status %d)", ErrInvalidResponse, resp.Header.Get("Content-Type"), resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		status := resp.StatusCode
		return newError(status, env.Message)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

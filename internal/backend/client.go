// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend is the HTTP client for the foundation's JSON API.
//
// Every response carries the envelope {codigoStatus, mensagem, body}. Reads
// trust codigoStatus and degrade to empty results; writes fail on any
// non-2xx HTTP status or envelope code.
package backend

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
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

var (
	// ErrNoToken is returned by mutating calls made without a token.
	ErrNoToken = errors.New("admin token required")
	// ErrUnsupported is returned when a kind has no endpoint for the operation.
	ErrUnsupported = errors.New("operation not supported for resource kind")
	// ErrInvalidCredentials is returned when the backend does not issue a token.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RejectionError is a write the backend refused.
type RejectionError struct {
	Status  int
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend rejected request (HTTP %d, codigoStatus %d)", e.Status, e.Code)
}

// Envelope is the response wrapper used by every endpoint.
type Envelope struct {
	CodigoStatus int             `json:"codigoStatus"`
	Mensagem     string          `json:"mensagem,omitempty"`
	Body         json.RawMessage `json:"body,omitempty"`
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool { return e.CodigoStatus == http.StatusOK }

// Field extracts body[key]. It reports false when the body is not an
// object or the key is absent.
func (e Envelope) Field(key string) (json.RawMessage, bool) {
	if len(e.Body) == 0 {
		return nil, false
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return nil, false
	}
	raw, ok := body[key]
	return raw, ok
}

// response is a completed round trip. decodeErr is set when the body
// was not a JSON envelope.
type response struct {
	status    int
	env       Envelope
	decodeErr error
}

func (r response) success() bool {
	if r.status < 200 || r.status >= 300 {
		return false
	}
	return r.decodeErr != nil || r.env.CodigoStatus == 0 || (r.env.CodigoStatus >= 200 && r.env.CodigoStatus < 300)
}

// Client talks to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for degraded reads.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// do performs one call. The error is non-nil only for transport failures.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, payload any) (response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		// Spaces as %20 rather than "+", matching what browsers send.
		target += "?" + strings.ReplaceAll(query.Encode(), "+", "%20")
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		// Sent as held: the token already carries its scheme.
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	out := response{status: resp.StatusCode}
	if err := json.Unmarshal(raw, &out.env); err != nil {
		out.decodeErr = fmt.Errorf("decode envelope: %w", err)
	}
	return out, nil
}

// readBody fetches an envelope and returns body[key] when the call
// succeeded. Failures are logged and reported as false.
func (c *Client) readBody(ctx context.Context, path string, query url.Values, key string) (json.RawMessage, bool) {
	res, err := c.do(ctx, http.MethodGet, path, query, "", nil)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WarnContext(ctx, "backend list failed", "api_path", path, "error", err)
		}
		return nil, false
	}
	if res.decodeErr != nil {
		c.logger.WarnContext(ctx, "backend list returned malformed body", "api_path", path, "status", res.status, "error", res.decodeErr)
		return nil, false
	}
	if !res.env.OK() {
		c.logger.WarnContext(ctx, "backend list not ok", "api_path", path, "codigo_status", res.env.CodigoStatus, "mensagem", res.env.Mensagem)
		return nil, false
	}
	raw, ok := res.env.Field(key)
	if !ok {
		c.logger.WarnContext(ctx, "backend list missing key", "api_path", path, "key", key)
	}
	return raw, ok
}

// mutate performs an authenticated write.
func (c *Client) mutate(ctx context.Context, method, path, token string, payload any) (Envelope, error) {
	if strings.TrimSpace(token) == "" {
		return Envelope{}, ErrNoToken
	}
	res, err := c.do(ctx, method, path, nil, token, payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !res.success() {
		return res.env, &RejectionError{
			Status:  res.status,
			Code:    res.env.CodigoStatus,
			Message: strings.TrimSpace(res.env.Mensagem),
		}
	}
	return res.env, nil
}

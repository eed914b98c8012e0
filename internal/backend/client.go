// Package backend is the client of the content REST API.
package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type contextKey string

const tokenKey contextKey = "backendToken"

// WithToken attaches the bearer token forwarded to the backend
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token returns the bearer token attached to ctx
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// Body is a request body that knows its content type
type Body interface {
	Encode() ([]byte, string, error)
}

// JSONBody encodes any value as application/json
type JSONBody struct{ V any }

func (b JSONBody) Encode() ([]byte, string, error) {
	data, err := json.Marshal(b.V)
	return data, "application/json", err
}

// Client calls the backend. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	cache   *Cache
	observe Observer
}

// Observer is told about every finished backend call. status is 0 when no
// response arrived.
type Observer func(op string, status int, d time.Duration)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// WithCache enables the GET cache
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func New(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   Body
	want   int
}

// raw is an envelope whose data is decoded later
type raw = Envelope[json.RawMessage]

func (c *Client) get(ctx context.Context, cl call) (*raw, error) {
	cl.method = http.MethodGet
	if c.cache == nil {
		return c.send(ctx, cl)
	}

	key := cacheKey(ctx, cl.path, cl.query)
	body, err := c.cache.Get(ctx, key, func(ctx context.Context) ([]byte, error) {
		env, err := c.send(ctx, cl)
		if err != nil {
			return nil, err
		}
		return json.Marshal(env)
	})
	if err != nil {
		return nil, err
	}
	var env raw
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// mutate sends a write and drops cached reads of the resource
func (c *Client) mutate(ctx context.Context, resource string, cl call) (*raw, error) {
	env, err := c.send(ctx, cl)
	if c.cache != nil {
		c.cache.Purge("/" + resource + "/")
	}
	return env, err
}

func cacheKey(ctx context.Context, path string, query url.Values) string {
	sum := sha256.Sum256([]byte(Token(ctx)))
	return path + "?" + query.Encode() + "#" + hex.EncodeToString(sum[:8])
}

func (c *Client) send(ctx context.Context, cl call) (*raw, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var reqBody io.Reader
	contentType := ""
	if cl.body != nil {
		data, ct, err := cl.body.Encode()
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		reqBody = bytes.NewReader(data)
		contentType = ct
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observe != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observe(cl.op, status, time.Since(start))
	}
	if err != nil {
		c.log.Error("Backend request failed",
			zap.String("op", cl.op),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("Backend request",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", cl.op, err)
	}

	var env raw
	decodeErr := json.Unmarshal(payload, &env)
	status := env.Status
	if decodeErr != nil || status == 0 {
		status = resp.StatusCode
	}

	if resp.StatusCode >= 400 || status != cl.want {
		return nil, &StatusError{
			Op:         cl.op,
			HTTPStatus: resp.StatusCode,
			Status:     status,
			Message:    env.Message,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s: decode response: %w", cl.op, decodeErr)
	}
	return &env, nil
}

func decodeData[T any](op string, env *raw) (Envelope[T], error) {
	out := Envelope[T]{
		Status:     env.Status,
		Message:    env.Message,
		Pagination: env.Pagination,
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out.Data); err != nil {
		return out, fmt.Errorf("%s: decode data: %w", op, err)
	}
	return out, nil
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/middleware/requestid"
)

// TokenSource yields the bearer token of the current session. An empty token
// with a nil error means the session is unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Observer receives one call per upstream request.
type Observer interface {
	ObserveUpstream(method, resource string, status int, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Tokens      TokenSource
	BypassKey   string
	BypassValue string
	Validator   *validator.Validate
	Observer    Observer
	Logger      *zap.Logger
}

// Client issues requests against the course API. It performs no retries.
type Client struct {
	baseURL     string
	http        *http.Client
	tokens      TokenSource
	bypassKey   string
	bypassValue string
	validate    *validator.Validate
	observer    Observer
	logger      *zap.Logger
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("transport: base url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:     base,
		http:        opts.HTTPClient,
		tokens:      opts.Tokens,
		bypassKey:   opts.BypassKey,
		bypassValue: opts.BypassValue,
		validate:    opts.Validator,
		observer:    opts.Observer,
		logger:      opts.Logger,
	}, nil
}

// Request sends method+path with an optional body and returns the raw JSON
// body. Empty bodies yield a nil message. A *FormData body is sent as
// multipart; anything else is JSON encoded.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+normalizePath(path), reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to build request")
	}
	c.decorate(ctx, req, contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	resource := resourceOf(path)
	if err != nil {
		c.observe(method, resource, 0, duration)
		c.logger.Warn("upstream request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, appErrors.Network(err)
	}
	defer resp.Body.Close()
	c.observe(method, resource, resp.StatusCode, duration)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Network(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := appErrors.HTTP(resp.StatusCode, payload)
		c.logger.Debug("upstream rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, httpErr
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}
	if !json.Valid(payload) {
		return nil, appErrors.Decode(fmt.Errorf("%s %s: body is not valid json", method, path))
	}
	return json.RawMessage(payload), nil
}

// Do performs Request and decodes the body into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	raw, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	return c.Decode(raw, out)
}

// Decode unmarshals raw into out and validates struct schemas.
func (c *Client) Decode(raw json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Decode(err)
	}
	if isStructPointer(out) {
		if err := c.validate.Struct(out); err != nil {
			return appErrors.Decode(fmt.Errorf("schema: %w", err))
		}
	}
	return nil
}

func (c *Client) decorate(ctx context.Context, req *http.Request, contentType string) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.bypassKey != "" {
		req.Header.Set(c.bypassKey, c.bypassValue)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("session token unavailable, sending unauthenticated request", zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) observe(method, resource string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(method, resource, status, d)
	}
}

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *FormData:
		if b == nil {
			return nil, "", nil
		}
		buf, contentType, err := b.encode()
		if err != nil {
			return nil, "", err
		}
		return buf, contentType, nil
	case json.RawMessage:
		if len(b) == 0 {
			return nil, "", nil
		}
		return bytes.NewReader(b), "application/json", nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(encoded), "application/json", nil
	}
}

func isStructPointer(v interface{}) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// resourceOf keeps metric labels bounded by dropping ids from the path.
func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

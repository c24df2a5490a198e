// Package transport wraps net/http with authentication, default headers,
// bounded timeouts and error classification for every remote call comicmap makes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.ExtractTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http      *http.Client
	auth      Authenticator
	secret    string
	userAgent string
	headers   map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuth applies auth with secret to every request. An empty secret disables auth.
func WithAuth(auth Authenticator, secret string) Option {
	return func(c *Client) {
		c.auth = auth
		c.secret = secret
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeader sets an extra header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    &NoAuth{},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication and default headers applied.
// Transport failures are returned as *errors.FetchError.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.secret != "" && c.auth != nil {
		c.auth.Apply(req, c.secret)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, req.URL.String(), err)
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(ctx, req)
}

// GetBytes performs a GET request with the given Accept header and returns the
// body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return ReadBody(resp)
}

// GetJSON performs a GET request and decodes a JSON response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// SendJSON encodes body and sends it with the given method.
func (c *Client) SendJSON(ctx context.Context, method, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapResource("create", "request", method+" "+url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(ctx, req)
}

func classify(ctx context.Context, url string, err error) error {
	switch {
	case ctx.Err() == context.Canceled:
		return &errors.FetchError{URL: url, Message: "request canceled", Err: errors.ErrCanceled}
	case ctx.Err() == context.DeadlineExceeded || isTimeout(err):
		return &errors.FetchError{URL: url, Message: err.Error(), Err: errors.ErrTimeout}
	}
	return errors.WrapFetch(url, 0, err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

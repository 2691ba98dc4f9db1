// Package gateway talks to a Shioaji-compatible REST gateway that fronts the
// brokerage session.
package gateway

import (
	"net/http"

	"marketpulse/internal/broker"
)

const defaultBaseURL = "http://127.0.0.1:8001"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=gateway_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client opens gateway sessions.
type Client struct {
	// baseURL is the base URL for the gateway.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the gateway client.
type Option func(*Client)

// WithBaseURL sets the base URL for the gateway.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the gateway.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// New creates a gateway client.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Open returns a new, unauthenticated session. It satisfies broker.Opener.
func (c *Client) Open() broker.Session {
	return &session{client: c}
}

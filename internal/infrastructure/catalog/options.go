package catalog

import (
	"net/http"
	"time"
)

type Option func(c *Client)

func ConnectTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = timeout
	}
}

func ReadTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.readTimeout = timeout
	}
}

// Transport replaces the base round tripper. The client still wraps it for tracing.
func Transport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

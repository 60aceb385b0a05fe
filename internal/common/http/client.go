// Package http wraps the outbound HTTP client shared by the processor
// dispatcher and the analysis API client. Callers attach their context to the
// request; the wrapper only owns the per-call timeout.
package http

import (
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

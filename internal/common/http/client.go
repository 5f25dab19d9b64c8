// internal/common/http/client.go

// Package http wraps the standard client with the request shape this
// service's outbound directory lookups share: caller context, a hard
// per-call timeout and a JSON accept header applied in one place.
package http

import (
	"context"
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

// GetJSON issues a GET for a JSON resource under the caller's context.
// Non-2xx statuses are not treated as errors; callers inspect the response.
func (c *Client) GetJSON(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

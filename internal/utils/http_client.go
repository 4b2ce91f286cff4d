package utils

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly,
// while allowing extension with additional application-specific behavior.
//
// Example usage:
//
//	client := utils.NewHTTPClient()
//	resp, err := client.R().Get("https://example.com")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates and returns a new HTTPClient instance
// with a default-configured underlying resty.Client.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}

// WithRetry makes the client repeat a request up to count more times when
// the transport fails or the response status is one of statuses. Waits grow
// from wait up to maxWait between attempts.
//
// Example usage:
//
//	client := utils.NewHTTPClient().
//	    WithRetry(2, 500*time.Millisecond, 2*time.Second, http.StatusBadGateway)
func (c *HTTPClient) WithRetry(count int, wait, maxWait time.Duration, statuses ...int) *HTTPClient {
	c.SetRetryCount(count).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && slices.Contains(statuses, resp.StatusCode())
		})
	return c
}

// TransientStatuses lists the gateway statuses worth retrying.
var TransientStatuses = []int{
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

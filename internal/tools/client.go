package tools

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedTransport throttles outbound requests so tool bursts within a
// single agent turn stay polite toward the upstream APIs.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the shared client used by all network tools: request
// timeout plus a global rate limit of 5 req/s with a small burst.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &rateLimitedTransport{
			base:    http.DefaultTransport,
			limiter: rate.NewLimiter(rate.Limit(5), 5),
		},
	}
}

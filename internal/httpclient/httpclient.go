// Package httpclient builds the HTTP client shared by metadata and schema
// fetches.
package httpclient

import (
	"net/http"

	"canelevation/internal/config"
	"canelevation/internal/version"

	"github.com/klauspost/compress/gzhttp"
)

// New returns a client with transparent gzip decoding, the configured
// timeout and a canelevation user agent.
func New(cfg config.HTTPConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &userAgentTransport{
			agent: version.UserAgent(cfg.UserAgent),
			next:  gzhttp.Transport(http.DefaultTransport),
		},
	}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pulsewatch/pulsewatch/internal/config"
)

// Sentinel errors returned by Fetch. A transport failure, timeout, or non-200
// status is ErrSourceUnavailable; a response body that does not carry the
// expected numeric value is ErrMalformedResponse. Fetch never substitutes a
// sentinel value for a failure; callers always see an explicit error.
var (
	ErrSourceUnavailable = errors.New("source: unavailable")
	ErrMalformedResponse = errors.New("source: malformed response")
)

// Source fetches the current value of the monitored metric from an external
// endpoint.
type Source interface {
	Fetch(ctx context.Context) (float64, error)
}

// New returns the Source for the given configuration.
// The HTTP client is built once and reused across fetch calls.
func New(cfg config.SourceConfig) (Source, error) {
	client := buildHTTPClient(cfg)
	switch cfg.Type {
	case "actuator":
		return &actuatorSource{cfg: cfg, client: client}, nil
	case "prometheus":
		return &promSource{cfg: cfg, client: client}, nil
	default:
		return nil, fmt.Errorf("source: unsupported type %q", cfg.Type)
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth settings.
// The client timeout bounds every fetch so a slow endpoint cannot stall the
// collector past one cycle.
func buildHTTPClient(cfg config.SourceConfig) *http.Client {
	return &http.Client{
		Transport: &authRoundTripper{base: http.DefaultTransport, auth: cfg.Auth},
		Timeout:   cfg.Timeout,
	}
}

// get performs an HTTP GET and classifies transport and status failures as
// ErrSourceUnavailable. An empty accept leaves the Accept header unset. The
// caller owns the response body.
func get(ctx context.Context, client *http.Client, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSourceUnavailable, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	return resp, nil
}

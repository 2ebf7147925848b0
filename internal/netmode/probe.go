package netmode

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/luma-home/luma/internal/transport"
)

// DefaultLocalProbeTimeout bounds the latency of a local reachability probe.
// A LAN server that cannot answer a home listing in this window is treated as
// unreachable for mode-resolution purposes.
const DefaultLocalProbeTimeout = 2 * time.Second

// TokenFunc yields the current local auth token, or "" when not logged in.
type TokenFunc func(ctx context.Context) (string, error)

// HTTPLocalProber probes the local server's authenticated home-listing
// endpoint. Any 2xx counts as reachable; every error, non-2xx status, or
// timeout counts as unreachable and is never propagated.
type HTTPLocalProber struct {
	endpoints transport.Provider
	token     TokenFunc
	client    *http.Client
	timeout   time.Duration
}

// NewHTTPLocalProber builds a local prober. client may be nil for a default.
func NewHTTPLocalProber(endpoints transport.Provider, token TokenFunc, client *http.Client) *HTTPLocalProber {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPLocalProber{
		endpoints: endpoints,
		token:     token,
		client:    client,
		timeout:   DefaultLocalProbeTimeout,
	}
}

// WithTimeout overrides the probe latency bound (primarily for tests).
func (p *HTTPLocalProber) WithTimeout(d time.Duration) *HTTPLocalProber {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// ProbeLocal implements LocalProber.
func (p *HTTPLocalProber) ProbeLocal(ctx context.Context) bool {
	eps, err := p.endpoints.Endpoints(ctx)
	if err != nil || eps.LocalBaseURL == "" {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, eps.LocalBaseURL+"/api/homes/", nil)
	if err != nil {
		return false
	}
	if p.token != nil {
		if token, err := p.token(probeCtx); err == nil && token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Token %s", token))
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[NetMode] local probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Package transport resolves the base addresses of the two backends. Request
// builders take a Provider instead of reading configuration state themselves,
// so the wiring is explicit and testable.
package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/luma-home/luma/internal/bootstrap"
	configstore "github.com/luma-home/luma/internal/config/store"
)

// DefaultCloudURL is the production cloud relay. Overridable via the store or
// the bootstrap file.
const DefaultCloudURL = "https://cloud.luma-home.io"

// Endpoints holds the resolved base URLs for both transports. LocalBaseURL is
// empty when no server address has been configured; callers surface that as a
// distinct "not configured" condition rather than dialing a default.
type Endpoints struct {
	LocalBaseURL string
	CloudBaseURL string
}

// CloudAPIBase returns the cloud REST root ({cloud}/api).
func (e Endpoints) CloudAPIBase() string {
	return strings.TrimRight(e.CloudBaseURL, "/") + "/api"
}

// Provider yields the current endpoints.
type Provider interface {
	Endpoints(ctx context.Context) (Endpoints, error)
}

// Static is a fixed-endpoint Provider for tests and explicit overrides.
type Static Endpoints

func (s Static) Endpoints(context.Context) (Endpoints, error) {
	return Endpoints(s), nil
}

// StoreProvider resolves endpoints from the config store, letting bootstrap
// overrides win when present.
type StoreProvider struct {
	store *configstore.Store
	boot  *bootstrap.Config
}

// NewStoreProvider builds a provider over the given store. boot may be nil.
func NewStoreProvider(store *configstore.Store, boot *bootstrap.Config) *StoreProvider {
	return &StoreProvider{store: store, boot: boot}
}

// Endpoints computes both base URLs. A missing server address yields an empty
// LocalBaseURL, not an error; an invalid stored address is an error.
func (p *StoreProvider) Endpoints(ctx context.Context) (Endpoints, error) {
	var out Endpoints

	if p.boot != nil && p.boot.ServerHost != "" {
		out.LocalBaseURL = fmt.Sprintf("http://%s:%d", p.boot.ServerHost, p.boot.ServerPort)
	} else {
		addr, err := p.store.GetServerAddress(ctx)
		switch {
		case err == nil:
			out.LocalBaseURL = addr.BaseURL()
		case configstore.IsNotFound(err):
			// Not configured yet; leave empty.
		default:
			return Endpoints{}, fmt.Errorf("transport: resolve local endpoint: %w", err)
		}
	}

	if p.boot != nil && p.boot.CloudURL != "" {
		out.CloudBaseURL = strings.TrimRight(p.boot.CloudURL, "/")
		return out, nil
	}

	cloudURL, err := p.store.GetCloudBaseURL(ctx, DefaultCloudURL)
	if err != nil {
		return Endpoints{}, fmt.Errorf("transport: resolve cloud endpoint: %w", err)
	}
	out.CloudBaseURL = strings.TrimRight(cloudURL, "/")
	return out, nil
}

// WebSocketBase converts an HTTP base URL into its WebSocket equivalent
// (http → ws, https → wss). Invalid input comes back unchanged.
func WebSocketBase(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/")
}

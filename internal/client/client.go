// Package client implements the unified backend client: REST clients for the
// local server and the cloud relay, the mode-aware dispatcher that routes
// between them, and the Client bundle that wires everything together.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/luma-home/luma/internal/bootstrap"
	"github.com/luma-home/luma/internal/channel"
	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/eventbus"
	"github.com/luma-home/luma/internal/netmode"
	"github.com/luma-home/luma/internal/transport"
)

// Options configures a Client bundle. Store is required; everything else has
// a usable default.
type Options struct {
	Store     *configstore.Store
	Bootstrap *bootstrap.Config // optional pre-store overrides
	Bus       *eventbus.Bus     // nil: the Client creates and owns one
	HTTP      *http.Client      // nil: per-client defaults

	// ChannelOptions tune the event channel (retry delay, dialer); used by
	// tests and exposed for embedders.
	ChannelOptions []channel.Option
}

// Client bundles the full network stack behind one explicitly constructed
// object. Every dependency is wired here, in one place, rather than reached
// through package-level singletons.
type Client struct {
	Store      *configstore.Store
	Bus        *eventbus.Bus
	Endpoints  transport.Provider
	Local      *LocalClient
	Cloud      *CloudClient
	Resolver   *netmode.Resolver
	Dispatcher *Dispatcher
	Channel    *channel.Manager

	boot    *bootstrap.Config
	ownsBus bool
}

// New wires a Client from its options. ctx bounds the initial endpoint
// lookup used to seed the event channel's local address.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("client: store is required")
	}

	bus := opts.Bus
	ownsBus := false
	if bus == nil {
		bus = eventbus.New()
		ownsBus = true
	}

	endpoints := transport.NewStoreProvider(opts.Store, opts.Bootstrap)

	localToken := localTokenSource(opts.Store, opts.Bootstrap)
	local := NewLocalClient(endpoints, localToken, opts.HTTP)
	cloud := NewCloudClient(endpoints, opts.Store, opts.HTTP)

	prober := netmode.NewHTTPLocalProber(endpoints, netmode.TokenFunc(localToken), opts.HTTP)
	resolver := netmode.NewResolver(opts.Store, prober, cloud)

	eps, err := endpoints.Endpoints(ctx)
	if err != nil {
		if ownsBus {
			bus.Shutdown()
		}
		return nil, fmt.Errorf("client: resolve endpoints: %w", err)
	}
	ch := channel.NewManager(bus, transport.WebSocketBase(eps.LocalBaseURL), opts.ChannelOptions...)

	dispatcher := NewDispatcher(resolver, local, cloud, endpoints, ch)

	return &Client{
		Store:      opts.Store,
		Bus:        bus,
		Endpoints:  endpoints,
		Local:      local,
		Cloud:      cloud,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Channel:    ch,
		boot:       opts.Bootstrap,
		ownsBus:    ownsBus,
	}, nil
}

// Refresh re-resolves the network mode. Call it on startup, on foreground,
// and after configuration changes; commands in between reuse the cached mode.
func (c *Client) Refresh(ctx context.Context, homeID string) netmode.Mode {
	return c.Dispatcher.Refresh(ctx, homeID)
}

// ConnectChannel opens the live event channel for homeID, picking the
// credential that matches the current mode.
func (c *Client) ConnectChannel(ctx context.Context, homeID string) error {
	mode := c.Dispatcher.Mode()
	switch mode {
	case netmode.ModeLocal:
		token, err := localTokenSource(c.Store, c.boot)(ctx)
		if err != nil {
			return fmt.Errorf("connect channel: %w", err)
		}
		return c.Channel.Connect(token, homeID)
	case netmode.ModeCloud:
		session, err := c.Store.GetCloudSession(ctx)
		if err != nil {
			return fmt.Errorf("connect channel: %w", err)
		}
		return c.Channel.Connect(session.AccessToken, homeID)
	default:
		return fmt.Errorf("connect channel: %w", ErrOffline)
	}
}

// Close tears down the event channel and, when owned, the bus.
func (c *Client) Close() {
	c.Channel.Disconnect()
	if c.ownsBus {
		c.Bus.Shutdown()
	}
}

// localTokenSource prefers the bootstrap token and falls back to the store.
// A missing token is "", not an error; callers that require authentication
// get a clean 401 from the server instead of a local failure.
func localTokenSource(store *configstore.Store, boot *bootstrap.Config) TokenSource {
	return func(ctx context.Context) (string, error) {
		if boot != nil && boot.LocalToken != "" {
			return boot.LocalToken, nil
		}
		token, err := store.GetLocalToken(ctx)
		if err != nil {
			if configstore.IsNotFound(err) {
				return "", nil
			}
			return "", err
		}
		return token, nil
	}
}

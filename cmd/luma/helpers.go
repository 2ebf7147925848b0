package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luma-home/luma/internal/bootstrap"
	"github.com/luma-home/luma/internal/client"
	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/netmode"
)

const commandTimeout = 30 * time.Second

// openStore opens the default instance's configuration database.
func openStore(readOnly bool) (*configstore.Store, error) {
	return configstore.Open(configstore.Options{ReadOnly: readOnly})
}

// newApp wires the full client bundle from the store and the optional
// bootstrap file. The caller owns both returned closers via cleanup.
func newApp(ctx context.Context) (*client.Client, func(), error) {
	store, err := openStore(false)
	if err != nil {
		return nil, nil, fmt.Errorf("open configuration: %w", err)
	}

	boot, err := bootstrap.Load()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("read bootstrap configuration: %w", err)
	}

	c, err := client.New(ctx, client.Options{Store: store, Bootstrap: boot})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		c.Close()
		store.Close()
	}
	return c, cleanup, nil
}

// refreshMode resolves the network mode before a command runs. Cloud
// resolution needs a home; when the caller has none the stored gateway
// identity stands in.
func refreshMode(ctx context.Context, c *client.Client, explicit string) netmode.Mode {
	hint := explicit
	if hint == "" {
		if id, err := c.Store.GetGatewayID(ctx); err == nil {
			hint = id
		}
	}
	return c.Refresh(ctx, hint)
}

// resolveHomeID fills in a missing home argument: in local mode the first
// listed home is used; in cloud mode the gateway identity stands in, so an
// empty string is fine.
func resolveHomeID(ctx context.Context, c *client.Client, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.Dispatcher.Mode() != netmode.ModeLocal {
		return "", nil
	}
	homes, err := c.Dispatcher.Homes(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve default home: %w", err)
	}
	if len(homes) == 0 {
		return "", errors.New("no homes found; pass a home id explicitly")
	}
	return homes[0].ID, nil
}

// parseValue interprets a CLI value argument: JSON literals (numbers, bools,
// null, quoted strings, objects) are decoded, anything else stays a string.
// "on"/"off" pass through as strings; the backend interprets them.
func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v
	}
	return raw
}

// describeClientError maps the client's sentinel errors onto actionable
// guidance for terminal users.
func describeClientError(err error) string {
	switch {
	case errors.Is(err, client.ErrNotConfigured):
		return "No hub address configured. Run: luma config server --host <ip> --port <port>"
	case errors.Is(err, client.ErrNotPaired):
		return "No gateway is paired with your cloud account. Pair the hub from the mobile app first."
	case errors.Is(err, client.ErrOffline):
		return "Neither the hub nor the cloud relay is reachable. Check your connection."
	case errors.Is(err, client.ErrUnsupported):
		return "This operation is not available through the cloud relay. Connect to your home network."
	default:
		return ""
	}
}

// reportError prints sentinel guidance when available, the raw error otherwise.
func reportError(out *OutputFormatter, message string, err error) error {
	if hint := describeClientError(err); hint != "" {
		return out.Error(hint, err)
	}
	return out.Error(message, err)
}

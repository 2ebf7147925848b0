package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/luma-home/luma/internal/validate"
)

// Setting keys used by the network core. Values are whole-value overwrites;
// partial updates never happen (see SaveSettings).
const (
	keyCloudEnabled   = "network.cloud_enabled"
	keyForceCloudOnly = "network.force_cloud_only"
	keyServerHost     = "network.server_host"
	keyServerPort     = "network.server_port"
	keyCloudBaseURL   = "network.cloud_base_url"
	keyGatewayID      = "network.gateway_id"
)

// NetworkPreferences holds the user's transport choices.
type NetworkPreferences struct {
	CloudEnabled   bool
	ForceCloudOnly bool
}

// ServerAddress identifies the LAN-local backend server.
type ServerAddress struct {
	Host string
	Port int
}

// BaseURL renders the address as an HTTP base URL.
func (a ServerAddress) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", a.Host, a.Port)
}

// GetNetworkPreferences loads the cloud toggles, defaulting both to false
// when never set.
func (s *Store) GetNetworkPreferences(ctx context.Context) (NetworkPreferences, error) {
	settings, err := s.LoadSettings(ctx, keyCloudEnabled, keyForceCloudOnly)
	if err != nil {
		return NetworkPreferences{}, err
	}
	return NetworkPreferences{
		CloudEnabled:   settings[keyCloudEnabled] == "true",
		ForceCloudOnly: settings[keyForceCloudOnly] == "true",
	}, nil
}

// SaveNetworkPreferences persists the cloud toggles.
func (s *Store) SaveNetworkPreferences(ctx context.Context, prefs NetworkPreferences) error {
	return s.SaveSettings(ctx, map[string]string{
		keyCloudEnabled:   strconv.FormatBool(prefs.CloudEnabled),
		keyForceCloudOnly: strconv.FormatBool(prefs.ForceCloudOnly),
	})
}

// GetServerAddress returns the configured local server address. An address
// that was never configured yields a NotFoundError rather than a zero value,
// so callers can distinguish "not set up" from a bad configuration.
func (s *Store) GetServerAddress(ctx context.Context) (ServerAddress, error) {
	settings, err := s.LoadSettings(ctx, keyServerHost, keyServerPort)
	if err != nil {
		return ServerAddress{}, err
	}

	host := strings.TrimSpace(settings[keyServerHost])
	if host == "" {
		return ServerAddress{}, NotFoundError{Entity: "server address"}
	}

	port, err := strconv.Atoi(settings[keyServerPort])
	if err != nil {
		return ServerAddress{}, fmt.Errorf("config: parse %s: %w", keyServerPort, err)
	}

	addr := ServerAddress{Host: host, Port: port}
	if err := validate.HostPort(addr.Host, addr.Port); err != nil {
		return ServerAddress{}, fmt.Errorf("config: stored server address invalid: %w", err)
	}
	return addr, nil
}

// SaveServerAddress validates and persists the local server address.
func (s *Store) SaveServerAddress(ctx context.Context, addr ServerAddress) error {
	if err := validate.HostPort(addr.Host, addr.Port); err != nil {
		return fmt.Errorf("config: save server address: %w", err)
	}
	return s.SaveSettings(ctx, map[string]string{
		keyServerHost: addr.Host,
		keyServerPort: strconv.Itoa(addr.Port),
	})
}

// GetCloudBaseURL returns the cloud relay base URL, or defaultURL when unset.
func (s *Store) GetCloudBaseURL(ctx context.Context, defaultURL string) (string, error) {
	settings, err := s.LoadSettings(ctx, keyCloudBaseURL)
	if err != nil {
		return "", err
	}
	if raw := strings.TrimSpace(settings[keyCloudBaseURL]); raw != "" {
		return raw, nil
	}
	return defaultURL, nil
}

// SaveCloudBaseURL persists a cloud relay base URL override.
func (s *Store) SaveCloudBaseURL(ctx context.Context, rawURL string) error {
	if err := validate.HTTPURL(rawURL); err != nil {
		return fmt.Errorf("config: save cloud base URL: %w", err)
	}
	return s.SaveSettings(ctx, map[string]string{keyCloudBaseURL: strings.TrimSpace(rawURL)})
}

// GetGatewayID returns the cached cloud gateway identity. A missing identity
// yields a NotFoundError; cloud operations treat that as "not paired".
func (s *Store) GetGatewayID(ctx context.Context) (string, error) {
	settings, err := s.LoadSettings(ctx, keyGatewayID)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(settings[keyGatewayID])
	if id == "" {
		return "", NotFoundError{Entity: "gateway identity"}
	}
	return id, nil
}

// SaveGatewayID caches the resolved cloud gateway identity.
func (s *Store) SaveGatewayID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: save gateway identity: empty id")
	}
	return s.SaveSettings(ctx, map[string]string{keyGatewayID: id})
}

// ClearGatewayID drops the cached gateway identity (unpair).
func (s *Store) ClearGatewayID(ctx context.Context) error {
	return s.DeleteSettings(ctx, keyGatewayID)
}

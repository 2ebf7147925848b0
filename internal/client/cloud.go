package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/luma-home/luma/internal/api"
	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/transport"
)

// Cloud requests cross the public internet and a relay hop, so they get a
// more generous latency budget than LAN calls.
const cloudHTTPTimeout = 15 * time.Second

// SessionStore persists cloud credentials and the cached gateway identity.
// *configstore.Store satisfies it.
type SessionStore interface {
	GetCloudSession(ctx context.Context) (configstore.CloudSession, error)
	SaveCloudSession(ctx context.Context, session configstore.CloudSession) error
	GetGatewayID(ctx context.Context) (string, error)
	SaveGatewayID(ctx context.Context, id string) error
}

// CloudClient speaks the cloud relay's REST API. On a 401 it makes exactly
// one token-refresh attempt before failing.
type CloudClient struct {
	endpoints transport.Provider
	sessions  SessionStore
	http      *http.Client
}

// NewCloudClient builds a cloud REST client. httpClient may be nil.
func NewCloudClient(endpoints transport.Provider, sessions SessionStore, httpClient *http.Client) *CloudClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cloudHTTPTimeout}
	}
	return &CloudClient{endpoints: endpoints, sessions: sessions, http: httpClient}
}

// Login authenticates against the cloud relay and stores the session pair.
func (c *CloudClient) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result api.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &result, false); err != nil {
		return nil, fmt.Errorf("cloud login: %w", err)
	}

	session := configstore.CloudSession{AccessToken: result.Access, RefreshToken: result.Refresh}
	if err := c.sessions.SaveCloudSession(ctx, session); err != nil {
		return nil, fmt.Errorf("cloud login: store session: %w", err)
	}
	return &result, nil
}

// Gateways lists the cloud-side gateway records for the logged-in account.
func (c *CloudClient) Gateways(ctx context.Context) ([]api.Gateway, error) {
	var gateways []api.Gateway
	if err := c.doJSON(ctx, http.MethodGet, "/remote/gateways", nil, &gateways, true); err != nil {
		return nil, fmt.Errorf("list gateways: %w", err)
	}
	return gateways, nil
}

// GatewayID returns the stable gateway identity, resolving and caching it on
// first use. A missing identity (no gateways on the account) is ErrNotPaired.
func (c *CloudClient) GatewayID(ctx context.Context) (string, error) {
	id, err := c.sessions.GetGatewayID(ctx)
	if err == nil {
		return id, nil
	}
	if !configstore.IsNotFound(err) {
		return "", fmt.Errorf("gateway identity: %w", err)
	}

	gateways, err := c.Gateways(ctx)
	if err != nil {
		return "", err
	}
	if len(gateways) == 0 || gateways[0].HomeID == "" {
		return "", ErrNotPaired
	}

	id = gateways[0].HomeID
	if _, err := uuid.Parse(id); err != nil {
		// The identity is opaque, so a non-UUID is tolerated, but it usually
		// means the relay returned something unexpected.
		log.Printf("[Cloud] WARNING: gateway identity %q is not a UUID", id)
	}
	if err := c.sessions.SaveGatewayID(ctx, id); err != nil {
		return "", fmt.Errorf("gateway identity: cache: %w", err)
	}
	return id, nil
}

// Status queries the relay for a gateway's reachability.
func (c *CloudClient) Status(ctx context.Context, gatewayID string) (api.GatewayStatus, error) {
	var status api.GatewayStatus
	path := fmt.Sprintf("/remote/homes/%s/status", gatewayID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &status, true); err != nil {
		return api.GatewayStatus{}, fmt.Errorf("gateway status: %w", err)
	}
	return status, nil
}

// ProbeCloud implements netmode.CloudProber. An unresolvable identity or any
// request failure fails closed: unreachable, never an error.
func (c *CloudClient) ProbeCloud(ctx context.Context, homeID string) bool {
	id, err := c.GatewayID(ctx)
	if err != nil {
		log.Printf("[Cloud] probe for home %s: no gateway identity: %v", homeID, err)
		return false
	}
	status, err := c.Status(ctx, id)
	if err != nil {
		log.Printf("[Cloud] probe for home %s failed: %v", homeID, err)
		return false
	}
	return status.Online
}

// Devices lists the devices visible through the relay.
func (c *CloudClient) Devices(ctx context.Context, gatewayID string) ([]api.Device, error) {
	var devices []api.Device
	path := fmt.Sprintf("/homes/%s/devices/", gatewayID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &devices, true); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// ControlEntity sends a control command using the cloud wire shape.
func (c *CloudClient) ControlEntity(ctx context.Context, gatewayID, entityID string, cmd ControlCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("control entity: %w", err)
	}
	path := fmt.Sprintf("/remote/homes/%s/entities/%s/control", gatewayID, entityID)
	if err := c.doJSON(ctx, http.MethodPost, path, EncodeCloud(cmd), nil, true); err != nil {
		return fmt.Errorf("control entity: %w", err)
	}
	return nil
}

// RunScene triggers a scene through the relay.
func (c *CloudClient) RunScene(ctx context.Context, gatewayID, sceneID string) error {
	path := fmt.Sprintf("/remote/homes/%s/scenes/%s/run", gatewayID, sceneID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, true); err != nil {
		return fmt.Errorf("run scene: %w", err)
	}
	return nil
}

// doJSON performs one cloud request. Authenticated requests that come back
// 401 get a single refresh-and-retry; if the refresh itself fails the caller
// sees that failure and no further retry happens.
func (c *CloudClient) doJSON(ctx context.Context, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	resp, err := c.attempt(ctx, method, path, payload, authed)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		resp.Body.Close()
		if refreshErr := c.refreshAccess(ctx); refreshErr != nil {
			return fmt.Errorf("token refresh failed: %w", refreshErr)
		}
		resp, err = c.attempt(ctx, method, path, payload, authed)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *CloudClient) attempt(ctx context.Context, method, path string, payload []byte, authed bool) (*http.Response, error) {
	eps, err := c.endpoints.Endpoints(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, eps.CloudAPIBase()+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		session, err := c.sessions.GetCloudSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cloud session: %w", err)
		}
		if session.AccessToken == "" {
			return nil, errors.New("cloud: not logged in")
		}
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	return c.http.Do(req)
}

func (c *CloudClient) refreshAccess(ctx context.Context) error {
	session, err := c.sessions.GetCloudSession(ctx)
	if err != nil {
		return err
	}
	if session.RefreshToken == "" {
		return errors.New("no refresh token stored")
	}

	payload, err := json.Marshal(map[string]string{"refresh": session.RefreshToken})
	if err != nil {
		return err
	}

	eps, err := c.endpoints.Endpoints(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eps.CloudAPIBase()+"/auth/token/refresh/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	var refreshed struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if refreshed.Access == "" {
		return errors.New("refresh response missing access token")
	}

	session.AccessToken = refreshed.Access
	if refreshed.Refresh != "" {
		session.RefreshToken = refreshed.Refresh
	}
	return c.sessions.SaveCloudSession(ctx, session)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/luma-home/luma/internal/api"
	"github.com/luma-home/luma/internal/transport"
)

const defaultHTTPTimeout = 10 * time.Second

// TokenSource yields a current auth token, or "" when not logged in.
type TokenSource func(ctx context.Context) (string, error)

// LocalClient speaks the LAN-local server's REST API. Request building takes
// the endpoint provider as an explicit dependency; nothing here reads
// configuration state behind the caller's back.
type LocalClient struct {
	endpoints transport.Provider
	token     TokenSource
	http      *http.Client
}

// NewLocalClient builds a local REST client. httpClient may be nil.
func NewLocalClient(endpoints transport.Provider, token TokenSource, httpClient *http.Client) *LocalClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &LocalClient{endpoints: endpoints, token: token, http: httpClient}
}

// Homes lists the homes known to the local server.
func (c *LocalClient) Homes(ctx context.Context) ([]api.Home, error) {
	var homes []api.Home
	if err := c.doJSON(ctx, http.MethodGet, "/api/homes/", nil, &homes); err != nil {
		return nil, fmt.Errorf("list homes: %w", err)
	}
	return homes, nil
}

// Devices lists the devices of a home.
func (c *LocalClient) Devices(ctx context.Context, homeID string) ([]api.Device, error) {
	var devices []api.Device
	path := fmt.Sprintf("/api/homes/%s/devices/", homeID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &devices); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// ControlEntity sends a control command using the local wire shape.
func (c *LocalClient) ControlEntity(ctx context.Context, entityID string, cmd ControlCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("control entity: %w", err)
	}
	path := fmt.Sprintf("/api/entities/%s/control/", entityID)
	if err := c.doJSON(ctx, http.MethodPost, path, EncodeLocal(cmd), nil); err != nil {
		return fmt.Errorf("control entity: %w", err)
	}
	return nil
}

// RunScene triggers a scene.
func (c *LocalClient) RunScene(ctx context.Context, sceneID string) error {
	path := fmt.Sprintf("/api/scenes/%s/run", sceneID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("run scene: %w", err)
	}
	return nil
}

// Automations lists a home's automation rules.
func (c *LocalClient) Automations(ctx context.Context, homeID string) ([]api.Automation, error) {
	var automations []api.Automation
	path := fmt.Sprintf("/api/homes/%s/automations/", homeID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &automations); err != nil {
		return nil, fmt.Errorf("list automations: %w", err)
	}
	return automations, nil
}

// Scenes lists a home's scenes.
func (c *LocalClient) Scenes(ctx context.Context, homeID string) ([]api.Scene, error) {
	var scenes []api.Scene
	path := fmt.Sprintf("/api/homes/%s/scenes/", homeID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &scenes); err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return scenes, nil
}

func (c *LocalClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	eps, err := c.endpoints.Endpoints(ctx)
	if err != nil {
		return err
	}
	if eps.LocalBaseURL == "" {
		return ErrNotConfigured
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, eps.LocalBaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token, err := c.token(ctx); err == nil && token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
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

package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/luma-home/luma/internal/api"
	"github.com/luma-home/luma/internal/netmode"
	"github.com/luma-home/luma/internal/transport"
)

// ChannelController is the slice of the event channel manager the dispatcher
// needs: being told which transport future connect cycles should target.
type ChannelController interface {
	SetCloudMode(isCloud bool, cloudBase string)
}

// Dispatcher routes every command to the transport selected by the most
// recent Refresh. The cached mode only changes when Refresh runs; individual
// commands never re-resolve, so a burst of operations all ride the same
// transport.
type Dispatcher struct {
	resolver  *netmode.Resolver
	local     *LocalClient
	cloud     *CloudClient
	endpoints transport.Provider
	channel   ChannelController // may be nil

	mu   sync.RWMutex
	mode netmode.Mode
}

// NewDispatcher builds a dispatcher. The initial mode is OFFLINE until the
// first Refresh; channel may be nil when no live event channel is wanted.
func NewDispatcher(resolver *netmode.Resolver, local *LocalClient, cloud *CloudClient, endpoints transport.Provider, channel ChannelController) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		local:     local,
		cloud:     cloud,
		endpoints: endpoints,
		channel:   channel,
		mode:      netmode.ModeOffline,
	}
}

// Mode returns the cached network mode.
func (d *Dispatcher) Mode() netmode.Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// Refresh re-runs mode resolution and caches the result. When the mode
// changes, the channel controller is retargeted so its next connect cycle
// uses the right transport.
func (d *Dispatcher) Refresh(ctx context.Context, homeID string) netmode.Mode {
	mode := d.resolver.Resolve(ctx, homeID)

	d.mu.Lock()
	changed := mode != d.mode
	d.mode = mode
	d.mu.Unlock()

	if changed {
		log.Printf("[Dispatcher] network mode is now %s", mode)
		if d.channel != nil {
			eps, err := d.endpoints.Endpoints(ctx)
			if err != nil {
				log.Printf("[Dispatcher] endpoint lookup after mode change: %v", err)
			}
			d.channel.SetCloudMode(mode == netmode.ModeCloud, transport.WebSocketBase(eps.CloudBaseURL))
		}
	}
	return mode
}

// Homes lists the homes visible on the active transport. In cloud mode the
// paired gateways stand in for the home list.
func (d *Dispatcher) Homes(ctx context.Context) ([]api.Home, error) {
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.Homes(ctx)
	case netmode.ModeCloud:
		gateways, err := d.cloud.Gateways(ctx)
		if err != nil {
			return nil, err
		}
		homes := make([]api.Home, 0, len(gateways))
		for _, gw := range gateways {
			homes = append(homes, api.Home{ID: gw.HomeID, Name: gw.Name})
		}
		return homes, nil
	default:
		return nil, fmt.Errorf("list homes: %w", ErrOffline)
	}
}

// Devices lists the devices of a home on the active transport.
func (d *Dispatcher) Devices(ctx context.Context, homeID string) ([]api.Device, error) {
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.Devices(ctx, homeID)
	case netmode.ModeCloud:
		gatewayID, err := d.gatewayFor(ctx, homeID)
		if err != nil {
			return nil, err
		}
		return d.cloud.Devices(ctx, gatewayID)
	default:
		return nil, fmt.Errorf("list devices: %w", ErrOffline)
	}
}

// ControlEntity sends a control command to an entity. Callers express the
// command once; the transport-specific payload shape is chosen here.
func (d *Dispatcher) ControlEntity(ctx context.Context, homeID, entityID string, cmd ControlCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.ControlEntity(ctx, entityID, cmd)
	case netmode.ModeCloud:
		gatewayID, err := d.gatewayFor(ctx, homeID)
		if err != nil {
			return err
		}
		return d.cloud.ControlEntity(ctx, gatewayID, entityID, cmd)
	default:
		return fmt.Errorf("control %s: %w", entityID, ErrOffline)
	}
}

// RunScene triggers a scene on the active transport.
func (d *Dispatcher) RunScene(ctx context.Context, homeID, sceneID string) error {
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.RunScene(ctx, sceneID)
	case netmode.ModeCloud:
		gatewayID, err := d.gatewayFor(ctx, homeID)
		if err != nil {
			return err
		}
		return d.cloud.RunScene(ctx, gatewayID, sceneID)
	default:
		return fmt.Errorf("run scene %s: %w", sceneID, ErrOffline)
	}
}

// Automations lists a home's automations. The relay has no automation
// listing endpoint, so cloud mode reports the operation as unsupported
// rather than guessing at a fallback.
func (d *Dispatcher) Automations(ctx context.Context, homeID string) ([]api.Automation, error) {
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.Automations(ctx, homeID)
	case netmode.ModeCloud:
		return nil, fmt.Errorf("list automations via cloud: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("list automations: %w", ErrOffline)
	}
}

// Scenes lists a home's scenes. Cloud mode is unsupported, matching the
// relay's surface.
func (d *Dispatcher) Scenes(ctx context.Context, homeID string) ([]api.Scene, error) {
	switch d.Mode() {
	case netmode.ModeLocal:
		return d.local.Scenes(ctx, homeID)
	case netmode.ModeCloud:
		return nil, fmt.Errorf("list scenes via cloud: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("list scenes: %w", ErrOffline)
	}
}

// gatewayFor maps a home to its cloud gateway. An explicit homeID wins;
// otherwise the stored or discovered gateway identity is used.
func (d *Dispatcher) gatewayFor(ctx context.Context, homeID string) (string, error) {
	if homeID != "" {
		return homeID, nil
	}
	return d.cloud.GatewayID(ctx)
}

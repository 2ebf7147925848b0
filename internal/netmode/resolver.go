package netmode

import (
	"context"
	"log"

	configstore "github.com/luma-home/luma/internal/config/store"
)

// LocalProber reports whether the local server answers an authenticated
// request within the probe's latency bound.
type LocalProber interface {
	ProbeLocal(ctx context.Context) bool
}

// CloudProber reports whether the cloud relay can currently reach the gateway
// serving homeID. An unresolvable gateway identity fails closed (false).
type CloudProber interface {
	ProbeCloud(ctx context.Context, homeID string) bool
}

// PreferenceSource yields the user's current transport toggles.
type PreferenceSource interface {
	GetNetworkPreferences(ctx context.Context) (configstore.NetworkPreferences, error)
}

// Resolver combines user preference, the force-cloud override, and the two
// probers into a single transport mode.
type Resolver struct {
	prefs PreferenceSource
	local LocalProber
	cloud CloudProber
}

// NewResolver wires a resolver from its three inputs.
func NewResolver(prefs PreferenceSource, local LocalProber, cloud CloudProber) *Resolver {
	return &Resolver{prefs: prefs, local: local, cloud: cloud}
}

// Resolve returns the transport mode for homeID. homeID may be empty when no
// home is selected yet; cloud steps require it and are skipped without it.
//
// Resolve never returns an error: probe failures and preference read failures
// are absorbed into the mode decision. The precedence is fixed:
//
//  1. force-cloud override (with cloud enabled and a home selected): probe
//     cloud; reachable wins immediately, unreachable falls through — local
//     may still work.
//  2. probe local.
//  3. local reachable with cloud disabled → LOCAL.
//  4. cloud enabled with a home selected: local reachable still wins (LAN is
//     faster and avoids relay traffic); only when local is down is cloud
//     probed and, if reachable, chosen.
//  5. local reachable → LOCAL.
//  6. OFFLINE.
func (r *Resolver) Resolve(ctx context.Context, homeID string) Mode {
	prefs, err := r.prefs.GetNetworkPreferences(ctx)
	if err != nil {
		log.Printf("[NetMode] WARNING: reading preferences failed, assuming defaults: %v", err)
		prefs = configstore.NetworkPreferences{}
	}

	if prefs.ForceCloudOnly && prefs.CloudEnabled && homeID != "" {
		if r.cloud.ProbeCloud(ctx, homeID) {
			log.Printf("[NetMode] force-cloud override active, cloud reachable for home %s", homeID)
			return ModeCloud
		}
		log.Printf("[NetMode] force-cloud override active but cloud unreachable, trying local")
	}

	localUp := r.local.ProbeLocal(ctx)

	if localUp && !prefs.CloudEnabled {
		return ModeLocal
	}

	if prefs.CloudEnabled && homeID != "" {
		if localUp {
			// Informational only: the cloud check below must not change the
			// outcome — LAN always wins when both transports are viable.
			if r.cloud.ProbeCloud(ctx, homeID) {
				log.Printf("[NetMode] cloud also reachable for home %s, preferring local", homeID)
			}
			return ModeLocal
		}
		if r.cloud.ProbeCloud(ctx, homeID) {
			return ModeCloud
		}
	}

	if localUp {
		return ModeLocal
	}
	return ModeOffline
}

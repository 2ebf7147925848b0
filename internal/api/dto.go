// Package api holds the domain payloads exchanged with the local server and
// the cloud relay. Field tags follow the backend wire names; the two
// transports share these shapes even though their endpoints differ.
package api

import "encoding/json"

// Home is a dwelling registered on the backend.
type Home struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TimeZone string `json:"timezone,omitempty"`
}

// Device groups one or more controllable entities behind a single product.
type Device struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Room     string   `json:"room,omitempty"`
	Online   bool     `json:"online"`
	Entities []Entity `json:"entities,omitempty"`
}

// Entity is a single controllable attribute surface (a light, a relay, a
// sensor channel).
type Entity struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Kind  string         `json:"kind,omitempty"`
	State map[string]any `json:"state,omitempty"`
}

// Scene is a stored multi-entity activation.
type Scene struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	HomeID string `json:"home_id,omitempty"`
}

// Automation is a stored trigger/condition/action rule.
type Automation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	HomeID  string `json:"home_id,omitempty"`
}

// Gateway is one entry of the cloud relay's gateway list. HomeID doubles as
// the stable gateway identity used to scope remote requests.
type Gateway struct {
	HomeID string `json:"home_id"`
	Name   string `json:"name,omitempty"`
	Online bool   `json:"online,omitempty"`
}

// GatewayStatus is the cloud relay's view of a gateway's reachability.
type GatewayStatus struct {
	HomeID    string `json:"home_id"`
	Online    bool   `json:"online"`
	LastSeen  string `json:"last_seen,omitempty"`
	RelayHost string `json:"relay_host,omitempty"`
}

// LoginResult is the cloud login response.
type LoginResult struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	Homes   []Home          `json:"homes,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
}

// EntityState is the one event-channel payload interpreted structurally;
// everything else on the channel passes through opaquely.
type EntityState struct {
	Type     string          `json:"type"`
	EntityID string          `json:"entity_id"`
	State    json.RawMessage `json:"state"`
}

// EventTypeEntityState is the Type value carried by EntityState messages.
const EventTypeEntityState = "entity_state"

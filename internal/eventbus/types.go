package eventbus

import (
	"encoding/json"
	"time"
)

// Topic identifies a logical channel on the bus.
type Topic string

const (
	TopicEntityState   Topic = "entity.state"
	TopicChannelStatus Topic = "channel.status"
	TopicRawMessage    Topic = "events.raw"
)

// Source describes which component produced an event.
type Source string

const (
	SourceChannel    Source = "channel"
	SourceDispatcher Source = "dispatcher"
	SourceUnknown    Source = "unknown"
)

// Envelope wraps every message published on the bus.
type Envelope struct {
	Topic         Topic
	Timestamp     time.Time
	Source        Source
	CorrelationID string
	Payload       any
}

// EntityStateEvent carries a decoded entity_state push from the backend.
type EntityStateEvent struct {
	EntityID string
	State    json.RawMessage
}

// ChannelState labels the event channel's lifecycle position.
type ChannelState string

const (
	ChannelConnected    ChannelState = "connected"
	ChannelDisconnected ChannelState = "disconnected"
	ChannelReconnecting ChannelState = "reconnecting"
	ChannelGaveUp       ChannelState = "gave_up"
)

// ChannelStatusEvent notifies consumers about channel lifecycle transitions.
type ChannelStatusEvent struct {
	State   ChannelState
	Attempt int
	Reason  string
}

// RawMessageEvent carries a well-formed channel payload that the core does
// not interpret structurally. The bytes are forwarded verbatim.
type RawMessageEvent struct {
	Data json.RawMessage
}

// Typed topic descriptors: each binds a Topic constant to its payload type,
// enabling compile-time enforcement via Publish and SubscribeTo.

// Entities groups entity topic descriptors.
var Entities = struct {
	State TopicDef[EntityStateEvent]
}{
	State: NewTopicDef[EntityStateEvent](TopicEntityState),
}

// Channel groups channel topic descriptors.
var Channel = struct {
	Status TopicDef[ChannelStatusEvent]
	Raw    TopicDef[RawMessageEvent]
}{
	Status: NewTopicDef[ChannelStatusEvent](TopicChannelStatus),
	Raw:    NewTopicDef[RawMessageEvent](TopicRawMessage),
}

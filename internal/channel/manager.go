// Package channel owns the persistent WebSocket event connection to whichever
// transport is currently active. It keeps the connection self-healing with a
// bounded, fixed-delay reconnect loop and fans inbound events out on the
// event bus.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luma-home/luma/internal/api"
	"github.com/luma-home/luma/internal/eventbus"
)

// State labels the channel's lifecycle position. At most one non-closed
// channel exists per Manager.
type State string

const (
	StateClosed     State = "closed"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
)

const (
	defaultRetryDelay       = 3 * time.Second
	defaultMaxAttempts      = 5
	websocketHandshakeLimit = 10 * time.Second
)

// Manager maintains a single logical event connection. Reconnection uses a
// fixed delay and a fixed attempt cap rather than exponential backoff; after
// the cap the channel stays closed until the owner calls Connect again
// (typically on app foreground or re-authentication).
type Manager struct {
	bus         *eventbus.Bus
	dialer      *websocket.Dialer
	retryDelay  time.Duration
	maxAttempts int

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	localBase  string // ws:// base for the local transport
	cloudMode  bool
	cloudBase  string // ws(s):// base for the cloud transport
	reconnect  bool
	attempts   int
	retryTimer *time.Timer
	token      string
	homeID     string
	gen        uint64 // connection generation; stale read loops check it
}

// Option customises a Manager.
type Option func(*Manager)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// WithRetryDelay overrides the fixed reconnect delay.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retryDelay = d
		}
	}
}

// WithMaxAttempts overrides the reconnect attempt cap.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// NewManager builds a manager targeting localBase until SetCloudMode switches
// it. bus may be nil (events are then dropped).
func NewManager(bus *eventbus.Bus, localBase string, opts ...Option) *Manager {
	m := &Manager{
		bus: bus,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: websocketHandshakeLimit,
		},
		retryDelay:  defaultRetryDelay,
		maxAttempts: defaultMaxAttempts,
		state:       StateClosed,
		localBase:   localBase,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the channel's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetCloudMode reconfigures which base URL future connect cycles use. It
// deliberately does not tear down an open channel: applying the change
// lazily avoids disrupting a healthy connection on a mode flap, at the cost
// of a briefly stale transport after a mode change.
func (m *Manager) SetCloudMode(isCloud bool, cloudBase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cloudMode = isCloud
	if cloudBase != "" {
		m.cloudBase = cloudBase
	}
}

// SetLocalBase updates the local transport base used by future connects.
func (m *Manager) SetLocalBase(localBase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localBase = localBase
}

// Connect opens the event channel for homeID. A channel that is already
// connecting or open makes this a no-op, so racing callers cannot produce
// duplicate sockets. The credential rides as a query parameter per the
// backend's contract.
func (m *Manager) Connect(token, homeID string) error {
	m.mu.Lock()
	if m.state != StateClosed {
		m.mu.Unlock()
		return nil
	}

	base := m.localBase
	if m.cloudMode {
		base = m.cloudBase
	}
	if base == "" {
		m.mu.Unlock()
		return errors.New("channel: no transport base configured")
	}

	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}

	m.state = StateConnecting
	m.reconnect = true
	m.token = token
	m.homeID = homeID
	m.gen++
	gen := m.gen
	target := fmt.Sprintf("%s/home/%s/?token=%s", base, homeID, url.QueryEscape(token))
	m.mu.Unlock()

	conn, resp, err := m.dialer.Dial(target, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		log.Printf("[Channel] dial failed: %v", err)
		m.mu.Lock()
		stale := m.gen != gen
		if !stale {
			m.state = StateClosed
		}
		m.mu.Unlock()
		if !stale {
			m.publishStatus(eventbus.ChannelDisconnected, err.Error())
			m.scheduleReconnect()
		}
		return fmt.Errorf("channel dial: %w", err)
	}

	m.mu.Lock()
	if m.gen != gen || !m.reconnect {
		// Disconnect raced the dial; drop the fresh socket.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	m.state = StateOpen
	m.attempts = 0
	m.mu.Unlock()

	log.Printf("[Channel] connected for home %s", homeID)
	m.publishStatus(eventbus.ChannelConnected, "")
	go m.readLoop(conn, gen)
	return nil
}

// Disconnect disables reconnection, cancels any pending retry, and closes
// the channel. Safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.reconnect = false
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	m.gen++
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		conn.Close()
		m.publishStatus(eventbus.ChannelDisconnected, "disconnect requested")
	}
}

func (m *Manager) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.handleMessage(payload)
	}
}

// handleMessage parses one inbound frame. Malformed payloads are logged and
// dropped; well-formed ones are forwarded verbatim on the raw topic, and
// entity_state messages are additionally decoded onto the typed topic.
func (m *Manager) handleMessage(payload []byte) {
	if !json.Valid(payload) {
		log.Printf("[Channel] dropping malformed payload (%d bytes)", len(payload))
		return
	}

	ctx := context.Background()
	correlationID := uuid.NewString()

	eventbus.PublishWithOpts(ctx, m.bus, eventbus.Channel.Raw, eventbus.SourceChannel,
		eventbus.RawMessageEvent{Data: json.RawMessage(payload)},
		eventbus.WithCorrelationID(correlationID))

	var state api.EntityState
	if err := json.Unmarshal(payload, &state); err != nil {
		return
	}
	if state.Type != api.EventTypeEntityState || state.EntityID == "" {
		return
	}
	eventbus.PublishWithOpts(ctx, m.bus, eventbus.Entities.State, eventbus.SourceChannel,
		eventbus.EntityStateEvent{EntityID: state.EntityID, State: state.State},
		eventbus.WithCorrelationID(correlationID))
}

func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateClosed
	wantReconnect := m.reconnect
	m.mu.Unlock()

	if isNormalClose(err) {
		log.Printf("[Channel] closed")
	} else {
		log.Printf("[Channel] connection lost: %v", err)
	}
	m.publishStatus(eventbus.ChannelDisconnected, err.Error())

	if wantReconnect {
		m.scheduleReconnect()
	}
}

// scheduleReconnect arms the fixed-delay retry timer unless the attempt cap
// is exhausted or reconnection has been disabled.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if !m.reconnect || m.retryTimer != nil {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.maxAttempts {
		m.mu.Unlock()
		log.Printf("[Channel] giving up after %d reconnect attempts", m.maxAttempts)
		m.publishStatus(eventbus.ChannelGaveUp, "retry budget exhausted")
		return
	}
	m.attempts++
	attempt := m.attempts
	token, homeID := m.token, m.homeID
	m.retryTimer = time.AfterFunc(m.retryDelay, func() {
		m.mu.Lock()
		m.retryTimer = nil
		enabled := m.reconnect
		m.mu.Unlock()
		if !enabled {
			return
		}
		log.Printf("[Channel] reconnect attempt %d/%d", attempt, m.maxAttempts)
		m.publishStatus(eventbus.ChannelReconnecting, fmt.Sprintf("attempt %d", attempt))
		_ = m.Connect(token, homeID)
	})
	m.mu.Unlock()
}

func (m *Manager) publishStatus(state eventbus.ChannelState, reason string) {
	m.mu.Lock()
	attempt := m.attempts
	m.mu.Unlock()
	eventbus.Publish(context.Background(), m.bus, eventbus.Channel.Status, eventbus.SourceChannel,
		eventbus.ChannelStatusEvent{State: state, Attempt: attempt, Reason: reason})
}

func isNormalClose(err error) bool {
	if err == nil {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

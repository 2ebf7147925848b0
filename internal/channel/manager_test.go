package channel

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luma-home/luma/internal/eventbus"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func wsBase(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", m.State(), want)
}

func TestConnectIsIdempotent(t *testing.T) {
	var upgrades atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/home/h1/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("token"); got != "tok 1" {
			t.Errorf("token = %q, want decoded %q", got, "tok 1")
		}
		upgrades.Add(1)
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	bus := eventbus.New()
	defer bus.Shutdown()
	m := NewManager(bus, wsBase(srv))
	defer m.Disconnect()

	if err := m.Connect("tok 1", "h1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitState(t, m, StateOpen)

	// A second Connect on an open channel is a no-op.
	if err := m.Connect("tok 1", "h1"); err != nil {
		t.Fatalf("Connect (second): %v", err)
	}
	if got := upgrades.Load(); got != 1 {
		t.Fatalf("upgrades = %d, want 1", got)
	}
}

func TestEntityStateFanOut(t *testing.T) {
	payloads := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for msg := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	bus := eventbus.New()
	defer bus.Shutdown()

	stateSub := eventbus.SubscribeTo(bus, eventbus.Entities.State)
	defer stateSub.Close()
	rawSub := eventbus.SubscribeTo(bus, eventbus.Channel.Raw)
	defer rawSub.Close()

	m := NewManager(bus, wsBase(srv))
	defer m.Disconnect()
	if err := m.Connect("t", "h1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitState(t, m, StateOpen)

	// A malformed frame must be dropped without killing the channel, and a
	// later well-formed frame must still come through.
	payloads <- `{"type":"entity_state","entity_id":`
	payloads <- `{"type":"entity_state","entity_id":"lamp-1","state":{"on":true}}`
	close(payloads)

	select {
	case env := <-stateSub.C():
		if env.Payload.EntityID != "lamp-1" {
			t.Fatalf("entity = %q", env.Payload.EntityID)
		}
		if string(env.Payload.State) != `{"on":true}` {
			t.Fatalf("state = %s", env.Payload.State)
		}
		if env.CorrelationID == "" {
			t.Fatal("missing correlation id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for entity state")
	}

	// The raw topic sees only the well-formed frame.
	select {
	case env := <-rawSub.C():
		if !strings.Contains(string(env.Payload.Data), `"lamp-1"`) {
			t.Fatalf("raw payload = %s", env.Payload.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for raw message")
	}
}

func TestReconnectAttemptsAreBounded(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "no websocket here", http.StatusBadGateway)
	}))
	defer srv.Close()

	bus := eventbus.New()
	defer bus.Shutdown()
	statusSub := eventbus.SubscribeTo(bus, eventbus.Channel.Status)
	defer statusSub.Close()

	m := NewManager(bus, wsBase(srv), WithRetryDelay(5*time.Millisecond), WithMaxAttempts(3))
	if err := m.Connect("t", "h1"); err == nil {
		t.Fatal("Connect succeeded against a non-websocket server")
	}

	var gaveUp bool
	deadline := time.After(3 * time.Second)
	for !gaveUp {
		select {
		case env := <-statusSub.C():
			if env.Payload.State == eventbus.ChannelGaveUp {
				gaveUp = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for gave_up")
		}
	}

	// Initial dial plus exactly maxAttempts retries, then nothing more.
	settled := hits.Load()
	if settled != 4 {
		t.Fatalf("dial attempts = %d, want 4", settled)
	}
	time.Sleep(50 * time.Millisecond)
	if got := hits.Load(); got != settled {
		t.Fatalf("dial attempts grew to %d after giving up", got)
	}
	if m.State() != StateClosed {
		t.Fatalf("state = %s, want closed", m.State())
	}
}

func TestDisconnectCancelsPendingRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	bus := eventbus.New()
	defer bus.Shutdown()

	m := NewManager(bus, wsBase(srv), WithRetryDelay(30*time.Millisecond), WithMaxAttempts(5))
	_ = m.Connect("t", "h1")
	if got := hits.Load(); got != 1 {
		t.Fatalf("dial attempts = %d, want 1", got)
	}

	m.Disconnect()
	m.Disconnect() // repeat must be harmless

	time.Sleep(100 * time.Millisecond)
	if got := hits.Load(); got != 1 {
		t.Fatalf("dial attempts = %d after disconnect, want 1", got)
	}
	if m.State() != StateClosed {
		t.Fatalf("state = %s, want closed", m.State())
	}
}

func TestReconnectAfterUnexpectedClose(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)
		if n == 1 {
			// Kill the first connection abruptly.
			conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	bus := eventbus.New()
	defer bus.Shutdown()

	m := NewManager(bus, wsBase(srv), WithRetryDelay(10*time.Millisecond))
	defer m.Disconnect()
	if err := m.Connect("t", "h1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitState(t, m, StateOpen)
	deadline := time.Now().Add(2 * time.Second)
	for conns.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if conns.Load() < 2 {
		t.Fatal("no reconnect after unexpected close")
	}
	waitState(t, m, StateOpen)
}

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/netmode"
	"github.com/luma-home/luma/internal/transport"
)

type stubPrefs struct{ prefs configstore.NetworkPreferences }

func (s stubPrefs) GetNetworkPreferences(context.Context) (configstore.NetworkPreferences, error) {
	return s.prefs, nil
}

type stubLocalProber struct{ up bool }

func (s stubLocalProber) ProbeLocal(context.Context) bool { return s.up }

type stubCloudProber struct{ up bool }

func (s stubCloudProber) ProbeCloud(context.Context, string) bool { return s.up }

type recordingChannel struct {
	calls     atomic.Int32
	lastCloud atomic.Bool
	lastBase  atomic.Value
}

func (r *recordingChannel) SetCloudMode(isCloud bool, base string) {
	r.calls.Add(1)
	r.lastCloud.Store(isCloud)
	r.lastBase.Store(base)
}

// newDispatcher builds a dispatcher whose resolver is pinned to one mode via
// stub probers and preferences.
func newDispatcher(t *testing.T, mode netmode.Mode, local *LocalClient, cloud *CloudClient, ch ChannelController) *Dispatcher {
	t.Helper()
	var resolver *netmode.Resolver
	switch mode {
	case netmode.ModeLocal:
		resolver = netmode.NewResolver(stubPrefs{}, stubLocalProber{up: true}, stubCloudProber{})
	case netmode.ModeCloud:
		resolver = netmode.NewResolver(
			stubPrefs{prefs: configstore.NetworkPreferences{CloudEnabled: true}},
			stubLocalProber{up: false}, stubCloudProber{up: true})
	default:
		resolver = netmode.NewResolver(stubPrefs{}, stubLocalProber{}, stubCloudProber{})
	}
	d := NewDispatcher(resolver, local, cloud, transport.Static{CloudBaseURL: "https://cloud.example"}, ch)
	d.Refresh(context.Background(), "h1")
	if got := d.Mode(); got != mode {
		t.Fatalf("mode = %s, want %s", got, mode)
	}
	return d
}

func TestDispatcherOfflineRejectsWithoutRequest(t *testing.T) {
	// nil transport clients: any attempt to build a request would panic, so
	// passing this test proves offline ops fail before reaching a transport.
	d := newDispatcher(t, netmode.ModeOffline, nil, nil, nil)
	ctx := context.Background()

	if _, err := d.Homes(ctx); !errors.Is(err, ErrOffline) {
		t.Fatalf("Homes err = %v, want ErrOffline", err)
	}
	if _, err := d.Devices(ctx, "h1"); !errors.Is(err, ErrOffline) {
		t.Fatalf("Devices err = %v, want ErrOffline", err)
	}
	cmd := ControlCommand{Attribute: "power", Value: "on"}
	if err := d.ControlEntity(ctx, "h1", "lamp-1", cmd); !errors.Is(err, ErrOffline) {
		t.Fatalf("ControlEntity err = %v, want ErrOffline", err)
	}
	if err := d.RunScene(ctx, "h1", "s1"); !errors.Is(err, ErrOffline) {
		t.Fatalf("RunScene err = %v, want ErrOffline", err)
	}
}

func TestDispatcherRoutesLocal(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	local := NewLocalClient(transport.Static{LocalBaseURL: srv.URL}, staticToken("t"), nil)
	d := newDispatcher(t, netmode.ModeLocal, local, nil, nil)
	ctx := context.Background()

	if _, err := d.Homes(ctx); err != nil {
		t.Fatalf("Homes: %v", err)
	}
	if _, err := d.Automations(ctx, "h1"); err != nil {
		t.Fatalf("Automations: %v", err)
	}
	if _, err := d.Scenes(ctx, "h1"); err != nil {
		t.Fatalf("Scenes: %v", err)
	}
	want := []string{"/api/homes/", "/api/homes/h1/automations/", "/api/homes/h1/scenes/"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("path[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestDispatcherRoutesCloud(t *testing.T) {
	var controlPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/control") {
			controlPath = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	sessions := &memSessions{
		session:   configstore.CloudSession{AccessToken: "acc"},
		gatewayID: "gw-1",
	}
	cloud := NewCloudClient(transport.Static{CloudBaseURL: srv.URL}, sessions, nil)
	d := newDispatcher(t, netmode.ModeCloud, nil, cloud, nil)
	ctx := context.Background()

	cmd := ControlCommand{Attribute: "power", Value: "on"}
	if err := d.ControlEntity(ctx, "", "lamp-1", cmd); err != nil {
		t.Fatalf("ControlEntity: %v", err)
	}
	if controlPath != "/api/remote/homes/gw-1/entities/lamp-1/control" {
		t.Fatalf("control path = %q", controlPath)
	}
}

func TestDispatcherCloudUnsupportedOps(t *testing.T) {
	d := newDispatcher(t, netmode.ModeCloud, nil, nil, nil)
	ctx := context.Background()

	if _, err := d.Automations(ctx, "h1"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Automations err = %v, want ErrUnsupported", err)
	}
	if _, err := d.Scenes(ctx, "h1"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Scenes err = %v, want ErrUnsupported", err)
	}
}

func TestDispatcherRefreshRetargetsChannel(t *testing.T) {
	ch := &recordingChannel{}
	prefs := &switchablePrefs{}
	localUp := &switchableProber{}
	resolver := netmode.NewResolver(prefs, localUp, stubCloudProber{up: true})
	d := NewDispatcher(resolver, nil, nil, transport.Static{CloudBaseURL: "https://cloud.example"}, ch)
	ctx := context.Background()

	// Offline -> local.
	localUp.up.Store(true)
	if mode := d.Refresh(ctx, "h1"); mode != netmode.ModeLocal {
		t.Fatalf("mode = %s, want local", mode)
	}
	if got := ch.calls.Load(); got != 1 {
		t.Fatalf("SetCloudMode calls = %d, want 1", got)
	}
	if ch.lastCloud.Load() {
		t.Fatal("channel told cloud mode, want local")
	}

	// Same mode again: no retarget.
	d.Refresh(ctx, "h1")
	if got := ch.calls.Load(); got != 1 {
		t.Fatalf("SetCloudMode calls after no-op refresh = %d, want 1", got)
	}

	// Local dies with cloud enabled -> cloud, channel gets the wss base.
	localUp.up.Store(false)
	prefs.cloudEnabled.Store(true)
	if mode := d.Refresh(ctx, "h1"); mode != netmode.ModeCloud {
		t.Fatalf("mode = %s, want cloud", mode)
	}
	if got := ch.calls.Load(); got != 2 {
		t.Fatalf("SetCloudMode calls = %d, want 2", got)
	}
	if !ch.lastCloud.Load() {
		t.Fatal("channel not told cloud mode")
	}
	if got := ch.lastBase.Load(); got != "wss://cloud.example" {
		t.Fatalf("channel base = %v, want wss://cloud.example", got)
	}
}

type switchablePrefs struct{ cloudEnabled atomic.Bool }

func (s *switchablePrefs) GetNetworkPreferences(context.Context) (configstore.NetworkPreferences, error) {
	return configstore.NetworkPreferences{CloudEnabled: s.cloudEnabled.Load()}, nil
}

type switchableProber struct{ up atomic.Bool }

func (s *switchableProber) ProbeLocal(context.Context) bool { return s.up.Load() }

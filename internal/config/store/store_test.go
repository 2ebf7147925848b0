package store

import (
	"context"
	"path/filepath"
	"testing"
)

// openTestStore creates a fresh SQLite-backed store in a temp directory.
// The store is automatically closed when the test finishes.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "config.db")
	s, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSettings(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := s.LoadSettings(ctx, "a", "b")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got["a"] != "1" || got["b"] != "2" {
		t.Errorf("LoadSettings = %v", got)
	}

	// Upsert overwrites the whole value.
	if err := s.SaveSettings(ctx, map[string]string{"a": "9"}); err != nil {
		t.Fatalf("SaveSettings overwrite: %v", err)
	}
	got, err = s.LoadSettings(ctx, "a")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got["a"] != "9" {
		t.Errorf("after overwrite, a = %q, want %q", got["a"], "9")
	}
}

func TestDeleteSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSettings(ctx, map[string]string{"x": "1"}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if err := s.DeleteSettings(ctx, "x", "never-existed"); err != nil {
		t.Fatalf("DeleteSettings: %v", err)
	}
	got, err := s.LoadSettings(ctx, "x")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if _, ok := got["x"]; ok {
		t.Error("x still present after delete")
	}
}

func TestNetworkPreferencesDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs, err := s.GetNetworkPreferences(ctx)
	if err != nil {
		t.Fatalf("GetNetworkPreferences: %v", err)
	}
	if prefs.CloudEnabled || prefs.ForceCloudOnly {
		t.Errorf("first-run preferences = %+v, want both false", prefs)
	}

	prefs.CloudEnabled = true
	if err := s.SaveNetworkPreferences(ctx, prefs); err != nil {
		t.Fatalf("SaveNetworkPreferences: %v", err)
	}
	got, err := s.GetNetworkPreferences(ctx)
	if err != nil {
		t.Fatalf("GetNetworkPreferences: %v", err)
	}
	if !got.CloudEnabled || got.ForceCloudOnly {
		t.Errorf("preferences after save = %+v", got)
	}
}

func TestServerAddress(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetServerAddress(ctx); !IsNotFound(err) {
		t.Fatalf("unconfigured address: err = %v, want NotFoundError", err)
	}

	addr := ServerAddress{Host: "192.168.1.20", Port: 8123}
	if err := s.SaveServerAddress(ctx, addr); err != nil {
		t.Fatalf("SaveServerAddress: %v", err)
	}

	got, err := s.GetServerAddress(ctx)
	if err != nil {
		t.Fatalf("GetServerAddress: %v", err)
	}
	if got != addr {
		t.Errorf("GetServerAddress = %+v, want %+v", got, addr)
	}
	if got.BaseURL() != "http://192.168.1.20:8123" {
		t.Errorf("BaseURL = %q", got.BaseURL())
	}

	if err := s.SaveServerAddress(ctx, ServerAddress{Host: "", Port: 80}); err == nil {
		t.Error("SaveServerAddress accepted empty host")
	}
}

func TestGatewayIdentity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetGatewayID(ctx); !IsNotFound(err) {
		t.Fatalf("missing identity: err = %v, want NotFoundError", err)
	}

	if err := s.SaveGatewayID(ctx, "b51f0ed4-6a1c-4f0e-9d3e-7f8f8f2d2a11"); err != nil {
		t.Fatalf("SaveGatewayID: %v", err)
	}
	id, err := s.GetGatewayID(ctx)
	if err != nil {
		t.Fatalf("GetGatewayID: %v", err)
	}
	if id != "b51f0ed4-6a1c-4f0e-9d3e-7f8f8f2d2a11" {
		t.Errorf("GetGatewayID = %q", id)
	}

	if err := s.ClearGatewayID(ctx); err != nil {
		t.Fatalf("ClearGatewayID: %v", err)
	}
	if _, err := s.GetGatewayID(ctx); !IsNotFound(err) {
		t.Errorf("after clear: err = %v, want NotFoundError", err)
	}
}

func TestCloudSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	session := CloudSession{AccessToken: "acc-1", RefreshToken: "ref-1"}
	if err := s.SaveCloudSession(ctx, session); err != nil {
		t.Fatalf("SaveCloudSession: %v", err)
	}
	got, err := s.GetCloudSession(ctx)
	if err != nil {
		t.Fatalf("GetCloudSession: %v", err)
	}
	if got != session {
		t.Errorf("GetCloudSession = %+v, want %+v", got, session)
	}

	if err := s.ClearCloudSession(ctx); err != nil {
		t.Fatalf("ClearCloudSession: %v", err)
	}
	got, err = s.GetCloudSession(ctx)
	if err != nil {
		t.Fatalf("GetCloudSession: %v", err)
	}
	if got.AccessToken != "" || got.RefreshToken != "" {
		t.Errorf("session after clear = %+v", got)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")
	rw, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("open rw store: %v", err)
	}
	rw.Close()

	ro, err := Open(Options{DBPath: dbPath, ReadOnly: true})
	if err != nil {
		t.Fatalf("open ro store: %v", err)
	}
	defer ro.Close()

	if err := ro.SaveSettings(context.Background(), map[string]string{"k": "v"}); err == nil {
		t.Error("read-only store accepted a write")
	}
}

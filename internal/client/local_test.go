package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luma-home/luma/internal/transport"
)

func staticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

func TestLocalClientHomes(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/homes/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"h1","name":"Loft"}]`)
	}))
	defer srv.Close()

	c := NewLocalClient(transport.Static{LocalBaseURL: srv.URL}, staticToken("tok-123"), nil)
	homes, err := c.Homes(context.Background())
	if err != nil {
		t.Fatalf("Homes: %v", err)
	}
	if len(homes) != 1 || homes[0].ID != "h1" || homes[0].Name != "Loft" {
		t.Fatalf("unexpected homes: %+v", homes)
	}
	if gotAuth != "Token tok-123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestLocalClientNotConfigured(t *testing.T) {
	c := NewLocalClient(transport.Static{}, staticToken(""), nil)
	_, err := c.Homes(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestLocalClientControlPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewLocalClient(transport.Static{LocalBaseURL: srv.URL}, staticToken("t"), nil)
	cmd := ControlCommand{Attribute: "brightness", Value: float64(40)}
	if err := c.ControlEntity(context.Background(), "lamp-1", cmd); err != nil {
		t.Fatalf("ControlEntity: %v", err)
	}
	if gotPath != "/api/entities/lamp-1/control/" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(gotBody) != 1 || gotBody["brightness"] != float64(40) {
		t.Fatalf("body = %v, want {brightness: 40}", gotBody)
	}
}

func TestLocalClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"maintenance window"}`)
	}))
	defer srv.Close()

	c := NewLocalClient(transport.Static{LocalBaseURL: srv.URL}, staticToken("t"), nil)
	err := c.RunScene(context.Background(), "s1")
	up, ok := IsUpstream(err)
	if !ok {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if up.Status != http.StatusServiceUnavailable || up.Message != "maintenance window" {
		t.Fatalf("upstream = %+v", up)
	}
}

package validate

import (
	"strings"
	"testing"
)

func TestIdent(t *testing.T) {
	valid := []string{"42", "home-1", "kitchen.light", "a", "Zone_B"}
	for _, s := range valid {
		if !Ident(s) {
			t.Errorf("Ident(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "-leading", ".dot", "has space", "semi;colon", strings.Repeat("x", MaxIdentLen+1)}
	for _, s := range invalid {
		if Ident(s) {
			t.Errorf("Ident(%q) = true, want false", s)
		}
	}
}

func TestHTTPURL(t *testing.T) {
	if err := HTTPURL("https://cloud.example.com/api"); err != nil {
		t.Errorf("valid https URL rejected: %v", err)
	}
	if err := HTTPURL("http://192.168.1.10:8123"); err != nil {
		t.Errorf("valid http URL rejected: %v", err)
	}
	for _, raw := range []string{"file:///etc/passwd", "ftp://host/x", "cloud.example.com", "http://"} {
		if err := HTTPURL(raw); err == nil {
			t.Errorf("HTTPURL(%q) accepted, want error", raw)
		}
	}
}

func TestHostPort(t *testing.T) {
	cases := []struct {
		host    string
		port    int
		wantErr bool
	}{
		{"192.168.1.10", 8123, false},
		{"hub.local", 80, false},
		{"", 8123, true},
		{"bad host", 8123, true},
		{"hub.local", 0, true},
		{"hub.local", 70000, true},
	}
	for _, tc := range cases {
		err := HostPort(tc.host, tc.port)
		if (err != nil) != tc.wantErr {
			t.Errorf("HostPort(%q, %d) error = %v, wantErr %v", tc.host, tc.port, err, tc.wantErr)
		}
	}
}

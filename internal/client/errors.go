package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 8 << 10

// Sentinel errors callers can test with errors.Is to render specific
// guidance ("pair your gateway" vs "check your connection").
var (
	// ErrNotConfigured means no local server address has been set.
	ErrNotConfigured = errors.New("local server address not configured")
	// ErrNotPaired means no cloud gateway identity could be resolved.
	ErrNotPaired = errors.New("gateway not paired with cloud account")
	// ErrUnsupported means the operation is unavailable on the current transport.
	ErrUnsupported = errors.New("not yet implemented on this transport")
	// ErrOffline means neither transport is usable; no request was attempted.
	ErrOffline = errors.New("no network connection available")
)

// UpstreamError preserves the status and message of a backend error response.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError, returning it.
func IsUpstream(err error) (*UpstreamError, bool) {
	var target *UpstreamError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// readAPIError converts a non-2xx response into an UpstreamError, extracting
// the backend's {"error": ...} or {"detail": ...} message when present.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if strings.HasPrefix(msg, "{") {
		var payload struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal([]byte(msg), &payload); err == nil {
			if m := strings.TrimSpace(payload.Error); m != "" {
				msg = m
			} else if m := strings.TrimSpace(payload.Detail); m != "" {
				msg = m
			}
		}
	}
	return &UpstreamError{Status: resp.StatusCode, Message: msg}
}

package store

import (
	"context"
	"strings"
)

// The local server and the cloud relay are different services with different
// auth schemes, so their credentials are stored independently.
const (
	keyLocalToken        = "session.local_token"
	keyCloudAccessToken  = "session.cloud_access"
	keyCloudRefreshToken = "session.cloud_refresh"
)

// CloudSession holds the cloud relay credential pair.
type CloudSession struct {
	AccessToken  string
	RefreshToken string
}

// GetLocalToken returns the local server auth token, or "" when not logged in.
func (s *Store) GetLocalToken(ctx context.Context) (string, error) {
	settings, err := s.LoadSettings(ctx, keyLocalToken)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(settings[keyLocalToken]), nil
}

// SaveLocalToken persists the local server auth token.
func (s *Store) SaveLocalToken(ctx context.Context, token string) error {
	return s.SaveSettings(ctx, map[string]string{keyLocalToken: strings.TrimSpace(token)})
}

// GetCloudSession returns the stored cloud credential pair. Missing tokens
// come back as empty strings; the cloud client fails fast on them.
func (s *Store) GetCloudSession(ctx context.Context) (CloudSession, error) {
	settings, err := s.LoadSettings(ctx, keyCloudAccessToken, keyCloudRefreshToken)
	if err != nil {
		return CloudSession{}, err
	}
	return CloudSession{
		AccessToken:  strings.TrimSpace(settings[keyCloudAccessToken]),
		RefreshToken: strings.TrimSpace(settings[keyCloudRefreshToken]),
	}, nil
}

// SaveCloudSession persists the cloud credential pair.
func (s *Store) SaveCloudSession(ctx context.Context, session CloudSession) error {
	return s.SaveSettings(ctx, map[string]string{
		keyCloudAccessToken:  strings.TrimSpace(session.AccessToken),
		keyCloudRefreshToken: strings.TrimSpace(session.RefreshToken),
	})
}

// ClearCloudSession removes the stored cloud credentials (logout).
func (s *Store) ClearCloudSession(ctx context.Context) error {
	return s.DeleteSettings(ctx, keyCloudAccessToken, keyCloudRefreshToken)
}

// ABOUTME: Session manager owning the authenticated user state
// ABOUTME: Bridges in-memory token/profile with store-backed recovery across restarts

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/foxvoid/launcher/internal/store"
)

// Settings keys used for session persistence. The token is stored as
// an opaque plaintext string, matching the behavior of the desktop app
// this replaces.
const (
	tokenKey   = "auth_token"
	profileKey = "auth_user"
)

// placeholderAvatarBase is used when the authorization server returns
// no avatar for the user.
const placeholderAvatarBase = "https://api.dicebear.com/7.x/identicon/svg"

// Profile is the user-facing identity attached to a session.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// NewProfile builds a Profile, substituting a deterministic
// placeholder avatar when the server provided none.
func NewProfile(username, avatarURL string) Profile {
	if avatarURL == "" {
		avatarURL = placeholderAvatarBase + "?seed=" + url.QueryEscape(username)
	}
	return Profile{Username: username, Avatar: avatarURL}
}

// Session is a snapshot of authentication state. Token and Profile are
// either both set or both absent.
type Session struct {
	Token   string
	Profile *Profile
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Manager is the single source of truth for "is the user
// authenticated". It is an explicitly owned instance injected into
// components that need auth state; there is no package-level session.
type Manager struct {
	settings store.SettingsStore
	logger   *slog.Logger

	mu      sync.RWMutex
	current Session
}

// NewManager creates a session manager backed by the given settings
// store.
func NewManager(settings store.SettingsStore) *Manager {
	return &Manager{
		settings: settings,
		logger:   slog.Default().With("component", "session"),
	}
}

// Restore loads a persisted session on process start. When no complete
// token+profile pair is stored, it returns an empty session; the
// caller decides how to route the user to login. A half-written pair
// (token without profile or profile without token) is discarded so the
// both-or-neither invariant holds.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	token, haveToken, err := m.settings.GetSetting(ctx, tokenKey)
	if err != nil {
		return Session{}, fmt.Errorf("reading stored token: %w", err)
	}

	rawProfile, haveProfile, err := m.settings.GetSetting(ctx, profileKey)
	if err != nil {
		return Session{}, fmt.Errorf("reading stored profile: %w", err)
	}

	if !haveToken || !haveProfile {
		if haveToken || haveProfile {
			m.logger.Warn("discarding incomplete stored session")
			_ = m.settings.DeleteSetting(ctx, tokenKey)
			_ = m.settings.DeleteSetting(ctx, profileKey)
		}
		return Session{}, nil
	}

	var profile Profile
	if err := json.Unmarshal([]byte(rawProfile), &profile); err != nil {
		m.logger.Warn("discarding unreadable stored profile", "error", err)
		_ = m.settings.DeleteSetting(ctx, tokenKey)
		_ = m.settings.DeleteSetting(ctx, profileKey)
		return Session{}, nil
	}

	session := Session{Token: token, Profile: &profile}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	m.logger.Info("session restored", "username", profile.Username)
	return session, nil
}

// Login persists the token and profile, then updates the in-memory
// session. Memory is only touched after both writes succeed, so a
// persistence failure leaves the manager unchanged and readers never
// observe a token without a matching profile.
func (m *Manager) Login(ctx context.Context, token, username, avatarURL string) error {
	profile := NewProfile(username, avatarURL)

	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if err := m.settings.UpsertSetting(ctx, tokenKey, token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if err := m.settings.UpsertSetting(ctx, profileKey, string(rawProfile)); err != nil {
		return fmt.Errorf("persisting profile: %w", err)
	}

	m.mu.Lock()
	m.current = Session{Token: token, Profile: &profile}
	m.mu.Unlock()

	m.logger.Info("logged in", "username", profile.Username)
	return nil
}

// Logout removes the persisted session and clears memory. Removing an
// already-absent session is a no-op, so Logout always succeeds against
// a reachable store.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.settings.DeleteSetting(ctx, tokenKey); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	if err := m.settings.DeleteSetting(ctx, profileKey); err != nil {
		return fmt.Errorf("removing profile: %w", err)
	}

	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	m.logger.Info("logged out")
	return nil
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Authenticated()
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session := m.current
	if session.Profile != nil {
		profile := *session.Profile
		session.Profile = &profile
	}
	return session
}

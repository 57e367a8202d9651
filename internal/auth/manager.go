// Package auth issues session and CSRF tokens and checks passwords.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	tokenBytes        = 32
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultCSRFTTL    = time.Hour

	sessionPrefix = "session:"
	csrfPrefix    = "csrf:"
)

// Manager issues and validates tokens against a TokenStore.
type Manager struct {
	store      TokenStore
	sessionTTL time.Duration
	csrfTTL    time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessionTTL sets how long a session token lives.
func WithSessionTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sessionTTL = d
		}
	}
}

// WithCSRFTTL sets how long a CSRF token lives.
func WithCSRFTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.csrfTTL = d
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store TokenStore, opts ...Option) *Manager {
	m := &Manager{store: store, sessionTTL: defaultSessionTTL, csrfTTL: defaultCSRFTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueSession creates a bearer token for userID.
func (m *Manager) IssueSession(ctx context.Context, userID string) (string, error) {
	tok, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, sessionPrefix+tok, userID, m.sessionTTL); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	return tok, nil
}

// Authenticate resolves a bearer token to its user id.
func (m *Manager) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := m.store.Get(ctx, sessionPrefix+token)
	if errors.Is(err, ErrTokenNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("auth: load session: %w", err)
	}
	return userID, nil
}

// Revoke ends a session.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, sessionPrefix+token); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

// IssueCSRF creates a CSRF token for userID, replacing any previous one.
func (m *Manager) IssueCSRF(ctx context.Context, userID string) (string, error) {
	tok, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, csrfPrefix+userID, tok, m.csrfTTL); err != nil {
		return "", fmt.Errorf("auth: store csrf token: %w", err)
	}
	return tok, nil
}

// VerifyCSRF checks token against the one issued to userID.
func (m *Manager) VerifyCSRF(ctx context.Context, userID, token string) error {
	if token == "" {
		return ErrCSRFMissing
	}
	want, err := m.store.Get(ctx, csrfPrefix+userID)
	if errors.Is(err, ErrTokenNotFound) {
		return ErrCSRFInvalid
	}
	if err != nil {
		return fmt.Errorf("auth: load csrf token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
		return ErrCSRFInvalid
	}
	return nil
}

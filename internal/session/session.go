package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned by Resolve when a token is absent or expired.
// The two cases are deliberately indistinguishable.
var ErrNoSession = errors.New("no session")

// Store is a string key → string value store with per-key expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ErrKeyNotFound is returned by Store.Get for missing or expired keys.
var ErrKeyNotFound = errors.New("key not found")

const keyPrefix = "auth_"

// Manager issues, resolves, and revokes opaque session tokens backed by an
// expiring key-value store. Store outages surface as wrapped errors, never as
// a silent "not authenticated".
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a Manager with the given token time-to-live.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Issue generates a cryptographically random token for userID and stores it
// with the configured expiry.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := m.store.SetWithTTL(ctx, keyPrefix+token, userID, m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve returns the user identifier a token was issued for.
// Absent and expired tokens both yield ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	userID, err := m.store.Get(ctx, keyPrefix+token)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

// Revoke deletes a token immediately. Revoking an unknown token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Del(ctx, keyPrefix+token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

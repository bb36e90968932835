package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/vidvault/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session has passed its expiry and was invalidated.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued sessions so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// Session is the explicit proof of authentication handed to a client. The
// role is resolved once, when the session is issued, rather than re-derived
// from the user id at every privileged call site.
type Session struct {
	Token     string
	UserID    int64
	Username  string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session carries the admin role claim.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Manager manages the lifecycle of issued sessions backed by a persistent store.
type Manager struct {
	ttl         time.Duration
	adminUserID int64

	store SessionStore
}

// NewManager constructs a Manager that issues sessions with the provided TTL.
// The user whose id matches adminUserID receives the admin role claim.
func NewManager(ttl time.Duration, adminUserID int64, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		ttl:         ttl,
		adminUserID: adminUserID,
		store:       store,
	}
}

// Issue creates a new session for the provided user.
func (m *Manager) Issue(ctx context.Context, user models.User) (Session, error) {
	if user.ID == 0 {
		return Session{}, errors.New("user id must be provided")
	}

	token, err := randomToken()
	if err != nil {
		return Session{}, err
	}

	role := models.RoleMember
	if user.ID == m.adminUserID {
		role = models.RoleAdmin
	}

	session := Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		ExpiresAt: time.Now().UTC().Add(m.ttl),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return Session{}, err
	}

	return session, nil
}

// Lookup resolves a token to its active session. Expired sessions are
// invalidated on sight.
func (m *Manager) Lookup(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return Session{}, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return Session{}, ErrSessionExpired
	}

	return session, nil
}

// Revoke removes the provided token from the active session store.
func (m *Manager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_ = m.store.Delete(ctx, token)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	sessionIDBytes    = 32
)

// SessionManager owns the session table: it creates, resolves and destroys
// sessions. It holds no state of its own beyond the injected store.
type SessionManager struct {
	sessions ports.SessionRepository
	users    ports.UserRepository
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionManager(sessions ports.SessionRepository, users ports.UserRepository, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{sessions: sessions, users: users, ttl: ttl, log: log, now: time.Now}
}

// TTL is the lifetime given to new sessions.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Create starts a session for userID.
func (m *SessionManager) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &domain.Session{ID: id, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}

	if err := m.sessions.Save(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Resolve returns the user behind sessionID, or nil, nil when the id is
// empty, unknown, expired, or points at a user that no longer exists.
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	s, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if s.Expired(m.now()) {
		return nil, nil
	}

	user, err := m.users.GetUser(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			m.log.Warn().Int64("user_id", s.UserID).Msg("session references missing user")
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session user: %w", err)
	}
	return user, nil
}

// Destroy removes sessionID. Destroying an empty or unknown id is a no-op.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

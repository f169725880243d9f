package ports

import (
	"context"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// AuthResult is returned by operations that establish a session.
type AuthResult struct {
	User    domain.Public
	Session *domain.Session
}

// Authenticator verifies a username/password pair. Every rejection is
// reported as domain.ErrInvalidCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// AuthService orchestrates registration, login, logout and the session check.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*AuthResult, error)
	// Login rotates previousSessionID (if any) into a fresh session.
	Login(ctx context.Context, username, password, previousSessionID string) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	// CurrentUser returns nil, nil when there is no valid session.
	CurrentUser(ctx context.Context, sessionID string) (*domain.Public, error)
}

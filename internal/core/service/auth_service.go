package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

// AuthService implements registration, login, logout and the session check.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	strategy ports.Authenticator
	sessions *SessionManager
	log      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	strategy ports.Authenticator,
	sessions *SessionManager,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		strategy: strategy,
		sessions: sessions,
		log:      log,
	}
}

// Register creates the user and logs it in. Input shape is validated by the
// transport layer; uniqueness is checked here and enforced again by the store.
func (s *AuthService) Register(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, domain.NewValidationError("username", "username is required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "password is required")
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.CreateUser(ctx, ports.NewUser{Username: username, PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &ports.AuthResult{User: user.Public(), Session: sess}, nil
}

// Login authenticates and issues a fresh session, discarding previousSessionID.
func (s *AuthService) Login(ctx context.Context, username, password, previousSessionID string) (*ports.AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.strategy.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Debug().Msg("login rejected")
		}
		return nil, err
	}

	if err := s.sessions.Destroy(ctx, previousSessionID); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return &ports.AuthResult{User: user.Public(), Session: sess}, nil
}

// Logout destroys the session. A missing session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// CurrentUser returns the public view of the session's user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*domain.Public, error) {
	user, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil || user == nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

const decoyPassword = "decoy-password"

// LocalStrategy authenticates a username/password pair against the user
// store. An unknown username and a wrong password are both reported as
// domain.ErrInvalidCredentials.
type LocalStrategy struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher

	decoyMu sync.Mutex
	decoy   string
}

func NewLocalStrategy(users ports.UserRepository, hasher ports.PasswordHasher) *LocalStrategy {
	return &LocalStrategy{users: users, hasher: hasher}
}

func (s *LocalStrategy) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// burn one derivation so an unknown name costs the same as a bad password
			s.hasher.Verify(ctx, password, s.decoyRecord())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// decoyRecord returns a well-formed record that no password matches. It is
// derived on a background context so a cancelled request cannot leave it
// empty, and a failed derivation is retried on the next call.
func (s *LocalStrategy) decoyRecord() string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()

	if s.decoy == "" {
		if rec, err := s.hasher.Hash(context.Background(), decoyPassword); err == nil {
			s.decoy = rec
		}
	}
	return s.decoy
}

package ports

import (
	"context"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// UserRepository is the user persistence collaborator.
//
// Lookups return domain.ErrUserNotFound when nothing matches. CreateUser must
// enforce username uniqueness atomically and return domain.ErrUserExists on
// conflict; the caller's pre-check is advisory only.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, input NewUser) (*domain.User, error)
}

// NewUser carries the fields of a user about to be inserted.
type NewUser struct {
	Username     string
	PasswordHash string
}

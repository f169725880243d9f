package ports

import "context"

// PasswordHasher derives and checks stored password records.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, stored string) bool
}

// Package crypto implements the stored-password format
// "<derived-key-hex>.<salt-hex>" on top of scrypt.
package crypto

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltBytes = 16
	keyBytes  = 64

	// scrypt cost parameters; one derivation takes tens of milliseconds.
	costN = 16384
	costR = 8
	costP = 1

	separator = "."
)

// Runner executes a derivation. *queue.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type inline struct{}

func (inline) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

// ScryptHasher derives and verifies password records.
type ScryptHasher struct {
	runner Runner
}

// NewScryptHasher returns a hasher that runs derivations on runner.
// A nil runner derives on the calling goroutine.
func NewScryptHasher(runner Runner) *ScryptHasher {
	if runner == nil {
		runner = inline{}
	}
	return &ScryptHasher{runner: runner}
}

// Hash returns "<derivedKeyHex>.<saltHex>" for password using a fresh salt.
func (h *ScryptHasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	key, err := h.derive(ctx, password, saltHex)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + separator + saltHex, nil
}

// Verify reports whether password matches stored. Malformed records never
// match.
func (h *ScryptHasher) Verify(ctx context.Context, password, stored string) bool {
	keyHex, saltHex, ok := strings.Cut(stored, separator)
	if !ok || keyHex == "" || saltHex == "" {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) != keyBytes {
		return false
	}

	got, err := h.derive(ctx, password, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// derive feeds the hex salt string itself (not its decoded bytes) to scrypt,
// which keeps records produced by existing deployments verifiable.
func (h *ScryptHasher) derive(ctx context.Context, password, saltHex string) ([]byte, error) {
	var (
		key    []byte
		kdfErr error
	)
	err := h.runner.Do(ctx, func() {
		key, kdfErr = scrypt.Key([]byte(password), []byte(saltHex), costN, costR, costP, keyBytes)
	})
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	if kdfErr != nil {
		return nil, fmt.Errorf("derive key: %w", kdfErr)
	}
	return key, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// SessionRepository stores sessions as JSON values with a native TTL.
// Key format: session:<id>
type SessionRepository struct {
	client redis.UniversalClient
}

// NewSessionRepository creates a SessionRepository wrapping the given client.
func NewSessionRepository(client redis.UniversalClient) *SessionRepository {
	return &SessionRepository{client: client}
}

type sessionValue struct {
	UserID    int64 `json:"user_id"`
	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`
}

// Save writes the session; Redis evicts it after ttl.
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	v := sessionValue{UserID: s.UserID, CreatedAt: s.CreatedAt.Unix()}
	if ttl > 0 {
		v.ExpiresAt = time.Now().Add(ttl).Unix()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), raw, ttl).Err(); err != nil {
		return domain.NewStoreError("save session", err)
	}
	return nil
}

// Get loads a session. Missing keys map to domain.ErrSessionNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.NewStoreError("get session", err)
	}

	var v sessionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, domain.NewStoreError("decode session", err)
	}

	s := &domain.Session{ID: id, UserID: v.UserID, CreatedAt: time.Unix(v.CreatedAt, 0).UTC()}
	if v.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(v.ExpiresAt, 0).UTC()
	}
	return s, nil
}

// Delete removes a session; deleting a missing key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return domain.NewStoreError("delete session", err)
	}
	return nil
}

func (r *SessionRepository) key(id string) string {
	return "session:" + id
}

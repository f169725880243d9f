package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// plainHasher stores "plain:<password>" so tests avoid the real KDF cost.
type plainHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *plainHasher) Hash(_ context.Context, password string) (string, error) {
	return "plain:" + password, nil
}

func (h *plainHasher) Verify(_ context.Context, password, stored string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	rest, ok := strings.CutPrefix(stored, "plain:")
	return ok && rest == password
}

func (h *plainHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

// failingUsers wraps a repository and fails selected operations.
type failingUsers struct {
	ports.UserRepository
	lookupErr error
	createErr error
}

func (f *failingUsers) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.UserRepository.GetUserByUsername(ctx, username)
}

func (f *failingUsers) CreateUser(ctx context.Context, in ports.NewUser) (*domain.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.UserRepository.CreateUser(ctx, in)
}

type failingSessions struct {
	ports.SessionRepository
	deleteErr error
	getErr    error
}

func (f *failingSessions) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.SessionRepository.Delete(ctx, id)
}

func (f *failingSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.SessionRepository.Get(ctx, id)
}

var errStoreDown = domain.NewStoreError("test", errors.New("store unavailable"))

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	users    *memory.UserRepository
	sessions *memory.SessionRepository
	hasher   *plainHasher
	manager  *SessionManager
	svc      *AuthService
}

func newFixture() *fixture {
	return newFixtureWith(nil, nil)
}

func newFixtureWith(wrapUsers func(ports.UserRepository) ports.UserRepository, wrapSessions func(ports.SessionRepository) ports.SessionRepository) *fixture {
	f := &fixture{
		users:    memory.NewUserRepository(),
		sessions: memory.NewSessionRepository(),
		hasher:   &plainHasher{},
	}

	var users ports.UserRepository = f.users
	if wrapUsers != nil {
		users = wrapUsers(users)
	}
	var sessions ports.SessionRepository = f.sessions
	if wrapSessions != nil {
		sessions = wrapSessions(sessions)
	}

	f.manager = NewSessionManager(sessions, users, time.Hour, zerolog.Nop())
	f.svc = NewAuthService(users, f.hasher, NewLocalStrategy(users, f.hasher), f.manager, zerolog.Nop())
	return f
}

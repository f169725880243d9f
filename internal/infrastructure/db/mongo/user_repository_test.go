package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

func counterReply(seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{
		Key:   "value",
		Value: bson.D{{Key: "_id", Value: userSequence}, {Key: "seq", Value: seq}},
	})
}

func TestUserRepository_CreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns the counter id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(counterReply(7), mtest.CreateSuccessResponse())

		u, err := repo.CreateUser(context.Background(), ports.NewUser{Username: "alice", PasswordHash: "k.s"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID != 7 || u.Username != "alice" || u.PasswordHash != "k.s" {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			counterReply(8),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: storefront.users index: username_unique",
			}),
		)

		_, err := repo.CreateUser(context.Background(), ports.NewUser{Username: "alice", PasswordHash: "k.s"})
		if !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("other write error", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			counterReply(9),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document failed validation"}),
		)

		_, err := repo.CreateUser(context.Background(), ports.NewUser{Username: "bob", PasswordHash: "k.s"})
		var se *domain.StoreError
		if !errors.As(err, &se) || errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected StoreError, got %v", err)
		}
	})

	mt.Run("counter failure", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad counter"}))

		_, err := repo.CreateUser(context.Background(), ports.NewUser{Username: "carol"})
		var se *domain.StoreError
		if !errors.As(err, &se) {
			t.Fatalf("expected StoreError, got %v", err)
		}
	})
}

func TestUserRepository_Lookup(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + collectionUsers
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(3)},
			{Key: "username", Value: "dave"},
			{Key: "password", Value: "k.s"},
		}))

		u, err := repo.GetUserByUsername(context.Background(), "dave")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if u.ID != 3 || u.PasswordHash != "k.s" {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + collectionUsers
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := repo.GetUser(context.Background(), 99); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))

		_, err := repo.GetUserByUsername(context.Background(), "erin")
		var se *domain.StoreError
		if !errors.As(err, &se) {
			t.Fatalf("expected StoreError, got %v", err)
		}
	})
}

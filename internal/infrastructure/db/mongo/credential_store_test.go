package mongo

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

func TestCredentialStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + usersCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "nombre", Value: "Ana"},
			{Key: "email", Value: "ana@test.com"},
			{Key: "password", Value: "$2a$hash"},
			{Key: "roles", Value: bson.A{"cliente"}},
		}))

		user, err := store.FindByEmail(context.Background(), "ana@test.com")
		if err != nil {
			mt.Fatalf("find: %v", err)
		}
		if user.ID != oid.Hex() || user.Name != "Ana" || user.PasswordHash != "$2a$hash" {
			mt.Fatalf("unexpected user: %+v", user)
		}
	})

	mt.Run("find by email not found", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)
		ns := mt.DB.Name() + "." + usersCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := store.FindByEmail(context.Background(), "ghost@test.com"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("create", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := store.Create(context.Background(), "Ana", "ana@test.com", "$2a$hash")
		if err != nil {
			mt.Fatalf("create: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			mt.Fatalf("expected object id hex, got %q", id)
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: usuarios index: email_unique",
		}))

		if _, err := store.Create(context.Background(), "Ana", "ana@test.com", "$2a$hash"); err != domain.ErrEmailTaken {
			mt.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("assign default role", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)
		id := primitive.NewObjectID().Hex()

		// First call adds the role, second is a no-op on an existing member.
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)

		for i := 0; i < 2; i++ {
			if err := store.AssignDefaultRole(context.Background(), id); err != nil {
				mt.Fatalf("assign #%d: %v", i+1, err)
			}
		}
	})

	mt.Run("assign default role unknown user", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := store.AssignDefaultRole(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if err := store.AssignDefaultRole(context.Background(), "not-an-object-id"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound for malformed id, got %v", err)
		}
	})

	mt.Run("get roles sorted", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)
		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + usersCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "roles", Value: bson.A{"cliente", "admin"}},
		}))

		roles, err := store.GetRoles(context.Background(), oid.Hex())
		if err != nil {
			mt.Fatalf("get roles: %v", err)
		}
		if !reflect.DeepEqual(roles, []string{"admin", "cliente"}) {
			mt.Fatalf("unexpected roles: %v", roles)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := store.EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("ensure indexes: %v", err)
		}
	})

	mt.Run("ping", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB, time.Second)

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := store.Ping(context.Background()); err != nil {
			mt.Fatalf("ping: %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	opErr := errors.New("server selection interrupted")

	err := classify(canceled, "find user", opErr)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, opErr) {
		t.Fatalf("expected canceled chain, got %v", err)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("caller cancellation must not mark the store unavailable: %v", err)
	}

	if err := classify(expired, "find user", opErr); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected deadline to mark the store unavailable, got %v", err)
	}

	if err := classify(context.Background(), "find user", opErr); errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("plain failure must not be marked unavailable: %v", err)
	}
}

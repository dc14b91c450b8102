package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
)

const (
	usersCollection     = "usuarios"
	defaultQueryTimeout = 5 * time.Second
)

// CredentialStore keeps users in a single collection with their role names
// embedded, so a user and its default role are written in one document.
type CredentialStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewCredentialStore returns a store over db whose operations are each bounded
// by timeout.
func NewCredentialStore(db *mongo.Database, timeout time.Duration) *CredentialStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &CredentialStore{coll: db.Collection(usersCollection), timeout: timeout}
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"nombre"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Roles        []string           `bson:"roles"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// EnsureIndexes creates the unique email index that backs registration.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return classify(ctx, "create email index", err)
	}
	return nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu mongoUser
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(ctx, "find user", err)
	}

	return &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		CreatedAt:    mu.CreatedAt.UTC(),
	}, nil
}

// Create inserts the user already holding the default role.
func (s *CredentialStore) Create(ctx context.Context, name, email, passwordHash string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{domain.DefaultRole},
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrEmailTaken
		}
		return "", classify(ctx, "insert user", err)
	}
	return doc.ID.Hex(), nil
}

// AssignDefaultRole adds the default role with $addToSet, which leaves an
// existing assignment untouched.
func (s *CredentialStore) AssignDefaultRole(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"roles": domain.DefaultRole}},
	)
	if err != nil {
		return classify(ctx, "assign default role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetRoles returns the user's role names sorted by name.
func (s *CredentialStore) GetRoles(ctx context.Context, userID string) ([]string, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu mongoUser
	opts := options.FindOne().SetProjection(bson.M{"roles": 1})
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(ctx, "get roles", err)
	}

	roles := append(make([]string, 0, len(mu.Roles)), mu.Roles...)
	sort.Strings(roles)
	return roles, nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return classify(ctx, "ping", err)
	}
	return nil
}

// classify wraps err with op. A request the caller cancelled keeps
// context.Canceled in its chain; deadlines and network failures are marked
// domain.ErrStoreUnavailable.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w: %w", op, context.Canceled, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

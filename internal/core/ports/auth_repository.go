package ports

import (
	"context"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

// CredentialStore defines the persistence operations the auth service needs.
// Implementations return domain.ErrUserNotFound, domain.ErrEmailTaken and
// wrap connectivity failures with domain.ErrStoreUnavailable.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (string, error)
	// AssignDefaultRole is idempotent: re-assigning an existing pair is a no-op.
	AssignDefaultRole(ctx context.Context, userID string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	Ping(ctx context.Context) error
}

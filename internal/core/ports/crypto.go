package ports

import "github.com/isaacpassnav/okea-backend/internal/core/domain"

// PasswordHasher hashes and verifies passwords with a slow, salted algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	Issue(claims domain.TokenClaims) (string, error)
	Verify(token string) (*domain.TokenClaims, error)
}

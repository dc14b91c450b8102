// Package token implements the HS256 JWT codec for bearer tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

// ErrEmptySecret is returned when a codec is built without a signing key.
var ErrEmptySecret = errors.New("token: signing secret must not be empty")

type claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies tokens with a single process-wide HMAC secret.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

// Option customises a JWTCodec.
type Option func(*JWTCodec)

// WithClock replaces the time source used to stamp and validate tokens.
func WithClock(now func() time.Time) Option {
	return func(c *JWTCodec) {
		c.now = now
	}
}

// NewJWTCodec returns a codec signing with secret.
func NewJWTCodec(secret string, opts ...Option) (*JWTCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	c := &JWTCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs c. A zero IssuedAt is stamped with the codec clock, and
// ExpiresAt is always IssuedAt plus domain.TokenLifetime.
func (c *JWTCodec) Issue(tc domain.TokenClaims) (string, error) {
	issued := tc.IssuedAt
	if issued.IsZero() {
		issued = c.now()
	}
	issued = issued.UTC().Truncate(time.Second)

	roles := tc.Roles
	if roles == nil {
		roles = []string{}
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: tc.Email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tc.Subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(domain.TokenLifetime)),
		},
	})
	return t.SignedString(c.secret)
}

// Verify parses token and checks its algorithm, signature and expiry. Any
// failure yields domain.ErrInvalidToken.
func (c *JWTCodec) Verify(token string) (*domain.TokenClaims, error) {
	var parsed claims
	tkn, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	if parsed.Subject == "" || parsed.IssuedAt == nil {
		return nil, domain.ErrInvalidToken
	}

	roles := parsed.Roles
	if roles == nil {
		roles = []string{}
	}
	return &domain.TokenClaims{
		Subject:   parsed.Subject,
		Email:     parsed.Email,
		Roles:     roles,
		IssuedAt:  parsed.IssuedAt.Time.UTC(),
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

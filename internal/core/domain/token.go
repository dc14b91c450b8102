package domain

import "time"

// TokenClaims is the identity payload carried by a signed bearer token.
// It is never persisted.
type TokenClaims struct {
	Subject   string
	Email     string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewTokenClaims stamps claims issued at now. Timestamps are truncated to
// whole seconds, the precision a token can carry.
func NewTokenClaims(subject, email string, roles []string, now time.Time) TokenClaims {
	issued := now.UTC().Truncate(time.Second)
	return TokenClaims{
		Subject:   subject,
		Email:     email,
		Roles:     append([]string(nil), roles...),
		IssuedAt:  issued,
		ExpiresAt: issued.Add(TokenLifetime),
	}
}

package ports

import (
	"context"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context) string
}

// RegisterInput carries the raw registration fields. The service trims and
// normalizes them before validating.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// LoginInput carries raw login credentials.
type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	ID    string
	Token string
	User  domain.UserSummary
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Token string
	User  domain.UserSummary
}

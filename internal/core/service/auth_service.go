package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
)

// LogoutMessage is returned by every logout. The service keeps no server-side
// session, so the client is responsible for discarding its token.
const LogoutMessage = "Logout realizado (el cliente debe descartar el token)"

// AuthService implements registration, login, token refresh and logout.
type AuthService struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(store ports.CredentialStore, hasher ports.PasswordHasher, tokens ports.TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	candidate := ports.RegisterInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Password: in.Password,
	}
	if strings.TrimSpace(candidate.Password) == "" {
		candidate.Password = ""
	}
	if err := validateInput(s.validate, &candidate, msgRegisterRequired); err != nil {
		return nil, err
	}

	// Fast path only; the store's unique constraint is the real guard.
	_, err := s.store.FindByEmail(ctx, candidate.Email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, candidate.Name, candidate.Email, hash)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	if err := s.store.AssignDefaultRole(ctx, id); err != nil {
		return nil, fmt.Errorf("register: assign default role: %w", err)
	}

	roles, err := s.store.GetRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("register: load roles: %w", err)
	}

	user := &domain.User{ID: id, Name: candidate.Name, Email: candidate.Email}
	token, err := s.issue(user, roles)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Strs("roles", roles).Msg("user registered")

	return &ports.RegisterResult{
		ID:    id,
		Token: token,
		User:  user.Summary(roles),
	}, nil
}

// Login never distinguishes an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	candidate := ports.LoginInput{
		Email:    normalizeEmail(in.Email),
		Password: in.Password,
	}
	if strings.TrimSpace(candidate.Password) == "" {
		candidate.Password = ""
	}
	if err := validateInput(s.validate, &candidate, msgLoginRequired); err != nil {
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, candidate.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: find user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, candidate.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	roles, err := s.store.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: load roles: %w", err)
	}

	token, err := s.issue(user, roles)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")

	return &ports.AuthResult{Token: token, User: user.Summary(roles)}, nil
}

// Refresh re-issues a token carrying the verified token's claims verbatim.
// The store is not consulted, so role changes only show up after a new login.
func (s *AuthService) Refresh(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", domain.ErrInvalidToken
	}

	renewed, err := s.tokens.Issue(domain.NewTokenClaims(claims.Subject, claims.Email, claims.Roles, s.now()))
	if err != nil {
		return "", fmt.Errorf("refresh: issue token: %w", err)
	}

	s.log.Info().Str("user_id", claims.Subject).Msg("token refreshed")
	return renewed, nil
}

func (s *AuthService) Logout(_ context.Context) string {
	return LogoutMessage
}

func (s *AuthService) issue(user *domain.User, roles []string) (string, error) {
	token, err := s.tokens.Issue(domain.NewTokenClaims(user.ID, user.Email, roles, s.now()))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

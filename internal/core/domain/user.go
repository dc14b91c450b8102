package domain

import "time"

// DefaultRole is assigned to every account at registration.
const DefaultRole = "cliente"

// TokenLifetime is the fixed validity window of every issued token.
const TokenLifetime = 7 * 24 * time.Hour

// User models a registered account as held by the credential store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the public view of a user returned to clients.
type UserSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"nombre"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Summary builds the public view of u with the given roles.
func (u *User) Summary(roles []string) UserSummary {
	if roles == nil {
		roles = []string{}
	}
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Roles: roles,
	}
}

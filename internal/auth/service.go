// Package auth exchanges credentials for signed access tokens.
package auth

import (
	"context"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/platform/crypto"
	"bookhive/internal/user"
)

var ErrInvalidCredentials = &apperr.Error{Code: apperr.CodeUnauthorized, Message: "invalid email or password"}

// Users finds accounts by their e-mail address.
type Users interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	User        user.User `json:"user"`
}

type Service struct {
	users  Users
	secret string
	ttl    time.Duration
}

func NewService(users Users, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl}
}

// Login verifies the password and issues a token carrying the account's role.
// Unknown accounts and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Token{}, ErrInvalidCredentials
	}

	access, _, err := crypto.GenerateTokenWithEmail(s.secret, u.ID, u.Role, u.Email, s.ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		User:        u,
	}, nil
}

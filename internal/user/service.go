package user

import (
	"context"
	"strings"

	"bookhive/internal/apperr"
	"bookhive/internal/platform/crypto"
)

type Service struct {
	repo   Repository
	admins map[string]bool
}

// NewService returns a Service that grants the admin role to new accounts
// registered with one of adminEmails.
func NewService(repo Repository, adminEmails []string) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = NormalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &Service{repo: repo, admins: admins}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	u := &User{
		Name:  strings.TrimSpace(in.Name),
		Email: NormalizeEmail(in.Email),
		Role:  RoleUser,
	}
	if s.admins[u.Email] {
		u.Role = RoleAdmin
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, apperr.Storage("register user", err)
	}
	return *u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, apperr.Storage("get user", err)
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return User{}, apperr.Storage("get user", err)
	}
	return u, nil
}

// Promote gives the account the admin role.
func (s *Service) Promote(ctx context.Context, email string) (User, error) {
	u, err := s.repo.SetRole(ctx, NormalizeEmail(email), RoleAdmin)
	if err != nil {
		return User{}, apperr.Storage("promote user", err)
	}
	return u, nil
}

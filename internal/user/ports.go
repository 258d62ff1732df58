package user

import "context"

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=user

// Repository stores users. Emails are looked up in their normalized form.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	SetRole(ctx context.Context, email, role string) (User, error)
}

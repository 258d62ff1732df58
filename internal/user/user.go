// Package user manages reader accounts and their roles.
package user

import (
	"strings"
	"time"

	"bookhive/internal/apperr"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

var (
	ErrNotFound      = &apperr.Error{Code: apperr.CodeNotFound, Message: "user not found"}
	ErrAlreadyExists = &apperr.Error{Code: apperr.CodeAlreadyExists, Message: "email already registered"}
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail is the stored form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

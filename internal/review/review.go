// Package review stores readers' ratings and comments, one per reader and
// book.
package review

import (
	"strings"
	"time"

	"bookhive/internal/apperr"
)

const maxComment = 2000

var ErrNotFound = &apperr.Error{Code: apperr.CodeNotFound, Message: "review not found"}

type Review struct {
	ID        string    `json:"id" db:"id"`
	BookID    string    `json:"book_id" db:"book_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Summary is a book's average rating; Average is 0 when Count is 0.
type Summary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Input struct {
	Rating  int
	Comment string
}

func (in Input) normalize() Input {
	in.Comment = strings.TrimSpace(in.Comment)
	return in
}

func (in Input) Validate() error {
	var details []apperr.FieldError
	if in.Rating < 1 || in.Rating > 5 {
		details = append(details, apperr.FieldError{Field: "rating", Message: "rating must be between 1 and 5"})
	}
	if len(in.Comment) > maxComment {
		details = append(details, apperr.FieldError{Field: "comment", Message: "comment must be at most 2000 characters"})
	}
	if len(details) > 0 {
		return apperr.Validation(details...)
	}
	return nil
}

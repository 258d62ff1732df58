// Package apperr defines the error taxonomy shared by the domain services and
// the HTTP layer. Errors carry a stable Code; errors.Is compares codes, so a
// wrapped *Error matches its sentinel.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeAlreadyBorrowed Code = "ALREADY_BORROWED"
	CodeNoActiveLoan    Code = "NO_ACTIVE_LOAN"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeConflict        Code = "CONFLICT"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotification    Code = "NOTIFICATION_FAILURE"
	CodeStorage         Code = "STORAGE_ERROR"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code    Code
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrUnavailable     = &Error{Code: CodeUnavailable, Message: "book is not available"}
	ErrAlreadyBorrowed = &Error{Code: CodeAlreadyBorrowed, Message: "book already borrowed by this user"}
	ErrNoActiveLoan    = &Error{Code: CodeNoActiveLoan, Message: "no active loan for this book"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrAlreadyExists   = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden       = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotification    = &Error{Code: CodeNotification, Message: "notification failed"}
	ErrStorage         = &Error{Code: CodeStorage, Message: "storage error"}
)

// New returns an error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Validation returns a validation error listing the offending fields.
func Validation(details ...FieldError) error {
	return &Error{Code: CodeValidation, Message: "invalid input", Details: details}
}

// Storage wraps a persistence failure. Errors that already carry a domain code
// are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeStorage, Message: op, Err: err}
}

// Notification wraps a failed notice delivery.
func Notification(op string, err error) error {
	return &Error{Code: CodeNotification, Message: op, Err: err}
}

// CodeOf returns the code carried by err, or CodeStorage for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// DetailsOf returns the field errors carried by err, if any.
func DetailsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

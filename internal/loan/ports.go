package loan

import (
	"context"
	"time"

	"bookhive/internal/notify"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=loan

// Repository persists the ledger. Borrow and Return each run in one
// transaction together with the matching change to the book's copy count.
type Repository interface {
	// Borrow fails with book.ErrNotFound, ErrUserNotFound,
	// apperr.ErrUnavailable or apperr.ErrAlreadyBorrowed.
	Borrow(ctx context.Context, req BorrowRequest) (BorrowOutcome, error)
	// Return fails with book.ErrNotFound or apperr.ErrNoActiveLoan.
	Return(ctx context.Context, userID, bookID string, at time.Time) (ReturnOutcome, error)
	History(ctx context.Context, userID string) ([]Loan, error)
	ActiveCountByBook(ctx context.Context, bookID string) (int, error)
	ActiveTotal(ctx context.Context) (int, error)
	ActiveByBook(ctx context.Context, bookID string) ([]ActiveLoan, error)
}

// Notifier sends the borrow confirmation.
type Notifier interface {
	SendBorrowNotice(ctx context.Context, n notify.BorrowNotice) error
}

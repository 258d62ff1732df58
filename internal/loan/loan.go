// Package loan keeps the borrowing ledger. A loan moves from open to closed
// exactly once; at most one loan per reader and book is open at a time.
package loan

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"

	"github.com/oklog/ulid/v2"
)

// DefaultPeriod is how long a reader may keep a book.
const DefaultPeriod = 14 * 24 * time.Hour

var (
	ErrUserNotFound = &apperr.Error{Code: apperr.CodeNotFound, Message: "user not found"}
	ErrOnBehalf     = &apperr.Error{Code: apperr.CodeForbidden, Message: "only admins can act for another user"}
)

type Loan struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	BookID            string     `json:"book_id" db:"book_id"`
	BookTitle         string     `json:"book_title" db:"book_title"`
	BorrowedAt        time.Time  `json:"borrowed_at" db:"borrowed_at"`
	DueAt             time.Time  `json:"due_at" db:"due_at"`
	ReturnedAt        *time.Time `json:"returned_at,omitempty" db:"returned_at"`
	Administrative    bool       `json:"administrative" db:"administrative"`
	CopyTaken         bool       `json:"-" db:"copy_taken"`
	DueSoonNotifiedAt *time.Time `json:"-" db:"due_soon_notified_at"`
	OverdueNotifiedAt *time.Time `json:"-" db:"overdue_notified_at"`
}

func (l Loan) Open() bool { return l.ReturnedAt == nil }

// historyColumns swaps the borrow-time title snapshot for the current title
// of the book (joined as b), keeping the snapshot once the book is gone.
func historyColumns(cols string) string {
	return strings.Replace(cols, "l.book_title", "COALESCE(b.title, l.book_title) AS book_title", 1)
}

// ActiveLoan is an open loan with its reader, for the admin view of a book.
type ActiveLoan struct {
	Loan
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
}

// DueLoan is an open loan with what a reminder needs.
type DueLoan struct {
	Loan
	UserName   string `db:"user_name"`
	UserEmail  string `db:"user_email"`
	BookAuthor string `db:"book_author"`
}

type Borrower struct {
	Name  string `db:"name"`
	Email string `db:"email"`
}

// BorrowRequest is a fully resolved borrow handed to the repository.
type BorrowRequest struct {
	LoanID         string
	UserID         string
	BookID         string
	BorrowedAt     time.Time
	DueAt          time.Time
	Administrative bool
}

type BorrowOutcome struct {
	Book     book.Book
	Loan     Loan
	Borrower Borrower
}

type ReturnOutcome struct {
	Book book.Book
	Loan Loan
}

type BorrowResult struct {
	Book  book.Book `json:"book"`
	Loan  Loan      `json:"loan"`
	DueAt time.Time `json:"due_at"`
}

type ReturnResult struct {
	Book book.Book `json:"book"`
	Loan Loan      `json:"loan"`
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Admin  bool
}

// subject resolves whose loan an operation touches. Only admins may name
// another reader.
func (a Actor) subject(onBehalfOf string) (string, error) {
	if a.UserID == "" {
		return "", apperr.ErrUnauthorized
	}
	if onBehalfOf == "" || onBehalfOf == a.UserID {
		return a.UserID, nil
	}
	if !a.Admin {
		return "", ErrOnBehalf
	}
	return onBehalfOf, nil
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New(t time.Time) (string, error)
}

// ulidGen hands out time-ordered loan ids. Monotonic entropy is not safe for
// concurrent use, hence the lock.
type ulidGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newULIDGen() *ulidGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) New(t time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

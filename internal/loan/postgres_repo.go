package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/notify"
	"bookhive/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	openLoanIndex = "loans_open_user_book_key"

	pgLoanColumns = `l.id, l.user_id, l.book_id, l.book_title, l.borrowed_at, l.due_at, l.returned_at,
		l.administrative, l.copy_taken, l.due_soon_notified_at, l.overdue_notified_at`
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// pgLockBook reads the book and holds its row lock until the transaction ends.
func pgLockBook(ctx context.Context, tx pgx.Tx, id string) (book.Book, error) {
	var b book.Book
	err := tx.QueryRow(ctx, `
		SELECT b.id, b.title, b.author, b.genre, b.quantity, b.status,
		       (d.book_id IS NOT NULL), COALESCE(d.name, ''), b.created_at, b.updated_at
		FROM books b LEFT JOIN book_documents d ON d.book_id = b.id
		WHERE b.id = $1
		FOR UPDATE OF b`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Quantity, &b.Status,
			&b.HasDocument, &b.DocumentName, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) Borrow(ctx context.Context, req BorrowRequest) (BorrowOutcome, error) {
	if !isUUID(req.BookID) {
		return BorrowOutcome{}, book.ErrNotFound
	}
	if !isUUID(req.UserID) {
		return BorrowOutcome{}, ErrUserNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out BorrowOutcome
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := pgLockBook(ctx, tx, req.BookID)
		if err != nil {
			return err
		}

		var who Borrower
		err = tx.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1`, req.UserID).Scan(&who.Name, &who.Email)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if !b.Available() {
			return apperr.ErrUnavailable
		}

		var open bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM loans WHERE user_id = $1 AND book_id = $2 AND returned_at IS NULL)`,
			req.UserID, req.BookID).Scan(&open); err != nil {
			return err
		}
		if open {
			return apperr.ErrAlreadyBorrowed
		}

		copyTaken := b.Status != book.StatusOnline
		if copyTaken {
			tag, err := tx.Exec(ctx, `
				UPDATE books SET quantity = quantity - 1, updated_at = now()
				WHERE id = $1 AND quantity > 0`, req.BookID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return apperr.ErrUnavailable
			}
			b.Quantity--
		}

		l := Loan{
			ID:             req.LoanID,
			UserID:         req.UserID,
			BookID:         req.BookID,
			BookTitle:      b.Title,
			BorrowedAt:     req.BorrowedAt,
			DueAt:          req.DueAt,
			Administrative: req.Administrative,
			CopyTaken:      copyTaken,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO loans (id, user_id, book_id, book_title, borrowed_at, due_at, administrative, copy_taken)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, l.UserID, l.BookID, l.BookTitle, l.BorrowedAt, l.DueAt, l.Administrative, l.CopyTaken)
		if postgres.IsUniqueViolation(err, openLoanIndex) {
			return apperr.ErrAlreadyBorrowed
		}
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}

		out = BorrowOutcome{Book: b, Loan: l, Borrower: who}
		return nil
	})
	if err != nil {
		return BorrowOutcome{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Return(ctx context.Context, userID, bookID string, at time.Time) (ReturnOutcome, error) {
	if !isUUID(bookID) {
		return ReturnOutcome{}, book.ErrNotFound
	}
	if !isUUID(userID) {
		return ReturnOutcome{}, apperr.ErrNoActiveLoan
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out ReturnOutcome
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := pgLockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		rows, _ := tx.Query(ctx, `SELECT `+pgLoanColumns+` FROM loans l
			WHERE l.user_id = $1 AND l.book_id = $2 AND l.returned_at IS NULL
			FOR UPDATE`, userID, bookID)
		l, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Loan])
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNoActiveLoan
		}
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE loans SET returned_at = $2 WHERE id = $1 AND returned_at IS NULL`, l.ID, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNoActiveLoan
		}
		l.ReturnedAt = &at

		if l.CopyTaken {
			if _, err := tx.Exec(ctx, `UPDATE books SET quantity = quantity + 1, updated_at = now() WHERE id = $1`, bookID); err != nil {
				return err
			}
			b.Quantity++
		}

		out = ReturnOutcome{Book: b, Loan: l}
		return nil
	})
	if err != nil {
		return ReturnOutcome{}, err
	}
	return out, nil
}

func (r *PostgresRepo) History(ctx context.Context, userID string) ([]Loan, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, _ := r.db.Query(ctx, `SELECT `+historyColumns(pgLoanColumns)+` FROM loans l
		LEFT JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		ORDER BY l.borrowed_at DESC, l.id DESC`, userID)
	return pgx.CollectRows(rows, pgx.RowToStructByName[Loan])
}

func (r *PostgresRepo) ActiveCountByBook(ctx context.Context, bookID string) (int, error) {
	if !isUUID(bookID) {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = $1 AND returned_at IS NULL`, bookID).Scan(&n)
	return n, err
}

func (r *PostgresRepo) ActiveTotal(ctx context.Context) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE returned_at IS NULL`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) ActiveByBook(ctx context.Context, bookID string) ([]ActiveLoan, error) {
	if !isUUID(bookID) {
		return nil, book.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, book.ErrNotFound
	}

	rows, _ := r.db.Query(ctx, `SELECT `+pgLoanColumns+`, u.name AS user_name, u.email AS user_email
		FROM loans l JOIN users u ON u.id = l.user_id
		WHERE l.book_id = $1 AND l.returned_at IS NULL
		ORDER BY l.due_at, l.id`, bookID)
	return pgx.CollectRows(rows, pgx.RowToStructByName[ActiveLoan])
}

// ListOpenDue returns open loans due by horizon that have not had their
// overdue notice yet.
func (r *PostgresRepo) ListOpenDue(ctx context.Context, horizon time.Time) ([]DueLoan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, _ := r.db.Query(ctx, `SELECT `+pgLoanColumns+`,
			u.name AS user_name, u.email AS user_email, COALESCE(b.author, '') AS book_author
		FROM loans l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN books b ON b.id = l.book_id
		WHERE l.returned_at IS NULL AND l.due_at <= $1 AND l.overdue_notified_at IS NULL
		ORDER BY l.due_at, l.id`, horizon)
	return pgx.CollectRows(rows, pgx.RowToStructByName[DueLoan])
}

func noticeColumn(kind notify.Kind) (string, error) {
	switch kind {
	case notify.KindDueSoon:
		return "due_soon_notified_at", nil
	case notify.KindOverdue:
		return "overdue_notified_at", nil
	}
	return "", fmt.Errorf("unknown notice kind %q", kind)
}

// ClaimNotice marks the notice as sent if nobody has yet. It reports false
// when the notice was already claimed or the loan is closed.
func (r *PostgresRepo) ClaimNotice(ctx context.Context, loanID string, kind notify.Kind, at time.Time) (bool, error) {
	col, err := noticeColumn(kind)
	if err != nil {
		return false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE loans SET `+col+` = $2
		WHERE id = $1 AND `+col+` IS NULL AND returned_at IS NULL`, loanID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseNotice undoes a claim after a failed send.
func (r *PostgresRepo) ReleaseNotice(ctx context.Context, loanID string, kind notify.Kind) error {
	col, err := noticeColumn(kind)
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err = r.db.Exec(ctx, `UPDATE loans SET `+col+` = NULL WHERE id = $1`, loanID)
	return err
}

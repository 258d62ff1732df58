package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/notify"
	"bookhive/internal/platform/sqlite"

	"github.com/jmoiron/sqlx"
)

const sqliteLoanColumns = `l.id, l.user_id, l.book_id, l.book_title, l.borrowed_at, l.due_at, l.returned_at,
	l.administrative, l.copy_taken, l.due_soon_notified_at, l.overdue_notified_at`

// SQLiteRepo is the ledger on SQLite. Every write transaction begins
// IMMEDIATE, so the read-check-write sequences below cannot interleave.
type SQLiteRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSQLiteRepo(db *sqlx.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, timeout: timeout}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func sqliteBook(ctx context.Context, q sqlx.QueryerContext, id string) (book.Book, error) {
	var b book.Book
	err := sqlx.GetContext(ctx, q, &b, `
		SELECT b.id, b.title, b.author, b.genre, b.quantity, b.status,
		       (d.book_id IS NOT NULL) AS has_document, COALESCE(d.name, '') AS document_name,
		       b.created_at, b.updated_at
		FROM books b LEFT JOIN book_documents d ON d.book_id = b.id
		WHERE b.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	return b, err
}

func (r *SQLiteRepo) Borrow(ctx context.Context, req BorrowRequest) (BorrowOutcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out BorrowOutcome
	err := sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		b, err := sqliteBook(ctx, tx, req.BookID)
		if err != nil {
			return err
		}

		var who Borrower
		err = tx.GetContext(ctx, &who, `SELECT name, email FROM users WHERE id = ?`, req.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if !b.Available() {
			return apperr.ErrUnavailable
		}

		var open int
		if err := tx.GetContext(ctx, &open,
			`SELECT COUNT(*) FROM loans WHERE user_id = ? AND book_id = ? AND returned_at IS NULL`,
			req.UserID, req.BookID); err != nil {
			return err
		}
		if open > 0 {
			return apperr.ErrAlreadyBorrowed
		}

		copyTaken := b.Status != book.StatusOnline
		if copyTaken {
			res, err := tx.ExecContext(ctx,
				`UPDATE books SET quantity = quantity - 1, updated_at = ? WHERE id = ? AND quantity > 0`,
				req.BorrowedAt.UTC(), req.BookID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.ErrUnavailable
			}
			b.Quantity--
		}

		l := Loan{
			ID:             req.LoanID,
			UserID:         req.UserID,
			BookID:         req.BookID,
			BookTitle:      b.Title,
			BorrowedAt:     req.BorrowedAt.UTC(),
			DueAt:          req.DueAt.UTC(),
			Administrative: req.Administrative,
			CopyTaken:      copyTaken,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO loans (id, user_id, book_id, book_title, borrowed_at, due_at, administrative, copy_taken)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.UserID, l.BookID, l.BookTitle, l.BorrowedAt, l.DueAt, l.Administrative, l.CopyTaken)
		if sqlite.IsUniqueViolation(err) {
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

func (r *SQLiteRepo) Return(ctx context.Context, userID, bookID string, at time.Time) (ReturnOutcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	at = at.UTC()

	var out ReturnOutcome
	err := sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		b, err := sqliteBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		var l Loan
		err = tx.GetContext(ctx, &l, `SELECT `+sqliteLoanColumns+` FROM loans l
			WHERE l.user_id = ? AND l.book_id = ? AND l.returned_at IS NULL`, userID, bookID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNoActiveLoan
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `UPDATE loans SET returned_at = ? WHERE id = ? AND returned_at IS NULL`, at, l.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.ErrNoActiveLoan
		}
		l.ReturnedAt = &at

		if l.CopyTaken {
			if _, err := tx.ExecContext(ctx,
				`UPDATE books SET quantity = quantity + 1, updated_at = ? WHERE id = ?`, at, bookID); err != nil {
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

func (r *SQLiteRepo) History(ctx context.Context, userID string) ([]Loan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []Loan
	err := r.db.SelectContext(ctx, &out, `SELECT `+historyColumns(sqliteLoanColumns)+` FROM loans l
		LEFT JOIN books b ON b.id = l.book_id
		WHERE l.user_id = ?
		ORDER BY l.borrowed_at DESC, l.id DESC`, userID)
	return out, err
}

func (r *SQLiteRepo) ActiveCountByBook(ctx context.Context, bookID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, bookID)
	return n, err
}

func (r *SQLiteRepo) ActiveTotal(ctx context.Context) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM loans WHERE returned_at IS NULL`)
	return n, err
}

func (r *SQLiteRepo) ActiveByBook(ctx context.Context, bookID string) ([]ActiveLoan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM books WHERE id = ?`, bookID); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, book.ErrNotFound
	}

	var out []ActiveLoan
	err := r.db.SelectContext(ctx, &out, `SELECT `+sqliteLoanColumns+`, u.name AS user_name, u.email AS user_email
		FROM loans l JOIN users u ON u.id = l.user_id
		WHERE l.book_id = ? AND l.returned_at IS NULL
		ORDER BY l.due_at, l.id`, bookID)
	return out, err
}

func (r *SQLiteRepo) ListOpenDue(ctx context.Context, horizon time.Time) ([]DueLoan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []DueLoan
	err := r.db.SelectContext(ctx, &out, `SELECT `+sqliteLoanColumns+`,
			u.name AS user_name, u.email AS user_email, COALESCE(b.author, '') AS book_author
		FROM loans l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN books b ON b.id = l.book_id
		WHERE l.returned_at IS NULL AND l.due_at <= ? AND l.overdue_notified_at IS NULL
		ORDER BY l.due_at, l.id`, horizon.UTC())
	return out, err
}

func (r *SQLiteRepo) ClaimNotice(ctx context.Context, loanID string, kind notify.Kind, at time.Time) (bool, error) {
	col, err := noticeColumn(kind)
	if err != nil {
		return false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE loans SET `+col+` = ?
		WHERE id = ? AND `+col+` IS NULL AND returned_at IS NULL`, at.UTC(), loanID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *SQLiteRepo) ReleaseNotice(ctx context.Context, loanID string, kind notify.Kind) error {
	col, err := noticeColumn(kind)
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `UPDATE loans SET `+col+` = NULL WHERE id = ?`, loanID)
	return err
}

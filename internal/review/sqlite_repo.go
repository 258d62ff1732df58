package review

import (
	"context"
	"database/sql"
	"time"

	"bookhive/internal/book"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

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

func (r *SQLiteRepo) bookExists(ctx context.Context, bookID string) error {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books WHERE id = ?`, bookID); err != nil {
		return err
	}
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

const sqliteReviewSelect = `SELECT r.id, r.book_id, r.user_id, u.name AS user_name, r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r JOIN users u ON u.id = r.user_id`

func (r *SQLiteRepo) Upsert(ctx context.Context, bookID, userID string, in Input) (Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return Review{}, err
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (book_id, user_id)
		DO UPDATE SET rating = excluded.rating, comment = excluded.comment, updated_at = excluded.updated_at`,
		uuid.NewString(), bookID, userID, in.Rating, in.Comment, now, now); err != nil {
		return Review{}, err
	}

	var rv Review
	err := r.db.GetContext(ctx, &rv, sqliteReviewSelect+` WHERE r.book_id = ? AND r.user_id = ?`, bookID, userID)
	return rv, err
}

func (r *SQLiteRepo) List(ctx context.Context, bookID string) ([]Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return nil, err
	}
	var out []Review
	err := r.db.SelectContext(ctx, &out, sqliteReviewSelect+` WHERE r.book_id = ? ORDER BY r.created_at DESC, r.id`, bookID)
	return out, err
}

func (r *SQLiteRepo) DeleteMine(ctx context.Context, bookID, userID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE book_id = ? AND user_id = ?`, bookID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SQLiteRepo) Summary(ctx context.Context, bookID string) (Summary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return Summary{}, err
	}
	var row struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT AVG(rating) AS avg, COUNT(*) AS count FROM reviews WHERE book_id = ?`, bookID); err != nil {
		return Summary{}, err
	}
	return Summary{Average: row.Avg.Float64, Count: row.Count}, nil
}

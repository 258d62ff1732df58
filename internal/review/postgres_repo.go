package review

import (
	"context"
	"database/sql"
	"time"

	"bookhive/internal/book"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
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

func (r *PostgresRepo) bookExists(ctx context.Context, bookID string) error {
	if _, err := uuid.Parse(bookID); err != nil {
		return book.ErrNotFound
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return book.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, bookID, userID string, in Input) (Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return Review{}, err
	}

	var rv Review
	err := r.db.QueryRow(ctx, `
		WITH saved AS (
			INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (book_id, user_id)
			DO UPDATE SET rating = excluded.rating, comment = excluded.comment, updated_at = now()
			RETURNING id, book_id, user_id, rating, comment, created_at, updated_at
		)
		SELECT s.id, s.book_id, s.user_id, u.name, s.rating, s.comment, s.created_at, s.updated_at
		FROM saved s JOIN users u ON u.id = s.user_id`,
		uuid.NewString(), bookID, userID, in.Rating, in.Comment).
		Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *PostgresRepo) List(ctx context.Context, bookID string) ([]Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return nil, err
	}
	rows, _ := r.db.Query(ctx, `
		SELECT r.id, r.book_id, r.user_id, u.name AS user_name, r.rating, r.comment, r.created_at, r.updated_at
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.created_at DESC, r.id`, bookID)
	return pgx.CollectRows(rows, pgx.RowToStructByName[Review])
}

func (r *PostgresRepo) DeleteMine(ctx context.Context, bookID, userID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE book_id = $1 AND user_id = $2`, bookID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) Summary(ctx context.Context, bookID string) (Summary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.bookExists(ctx, bookID); err != nil {
		return Summary{}, err
	}
	var avg sql.NullFloat64
	var sum Summary
	if err := r.db.QueryRow(ctx, `SELECT AVG(rating)::FLOAT, COUNT(*) FROM reviews WHERE book_id = $1`, bookID).
		Scan(&avg, &sum.Count); err != nil {
		return Summary{}, err
	}
	sum.Average = avg.Float64
	return sum, nil
}

package book

import (
	"context"
	"errors"
	"time"

	"bookhive/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	identityIndex = "books_identity_key"
	openLoanIndex = "loans_open_user_book_key"

	pgBookColumns = `b.id, b.title, b.author, b.genre, b.quantity, b.status,
		(d.book_id IS NOT NULL) AS has_document, COALESCE(d.name, '') AS document_name,
		b.created_at, b.updated_at`
	pgBookFrom = `books b LEFT JOIN book_documents d ON d.book_id = b.id`
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

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

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Quantity, &b.Status,
		&b.HasDocument, &b.DocumentName, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return pgGet(ctx, r.db, id, false)
}

func pgGet(ctx context.Context, q pgQuerier, id string, lock bool) (Book, error) {
	sql := `SELECT ` + pgBookColumns + ` FROM ` + pgBookFrom + ` WHERE b.id = $1`
	if lock {
		sql += ` FOR UPDATE OF b`
	}
	return scanBook(q.QueryRow(ctx, sql, id))
}

func pgGetByKey(ctx context.Context, q pgQuerier, k Key, excludeID string) (Book, error) {
	sql := `SELECT ` + pgBookColumns + ` FROM ` + pgBookFrom + `
		WHERE b.title_key = $1 AND b.author_key = $2 AND b.genre_key = $3`
	args := []any{k.Title, k.Author, k.Genre}
	if excludeID != "" {
		sql += ` AND b.id <> $4`
		args = append(args, excludeID)
	}
	sql += ` FOR UPDATE OF b`
	return scanBook(q.QueryRow(ctx, sql, args...))
}

func pgInsert(ctx context.Context, q pgQuerier, b Book) error {
	k := b.Key()
	_, err := q.Exec(ctx, `
		INSERT INTO books (id, title, author, genre, title_key, author_key, genre_key, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.Title, b.Author, b.Genre, k.Title, k.Author, k.Genre, b.Quantity, b.Status)
	return err
}

func pgSave(ctx context.Context, q pgQuerier, b Book) error {
	k := b.Key()
	_, err := q.Exec(ctx, `
		UPDATE books
		SET title = $2, author = $3, genre = $4, title_key = $5, author_key = $6, genre_key = $7,
		    quantity = $8, status = $9, updated_at = now()
		WHERE id = $1`,
		b.ID, b.Title, b.Author, b.Genre, k.Title, k.Author, k.Genre, b.Quantity, b.Status)
	return err
}

func pgPutDocument(ctx context.Context, q pgQuerier, bookID string, doc Document) error {
	_, err := q.Exec(ctx, `
		INSERT INTO book_documents (book_id, name, content_type, data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (book_id) DO UPDATE
		SET name = EXCLUDED.name, content_type = EXCLUDED.content_type, data = EXCLUDED.data, updated_at = now()`,
		bookID, doc.Name, doc.ContentType, doc.Data)
	return err
}

// AddOrMerge locks the matching record, if any, and folds the input into it;
// otherwise it inserts. A concurrent insert of the same identity surfaces as a
// unique violation and is retried once as a merge.
func (r *PostgresRepo) AddOrMerge(ctx context.Context, in AddInput) (Book, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	for attempt := 0; ; attempt++ {
		var out Book
		var created bool
		err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
			existing, err := pgGetByKey(ctx, tx, MatchKey(in.Title, in.Author, in.Genre), "")
			id := existing.ID
			switch {
			case err == nil:
				if err := pgSave(ctx, tx, MergeAdd(existing, in)); err != nil {
					return err
				}
			case errors.Is(err, ErrNotFound):
				id = uuid.NewString()
				if err := pgInsert(ctx, tx, in.NewBook(id)); err != nil {
					return err
				}
				created = true
			default:
				return err
			}
			if in.Document != nil {
				if err := pgPutDocument(ctx, tx, id, *in.Document); err != nil {
					return err
				}
			}
			out, err = pgGet(ctx, tx, id, false)
			return err
		})
		if err != nil && attempt == 0 && postgres.IsUniqueViolation(err, identityIndex) {
			continue
		}
		if err != nil {
			return Book{}, false, err
		}
		return out, created, nil
	}
}

func (r *PostgresRepo) Update(ctx context.Context, id string, p Patch) (Book, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, false, ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out Book
	var merged bool
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := pgGet(ctx, tx, id, true)
		if err != nil {
			return err
		}
		next := current.Apply(p)

		target, err := pgGetByKey(ctx, tx, next.Key(), id)
		if errors.Is(err, ErrNotFound) {
			if err := pgSave(ctx, tx, next); err != nil {
				return err
			}
			if p.Document != nil {
				if err := pgPutDocument(ctx, tx, id, *p.Document); err != nil {
					return err
				}
			}
			out, err = pgGet(ctx, tx, id, false)
			return err
		}
		if err != nil {
			return err
		}

		merged = true
		if err := pgSave(ctx, tx, MergeInto(target, next, p.Status)); err != nil {
			return err
		}
		if err := pgFoldInto(ctx, tx, id, target.ID, p.Document, current.HasDocument); err != nil {
			return err
		}
		out, err = pgGet(ctx, tx, target.ID, false)
		return err
	})
	switch {
	case postgres.IsUniqueViolation(err, openLoanIndex):
		return Book{}, false, ErrLoanClash
	case postgres.IsUniqueViolation(err, identityIndex):
		return Book{}, false, ErrConcurrent
	case err != nil:
		return Book{}, false, err
	}
	return out, merged, nil
}

// pgFoldInto moves the document, loans and reviews of book from onto book to
// and deletes from.
func pgFoldInto(ctx context.Context, tx pgx.Tx, from, to string, doc *Document, fromHasDoc bool) error {
	switch {
	case doc != nil:
		if err := pgPutDocument(ctx, tx, to, *doc); err != nil {
			return err
		}
	case fromHasDoc:
		if _, err := tx.Exec(ctx, `DELETE FROM book_documents WHERE book_id = $1`, to); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE book_documents SET book_id = $2 WHERE book_id = $1`, from, to); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE loans SET book_id = $2 WHERE book_id = $1`, from, to); err != nil {
		return err
	}
	// one review per reader survives: the one already on the target
	if _, err := tx.Exec(ctx, `
		DELETE FROM reviews
		WHERE book_id = $1 AND user_id IN (SELECT user_id FROM reviews WHERE book_id = $2)`, from, to); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE reviews SET book_id = $2 WHERE book_id = $1`, from, to); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, from)
	return err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var open int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM loans WHERE book_id = $1 AND returned_at IS NULL`, id).Scan(&open); err != nil {
			return err
		}
		if open > 0 {
			return ErrHasOpenLoans
		}

		_, err = tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
		return err
	})
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	countSQL, countArgs, dataSQL, dataArgs, err := listQueries("postgres", q)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Document(ctx context.Context, id string) (Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc Document
	err := r.db.QueryRow(ctx,
		`SELECT name, content_type, data FROM book_documents WHERE book_id = $1`, id,
	).Scan(&doc.Name, &doc.ContentType, &doc.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

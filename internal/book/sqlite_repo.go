package book

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"bookhive/internal/platform/sqlite"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sqliteBookSelect = `SELECT b.id, b.title, b.author, b.genre, b.quantity, b.status,
		(d.book_id IS NOT NULL) AS has_document, COALESCE(d.name, '') AS document_name,
		b.created_at, b.updated_at
	FROM books b LEFT JOIN book_documents d ON d.book_id = b.id`

// SQLiteRepo stores books in SQLite. Transactions begin IMMEDIATE (see
// sqlite.DSN), which serialises writers and stands in for row locks.
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

func sqliteGet(ctx context.Context, q sqlx.QueryerContext, id string) (Book, error) {
	var b Book
	err := sqlx.GetContext(ctx, q, &b, sqliteBookSelect+` WHERE b.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func sqliteGetByKey(ctx context.Context, q sqlx.QueryerContext, k Key, excludeID string) (Book, error) {
	var b Book
	err := sqlx.GetContext(ctx, q, &b,
		sqliteBookSelect+` WHERE b.title_key = ? AND b.author_key = ? AND b.genre_key = ? AND b.id <> ?`,
		k.Title, k.Author, k.Genre, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func sqliteInsert(ctx context.Context, tx *sqlx.Tx, b Book) error {
	k := b.Key()
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, genre, title_key, author_key, genre_key, quantity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.Genre, k.Title, k.Author, k.Genre, b.Quantity, b.Status, now, now)
	return err
}

func sqliteSave(ctx context.Context, tx *sqlx.Tx, b Book) error {
	k := b.Key()
	_, err := tx.ExecContext(ctx, `
		UPDATE books
		SET title = ?, author = ?, genre = ?, title_key = ?, author_key = ?, genre_key = ?,
		    quantity = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Author, b.Genre, k.Title, k.Author, k.Genre, b.Quantity, b.Status, time.Now().UTC(), b.ID)
	return err
}

func sqlitePutDocument(ctx context.Context, tx *sqlx.Tx, bookID string, doc Document) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO book_documents (book_id, name, content_type, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (book_id) DO UPDATE
		SET name = excluded.name, content_type = excluded.content_type, data = excluded.data, updated_at = excluded.updated_at`,
		bookID, doc.Name, doc.ContentType, doc.Data, time.Now().UTC())
	return err
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return sqliteGet(ctx, r.db, id)
}

func (r *SQLiteRepo) AddOrMerge(ctx context.Context, in AddInput) (Book, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out Book
	var created bool
	err := sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		existing, err := sqliteGetByKey(ctx, tx, MatchKey(in.Title, in.Author, in.Genre), "")
		id := existing.ID
		switch {
		case err == nil:
			if err := sqliteSave(ctx, tx, MergeAdd(existing, in)); err != nil {
				return err
			}
		case errors.Is(err, ErrNotFound):
			id = uuid.NewString()
			if err := sqliteInsert(ctx, tx, in.NewBook(id)); err != nil {
				return err
			}
			created = true
		default:
			return err
		}
		if in.Document != nil {
			if err := sqlitePutDocument(ctx, tx, id, *in.Document); err != nil {
				return err
			}
		}
		out, err = sqliteGet(ctx, tx, id)
		return err
	})
	if err != nil {
		return Book{}, false, err
	}
	return out, created, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, id string, p Patch) (Book, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out Book
	var merged bool
	err := sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := sqliteGet(ctx, tx, id)
		if err != nil {
			return err
		}
		next := current.Apply(p)

		target, err := sqliteGetByKey(ctx, tx, next.Key(), id)
		if errors.Is(err, ErrNotFound) {
			if err := sqliteSave(ctx, tx, next); err != nil {
				return err
			}
			if p.Document != nil {
				if err := sqlitePutDocument(ctx, tx, id, *p.Document); err != nil {
					return err
				}
			}
			out, err = sqliteGet(ctx, tx, id)
			return err
		}
		if err != nil {
			return err
		}

		merged = true
		if err := sqliteSave(ctx, tx, MergeInto(target, next, p.Status)); err != nil {
			return err
		}
		if err := sqliteFoldInto(ctx, tx, id, target.ID, p.Document, current.HasDocument); err != nil {
			return err
		}
		out, err = sqliteGet(ctx, tx, target.ID)
		return err
	})
	switch {
	case err != nil && sqlite.IsUniqueViolation(err) && strings.Contains(err.Error(), "loans."):
		return Book{}, false, ErrLoanClash
	case err != nil && sqlite.IsUniqueViolation(err):
		return Book{}, false, ErrConcurrent
	case err != nil:
		return Book{}, false, err
	}
	return out, merged, nil
}

func sqliteFoldInto(ctx context.Context, tx *sqlx.Tx, from, to string, doc *Document, fromHasDoc bool) error {
	switch {
	case doc != nil:
		if err := sqlitePutDocument(ctx, tx, to, *doc); err != nil {
			return err
		}
	case fromHasDoc:
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_documents WHERE book_id = ?`, to); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE book_documents SET book_id = ? WHERE book_id = ?`, to, from); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE loans SET book_id = ? WHERE book_id = ?`, to, from); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE book_id = ? AND user_id IN (SELECT user_id FROM reviews WHERE book_id = ?)`, from, to); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE reviews SET book_id = ? WHERE book_id = ?`, to, from); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, from)
	return err
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM books WHERE id = ?`, id); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}

		var open int
		if err := tx.GetContext(ctx, &open,
			`SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, id); err != nil {
			return err
		}
		if open > 0 {
			return ErrHasOpenLoans
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
		return err
	})
}

func (r *SQLiteRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	countSQL, countArgs, dataSQL, dataArgs, err := listQueries("sqlite3", q)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}
	var out []Book
	if err := r.db.SelectContext(ctx, &out, dataSQL, dataArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SQLiteRepo) Document(ctx context.Context, id string) (Document, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc Document
	err := r.db.GetContext(ctx, &doc, `SELECT name, content_type, data FROM book_documents WHERE book_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

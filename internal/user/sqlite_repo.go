package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookhive/internal/platform/sqlite"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sqliteUserSelect = `SELECT id, name, email, password_hash, role, created_at, updated_at FROM users`

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

func (r *SQLiteRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, now, now)
	if sqlite.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *SQLiteRepo) get(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, sqliteUserSelect+` WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetByEmail relies on the NOCASE collation of users.email.
func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.get(ctx, `email = ?`, email)
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.get(ctx, `id = ?`, id)
}

func (r *SQLiteRepo) SetRole(ctx context.Context, email, role string) (User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE email = ?`,
		role, time.Now().UTC(), email)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return User{}, err
	} else if n == 0 {
		return User{}, ErrNotFound
	}
	return r.get(ctx, `email = ?`, email)
}

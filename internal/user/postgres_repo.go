package user

import (
	"context"
	"errors"
	"time"

	"bookhive/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const emailIndex = "users_email_key"

const pgUserColumns = `id, name, email, password_hash, role, created_at, updated_at`

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

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u.ID = uuid.NewString()
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err, emailIndex) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) getOne(ctx context.Context, query string, arg any) (User, error) {
	rows, _ := r.db.Query(ctx, query, arg)
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.getOne(ctx, `SELECT `+pgUserColumns+` FROM users WHERE lower(email) = $1`, email)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.getOne(ctx, `SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepo) SetRole(ctx context.Context, email, role string) (User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, _ := r.db.Query(ctx, `
		UPDATE users SET role = $2, updated_at = now()
		WHERE lower(email) = $1
		RETURNING `+pgUserColumns, email, role)
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

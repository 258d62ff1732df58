// Package store opens the configured database and builds the repositories
// that sit on top of it.
package store

import (
	"context"
	"fmt"

	"bookhive/internal/book"
	"bookhive/internal/config"
	"bookhive/internal/loan"
	"bookhive/internal/platform/postgres"
	"bookhive/internal/platform/sqlite"
	"bookhive/internal/reminder"
	"bookhive/internal/review"
	"bookhive/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Loans is the loan ledger, including the notice bookkeeping used by the
// reminder sweep.
type Loans interface {
	loan.Repository
	reminder.Store
}

type Store struct {
	Driver  string
	Books   book.Repository
	Loans   Loans
	Users   user.Repository
	Reviews review.Repository

	ping  func(context.Context) error
	close func()
}

// Open connects to the database named by cfg and applies pending migrations.
func Open(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("database ready", zap.String("driver", cfg.Driver), zap.String("dsn", postgres.RedactDSN(cfg.DSN)))
		return NewPostgres(pool, cfg), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("database ready", zap.String("driver", cfg.Driver), zap.String("path", cfg.SQLitePath))
		return NewSQLite(db, cfg), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func NewPostgres(pool *pgxpool.Pool, cfg config.DBConfig) *Store {
	t := cfg.QueryTimeout
	return &Store{
		Driver:  config.DriverPostgres,
		Books:   book.NewPostgresRepo(pool, t),
		Loans:   loan.NewPostgresRepo(pool, t),
		Users:   user.NewPostgresRepo(pool, t),
		Reviews: review.NewPostgresRepo(pool, t),
		ping:    pool.Ping,
		close:   pool.Close,
	}
}

func NewSQLite(db *sqlx.DB, cfg config.DBConfig) *Store {
	t := cfg.QueryTimeout
	return &Store{
		Driver:  config.DriverSQLite,
		Books:   book.NewSQLiteRepo(db, t),
		Loans:   loan.NewSQLiteRepo(db, t),
		Users:   user.NewSQLiteRepo(db, t),
		Reviews: review.NewSQLiteRepo(db, t),
		ping:    db.PingContext,
		close:   func() { _ = db.Close() },
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Store) Close() { s.close() }

// Command migrate applies, rolls back or creates goose migrations for the
// configured database driver.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	"bookhive/internal/platform/postgres"
	"bookhive/internal/platform/sqlite"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
		driver  = flag.String("driver", "", "Database driver: postgres or sqlite (default $DB_DRIVER or postgres)")
	)
	flag.Parse()

	loadEnvFiles()
	target, err := resolveTarget(*driver)
	if err != nil {
		log.Fatal(err)
	}
	dir := migrationsDir(target.driver)

	if *command == "create" {
		if *name == "" {
			log.Fatal("Name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	ctx := context.Background()
	db, closeDB, err := open(ctx, target)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	if err := goose.SetDialect(target.dialect()); err != nil {
		log.Fatal(err)
	}

	switch *command {
	case "up":
		if err := goose.UpContext(ctx, db, dir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, db, dir); err != nil {
			log.Fatalf("Failed to rollback migrations: %v", err)
		}
		fmt.Println("Migrations rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, db, dir); err != nil {
			log.Fatalf("Failed to check migration status: %v", err)
		}
	default:
		log.Fatalf("Unknown command: %s. Use: up, down, status, create", *command)
	}
}

func open(ctx context.Context, t target) (*sql.DB, func(), error) {
	if t.driver == driverSQLite {
		db, err := sqlx.Open("sqlite3", sqlite.DSN(t.sqlitePath))
		if err != nil {
			return nil, nil, err
		}
		return db.DB, func() { _ = db.Close() }, db.PingContext(ctx)
	}

	pool, err := postgres.Open(ctx, t.dsn, 2)
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	return db, func() {
		_ = db.Close()
		pool.Close()
	}, nil
}

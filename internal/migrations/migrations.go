// Package migrations holds the embedded database schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver used by goose
	"github.com/pressly/goose/v3"
)

// FS contains the SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Tables lists the tables created by the migrations, in dependency order.
var Tables = []string{"users", "memes"}

// Up applies all pending migrations to the database at dsn.
func Up(ctx context.Context, dsn string) error {
	return withDB(ctx, dsn, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Reset rolls back every migration and applies them again.
// Intended for integration tests.
func Reset(ctx context.Context, dsn string) error {
	return withDB(ctx, dsn, func(db *sql.DB) error {
		if err := goose.ResetContext(ctx, db, "."); err != nil {
			return fmt.Errorf("reset migrations: %w", err)
		}
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("reapply migrations: %w", err)
		}
		return nil
	})
}

func withDB(ctx context.Context, dsn string, fn func(*sql.DB) error) error {
	goose.SetBaseFS(FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(db)
}

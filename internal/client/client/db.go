package client

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/authdesk/internal/client/migrations"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return oops.In("migrations").Wrapf(err, "set goose dialect")
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return oops.In("migrations").Wrapf(err, "apply migrations")
	}
	return nil
}

// InitDatabase opens (creating if needed) the SQLite database at dsn and
// migrates it to the latest schema.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.In("database").With("dsn", dsn).Wrapf(err, "open sqlite")
	}
	// SQLite serialises writers; a single connection keeps the pair writes ordered.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

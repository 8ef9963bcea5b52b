package credentials

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/authdesk/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.In("credentials").With("name", name).Wrapf(err, "failed to get credential")
	}
	return value, true, nil
}

func (r *SQLiteRepository) SetAll(ctx context.Context, values map[string]string) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for name, value := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, name, value)
			if err != nil {
				return oops.In("credentials").With("name", name).Wrapf(err, "failed to set credential")
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, names ...string) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, name); err != nil {
				return oops.In("credentials").With("name", name).Wrapf(err, "failed to delete credential")
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM credentials`)
	if err != nil {
		return nil, oops.In("credentials").Wrapf(err, "failed to list credentials")
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, oops.In("credentials").Wrapf(err, "failed to scan credential row")
		}
		result[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("credentials").Wrapf(err, "failed to iterate credential rows")
	}
	return result, nil
}

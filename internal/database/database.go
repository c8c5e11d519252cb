package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS trained_models (
	model_id   TEXT PRIMARY KEY,
	family     TEXT NOT NULL,
	estimator  TEXT NOT NULL,
	path       TEXT NOT NULL,
	target     TEXT NOT NULL,
	metrics    BLOB,
	created_at TIMESTAMP NOT NULL
);
`

// Connect opens the model registry database and ensures the schema exists.
func Connect(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return db, nil
}

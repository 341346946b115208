// Package sqlite provides the SQLite-backed durable slot, the default
// persistence backend.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// New opens a SQLite database at the given DSN and ensures the schema.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return wrapped, nil
}

// ensureSchema creates the slots table. The whole dataset is one value
// per key, so this single table is the entire schema.
func (db *DB) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS slots (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

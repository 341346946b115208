package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Slot implements slot.Slot over the slots table. A write replaces the
// whole value in one statement, so readers never observe a partial
// dataset.
type Slot struct {
	db *DB
}

// NewSlot creates a SQLite-backed slot.
func NewSlot(db *DB) *Slot {
	return &Slot{db: db}
}

// Get returns the stored value for the key, reporting absence without error.
func (s *Slot) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value under the key, replacing any prior value.
func (s *Slot) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

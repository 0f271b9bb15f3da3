package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases alive across calls and
	// serialises writers.
	db.SetMaxOpenConns(1)

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

// Slot is a durable key/value cell table.
type Slot struct {
	DB *sql.DB
}

func NewSlot(db *sql.DB) *Slot {
	return &Slot{DB: db}
}

// Get returns the value stored under key; ok is false when nothing was ever
// written there.
func (s *Slot) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.DB.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

const putSlotSQL = `INSERT INTO slots (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

// Put overwrites the value stored under key.
func (s *Slot) Put(ctx context.Context, key, value string) error {
	if _, err := s.DB.ExecContext(ctx, putSlotSQL, key, value); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

// PutAll overwrites every key in values, or none of them.
func (s *Slot) PutAll(ctx context.Context, values map[string]string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot write: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, putSlotSQL, key, value); err != nil {
			return fmt.Errorf("write slot %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot write: %w", err)
	}
	return nil
}

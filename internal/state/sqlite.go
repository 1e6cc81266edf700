package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS last_update (
	id    INTEGER PRIMARY KEY CHECK (id = 1),
	value TEXT NOT NULL
)`
	sqliteSelect = `SELECT value FROM last_update WHERE id = 1`
	sqliteUpsert = `INSERT INTO last_update (id, value) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET value = excluded.value`
)

// SQLiteBackend keeps the value in a single-row SQLite table
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens the database file at path. The file and table are
// created on first use, so opening never touches the disk.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite location needs a database path")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLiteBackend{db: db, path: path}, nil
}

func (b *SQLiteBackend) ensureSchema(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create last_update table: %w", err)
	}
	return nil
}

// Get reads the single row
func (b *SQLiteBackend) Get(ctx context.Context) ([]byte, error) {
	if err := b.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var value string
	err := b.db.QueryRowContext(ctx, sqliteSelect).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s has no row", ErrNotFound, b.path)
		}
		return nil, fmt.Errorf("failed to query last update: %w", err)
	}
	return []byte(value), nil
}

// Put upserts the single row
func (b *SQLiteBackend) Put(ctx context.Context, value []byte) error {
	if err := b.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, sqliteUpsert, string(value)); err != nil {
		return fmt.Errorf("failed to store last update: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) String() string {
	return "sqlite://" + b.path
}

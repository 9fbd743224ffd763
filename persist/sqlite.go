package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteBackend stores documents in one table of a SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path, which may be
// ":memory:".
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// single writer, and a single connection keeps :memory: databases
	// alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBackend) Load(ctx context.Context, name string) (*Snapshot, error) {
	var (
		data     []byte
		modified int64
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT data, modified FROM documents WHERE name = ?", name).Scan(&data, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return &Snapshot{Data: data, Modified: time.Unix(0, modified)}, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, name string, snap *Snapshot) error {
	if name == "" {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	_, err := b.db.ExecContext(ctx, `
INSERT INTO documents (name, data, modified) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, modified = excluded.modified`,
		name, snap.Data, snap.Modified.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, name string) error {
	if _, err := b.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

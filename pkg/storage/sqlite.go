package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage on top of a single-file SQLite database.
// Records live in one objects table keyed by path, which keeps the whole
// data set in a single portable file without requiring cgo.
type SQLiteStorage struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS objects (
	path TEXT PRIMARY KEY,
	data BLOB NOT NULL
);
`

// NewSQLiteStorage opens (or creates) the database file at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dbPath, err)
	}
	// The modernc driver serializes access through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM objects WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (path, data) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data
	`, path, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := strings.TrimSuffix(prefix, "/") + "/%"
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM objects WHERE path LIKE ? ORDER BY path`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return paths, nil
}

func (s *SQLiteStorage) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM objects WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}

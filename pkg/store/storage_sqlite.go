package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage on a single SQLite database file with
// one key value table.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates the database file at path.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	// busy_timeout and WAL in the DSN so they apply to every connection
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS slots (
			key  TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create slots table")
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (key, data) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET data = excluded.data`,
		key, data,
	)
	return err
}

func (s *SQLiteStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, os.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM slots WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

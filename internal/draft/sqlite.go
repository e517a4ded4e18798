package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps drafts in a local SQLite file. Use ":memory:" for a
// throwaway store.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create drafts directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open drafts database: %w", err)
	}
	// Single writer, and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize drafts schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS drafts (
		key TEXT PRIMARY KEY,
		values_json TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_drafts_saved_at ON drafts(saved_at);
	`)
	return err
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Save(ctx context.Context, key string, values Values) (Record, error) {
	if values.Categories == nil {
		values.Categories = []int64{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode draft: %w", err)
	}

	savedAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (key, values_json, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET values_json = excluded.values_json, saved_at = excluded.saved_at
	`, key, string(data), savedAt.UnixMilli())
	if err != nil {
		return Record{}, fmt.Errorf("failed to save draft %s: %w", key, err)
	}

	return Record{Key: key, Values: values, SavedAt: time.UnixMilli(savedAt.UnixMilli()).UTC()}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var data string
	var savedAt int64
	if err := row.Scan(&rec.Key, &data, &savedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Values); err != nil {
		return Record{}, fmt.Errorf("failed to decode draft %s: %w", rec.Key, err)
	}
	rec.SavedAt = time.UnixMilli(savedAt).UTC()
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT key, values_json, saved_at FROM drafts WHERE key = ?`, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, values_json, saved_at FROM drafts ORDER BY saved_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Latest(ctx context.Context) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT key, values_json, saved_at FROM drafts ORDER BY saved_at DESC, key LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts`); err != nil {
		return fmt.Errorf("failed to clear drafts: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

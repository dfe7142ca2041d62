package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS shared_kv (
	namespace  TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      BLOB    NOT NULL,
	written_at INTEGER NOT NULL,
	writer_id  TEXT    NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLiteKV is a KV backed by a SQLite file that several processes open at
// once. WAL mode lets widgets read while the host app writes.
type SQLiteKV struct {
	db        *sql.DB
	path      string
	namespace string
	writerID  string
}

// OpenSQLite opens (creating if needed) the shared store at path. Keys are
// scoped to namespace so unrelated app groups can share one file.
func OpenSQLite(ctx context.Context, path, namespace string) (*SQLiteKV, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	dsn := "file:" + path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create shared_kv table: %w", err)
	}

	return &SQLiteKV{
		db:        db,
		path:      path,
		namespace: namespace,
		writerID:  uuid.NewString(),
	}, nil
}

// Path returns the database file path.
func (s *SQLiteKV) Path() string {
	return s.path
}

// Get returns the item stored under key.
func (s *SQLiteKV) Get(ctx context.Context, key string) (Item, error) {
	var (
		item    Item
		written int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, written_at, writer_id FROM shared_kv WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&item.Value, &written, &item.WriterID)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	item.WrittenAt = time.UnixMilli(written)
	return item, nil
}

// Put replaces the value stored under key.
func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_kv (namespace, key, value, written_at, writer_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			written_at = excluded.written_at,
			writer_id = excluded.writer_id`,
		s.namespace, key, value, time.Now().UnixMilli(), s.writerID,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM shared_kv WHERE namespace = ? AND key = ?`, s.namespace, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

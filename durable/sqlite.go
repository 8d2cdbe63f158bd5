package durable

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/krisalay/asset-cache/durable/migrations"
	"github.com/krisalay/asset-cache/types"
	_ "modernc.org/sqlite"
)

/*
Backend is the raw durable key/value store the adapter wraps.

Unlike Store, a Backend reports every failure. Store is the layer that turns
those failures into logged misses and no-ops.
*/
type Backend interface {

	// Open creates the schema and makes the backend ready. Store guarantees
	// Open is called at most once at a time.
	Open(ctx context.Context) error

	// Get loads the entry for key. A missing key is (zero, false, nil).
	Get(ctx context.Context, key string) (types.CacheEntry, bool, error)

	// Put upserts the entry.
	Put(ctx context.Context, ent types.CacheEntry) error

	// Delete removes one entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// SQLiteBackend keeps cache entries in a single SQLite table.
type SQLiteBackend struct {
	path string

	mu    sync.RWMutex
	sqlDB *sql.DB
}

// NewSQLiteBackend returns a backend for the database file at path. Nothing is
// opened until Open is called.
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: path}
}

// Open opens and migrates the SQLite database.
func (b *SQLiteBackend) Open(ctx context.Context) error {
	if strings.TrimSpace(b.path) == "" {
		return fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(b.path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	b.mu.Lock()
	b.sqlDB = sqlDB
	b.mu.Unlock()
	return nil
}

func (b *SQLiteBackend) db() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.sqlDB == nil {
		return nil, fmt.Errorf("storage is not open")
	}
	return b.sqlDB, nil
}

// Get loads a cache entry by key.
func (b *SQLiteBackend) Get(ctx context.Context, key string) (types.CacheEntry, bool, error) {
	sqlDB, err := b.db()
	if err != nil {
		return types.CacheEntry{}, false, err
	}

	row := sqlDB.QueryRowContext(
		ctx,
		`SELECT cache_key, encoded_data, content_type, timestamp
		 FROM cache_entries
		 WHERE cache_key = ?`,
		key,
	)

	var ent types.CacheEntry
	if err := row.Scan(&ent.Key, &ent.EncodedData, &ent.ContentType, &ent.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return types.CacheEntry{}, false, nil
		}
		return types.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	return ent, true, nil
}

// Put upserts a cache entry by key.
func (b *SQLiteBackend) Put(ctx context.Context, ent types.CacheEntry) error {
	sqlDB, err := b.db()
	if err != nil {
		return err
	}
	if ent.Key == "" {
		return fmt.Errorf("cache key is required")
	}

	_, err = sqlDB.ExecContext(
		ctx,
		`INSERT INTO cache_entries (cache_key, encoded_data, content_type, timestamp)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		    encoded_data = excluded.encoded_data,
		    content_type = excluded.content_type,
		    timestamp = excluded.timestamp`,
		ent.Key,
		ent.EncodedData,
		ent.ContentType,
		ent.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry by key.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	sqlDB, err := b.db()
	if err != nil {
		return err
	}
	if _, err := sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every cache entry.
func (b *SQLiteBackend) Clear(ctx context.Context) error {
	sqlDB, err := b.db()
	if err != nil {
		return err
	}
	if _, err := sqlDB.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}
	return nil
}

// Count returns how many entries are stored, expired ones included.
func (b *SQLiteBackend) Count(ctx context.Context) (int64, error) {
	sqlDB, err := b.db()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying SQLite connection.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sqlDB == nil {
		return nil
	}
	err := b.sqlDB.Close()
	b.sqlDB = nil
	return err
}

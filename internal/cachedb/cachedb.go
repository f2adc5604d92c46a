// Package cachedb is the client-side persistent cache: a small SQLite
// key/value store holding the article index snapshot, per-article
// content, the theme preference and the auth token across sessions.
package cachedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Namespaces partition the key space. Content entries are the only
// namespace subject to LRU trimming.
const (
	NSIndex   = "index"
	NSContent = "doc"
	NSPref    = "pref"
)

// Versioned index key: bump the suffix when the persisted shape changes.
const IndexKey = "alpha-docs:index:v2"

// Store is a persistent key/value cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging cache database: %w", err)
	}

	s := &Store{db: sqlDB, now: time.Now}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running cache migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory cache (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory cache: %w", err)
	}
	s := &Store{db: sqlDB, now: time.Now}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running cache migrations: %w", err)
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SetClock overrides the time source (testing only).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    namespace   TEXT NOT NULL,
    key         TEXT NOT NULL,
    value       TEXT NOT NULL,
    stored_at   INTEGER NOT NULL,
    accessed_at INTEGER NOT NULL,
    PRIMARY KEY(namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_cache_lru ON cache_entries(namespace, accessed_at);
`

// Put stores value under (namespace, key), overwriting any prior entry.
func (s *Store) Put(namespace, key, value string) error {
	now := s.now().UnixMilli()
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (namespace, key, value, stored_at, accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			stored_at = excluded.stored_at,
			accessed_at = excluded.accessed_at`,
		namespace, key, value, now, now)
	if err != nil {
		return fmt.Errorf("writing cache entry %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get returns the stored value and its storage time. ok is false when
// the entry is absent. A hit refreshes the entry's LRU position.
func (s *Store) Get(namespace, key string) (value string, storedAt time.Time, ok bool) {
	var millis int64
	err := s.db.QueryRow(
		`SELECT value, stored_at FROM cache_entries WHERE namespace = ? AND key = ?`,
		namespace, key).Scan(&value, &millis)
	if err != nil {
		return "", time.Time{}, false
	}
	// Touch for LRU ordering. Failure here is harmless.
	s.db.Exec(`UPDATE cache_entries SET accessed_at = ? WHERE namespace = ? AND key = ?`,
		s.now().UnixMilli(), namespace, key)
	return value, time.UnixMilli(millis), true
}

// GetFresh is Get restricted to entries no older than ttl. A ttl of zero
// never returns a hit, which is how development disables cache reuse.
func (s *Store) GetFresh(namespace, key string, ttl time.Duration) (string, bool) {
	if ttl <= 0 {
		return "", false
	}
	value, storedAt, ok := s.Get(namespace, key)
	if !ok || s.now().Sub(storedAt) > ttl {
		return "", false
	}
	return value, true
}

// Delete removes an entry. Missing entries are not an error.
func (s *Store) Delete(namespace, key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE namespace = ? AND key = ?`,
		namespace, key)
	if err != nil {
		return fmt.Errorf("deleting cache entry %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Trim evicts the least recently used entries of a namespace beyond
// limit. The content namespace is trimmed after every write so the
// per-article cache cannot grow without bound across sessions.
func (s *Store) Trim(namespace string, limit int) error {
	if limit <= 0 {
		return nil
	}
	_, err := s.db.Exec(`
		DELETE FROM cache_entries WHERE namespace = ?1 AND key NOT IN (
			SELECT key FROM cache_entries WHERE namespace = ?1
			ORDER BY accessed_at DESC LIMIT ?2
		)`, namespace, limit)
	if err != nil {
		return fmt.Errorf("trimming cache namespace %s: %w", namespace, err)
	}
	return nil
}

// Count returns the number of entries in a namespace.
func (s *Store) Count(namespace string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE namespace = ?`,
		namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting cache namespace %s: %w", namespace, err)
	}
	return n, nil
}

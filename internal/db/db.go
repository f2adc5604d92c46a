// Package db owns the SQLite database behind the backend API: users,
// comments, visits and the mutable site configuration.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with alphadocs-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs the schema and seeds the site configuration defaults.
func (d *DB) migrate() error {
	if _, err := d.Exec(schema); err != nil {
		return err
	}
	for key, value := range configDefaults {
		if _, err := d.Exec(
			`INSERT INTO site_config (key, value) VALUES (?1, ?2) ON CONFLICT(key) DO NOTHING`,
			key, value,
		); err != nil {
			return err
		}
	}
	return nil
}

// Site configuration keys.
const (
	ConfigAutoApproveUsers    = "auto_approve_users"
	ConfigAutoApproveComments = "auto_approve_comments"
)

var configDefaults = map[string]string{
	ConfigAutoApproveUsers:    "false",
	ConfigAutoApproveComments: "false",
}

// GetConfig returns a site configuration value, or the seeded default
// when the key is unknown.
func (d *DB) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := d.QueryRowContext(ctx, `SELECT value FROM site_config WHERE key = ?1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return configDefaults[key], nil
	}
	if err != nil {
		return "", fmt.Errorf("reading config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig writes a site configuration value.
func (d *DB) SetConfig(ctx context.Context, key, value string) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO site_config (key, value) VALUES (?1, ?2)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing config %s: %w", key, err)
	}
	return nil
}

// ConfigBool interprets a config value as a boolean flag.
func (d *DB) ConfigBool(ctx context.Context, key string) (bool, error) {
	value, err := d.GetConfig(ctx, key)
	if err != nil {
		return false, err
	}
	return value == "true" || value == "1", nil
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0,
    is_approved INTEGER NOT NULL DEFAULT 0,
    comment_needs_approval INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    last_login TEXT
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    article_path TEXT NOT NULL,
    content TEXT NOT NULL,
    user_id TEXT NOT NULL REFERENCES users(id),
    author TEXT NOT NULL DEFAULT '',
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('pending','approved','rejected')),
    timestamp TEXT NOT NULL,
    reviewed_by TEXT,
    reviewed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_path, status);
CREATE INDEX IF NOT EXISTS idx_comments_user_day ON comments(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_comments_status ON comments(status);

CREATE TABLE IF NOT EXISTS visits (
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);
CREATE INDEX IF NOT EXISTS idx_visits_dedup ON visits(ip_address, path, timestamp);

CREATE TABLE IF NOT EXISTS site_config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Package history provides a SQLite-backed ledger of redirect runs: which
// documents were added to or already present in the manifest and where each
// one was archived.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	root             TEXT NOT NULL,
	archive_dir      TEXT NOT NULL DEFAULT '',
	manifest_created INTEGER NOT NULL DEFAULT 0,
	started_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	run_id       INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	source_path  TEXT NOT NULL,
	redirect_url TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	archived_to  TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_path);
`

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

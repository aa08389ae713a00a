package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/docsauthor/internal/apperr"
)

const runColumns = `
	SELECT r.id, r.root, r.archive_dir, r.manifest_created, r.started_at,
	       COALESCE(SUM(CASE WHEN e.status = 'added' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN e.status = 'existing' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN e.error <> '' THEN 1 ELSE 0 END), 0)
	FROM runs r
	LEFT JOIN entries e ON e.run_id = r.id
`

// Record inserts a run and its entries within a transaction and returns the
// new run id.
func (db *DB) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (root, archive_dir, manifest_created, started_at)
		VALUES (?, ?, ?, ?)
	`, run.Root, run.ArchiveDir, run.ManifestCreated, run.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	if len(run.Entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (run_id, source_path, redirect_url, status, archived_to, checksum, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare entry insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range run.Entries {
			if _, err := stmt.ExecContext(ctx, id, e.SourcePath, e.RedirectURL, e.Status, e.ArchivedTo, e.Checksum, e.Error); err != nil {
				return 0, fmt.Errorf("history: insert entry: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first, without their entries.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, runColumns+`
		GROUP BY r.id
		ORDER BY r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRun returns one run with its entries, or apperr.ErrNotFound.
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, runColumns+`
		WHERE r.id = ?
		GROUP BY r.id
	`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT source_path, redirect_url, status, archived_to, checksum, error
		FROM entries WHERE run_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("history: run entries: %w", err)
	}
	defer rows.Close()
	r.Entries, err = scanEntries(rows)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// EntriesFor returns every recorded outcome for a source path, ignoring case,
// oldest first.
func (db *DB) EntriesFor(ctx context.Context, sourcePath string) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT source_path, redirect_url, status, archived_to, checksum, error
		FROM entries WHERE lower(source_path) = lower(?) ORDER BY rowid
	`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("history: entries for path: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	if err := s.Scan(&r.ID, &r.Root, &r.ArchiveDir, &r.ManifestCreated, &r.StartedAt,
		&r.Added, &r.Existing, &r.Failed); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SourcePath, &e.RedirectURL, &e.Status, &e.ArchivedTo, &e.Checksum, &e.Error); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

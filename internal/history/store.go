// Package history records publish runs in a local SQLite database so a
// partially-failed run can be inspected after the fact (the temp-branch
// workflow has no automatic rollback; the action log says how far it got).
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    mode        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'running',
    started_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS actions (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id   INTEGER NOT NULL REFERENCES runs(id),
    kind     TEXT NOT NULL,
    package  TEXT NOT NULL DEFAULT '',
    version  TEXT NOT NULL DEFAULT '',
    detail   TEXT NOT NULL DEFAULT '',
    at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store is the SQLite-backed run ledger. A nil *Store is valid and disables
// recording; every method is a no-op on a nil receiver.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath, enables WAL mode and a
// busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("history: creating directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and one connection avoids
	// SQLITE_BUSY contention between pooled connections.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a new run row and returns its ID.
func (s *Store) BeginRun(ctx context.Context, mode string) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO runs (mode) VALUES (?)`, mode)
	if err != nil {
		return 0, fmt.Errorf("history: begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordAction appends one action to a run.
func (s *Store) RecordAction(ctx context.Context, runID int64, kind, pkg, version, detail string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (run_id, kind, package, version, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, kind, pkg, version, detail)
	if err != nil {
		return fmt.Errorf("history: record action: %w", err)
	}
	return nil
}

// FinishRun stamps a run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID int64, status string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, runID)
	if err != nil {
		return fmt.Errorf("history: finish run: %w", err)
	}
	return nil
}

// Run is one recorded orchestration run.
type Run struct {
	ID         int64
	Mode       string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Action is one recorded step within a run.
type Action struct {
	RunID   int64
	Kind    string
	Package string
	Version string
	Detail  string
	At      time.Time
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, started_at, finished_at FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Mode, &r.Status, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunActions returns the actions of one run in insertion order.
func (s *Store) RunActions(ctx context.Context, runID int64) ([]Action, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, kind, package, version, detail, at FROM actions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.RunID, &a.Kind, &a.Package, &a.Version, &a.Detail, &a.At); err != nil {
			return nil, fmt.Errorf("history: scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

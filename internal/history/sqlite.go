// Package history keeps a local ledger of release pipeline runs in
// SQLite: which variant and version each run targeted, how far it got,
// and what artifact it produced. The ledger is advisory — the pipeline
// never reads it to make decisions — but it lets an operator answer
// "what did the last release run actually do" without digging through CI
// logs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS
// makes it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    variant      TEXT NOT NULL,
    version      TEXT NOT NULL,
    stage        TEXT NOT NULL DEFAULT 'idle',
    status       TEXT NOT NULL DEFAULT 'running',
    signed       INTEGER NOT NULL DEFAULT 0,
    artifact     TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at  TIMESTAMP
);
`

// Run statuses recorded in the ledger.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one pipeline invocation's ledger row.
type Run struct {
	ID         string
	Variant    string
	Version    string
	Stage      string
	Status     string
	Signed     bool
	Artifact   string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at dbPath, enables WAL
// mode and a busy timeout, and creates the schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and a lone connection
	// avoids SQLITE_BUSY contention between pooled connections that each
	// need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle. Close on a nil Store is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records the start of a run.
func (s *Store) Begin(ctx context.Context, id, variantName, version string) error {
	if s == nil {
		return nil
	}
	const q = `INSERT INTO runs (id, variant, version) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, id, variantName, version); err != nil {
		return fmt.Errorf("history: begin run %s: %w", id, err)
	}
	return nil
}

// Advance updates the furthest stage a run has reached.
func (s *Store) Advance(ctx context.Context, id, stage string) error {
	if s == nil {
		return nil
	}
	const q = `UPDATE runs SET stage = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, stage, id); err != nil {
		return fmt.Errorf("history: advance run %s to %s: %w", id, stage, err)
	}
	return nil
}

// Finish closes out a run with its terminal status. errMsg is empty on
// success; artifact is the installer path when one was produced.
func (s *Store) Finish(ctx context.Context, id, status string, signed bool, artifact, errMsg string) error {
	if s == nil {
		return nil
	}
	const q = `
		UPDATE runs
		SET status = ?, signed = ?, artifact = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, status, boolToInt(signed), artifact, errMsg, id); err != nil {
		return fmt.Errorf("history: finish run %s: %w", id, err)
	}
	return nil
}

// Recent returns the latest n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	const q = `
		SELECT id, variant, version, stage, status, signed, artifact, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var signed int
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Variant, &r.Version, &r.Stage, &r.Status, &signed, &r.Artifact, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.Signed = signed != 0
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

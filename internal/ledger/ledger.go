// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps the history of sync runs in a SQLite database: one
// row per run with its status and counters, plus the checksums of the
// artifacts it published.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

const defaultLimit = 20

// Ledger is the run history database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			error TEXT,
			summary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			path TEXT,
			bytes INTEGER,
			sha256 TEXT,
			PRIMARY KEY (run_id, name)
		)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Start records a run in the running state.
func (l *Ledger) Start(ctx context.Context, id string, startedAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339Nano), types.RunRunning,
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// Finish records the outcome of a run. runErr nil means done; otherwise the
// run is marked failed with the error text. Artifacts replace any stored
// for the run.
func (l *Ledger) Finish(ctx context.Context, id string, finishedAt time.Time, summary types.RunSummary, artifacts []types.ArtifactInfo, runErr error) error {
	status, errText := types.RunDone, ""
	if runErr != nil {
		status, errText = types.RunFailed, runErr.Error()
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ?, summary = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), status, errText, string(summaryJSON), id,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s was never started", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("clearing artifacts: %w", err)
	}
	for _, a := range artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (run_id, name, path, bytes, sha256) VALUES (?, ?, ?, ?, ?)`,
			id, a.Name, a.Path, a.Bytes, a.SHA256,
		); err != nil {
			return fmt.Errorf("inserting artifact %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 uses 20.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return l.queryRuns(ctx, `SELECT id, started_at, finished_at, status, error, summary
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
}

// LastSuccessful returns the most recent completed run, or nil if none.
func (l *Ledger) LastSuccessful(ctx context.Context) (*types.RunRecord, error) {
	runs, err := l.queryRuns(ctx, `SELECT id, started_at, finished_at, status, error, summary
		FROM runs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, types.RunDone)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (l *Ledger) queryRuns(ctx context.Context, query string, args ...any) ([]types.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			rec                            types.RunRecord
			started                        string
			finished, errText, summaryJSON sql.NullString
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Status, &errText, &summaryJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		rec.Error = errText.String
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &rec.Summary); err != nil {
				return nil, fmt.Errorf("parsing summary of run %s: %w", rec.ID, err)
			}
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		arts, err := l.artifacts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Artifacts = arts
	}
	return runs, nil
}

func (l *Ledger) artifacts(ctx context.Context, runID string) ([]types.ArtifactInfo, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT name, path, bytes, sha256 FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []types.ArtifactInfo
	for rows.Next() {
		var (
			a         types.ArtifactInfo
			path, sum sql.NullString
			size      sql.NullInt64
		)
		if err := rows.Scan(&a.Name, &path, &size, &sum); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Path, a.SHA256, a.Bytes = path.String, sum.String, int(size.Int64)
		out = append(out, a)
	}
	return out, rows.Err()
}

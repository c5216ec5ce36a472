// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists batch run outcomes in a SQLite database so
// backends can be compared across runs, not just within one.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdfbench/pkg/types"
)

const dbFile = "pdfbench.db"

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dir/pdfbench.db,
// bootstrapping the schema when needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			backend TEXT NOT NULL,
			started_at TEXT NOT NULL,
			elapsed_seconds REAL NOT NULL,
			workers INTEGER NOT NULL,
			converted INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source_path TEXT NOT NULL,
			status TEXT NOT NULL,
			err_detail TEXT,
			elapsed_seconds REAL NOT NULL,
			pages INTEGER,
			images INTEGER,
			headings INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_backend ON runs(backend)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunRecord is one completed batch run with its per-file results.
type RunRecord struct {
	Backend   types.Backend
	StartedAt time.Time
	Elapsed   time.Duration
	Workers   int
	Converted int
	Skipped   int
	Failed    int
	Results   []types.Result
}

// Record inserts a completed run and its per-file results in one
// transaction.
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (backend, started_at, elapsed_seconds, workers, converted, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Backend), rec.StartedAt.UTC().Format(time.RFC3339),
		rec.Elapsed.Seconds(), rec.Workers, rec.Converted, rec.Skipped, rec.Failed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, source_path, status, err_detail, elapsed_seconds, pages, images, headings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rec.Results {
		if _, err := stmt.ExecContext(ctx, runID, r.SourcePath, string(r.Status),
			r.ErrDetail, r.Elapsed.Seconds(), r.Pages, r.Images, r.Headings); err != nil {
			return fmt.Errorf("inserting result for %s: %w", r.SourcePath, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of `pdfbench history`.
type RunSummary struct {
	ID        int64
	Backend   types.Backend
	StartedAt time.Time
	Elapsed   float64
	Converted int
	Skipped   int
	Failed    int
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, backend, started_at, elapsed_seconds, converted, skipped, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		if err := rows.Scan(&r.ID, &r.Backend, &started, &r.Elapsed, &r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, started); parseErr == nil {
			r.StartedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BackendAggregate compares backends across all recorded runs.
type BackendAggregate struct {
	Backend    types.Backend
	Runs       int
	Files      int
	Converted  int
	Failed     int
	AvgSeconds float64
}

// Compare aggregates per-file outcomes by backend. Skipped files are
// left out of the timing average since they cost no conversion time.
func (s *Store) Compare(ctx context.Context) ([]BackendAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT runs.backend,
		        COUNT(DISTINCT runs.id),
		        COUNT(results.rowid),
		        SUM(results.status = 'converted'),
		        SUM(results.status = 'failed'),
		        COALESCE(AVG(CASE WHEN results.status != 'skipped' THEN results.elapsed_seconds END), 0)
		 FROM runs JOIN results ON results.run_id = runs.id
		 GROUP BY runs.backend ORDER BY runs.backend`)
	if err != nil {
		return nil, fmt.Errorf("querying comparison: %w", err)
	}
	defer rows.Close()

	var out []BackendAggregate
	for rows.Next() {
		var a BackendAggregate
		if err := rows.Scan(&a.Backend, &a.Runs, &a.Files, &a.Converted, &a.Failed, &a.AvgSeconds); err != nil {
			return nil, fmt.Errorf("scanning comparison row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

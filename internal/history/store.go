// Package history persists conversion-run summaries in a local SQLite
// database so past batches can be listed and compared.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/converter"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded conversion batch.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Engine     string
	OutputDir  string
	Attempted  int
	Succeeded  int
	Failed     int
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if necessary) the database at dbPath and
// applies the schema. ":memory:" is supported for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// A single connection keeps ":memory:" working: every pool
	// connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a finished batch and its per-file results in one
// transaction, returning the generated run id.
func (s *Store) RecordRun(sum *converter.Summary, engine, outputDir string, started time.Time) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, engine, output_dir, attempted, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, started, started.Add(sum.Elapsed), engine, outputDir,
		sum.Attempted, sum.Succeeded, sum.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, r := range sum.Results {
		_, err = tx.Exec(
			`INSERT INTO run_files (run_id, source, grp, engine, success, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, r.Source, r.Group, r.Engine, r.OK, r.Err,
		)
		if err != nil {
			return "", fmt.Errorf("insert run file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, engine, output_dir, attempted, succeeded, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Engine,
			&r.OutputDir, &r.Attempted, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FileResult is one per-file outcome of a recorded run.
type FileResult struct {
	Source  string
	Group   string
	Engine  string
	Success bool
	Error   string
}

// RunFiles returns the per-file results of one run in insertion order.
func (s *Store) RunFiles(runID string) ([]FileResult, error) {
	rows, err := s.db.Query(
		`SELECT source, grp, engine, success, error FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var files []FileResult
	for rows.Next() {
		var f FileResult
		var eng, errMsg sql.NullString
		if err := rows.Scan(&f.Source, &f.Group, &eng, &f.Success, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		f.Engine = eng.String
		f.Error = errMsg.String
		files = append(files, f)
	}
	return files, rows.Err()
}

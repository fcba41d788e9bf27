// Package jobstore provides SQLite-backed history for slicing service
// jobs. Uses WAL mode for concurrent read access while the single
// writer records finished jobs.
package jobstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Status values for recorded jobs.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// ErrNotFound reports an unknown job id.
var ErrNotFound = errors.New("job not found")

// Job is one recorded slicing request.
type Job struct {
	ID             string `json:"id"`
	ModelFile      string `json:"model_file"`
	PrinterPreset  string `json:"printer_preset"`
	FilamentPreset string `json:"filament_preset"`
	ProcessPreset  string `json:"process_preset"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	StatsJSON      string `json:"stats_json,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// Store records finished slicing jobs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the job database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Idempotent; safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to job database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// Record inserts one finished job.
func (s *Store) Record(ctx context.Context, job Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, model_file, printer_preset, filament_preset,
		                  process_preset, status, error, stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ModelFile, job.PrinterPreset, job.FilamentPreset,
		job.ProcessPreset, job.Status, job.Error, job.StatsJSON,
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns one job by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model_file, printer_preset, filament_preset,
		       process_preset, status, error, stats_json, created_at
		FROM jobs WHERE id = ?`, id)

	var job Job
	err := row.Scan(&job.ID, &job.ModelFile, &job.PrinterPreset,
		&job.FilamentPreset, &job.ProcessPreset, &job.Status,
		&job.Error, &job.StatsJSON, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", id, err)
	}
	return &job, nil
}

// Recent returns the most recently created jobs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_file, printer_preset, filament_preset,
		       process_preset, status, error, stats_json, created_at
		FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.ModelFile, &job.PrinterPreset,
			&job.FilamentPreset, &job.ProcessPreset, &job.Status,
			&job.Error, &job.StatsJSON, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Package history keeps a local SQLite record of past runs so results
// can be compared across models and days.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Jyzan/benchrun/internal/task"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	started_at       TIMESTAMP NOT NULL,
	tasks_file       TEXT NOT NULL,
	out_file         TEXT NOT NULL,
	model            TEXT NOT NULL,
	concurrency      INTEGER NOT NULL,
	summary_interval INTEGER NOT NULL,
	total_tasks      INTEGER NOT NULL,
	resumed          INTEGER NOT NULL,
	success          INTEGER NOT NULL,
	errors           INTEGER NOT NULL,
	timeouts         INTEGER NOT NULL,
	duration_ms      INTEGER NOT NULL
);
`

// DefaultPath returns the default history database path.
func DefaultPath() string {
	return filepath.Join(".benchrun", "history.db")
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a finished run. Re-recording the same run ID replaces
// the previous row.
func (s *Store) Record(report *task.RunReport) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, started_at, tasks_file, out_file, model, concurrency,
		 summary_interval, total_tasks, resumed, success, errors, timeouts, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Timestamp, report.TasksFile, report.OutFile,
		report.Model, report.Concurrency, report.SummaryInterval,
		report.TotalTasks, report.Resumed, report.Success, report.Errors,
		report.Timeouts, report.TotalDuration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]*task.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, started_at, tasks_file, out_file, model, concurrency,
		       summary_interval, total_tasks, resumed, success, errors, timeouts, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var reports []*task.RunReport
	for rows.Next() {
		var r task.RunReport
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.Timestamp, &r.TasksFile, &r.OutFile,
			&r.Model, &r.Concurrency, &r.SummaryInterval, &r.TotalTasks,
			&r.Resumed, &r.Success, &r.Errors, &r.Timeouts, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.TotalDuration = time.Duration(durationMS) * time.Millisecond
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

// Get returns one run by ID, or nil when not found.
func (s *Store) Get(runID string) (*task.RunReport, error) {
	row := s.db.QueryRow(`
		SELECT run_id, started_at, tasks_file, out_file, model, concurrency,
		       summary_interval, total_tasks, resumed, success, errors, timeouts, duration_ms
		FROM runs WHERE run_id = ?`, runID)

	var r task.RunReport
	var durationMS int64
	err := row.Scan(&r.RunID, &r.Timestamp, &r.TasksFile, &r.OutFile,
		&r.Model, &r.Concurrency, &r.SummaryInterval, &r.TotalTasks,
		&r.Resumed, &r.Success, &r.Errors, &r.Timeouts, &durationMS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.TotalDuration = time.Duration(durationMS) * time.Millisecond
	return &r, nil
}

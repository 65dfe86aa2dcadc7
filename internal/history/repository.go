package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// createdLayout has a fixed width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository defines the persistence interface for recorded runs.
type Repository interface {
	Save(run *Run) error
	List(limit int) ([]Run, error)
	ListByPattern(pattern string, limit int) ([]Run, error)
	Clear() (int64, error)
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the history at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("history: failed to open database: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS runs (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            created_at  TEXT    NOT NULL,
            pattern     TEXT    NOT NULL,
            audit_dir   TEXT    NOT NULL DEFAULT '',
            pod_dir     TEXT    NOT NULL DEFAULT '',
            report_path TEXT    NOT NULL DEFAULT '',
            entries     INTEGER NOT NULL DEFAULT 0,
            errors      INTEGER NOT NULL DEFAULT 0,
            warnings    INTEGER NOT NULL DEFAULT 0,
            infos       INTEGER NOT NULL DEFAULT 0,
            untimed     INTEGER NOT NULL DEFAULT 0,
            skipped     INTEGER NOT NULL DEFAULT 0,
            span_ms     INTEGER NOT NULL DEFAULT 0,
            duration_ms INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
        CREATE INDEX IF NOT EXISTS idx_runs_pattern ON runs(pattern);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migration failed: %w", err)
	}
	return nil
}

// Save inserts run and assigns its ID. A zero CreatedAt is set to now.
func (r *SQLiteRepository) Save(run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO runs (created_at, pattern, audit_dir, pod_dir, report_path,
                          entries, errors, warnings, infos, untimed, skipped, span_ms, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.UTC().Format(createdLayout), run.Pattern, run.AuditDir, run.PodDir, run.ReportPath,
		run.Entries, run.Errors, run.Warnings, run.Infos, run.Untimed, run.Skipped,
		run.Span.Milliseconds(), run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("history: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: failed to get last insert ID: %w", err)
	}
	run.ID = id
	return nil
}

const selectRuns = `
        SELECT id, created_at, pattern, audit_dir, pod_dir, report_path,
               entries, errors, warnings, infos, untimed, skipped, span_ms, duration_ms
        FROM runs`

// List returns the most recent limit runs, newest first.
func (r *SQLiteRepository) List(limit int) ([]Run, error) {
	rows, err := r.db.Query(selectRuns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListByPattern returns the most recent limit runs for an exact pattern.
func (r *SQLiteRepository) ListByPattern(pattern string, limit int) ([]Run, error) {
	rows, err := r.db.Query(selectRuns+` WHERE pattern = ? ORDER BY created_at DESC, id DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Clear deletes every recorded run and returns how many were removed.
func (r *SQLiteRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("history: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		var spanMs int64
		err := rows.Scan(
			&run.ID, &createdAt, &run.Pattern, &run.AuditDir, &run.PodDir, &run.ReportPath,
			&run.Entries, &run.Errors, &run.Warnings, &run.Infos, &run.Untimed, &run.Skipped,
			&spanMs, &run.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scan failed: %w", err)
		}
		run.CreatedAt, _ = time.Parse(createdLayout, createdAt)
		run.Span = time.Duration(spanMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	study TEXT NOT NULL,
	routing TEXT NOT NULL,
	provenance TEXT NOT NULL,
	files_read INTEGER NOT NULL,
	records_matched INTEGER NOT NULL,
	lines_skipped INTEGER NOT NULL,
	warnings INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_gains (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	family TEXT NOT NULL,
	routing TEXT NOT NULL,
	generalist_acc REAL NOT NULL,
	specialist_acc REAL NOT NULL,
	gain_pp REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_gains_run ON run_gains(run_id);
`

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .specgain) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		return nil
	}
	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unsupported history schema version %d (want %d)", v, schemaVersion)
	}
	return nil
}

// Close closes the underlying DB.
func (s *SqlStore) Close() error { return s.db.Close() }

// RecordRun inserts the run and its gains in one transaction.
func (s *SqlStore) RecordRun(run *Run, gains []GainRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	startedAt := run.StartedAt
	if startedAt == "" {
		startedAt = nowUTC()
	}
	res, err := tx.Exec(
		`INSERT INTO runs (started_at, study, routing, provenance, files_read, records_matched, lines_skipped, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		startedAt, run.Study, run.Routing, run.Provenance,
		run.FilesRead, run.Matched, run.Skipped, run.Warnings,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	for _, g := range gains {
		if _, err := tx.Exec(
			`INSERT INTO run_gains (run_id, family, routing, generalist_acc, specialist_acc, gain_pp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, g.Family, g.Routing, g.GeneralistAcc, g.SpecialistAcc, g.GainPP,
		); err != nil {
			return 0, fmt.Errorf("insert gain: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	run.ID = runID
	run.StartedAt = startedAt
	return runID, nil
}

// GetRun returns one run by ID, or nil if absent.
func (s *SqlStore) GetRun(runID int64) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, study, routing, provenance, files_read, records_matched, lines_skipped, warnings
		 FROM runs WHERE id = ?`, runID)
	r := &Run{}
	err := row.Scan(&r.ID, &r.StartedAt, &r.Study, &r.Routing, &r.Provenance,
		&r.FilesRead, &r.Matched, &r.Skipped, &r.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	q := `SELECT id, started_at, study, routing, provenance, files_read, records_matched, lines_skipped, warnings
	      FROM runs ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Study, &r.Routing, &r.Provenance,
			&r.FilesRead, &r.Matched, &r.Skipped, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListGains returns the per-family gains of one run in insertion order.
func (s *SqlStore) ListGains(runID int64) ([]GainRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, family, routing, generalist_acc, specialist_acc, gain_pp
		 FROM run_gains WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list gains: %w", err)
	}
	defer rows.Close()

	var out []GainRecord
	for rows.Next() {
		var g GainRecord
		if err := rows.Scan(&g.RunID, &g.Family, &g.Routing,
			&g.GeneralistAcc, &g.SpecialistAcc, &g.GainPP); err != nil {
			return nil, fmt.Errorf("scan gain: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Package history persists a ledger of reporting passes, so regressions in
// the measured gains are visible across paper builds.
package history

// DefaultDBPath is the default relative path for the SQLite DB (per-project).
// Resolve against cwd; Open() creates the parent dir (e.g. .specgain).
const DefaultDBPath = ".specgain/history.db"

// Run is one recorded reporting pass.
type Run struct {
	ID         int64
	StartedAt  string // RFC 3339 UTC
	Study      string
	Routing    string
	Provenance string
	FilesRead  int
	Matched    int
	Skipped    int
	Warnings   int
}

// GainRecord is one per-family gain from a recorded run.
type GainRecord struct {
	RunID          int64
	Family         string
	Routing        string
	GeneralistAcc  float64
	SpecialistAcc  float64
	GainPP         float64
}

// Store is the persistence facade for the run ledger. The pipeline and CLI
// use only this interface; implementation is SQLite or in-memory.
type Store interface {
	// RecordRun inserts the run and its gains, returning the run ID.
	RecordRun(run *Run, gains []GainRecord) (int64, error)
	GetRun(runID int64) (*Run, error)
	// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
	ListRuns(limit int) ([]*Run, error)
	ListGains(runID int64) ([]GainRecord, error)
	Close() error
}

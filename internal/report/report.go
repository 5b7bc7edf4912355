// Package report runs one end-to-end reporting pass: discover and read the
// experiment logs, aggregate or synthesize the accuracy summary, and emit
// the paper artifacts.
package report

import (
	"context"
	"fmt"

	"specgain/internal/artifact"
	"specgain/internal/gain"
	"specgain/internal/history"
	"specgain/internal/ingest"
	"specgain/internal/logging"
	"specgain/internal/study"
)

// Config is the resolved input of one pass. Build it from a study.Config
// with FromStudy, or fill it directly in tests.
type Config struct {
	Study    string
	Routing  gain.Routing
	LogDir   string
	Pattern  string
	DataDir  string
	FigDir   string
	Parallel int

	// HistoryPath, when set, names the SQLite run ledger the pass is
	// recorded in. A recording failure is a warning, never a build failure.
	HistoryPath string
}

// FromStudy converts a validated study configuration.
func FromStudy(c *study.Config) (Config, error) {
	routing, err := c.RoutingMode()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Study:       c.Study,
		Routing:     routing,
		LogDir:      c.LogDir,
		Pattern:     c.Pattern,
		DataDir:     c.DataDir,
		FigDir:      c.FigDir,
		Parallel:    c.Parallel,
		HistoryPath: c.History,
	}, nil
}

// Result is the outcome of one pass.
type Result struct {
	Summary   *gain.Summary
	Ingest    ingest.Stats
	Files     []string // log files read, sorted
	Artifacts *artifact.Result
	RunID     int64 // ledger run ID; 0 when no history path is set or recording failed
}

// Warnings returns the aggregation and emission warnings in order.
func (r *Result) Warnings() []string {
	var ws []string
	ws = append(ws, r.Summary.Warnings...)
	if r.Artifacts != nil {
		ws = append(ws, r.Artifacts.Warnings...)
	}
	return ws
}

// Run executes one reporting pass. A missing log directory, no matching
// files, or files with no matching records all degrade to the placeholder
// summary; only a failure to publish the artifacts is an error.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	logger := logging.New("report")
	res := &Result{}

	logger.Info("reading logs", "logdir", cfg.LogDir, "pattern", cfg.Pattern, "study", cfg.Study)
	paths, err := ingest.Discover(cfg.LogDir, cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("discover logs: %w", err)
	}
	res.Files = paths

	acc := gain.NewAccumulator()
	if len(paths) > 0 {
		acc, res.Ingest, err = ingest.Read(ctx, paths, cfg.Study, cfg.Parallel)
		if err != nil {
			return nil, fmt.Errorf("read logs: %w", err)
		}
	}

	if acc.Empty() {
		logger.Warn("no matching records; synthesizing placeholder summary",
			"files", len(paths), "study", cfg.Study)
		res.Summary = gain.NewPlaceholder()
	} else {
		logger.Info("aggregating", "records", acc.Total(), "files", len(paths))
		res.Summary = acc.Finalize(gain.Real)
	}

	logger.Info("emitting artifacts", "datadir", cfg.DataDir, "figdir", cfg.FigDir,
		"routing", cfg.Routing.String(), "provenance", res.Summary.Provenance.String())
	em := &artifact.Emitter{DataDir: cfg.DataDir, FigDir: cfg.FigDir, Routing: cfg.Routing}
	res.Artifacts, err = em.Emit(res.Summary)
	if err != nil {
		return nil, err
	}

	if cfg.HistoryPath != "" {
		if err := recordRun(cfg, res); err != nil {
			logger.Warn("history not recorded", "path", cfg.HistoryPath, "err", err)
		}
	}
	return res, nil
}

// recordRun appends the pass to the run ledger.
func recordRun(cfg Config, res *Result) error {
	st, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run := &history.Run{
		Study:      cfg.Study,
		Routing:    cfg.Routing.String(),
		Provenance: res.Summary.Provenance.String(),
		FilesRead:  res.Ingest.Files,
		Matched:    res.Ingest.Matched,
		Skipped:    res.Ingest.Skipped,
		Warnings:   len(res.Warnings()),
	}
	gains := make([]history.GainRecord, 0, len(res.Summary.Gains))
	for _, g := range res.Summary.Gains {
		gains = append(gains, history.GainRecord{
			Family:        g.Family.String(),
			Routing:       g.Routing.String(),
			GeneralistAcc: g.GeneralistAccuracy,
			SpecialistAcc: g.SpecialistAccuracy,
			GainPP:        g.DeltaPP,
		})
	}
	id, err := st.RecordRun(run, gains)
	if err != nil {
		return err
	}
	res.RunID = id
	return nil
}

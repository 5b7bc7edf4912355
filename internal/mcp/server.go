// Package mcp exposes the reporting pipeline over the Model Context
// Protocol, so an agent driving a paper build can regenerate the
// specialization artifacts and inspect the resulting summary.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"specgain/internal/gain"
	"specgain/internal/logging"
	"specgain/internal/report"
	"specgain/internal/study"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and keeps the result of the last
// reporting pass.
type Server struct {
	MCPServer *sdkmcp.Server
	Defaults  study.Config

	mu   sync.Mutex
	last *report.Result
}

// NewServer creates an MCP server with the reporting tools. defaults seeds
// every run; tool inputs override individual fields per call.
func NewServer(defaults study.Config) *Server {
	s := &Server{Defaults: defaults}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "specgain", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_report",
		Description: "Run one reporting pass: read the experiment logs, aggregate (or synthesize placeholder) accuracy, and write the TeX and plot-data artifacts.",
	}, s.handleRunReport)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_summary",
		Description: "Get the per-group accuracy stats and per-family gains from the last run_report call.",
	}, s.handleGetSummary)
}

// --- Tool input/output types ---

type runReportInput struct {
	LogDir  string `json:"logdir,omitempty" jsonschema:"directory holding experiment logs (default from server config)"`
	Pattern string `json:"pattern,omitempty" jsonschema:"glob matched against log file names"`
	Study   string `json:"study,omitempty" jsonschema:"study name to select from the logs"`
	Routing string `json:"routing,omitempty" jsonschema:"routing mode the artifacts focus on (oracle, predicted)"`
	DataDir string `json:"datadir,omitempty" jsonschema:"destination for TeX fragments"`
	FigDir  string `json:"figdir,omitempty" jsonschema:"destination for plot data"`
}

type runReportOutput struct {
	Provenance string   `json:"provenance"`
	FilesRead  int      `json:"files_read"`
	Matched    int      `json:"records_matched"`
	Skipped    int      `json:"lines_skipped"`
	Artifacts  []string `json:"artifacts"`
	Warnings   []string `json:"warnings,omitempty"`
}

type getSummaryInput struct{}

type summaryStat struct {
	Family   string  `json:"family"`
	Role     string  `json:"role"`
	Routing  string  `json:"routing"`
	NTotal   uint64  `json:"n_total"`
	NCorrect uint64  `json:"n_correct"`
	Accuracy float64 `json:"accuracy"`
}

type summaryGain struct {
	Family         string  `json:"family"`
	Routing        string  `json:"routing"`
	GeneralistAcc  float64 `json:"generalist_acc"`
	SpecialistAcc  float64 `json:"specialist_acc"`
	GainPP         float64 `json:"gain_pp"`
}

type getSummaryOutput struct {
	Provenance string        `json:"provenance"`
	Stats      []summaryStat `json:"stats"`
	Gains      []summaryGain `json:"gains"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleRunReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input runReportInput) (*sdkmcp.CallToolResult, runReportOutput, error) {
	logger := logging.New("mcp")

	cfg := s.Defaults
	if input.LogDir != "" {
		cfg.LogDir = input.LogDir
	}
	if input.Pattern != "" {
		cfg.Pattern = input.Pattern
	}
	if input.Study != "" {
		cfg.Study = input.Study
	}
	if input.Routing != "" {
		cfg.Routing = input.Routing
	}
	if input.DataDir != "" {
		cfg.DataDir = input.DataDir
	}
	if input.FigDir != "" {
		cfg.FigDir = input.FigDir
	}

	runCfg, err := report.FromStudy(&cfg)
	if err != nil {
		return nil, runReportOutput{}, fmt.Errorf("run_report: %w", err)
	}

	res, err := report.Run(ctx, runCfg)
	if err != nil {
		return nil, runReportOutput{}, fmt.Errorf("run_report: %w", err)
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	logger.Info("report run complete",
		"provenance", res.Summary.Provenance.String(),
		"files", res.Ingest.Files, "matched", res.Ingest.Matched)

	return nil, runReportOutput{
		Provenance: res.Summary.Provenance.String(),
		FilesRead:  res.Ingest.Files,
		Matched:    res.Ingest.Matched,
		Skipped:    res.Ingest.Skipped,
		Artifacts:  res.Artifacts.Paths,
		Warnings:   res.Warnings(),
	}, nil
}

func (s *Server) handleGetSummary(_ context.Context, _ *sdkmcp.CallToolRequest, _ getSummaryInput) (*sdkmcp.CallToolResult, getSummaryOutput, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return nil, getSummaryOutput{}, fmt.Errorf("no report has been run (call run_report first)")
	}

	out := getSummaryOutput{
		Provenance: last.Summary.Provenance.String(),
		Warnings:   last.Warnings(),
	}
	for _, st := range last.Summary.Stats {
		out.Stats = append(out.Stats, summaryStat{
			Family:   st.Key.Family.String(),
			Role:     st.Key.Role.String(),
			Routing:  st.Key.Routing.String(),
			NTotal:   st.NTotal,
			NCorrect: st.NCorrect,
			Accuracy: st.Accuracy,
		})
	}
	for _, g := range last.Summary.Gains {
		out.Gains = append(out.Gains, summaryGain{
			Family:        g.Family.String(),
			Routing:       g.Routing.String(),
			GeneralistAcc: g.GeneralistAccuracy,
			SpecialistAcc: g.SpecialistAccuracy,
			GainPP:        g.DeltaPP,
		})
	}
	return nil, out, nil
}

// LastSummary returns the summary from the most recent run, or nil.
func (s *Server) LastSummary() *gain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.Summary
}

// Shutdown drops the cached result.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}

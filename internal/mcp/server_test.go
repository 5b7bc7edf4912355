package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"specgain/internal/study"
)

func testDefaults(t *testing.T) study.Config {
	t.Helper()
	root := t.TempDir()
	c := study.Default()
	c.LogDir = filepath.Join(root, "logs")
	c.DataDir = filepath.Join(root, "data")
	c.FigDir = filepath.Join(root, "figs")
	return c
}

func writeLog(t *testing.T, dir, name string, lines []string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func recordLine(family, role string, correct bool) string {
	return fmt.Sprintf(`{"study": "specialization_per_modulation_family", "data": {"family": %q, "model_role": %q, "routing_mode": "oracle", "correct": %t}}`,
		family, role, correct)
}

func TestRunReport_ThenGetSummary(t *testing.T) {
	defaults := testDefaults(t)
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, recordLine("psk", "generalist", i < 7))
		lines = append(lines, recordLine("psk", "specialist", i < 9))
	}
	writeLog(t, defaults.LogDir, "metrics_001.jsonl", lines)

	s := NewServer(defaults)
	_, out, err := s.handleRunReport(context.Background(), nil, runReportInput{})
	if err != nil {
		t.Fatalf("run_report: %v", err)
	}
	if out.Provenance != "measured" {
		t.Errorf("provenance: got %q", out.Provenance)
	}
	if out.FilesRead != 1 || out.Matched != 20 {
		t.Errorf("counts: %+v", out)
	}
	if len(out.Artifacts) != 4 {
		t.Errorf("artifacts: %v", out.Artifacts)
	}

	_, sum, err := s.handleGetSummary(context.Background(), nil, getSummaryInput{})
	if err != nil {
		t.Fatalf("get_summary: %v", err)
	}
	if len(sum.Stats) != 2 || len(sum.Gains) != 1 {
		t.Fatalf("summary shape: %+v", sum)
	}
	g := sum.Gains[0]
	if g.Family != "psk" || g.GainPP < 19.999 || g.GainPP > 20.001 {
		t.Errorf("gain: %+v", g)
	}
}

func TestRunReport_EmptyLogsSynthesizesPlaceholder(t *testing.T) {
	s := NewServer(testDefaults(t))
	_, out, err := s.handleRunReport(context.Background(), nil, runReportInput{})
	if err != nil {
		t.Fatalf("run_report: %v", err)
	}
	if out.Provenance != "placeholder" {
		t.Errorf("provenance: got %q", out.Provenance)
	}
	if s.LastSummary() == nil {
		t.Error("LastSummary should be set after a run")
	}
}

func TestRunReport_InputOverridesDefaults(t *testing.T) {
	defaults := testDefaults(t)
	other := filepath.Join(t.TempDir(), "elsewhere")
	writeLog(t, other, "metrics_x.jsonl", []string{recordLine("qam", "generalist", true)})

	s := NewServer(defaults)
	_, out, err := s.handleRunReport(context.Background(), nil, runReportInput{LogDir: other})
	if err != nil {
		t.Fatalf("run_report: %v", err)
	}
	if out.FilesRead != 1 || out.Matched != 1 {
		t.Errorf("override not applied: %+v", out)
	}
}

func TestRunReport_RejectsUnknownRouting(t *testing.T) {
	s := NewServer(testDefaults(t))
	_, _, err := s.handleRunReport(context.Background(), nil, runReportInput{Routing: "roundrobin"})
	if err == nil {
		t.Fatal("want error for unknown routing mode")
	}
}

func TestGetSummary_BeforeAnyRun(t *testing.T) {
	s := NewServer(testDefaults(t))
	_, _, err := s.handleGetSummary(context.Background(), nil, getSummaryInput{})
	if err == nil {
		t.Fatal("want error before first run_report")
	}
	s.Shutdown()
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"specgain/internal/gain"
)

const testStudy = "specialization_per_modulation_family"

func writeLog(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func recordLine(study, family, role, routing string, correct bool) string {
	return fmt.Sprintf(`{"study":%q,"data":{"family":%q,"model_role":%q,"routing_mode":%q,"correct":%t}}`,
		study, family, role, routing, correct)
}

func TestRead_SkipsMalformedLineAndCountsIt(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, recordLine(testStudy, "psk", "generalist", "oracle", i%2 == 0))
	}
	// One invalid JSON line among 50 valid ones.
	lines = append(lines[:25], append([]string{`{"study": "broken`}, lines[25:]...)...)
	path := writeLog(t, dir, "metrics_run1.jsonl", lines...)

	acc, stats, err := Read(context.Background(), []string{path}, testStudy, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 50 {
		t.Errorf("Matched = %d, want 50", stats.Matched)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if acc.Total() != 50 {
		t.Errorf("accumulated %d records, want 50", acc.Total())
	}
}

func TestRead_IgnoresOtherStudies(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "metrics_run1.jsonl",
		recordLine(testStudy, "qam", "specialist", "oracle", true),
		recordLine("other_study", "qam", "specialist", "oracle", true),
		recordLine("other_study", "qam", "specialist", "oracle", false),
	)

	_, stats, err := Read(context.Background(), []string{path}, testStudy, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 1 {
		t.Errorf("Matched = %d, want 1", stats.Matched)
	}
	if stats.OtherStudy != 2 {
		t.Errorf("OtherStudy = %d, want 2", stats.OtherStudy)
	}
	if stats.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0 (other studies are not errors)", stats.Skipped)
	}
}

func TestRead_ParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 4; i++ {
		var lines []string
		for j := 0; j < 20; j++ {
			lines = append(lines,
				recordLine(testStudy, "psk", "generalist", "oracle", j < 15),
				recordLine(testStudy, "psk", "specialist", "oracle", j < 18),
			)
		}
		paths = append(paths, writeLog(t, dir, fmt.Sprintf("metrics_%d.jsonl", i), lines...))
	}

	serialAcc, serialStats, err := Read(context.Background(), paths, testStudy, 1)
	if err != nil {
		t.Fatal(err)
	}
	parallelAcc, parallelStats, err := Read(context.Background(), paths, testStudy, 4)
	if err != nil {
		t.Fatal(err)
	}

	if serialStats != parallelStats {
		t.Errorf("stats differ: serial %+v, parallel %+v", serialStats, parallelStats)
	}
	if diff := cmp.Diff(serialAcc.Finalize(gain.Real), parallelAcc.Finalize(gain.Real)); diff != "" {
		t.Errorf("parallel read changed the aggregation (-serial +parallel):\n%s", diff)
	}
}

func TestDiscover_MissingDirIsEmptySignal(t *testing.T) {
	paths, err := Discover(filepath.Join(t.TempDir(), "no-such-dir"), "metrics_*.jsonl")
	if err != nil {
		t.Fatalf("missing dir should not be an error, got %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}

func TestDiscover_SortedMatches(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "metrics_b.jsonl", "")
	writeLog(t, dir, "metrics_a.jsonl", "")
	writeLog(t, dir, "notes.txt", "")

	paths, err := Discover(dir, "metrics_*.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "metrics_a.jsonl"),
		filepath.Join(dir, "metrics_b.jsonl"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want lineClass
	}{
		{"valid", recordLine(testStudy, "psk", "generalist", "oracle", true), lineRecord},
		{"alias fields", `{"study":"` + testStudy + `","data":{"true_family":"qam","role":"specialist","routing":"predicted","correct":false}}`, lineRecord},
		{"blank primary falls through to alias", `{"study":"` + testStudy + `","data":{"family":"","true_family":"qam","model_role":"specialist","routing_mode":"oracle","correct":true}}`, lineRecord},
		{"blank family with no alias", `{"study":"` + testStudy + `","data":{"family":"","model_role":"generalist","routing_mode":"oracle","correct":true}}`, lineMalformed},
		{"predicted family", `{"study":"` + testStudy + `","data":{"family":"qam","model_role":"specialist","routing_mode":"oracle","correct":false,"predicted_family":"psk"}}`, lineRecord},
		{"invalid json", `{not json`, lineMalformed},
		{"other study", recordLine("something_else", "psk", "generalist", "oracle", true), lineOtherStudy},
		{"unknown family", recordLine(testStudy, "ofdm", "generalist", "oracle", true), lineMalformed},
		{"unknown role", recordLine(testStudy, "psk", "router", "oracle", true), lineMalformed},
		{"unknown routing", recordLine(testStudy, "psk", "generalist", "none", true), lineMalformed},
		{"missing correct", `{"study":"` + testStudy + `","data":{"family":"psk","model_role":"generalist","routing_mode":"oracle"}}`, lineMalformed},
		{"missing routing", `{"study":"` + testStudy + `","data":{"family":"psk","model_role":"generalist","correct":true}}`, lineMalformed},
		{"wrong correct type", `{"study":"` + testStudy + `","data":{"family":"psk","model_role":"generalist","routing_mode":"oracle","correct":"yes"}}`, lineMalformed},
		{"missing data", `{"study":"` + testStudy + `"}`, lineMalformed},
		{"bad predicted family", `{"study":"` + testStudy + `","data":{"family":"psk","model_role":"generalist","routing_mode":"oracle","correct":true,"predicted_family":"fm"}}`, lineMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, class := parseLine([]byte(tt.line), testStudy)
			if class != tt.want {
				t.Errorf("parseLine(%s) class = %v, want %v", tt.line, class, tt.want)
			}
		})
	}
}

func TestParseLine_AliasAndPredictedValues(t *testing.T) {
	line := `{"study":"` + testStudy + `","data":{"true_family":"analog","role":"specialist","routing":"predicted","correct":true,"predicted_family":"qam"}}`
	rec, class := parseLine([]byte(line), testStudy)
	if class != lineRecord {
		t.Fatalf("class = %v, want lineRecord", class)
	}
	want := gain.Record{
		Family:       gain.FamilyAnalog,
		Role:         gain.RoleSpecialist,
		Routing:      gain.RoutingPredicted,
		Correct:      true,
		Predicted:    gain.FamilyQAM,
		HasPredicted: true,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

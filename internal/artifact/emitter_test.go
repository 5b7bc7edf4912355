package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"specgain/internal/gain"
)

func scenarioSummary(t *testing.T) *gain.Summary {
	t.Helper()
	acc := gain.NewAccumulator()
	for i := 0; i < 100; i++ {
		acc.Add(gain.Record{Family: gain.FamilyPSK, Role: gain.RoleGeneralist,
			Routing: gain.RoutingOracle, Correct: i < 80})
		acc.Add(gain.Record{Family: gain.FamilyPSK, Role: gain.RoleSpecialist,
			Routing: gain.RoutingOracle, Correct: i < 93})
	}
	return acc.Finalize(gain.Real)
}

func readArtifact(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEmit_ScenarioNumbers(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}

	res, err := e.Emit(scenarioSummary(t))
	require.NoError(t, err)
	require.Len(t, res.Paths, 4)

	callouts := readArtifact(t, filepath.Join(dir, "data", CalloutsFile))
	require.Contains(t, callouts, `\newcommand{\PSKGeneralistAcc}{80.0}`)
	require.Contains(t, callouts, `\newcommand{\PSKSpecialistAcc}{93.0}`)
	require.Contains(t, callouts, `\newcommand{\PSKGain}{13.0}`)
	require.Contains(t, callouts, `\newcommand{\SpecializationDataSource}{measured}`)
	require.NotContains(t, callouts, "placeholder")

	table := readArtifact(t, filepath.Join(dir, "data", TableFile))
	require.Contains(t, table, `psk & generalist & oracle & 80.0 & 100 \\`)
	require.Contains(t, table, `psk & specialist & oracle & 93.0 & 100 \\`)
	require.Contains(t, table, `\toprule`)

	gainData := readArtifact(t, filepath.Join(dir, "figs", GainDataFile))
	require.Contains(t, gainData, "psk 80.00 93.00 13.00")
}

func TestEmit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}

	first := make(map[string]string)
	res, err := e.Emit(scenarioSummary(t))
	require.NoError(t, err)
	for _, p := range res.Paths {
		first[p] = readArtifact(t, p)
	}

	res2, err := e.Emit(scenarioSummary(t))
	require.NoError(t, err)
	require.Equal(t, res.Paths, res2.Paths)
	for _, p := range res2.Paths {
		require.Equal(t, first[p], readArtifact(t, p), "artifact %s changed between runs", p)
	}
}

func TestEmit_PlaceholderMarked(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}

	res, err := e.Emit(gain.NewPlaceholder())
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	callouts := readArtifact(t, filepath.Join(dir, "data", CalloutsFile))
	require.Contains(t, callouts, "% placeholder data")
	require.Contains(t, callouts, `\newcommand{\SpecializationDataSource}{placeholder}`)
	require.Contains(t, callouts, `\newcommand{\PSKGeneralistAcc}{85.2}`)
	require.Contains(t, callouts, `\newcommand{\QAMSpecialistAcc}{84.2}`)
	require.Contains(t, callouts, `\newcommand{\AnalogGain}{4.7}`)

	table := readArtifact(t, filepath.Join(dir, "data", TableFile))
	require.Contains(t, table, "(placeholder data)")

	for _, name := range []string{GainDataFile, ConfusionFile} {
		content := readArtifact(t, filepath.Join(dir, "figs", name))
		require.Contains(t, content, "# placeholder data", "missing marker in %s", name)
	}
}

func TestEmit_IncompleteFamilyOmittedWithWarning(t *testing.T) {
	acc := gain.NewAccumulator()
	for i := 0; i < 50; i++ {
		acc.Add(gain.Record{Family: gain.FamilyQAM, Role: gain.RoleGeneralist,
			Routing: gain.RoutingOracle, Correct: i < 40})
	}
	s := acc.Finalize(gain.Real)

	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}
	res, err := e.Emit(s)
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "qam")

	callouts := readArtifact(t, filepath.Join(dir, "data", CalloutsFile))
	require.NotContains(t, callouts, `\QAMGain`)
	require.Contains(t, callouts, "% no specialization callouts available")

	// The table still reports the group that exists.
	table := readArtifact(t, filepath.Join(dir, "data", TableFile))
	require.Contains(t, table, `qam & generalist & oracle & 80.0 & 50 \\`)
}

func TestEmit_RoutingFallback(t *testing.T) {
	acc := gain.NewAccumulator()
	for i := 0; i < 40; i++ {
		acc.Add(gain.Record{Family: gain.FamilyPSK, Role: gain.RoleGeneralist,
			Routing: gain.RoutingPredicted, Correct: i < 30})
		acc.Add(gain.Record{Family: gain.FamilyPSK, Role: gain.RoleSpecialist,
			Routing: gain.RoutingPredicted, Correct: i < 34})
	}
	s := acc.Finalize(gain.Real)

	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}
	res, err := e.Emit(s)
	require.NoError(t, err)

	require.NotEmpty(t, res.Warnings)
	require.Contains(t, res.Warnings[0], "using all routing modes")

	table := readArtifact(t, filepath.Join(dir, "data", TableFile))
	require.Contains(t, table, `psk & generalist & all & 75.0 & 40 \\`)

	callouts := readArtifact(t, filepath.Join(dir, "data", CalloutsFile))
	require.Contains(t, callouts, `\newcommand{\PSKGain}{10.0}`)
}

func TestEmit_ConfusionDeltas(t *testing.T) {
	acc := gain.NewAccumulator()
	for i := 0; i < 3; i++ {
		acc.Add(gain.Record{Family: gain.FamilyQAM, Role: gain.RoleGeneralist,
			Routing: gain.RoutingOracle, Predicted: gain.FamilyPSK, HasPredicted: true})
	}
	acc.Add(gain.Record{Family: gain.FamilyQAM, Role: gain.RoleSpecialist,
		Routing: gain.RoutingOracle, Predicted: gain.FamilyPSK, HasPredicted: true})

	dir := t.TempDir()
	e := &Emitter{DataDir: filepath.Join(dir, "data"), FigDir: filepath.Join(dir, "figs"),
		Routing: gain.RoutingOracle}
	_, err := e.Emit(acc.Finalize(gain.Real))
	require.NoError(t, err)

	confusion := readArtifact(t, filepath.Join(dir, "figs", ConfusionFile))
	require.Contains(t, confusion, "psk qam -2")
}

func TestEmit_BlockedDestinationLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the data directory should go.
	blocked := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocked, []byte("in the way"), 0o644))

	figDir := filepath.Join(dir, "figs")
	e := &Emitter{DataDir: filepath.Join(blocked, "nested"), FigDir: figDir,
		Routing: gain.RoutingOracle}

	_, err := e.Emit(scenarioSummary(t))
	require.Error(t, err)

	// No artifact or staging residue anywhere.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, ent := range entries {
		require.False(t, strings.HasPrefix(ent.Name(), ".specgain-stage-"),
			"staging residue left behind: %s", ent.Name())
	}
	if _, err := os.Stat(figDir); err == nil {
		figEntries, err := os.ReadDir(figDir)
		require.NoError(t, err)
		require.Empty(t, figEntries, "partial artifacts left in fig dir")
	}
}

func TestEmit_NoStagingResidueOnSuccess(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DataDir: dir, FigDir: dir, Routing: gain.RoutingOracle}
	_, err := e.Emit(scenarioSummary(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, ent := range entries {
		require.False(t, strings.HasPrefix(ent.Name(), ".specgain-stage-"),
			"staging residue left behind: %s", ent.Name())
	}
}

// Package artifact renders an aggregated summary into the paper-build
// artifacts: TeX callout macros, a TeX results table, and plot-data series.
// Emission is idempotent (identical summaries produce byte-identical files)
// and atomic (everything is staged and only renamed into place once every
// write has succeeded).
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"specgain/internal/gain"
	"specgain/internal/logging"
)

// Artifact file names, fixed so the TeX sources can \input them.
const (
	CalloutsFile  = "specialization_callouts.tex"
	TableFile     = "specialization_table.tex"
	GainDataFile  = "specialization_gain_vs_generalist.dat"
	ConfusionFile = "family_confusion_deltas.dat"
)

// Emitter writes the artifact set for one run. DataDir receives the TeX
// files, FigDir the plot-data series. Routing is the mode the callouts and
// table focus on; when the summary has no data for it, the emitter falls
// back to aggregating all observed modes, matching the harness's original
// behavior.
type Emitter struct {
	DataDir string
	FigDir  string
	Routing gain.Routing
}

// Result reports what an emission produced.
type Result struct {
	Paths    []string // final artifact paths, in emission order
	Warnings []string
}

// row is one table line: a stat plus its display routing label, which
// differs from the key only in fallback mode.
type row struct {
	stat    gain.AccuracyStat
	routing string
}

// Emit renders and writes the full artifact set. On error no new artifact is
// visible: all files are staged in the destination directories and renamed
// only after every render and write has succeeded.
func (e *Emitter) Emit(s *gain.Summary) (*Result, error) {
	logger := logging.New("artifact")
	res := &Result{}

	rows, gains, fellBack := e.focus(s)
	if fellBack {
		w := fmt.Sprintf("no records for routing mode %q; using all routing modes", e.Routing)
		logger.Warn(w)
		res.Warnings = append(res.Warnings, w)
	}

	for _, dir := range []string{e.DataDir, e.FigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}

	st := newStager()
	defer st.discard()

	outputs := []struct {
		path    string
		content string
	}{
		{filepath.Join(e.DataDir, CalloutsFile), renderCallouts(s, gains, res)},
		{filepath.Join(e.DataDir, TableFile), renderTable(s, rows)},
		{filepath.Join(e.FigDir, GainDataFile), renderGainData(s, gains)},
		{filepath.Join(e.FigDir, ConfusionFile), renderConfusionData(s)},
	}
	for _, out := range outputs {
		if err := st.stage(out.path, []byte(out.content)); err != nil {
			return nil, fmt.Errorf("stage %s: %w", filepath.Base(out.path), err)
		}
	}

	paths, err := st.commit()
	if err != nil {
		return nil, fmt.Errorf("publish artifacts: %w", err)
	}
	res.Paths = paths

	logger.Info("artifacts written",
		"count", len(paths), "provenance", s.Provenance.String())
	return res, nil
}

// focus selects the stats and gains for the configured routing mode. With no
// data for that mode it collapses counts across all modes and re-derives the
// gains from the collapsed integers.
func (e *Emitter) focus(s *gain.Summary) ([]row, []gain.Gain, bool) {
	var rows []row
	var gains []gain.Gain
	for _, st := range s.Stats {
		if st.Key.Routing == e.Routing {
			rows = append(rows, row{stat: st, routing: e.Routing.String()})
		}
	}
	if len(rows) > 0 || len(s.Stats) == 0 {
		for _, g := range s.Gains {
			if g.Routing == e.Routing {
				gains = append(gains, g)
			}
		}
		return rows, gains, false
	}

	// Fallback: collapse counts over routing modes per (family, role).
	type pair struct {
		family gain.Family
		role   gain.Role
	}
	type count struct{ total, correct uint64 }
	collapsed := make(map[pair]count)
	for _, st := range s.Stats {
		p := pair{st.Key.Family, st.Key.Role}
		c := collapsed[p]
		c.total += st.NTotal
		c.correct += st.NCorrect
		collapsed[p] = c
	}
	pairs := make([]pair, 0, len(collapsed))
	for p := range collapsed {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].family != pairs[j].family {
			return pairs[i].family < pairs[j].family
		}
		return pairs[i].role < pairs[j].role
	})
	for _, p := range pairs {
		c := collapsed[p]
		st := gain.AccuracyStat{
			Key:      gain.Key{Family: p.family, Role: p.role, Routing: e.Routing},
			NTotal:   c.total,
			NCorrect: c.correct,
		}
		if c.total > 0 {
			st.Accuracy = float64(c.correct) / float64(c.total)
			st.Defined = true
		}
		rows = append(rows, row{stat: st, routing: "all"})
	}
	for _, fam := range gain.Families() {
		gen, genOK := collapsed[pair{fam, gain.RoleGeneralist}]
		spec, specOK := collapsed[pair{fam, gain.RoleSpecialist}]
		if !genOK || !specOK || gen.total == 0 || spec.total == 0 {
			continue
		}
		genAcc := float64(gen.correct) / float64(gen.total)
		specAcc := float64(spec.correct) / float64(spec.total)
		gains = append(gains, gain.Gain{
			Family:             fam,
			Routing:            e.Routing,
			GeneralistAccuracy: genAcc,
			SpecialistAccuracy: specAcc,
			DeltaPP:            (specAcc - genAcc) * 100.0,
		})
	}
	return rows, gains, true
}

func texMarker(s *gain.Summary) string {
	if s.Provenance == gain.Placeholder {
		return "% placeholder data: illustrative values, not measured results\n"
	}
	return ""
}

func datMarker(s *gain.Summary) string {
	if s.Provenance == gain.Placeholder {
		return "# placeholder data: illustrative values, not measured results\n"
	}
	return ""
}

// renderCallouts produces the numeric macro file. One macro triple per
// family with both roles present; families without a gain are omitted and
// noted as a warning on res.
func renderCallouts(s *gain.Summary, gains []gain.Gain, res *Result) string {
	var b strings.Builder
	b.WriteString("% generated by specgain; do not edit\n")
	b.WriteString(texMarker(s))
	fmt.Fprintf(&b, "\\newcommand{\\SpecializationDataSource}{%s}\n", s.Provenance)

	present := make(map[gain.Family]bool)
	for _, st := range s.Stats {
		present[st.Key.Family] = true
	}

	emitted := 0
	for _, fam := range gain.Families() {
		var g *gain.Gain
		for i := range gains {
			if gains[i].Family == fam {
				g = &gains[i]
				break
			}
		}
		if g == nil {
			// Only families that appear in the data are worth a warning;
			// entirely absent ones are simply not reported on.
			if present[fam] {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s: no gain available; callout macros omitted", fam))
			}
			continue
		}
		prefix := fam.MacroPrefix()
		fmt.Fprintf(&b, "\\newcommand{\\%sGeneralistAcc}{%.1f}\n", prefix, g.GeneralistAccuracy*100.0)
		fmt.Fprintf(&b, "\\newcommand{\\%sSpecialistAcc}{%.1f}\n", prefix, g.SpecialistAccuracy*100.0)
		fmt.Fprintf(&b, "\\newcommand{\\%sGain}{%.1f}\n", prefix, g.DeltaPP)
		emitted++
	}
	if emitted == 0 {
		b.WriteString("% no specialization callouts available\n")
	}
	return b.String()
}

// renderTable produces the booktabs results table, one row per
// (family, role) group.
func renderTable(s *gain.Summary, rows []row) string {
	caption := "Generalist vs specialist accuracy per modulation family."
	if s.Provenance == gain.Placeholder {
		caption = "Generalist vs specialist accuracy per modulation family (placeholder data)."
	}

	var b strings.Builder
	b.WriteString("% generated by specgain; do not edit\n")
	b.WriteString(texMarker(s))
	b.WriteString("\\begin{table}[t]\n")
	b.WriteString("  \\centering\n")
	fmt.Fprintf(&b, "  \\caption{%s}\n", caption)
	b.WriteString("  \\label{tab:specialization-results}\n")
	b.WriteString("  \\begin{tabular}{llllr}\n")
	b.WriteString("    \\toprule\n")
	b.WriteString("    Family & Role & Routing & Acc (\\%) & $N$ \\\\\n")
	b.WriteString("    \\midrule\n")
	for _, r := range rows {
		acc := "--"
		if r.stat.Defined {
			acc = fmt.Sprintf("%.1f", r.stat.Accuracy*100.0)
		}
		fmt.Fprintf(&b, "    %s & %s & %s & %s & %d \\\\\n",
			r.stat.Key.Family, r.stat.Key.Role, r.routing, acc, r.stat.NTotal)
	}
	b.WriteString("    \\bottomrule\n")
	b.WriteString("  \\end{tabular}\n")
	b.WriteString("\\end{table}\n")
	return b.String()
}

// renderGainData produces the plot series for the gain-vs-generalist figure.
func renderGainData(s *gain.Summary, gains []gain.Gain) string {
	var b strings.Builder
	b.WriteString("# generated by specgain; do not edit\n")
	b.WriteString(datMarker(s))
	b.WriteString("# family generalist_acc_pct specialist_acc_pct gain_pp\n")
	for _, g := range gains {
		fmt.Fprintf(&b, "%s %.2f %.2f %.2f\n",
			g.Family, g.GeneralistAccuracy*100.0, g.SpecialistAccuracy*100.0, g.DeltaPP)
	}
	return b.String()
}

// renderConfusionData produces the per-cell confusion delta series. The file
// is emitted even when no record carried a predicted family, so the figure
// target always exists.
func renderConfusionData(s *gain.Summary) string {
	var b strings.Builder
	b.WriteString("# generated by specgain; do not edit\n")
	b.WriteString(datMarker(s))
	b.WriteString("# predicted_family true_family delta (specialist - generalist counts)\n")
	if len(s.ConfusionDeltas) == 0 {
		b.WriteString("# no confusion data recorded\n")
		return b.String()
	}
	for _, d := range s.ConfusionDeltas {
		fmt.Fprintf(&b, "%s %s %d\n", d.Predicted, d.True, d.Delta)
	}
	return b.String()
}

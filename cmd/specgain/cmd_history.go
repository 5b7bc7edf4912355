package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specgain/internal/format"
	"specgain/internal/history"
)

var historyFlags struct {
	db     string
	limit  int
	runID  int64
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded reporting passes from the run ledger",
	Long: `History reads the SQLite run ledger written by 'report --history' and
prints the recorded passes, newest first. With --run-id it prints the
per-family gains of that pass instead.`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.db, "db", history.DefaultDBPath, "Run ledger DB path")
	f.IntVar(&historyFlags.limit, "limit", 20, "Max runs to list (0 = all)")
	f.Int64Var(&historyFlags.runID, "run-id", 0, "Show per-family gains for one run")
	f.StringVar(&historyFlags.format, "format", "ascii", "Table format (ascii, markdown)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	// Listing must not create an empty ledger where none exists.
	if _, err := os.Stat(historyFlags.db); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded runs in %s\n", historyFlags.db)
		return nil
	}

	st, err := history.Open(historyFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	mode := format.ParseMode(historyFlags.format)

	if historyFlags.runID != 0 {
		run, err := st.GetRun(historyFlags.runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found in %s", historyFlags.runID, historyFlags.db)
		}
		gains, err := st.ListGains(run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %d (%s, %s, %s)\n\n", run.ID, run.StartedAt, run.Study, run.Provenance)
		tb := format.NewTable(mode)
		tb.Header("Family", "Routing", "Generalist (%)", "Specialist (%)", "Gain (pp)")
		tb.AlignRight(3, 4, 5)
		for _, g := range gains {
			tb.Row(g.Family, g.Routing,
				format.Pct(g.GeneralistAcc),
				format.Pct(g.SpecialistAcc),
				format.SignedPP(g.GainPP))
		}
		fmt.Fprintln(out, tb.String())
		return nil
	}

	runs, err := st.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No recorded runs in %s\n", historyFlags.db)
		return nil
	}

	tb := format.NewTable(mode)
	tb.Header("ID", "Started", "Study", "Routing", "Source", "Files", "Matched", "Skipped", "Warnings")
	tb.AlignRight(1, 6, 7, 8, 9)
	for _, r := range runs {
		tb.Row(r.ID, r.StartedAt, r.Study, r.Routing, r.Provenance,
			r.FilesRead, r.Matched, r.Skipped, r.Warnings)
	}
	fmt.Fprintln(out, tb.String())
	return nil
}

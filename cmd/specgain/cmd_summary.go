package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"specgain/internal/format"
	"specgain/internal/gain"
	"specgain/internal/ingest"
	"specgain/internal/study"
)

var summaryFlags struct {
	config   string
	logdir   string
	pattern  string
	study    string
	parallel int
	format   string
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the aggregated accuracy summary without writing artifacts",
	RunE:  runSummary,
}

func init() {
	f := summaryCmd.Flags()
	f.StringVar(&summaryFlags.config, "config", "", "Study config file (YAML/JSON); flags override")
	f.StringVar(&summaryFlags.logdir, "logdir", "logs", "Directory holding experiment logs")
	f.StringVar(&summaryFlags.pattern, "pattern", "metrics_*.jsonl", "Glob matched against log file names")
	f.StringVar(&summaryFlags.study, "study", "specialization_per_modulation_family", "Study name to select from the logs")
	f.IntVar(&summaryFlags.parallel, "parallel", 0, "Log files read concurrently (0 = serial)")
	f.StringVar(&summaryFlags.format, "format", "ascii", "Table format (ascii, markdown)")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(summaryFlags.config, func(c *study.Config) {
		setIfChanged(cmd, "logdir", &c.LogDir, summaryFlags.logdir)
		setIfChanged(cmd, "pattern", &c.Pattern, summaryFlags.pattern)
		setIfChanged(cmd, "study", &c.Study, summaryFlags.study)
		setIntIfChanged(cmd, "parallel", &c.Parallel, summaryFlags.parallel)
	})
	if err != nil {
		return err
	}

	paths, err := ingest.Discover(cfg.LogDir, cfg.Pattern)
	if err != nil {
		return err
	}

	acc := gain.NewAccumulator()
	var st ingest.Stats
	if len(paths) > 0 {
		acc, st, err = ingest.Read(cmd.Context(), paths, cfg.Study, cfg.Parallel)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var s *gain.Summary
	if acc.Empty() {
		fmt.Fprintf(out, "No records for study %q under %s; showing placeholder values.\n", cfg.Study, cfg.LogDir)
		s = gain.NewPlaceholder()
	} else {
		s = acc.Finalize(gain.Real)
	}
	printSummary(out, s, format.ParseMode(summaryFlags.format))

	if st.Files > 0 {
		fmt.Fprintf(out, "Read %d file(s): %d record(s) matched, %d line(s) skipped, %d other-study, %d file(s) unreadable\n",
			st.Files, st.Matched, st.Skipped, st.OtherStudy, st.Unreadable)
	}
	return nil
}

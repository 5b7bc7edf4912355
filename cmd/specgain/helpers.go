package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"specgain/internal/format"
	"specgain/internal/gain"
	"specgain/internal/study"
)

// resolveConfig loads the study config (file if --config is set, defaults
// otherwise) and lets each command layer its changed flags on top. override
// is called with the loaded config before validation.
func resolveConfig(configPath string, override func(*study.Config)) (*study.Config, error) {
	var cfg *study.Config
	if configPath != "" {
		c, err := study.LoadFromPath(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c := study.Default()
		cfg = &c
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setIfChanged copies a flag value only when the user set it, so config
// file values survive unset flags.
func setIfChanged(cmd *cobra.Command, name string, dst *string, val string) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

func setIntIfChanged(cmd *cobra.Command, name string, dst *int, val int) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

// printSummary writes the per-group accuracy table and per-family gains.
func printSummary(w io.Writer, s *gain.Summary, mode format.Mode) {
	fmt.Fprintf(w, "Data source: %s\n\n", s.Provenance)

	tb := format.NewTable(mode)
	tb.Header("Family", "Role", "Routing", "Acc (%)", "N")
	tb.AlignRight(4, 5)
	for _, st := range s.Stats {
		acc := format.Undefined
		if st.Defined {
			acc = format.Pct(st.Accuracy)
		}
		tb.Row(st.Key.Family, st.Key.Role, st.Key.Routing, acc, st.NTotal)
	}
	fmt.Fprintln(w, tb.String())

	if len(s.Gains) > 0 {
		gt := format.NewTable(mode)
		gt.Header("Family", "Routing", "Generalist (%)", "Specialist (%)", "Gain (pp)")
		gt.AlignRight(3, 4, 5)
		for _, g := range s.Gains {
			gt.Row(g.Family, g.Routing,
				format.Pct(g.GeneralistAccuracy),
				format.Pct(g.SpecialistAccuracy),
				format.SignedPP(g.DeltaPP))
		}
		fmt.Fprintln(w, gt.String())
	}

	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

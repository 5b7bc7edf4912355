package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"specgain/internal/artifact"
	"specgain/internal/gain"
	"specgain/internal/study"
)

var placeholderFlags struct {
	config  string
	routing string
	datadir string
	figdir  string
}

var placeholderCmd = &cobra.Command{
	Use:   "placeholder",
	Short: "Write placeholder artifacts without reading any logs",
	Long: `Placeholder writes the artifact set from the fixed illustrative values,
skipping log discovery entirely. Useful for bootstrapping a paper build
before any experiment has run.`,
	RunE: runPlaceholder,
}

func init() {
	f := placeholderCmd.Flags()
	f.StringVar(&placeholderFlags.config, "config", "", "Study config file (YAML/JSON); flags override")
	f.StringVar(&placeholderFlags.routing, "routing-mode", "oracle", "Routing mode the artifacts focus on (oracle, predicted)")
	f.StringVar(&placeholderFlags.datadir, "datadir", "data", "Destination for TeX fragments")
	f.StringVar(&placeholderFlags.figdir, "figdir", "figs", "Destination for plot data")
}

func runPlaceholder(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(placeholderFlags.config, func(c *study.Config) {
		setIfChanged(cmd, "routing-mode", &c.Routing, placeholderFlags.routing)
		setIfChanged(cmd, "datadir", &c.DataDir, placeholderFlags.datadir)
		setIfChanged(cmd, "figdir", &c.FigDir, placeholderFlags.figdir)
	})
	if err != nil {
		return err
	}
	routing, err := cfg.RoutingMode()
	if err != nil {
		return err
	}

	em := &artifact.Emitter{DataDir: cfg.DataDir, FigDir: cfg.FigDir, Routing: routing}
	res, err := em.Emit(gain.NewPlaceholder())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range res.Paths {
		fmt.Fprintf(out, "Artifact: %s\n", p)
	}
	return nil
}

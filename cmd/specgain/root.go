// specgain turns raw experiment logs into the specialization artifacts a
// paper build consumes: TeX callout macros, a results table, and plot data.
//
// Usage:
//
//	specgain report      [--logdir=<dir>] [--routing-mode=<mode>] [--datadir=<dir>] [--figdir=<dir>]
//	specgain summary     [--logdir=<dir>] [--format=markdown]
//	specgain placeholder [--datadir=<dir>] [--figdir=<dir>]
//	specgain history     [--db=<path>] [--run-id=<id>]
//	specgain serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specgain/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "specgain",
	Short: "Specialization-gain reporting for modulation classification studies",
	Long: "Specgain aggregates per-family classification accuracy from experiment\n" +
		"logs and emits the TeX and plot-data artifacts the paper build includes.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return logging.Setup(rootFlags.logLevel, rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(placeholderCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

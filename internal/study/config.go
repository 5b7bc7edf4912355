// Package study holds the run configuration for a reporting pass: which
// study to select, where the experiment logs live, and where the paper
// artifacts go.
package study

import (
	"fmt"

	"specgain/internal/gain"
)

// Config is the study configuration (YAML or JSON file, flags override).
type Config struct {
	Study    string `json:"study" yaml:"study"`       // study name to select from the logs
	Routing  string `json:"routing" yaml:"routing"`   // routing mode the artifacts focus on
	LogDir   string `json:"logdir" yaml:"logdir"`     // directory holding experiment logs
	Pattern  string `json:"pattern" yaml:"pattern"`   // glob matched against log file names
	DataDir  string `json:"datadir" yaml:"datadir"`   // destination for TeX fragments
	FigDir   string `json:"figdir" yaml:"figdir"`     // destination for plot data
	Parallel int    `json:"parallel,omitempty" yaml:"parallel,omitempty"` // log files read concurrently; 0 = serial
	History  string `json:"history,omitempty" yaml:"history,omitempty"`   // run ledger DB path; empty = not recorded
}

// Default returns the configuration used when no file and no flags are given.
func Default() Config {
	return Config{
		Study:   "specialization_per_modulation_family",
		Routing: gain.RoutingOracle.String(),
		LogDir:  "logs",
		Pattern: "metrics_*.jsonl",
		DataDir: "data",
		FigDir:  "figs",
	}
}

// ApplyDefaults fills any field left empty by the config file with its
// default, so partial files stay usable.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Study == "" {
		c.Study = d.Study
	}
	if c.Routing == "" {
		c.Routing = d.Routing
	}
	if c.LogDir == "" {
		c.LogDir = d.LogDir
	}
	if c.Pattern == "" {
		c.Pattern = d.Pattern
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.FigDir == "" {
		c.FigDir = d.FigDir
	}
}

// RoutingMode parses the configured routing mode.
func (c *Config) RoutingMode() (gain.Routing, error) {
	r, err := gain.ParseRouting(c.Routing)
	if err != nil {
		return 0, fmt.Errorf("config routing: %w", err)
	}
	return r, nil
}

// Validate checks the fields that have a closed value set or a range.
func (c *Config) Validate() error {
	if _, err := c.RoutingMode(); err != nil {
		return err
	}
	if c.Parallel < 0 {
		return fmt.Errorf("config parallel: must be >= 0, got %d", c.Parallel)
	}
	if c.Pattern == "" {
		return fmt.Errorf("config pattern: must not be empty")
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "regolith",
	Short: "Regolith - Rego policy engine runtime with rule inventory",
	Long: `Regolith is a Rego policy engine runtime that loads policies from
files or directories, evaluates queries against them, and extracts
per-rule metadata (name, description, source line span) directly from
policy sources.

It provides:
  - Query evaluation with input and external data documents
  - A rule inventory built from policy source text
  - Hot reload of policy sets on file changes
  - Decision logging with configurable retention
  - Evaluation coverage reporting`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

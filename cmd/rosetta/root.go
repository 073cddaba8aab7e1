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
	Use:   "rosetta",
	Short: "Rosetta - client-side admission layer for a shared translation service",
	Long: `Rosetta fronts a shared, rate-limited translation service and decides
whether outgoing requests may proceed now, must wait, or must be rejected.

It combines:
  - A token bucket that smooths bursts of outgoing calls
  - A day-scoped ledger enforcing a daily character quota per identity
  - Threshold classification (normal / warning / critical) on admission
  - Pseudonymous tracking identities derived from caller tokens

Usage state is persisted locally, so quota accounting survives restarts
within the same UTC day.`,
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
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "rosetta.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

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
	Use:   "saturn",
	Short: "Saturn - usage governance engine for AI token spend",
	Long: `Saturn tracks per-session AI token consumption, converts it to cost
through a per-model price table, and governs spend against daily, weekly
and monthly limits.

It provides:
  - Session log ingestion into a durable usage ledger
  - Deduplicated warning and critical limit alerts
  - Cumulative spend milestone alerts
  - Interactive limit updates from alert replies
  - Scheduled retention pruning of session artifacts`,
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

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendwatch-hq/saturn/pkg/cli"
	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/periods"
)

var evaluateFlags struct {
	skipIngest bool
	format     string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one evaluation pass and exit",
	Long: `Run a single ingest-and-evaluate pass: pull session logs into the
ledger, compare spend against the limits, and deliver any alerts.

Examples:
  # Ingest and evaluate
  saturn evaluate

  # Evaluate the current ledger without ingesting
  saturn evaluate --skip-ingest`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateFlags.skipIngest, "skip-ingest", false, "evaluate without ingesting session logs first")
	evaluateCmd.Flags().StringVar(&evaluateFlags.format, "format", "text", "output format (text or json)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfgFile, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if !evaluateFlags.skipIngest && len(a.cfg.Ingest.Globs) > 0 {
		stats, err := ledger.NewIngestor(a.ledger, a.table, nil).IngestGlobs(ctx, a.cfg.Ingest.Globs)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d events from %d files (%d lines skipped)\n",
			stats.Appended, stats.Files, stats.Skipped)
	}

	result, err := a.engine.Evaluate(ctx, time.Now())
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	if evaluateFlags.format != "text" {
		formatter, err := cli.NewFormatter(cli.OutputFormat(evaluateFlags.format))
		if err != nil {
			return err
		}
		return formatter.FormatTo(cmd.OutOrStdout(), result)
	}

	for _, kind := range periods.Kinds {
		fmt.Printf("%-8s %s: $%.2f / $%.2f\n",
			kind, result.Keys[kind], result.Spend[kind], result.Limits.LimitFor(kind))
	}
	fmt.Printf("Cumulative: $%.2f\n", result.CumulativeTotal)

	for _, alert := range result.ThresholdAlerts {
		fmt.Printf("ALERT [%s] %s spend at %.1f%% of limit ($%.2f / $%.2f)\n",
			alert.Level, alert.Kind, alert.Fraction*100, alert.Spend, alert.Limit)
	}
	for _, alert := range result.MilestoneAlerts {
		fmt.Printf("MILESTONE $%.2f crossed (total $%.2f)\n", alert.Milestone, alert.Total)
	}
	if len(result.ThresholdAlerts) == 0 && len(result.MilestoneAlerts) == 0 {
		fmt.Println("No new alerts")
	}

	return nil
}

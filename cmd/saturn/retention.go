package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendwatch-hq/saturn/pkg/retention"
)

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Run one retention pass and exit",
	Long: `Run a single retention pass: expire old session logs, keep only the
most recent sessions, truncate session contexts, expire audit logs,
consolidate old memory files and prune the usage ledger.

The pass takes the configured lock file, so it is safe to run alongside a
daemon whose scheduler would otherwise collide with it.`,
	RunE: runRetention,
}

func init() {
	rootCmd.AddCommand(retentionCmd)
}

func runRetention(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfgFile, false)
	if err != nil {
		return err
	}
	defer a.Close()

	pruner := retention.NewPruner(a.cfg.Retention, a.ledger, retention.NewConsolidator(a.cfg.Retention), nil)
	report, err := pruner.Run(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	fmt.Print(report.Render())
	if len(report.Failures) > 0 {
		return fmt.Errorf("retention pass completed with %d failures", len(report.Failures))
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendwatch-hq/saturn/pkg/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the usage dashboard",
	Long: `Print a plain-text report of current usage: totals, per-model
breakdown, limit status per period and milestone progress.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfgFile, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	snap, err := a.states.Load(ctx)
	if err != nil {
		return err
	}

	out, err := dashboard.NewBuilder(a.ledger, a.table, a.loc).Build(
		ctx, time.Now(), snap.Limits, snap.LastMilestone, a.cfg.Engine.MilestoneIncrement)
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}

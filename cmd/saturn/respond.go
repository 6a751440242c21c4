package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var respondCmd = &cobra.Command{
	Use:   "respond <reply>",
	Short: "Apply a reply to a critical alert",
	Long: `Apply the user's reply to a critical limit alert.

Accepted replies:
  15        set the daily limit to $15.00
  +5        increase the daily limit by $5.00
  keep      keep the current limit (also: no, skip)
  disable   turn off critical alerts, limits unchanged

Weekly and monthly limits are rescaled proportionally whenever the daily
limit changes.

Examples:
  saturn respond 15
  saturn respond +5
  saturn respond keep`,
	Args: cobra.ExactArgs(1),
	RunE: runRespond,
}

func init() {
	rootCmd.AddCommand(respondCmd)
}

func runRespond(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfgFile, false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.engine.ApplyResponse(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println("Limit configuration updated:")
	fmt.Printf("  Daily:   $%.2f\n", cfg.DailyLimit)
	fmt.Printf("  Weekly:  $%.2f\n", cfg.WeeklyLimit)
	fmt.Printf("  Monthly: $%.2f\n", cfg.MonthlyLimit)
	if !cfg.CriticalAlertsEnabled {
		fmt.Println("  Critical alerts: disabled")
	}
	fmt.Printf("  Next alerts fire at %.0f%% and %.0f%%\n",
		cfg.WarningFraction*100, cfg.CriticalFraction*100)

	return nil
}

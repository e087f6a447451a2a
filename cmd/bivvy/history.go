package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long: `Display the runs recorded in .bivvy/history.yml, newest first.

Every run that is not a dry run is recorded with its workflow,
environment, duration, outcome and the steps it ran or skipped.

Examples:
  bivvy history                 # Show recent runs
  bivvy history --limit 50      # Show more runs`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show (0 for all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("invalid limit %d: must not be negative", historyLimit)
	}
	bivvy, err := newBivvy(cmd)
	if err != nil {
		return err
	}
	if _, err := bivvy.History(cmd.Context(), historyLimit); err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bivvy/internal/app"
)

var planCmd = &cobra.Command{
	Use:   "plan [workflow]",
	Short: "Show what a run would do",
	Long: `Plan orders the steps of a workflow and evaluates their completed
checks without running anything.

It prints every step with what a run would do with it, followed by the
dependency groups: steps in the same group do not depend on each other.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

var (
	planOnly         []string
	planSkip         []string
	planSkipBehavior string
	planForce        []string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringSliceVar(&planOnly, "only", nil, "Plan only these steps")
	planCmd.Flags().StringSliceVar(&planSkip, "skip", nil, "Skip these steps")
	planCmd.Flags().StringVar(&planSkipBehavior, "skip-behavior", "skip-with-dependents", "How skipped steps affect dependents")
	planCmd.Flags().StringSliceVar(&planForce, "force", nil, "Treat these steps as not complete")
}

func runPlan(cmd *cobra.Command, args []string) error {
	bivvy, err := newBivvy(cmd)
	if err != nil {
		return err
	}

	_, err = bivvy.Plan(cmd.Context(), app.PlanOptions{
		Workflow:     firstArg(args),
		Environment:  envName,
		Only:         planOnly,
		Skip:         planSkip,
		SkipBehavior: planSkipBehavior,
		Force:        planForce,
	})
	return err
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bivvy/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Run a setup workflow",
	Long: `Run executes the steps of a workflow in dependency order.

Steps whose completed check passes are skipped. Requirements a step
declares are checked first; missing tools can be installed, inactive
version managers activated and stopped services started.

Examples:
  bivvy run                          # Run the default workflow
  bivvy run quick                    # Run the "quick" workflow
  bivvy run --only deps,db           # Run only some steps
  bivvy run --skip seed              # Skip a step and its dependents
  bivvy run --force deps             # Run a step even if complete
  bivvy run --dry-run                # Print commands without running them`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runOnly         []string
	runSkip         []string
	runSkipBehavior string
	runForce        []string
	runDryRun       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Run only these steps")
	runCmd.Flags().StringSliceVar(&runSkip, "skip", nil, "Skip these steps")
	runCmd.Flags().StringVar(&runSkipBehavior, "skip-behavior", "skip-with-dependents", "How skipped steps affect dependents (skip-with-dependents, skip-only, run-anyway)")
	runCmd.Flags().StringSliceVar(&runForce, "force", nil, "Run these steps even if already complete")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show commands without running them")

	_ = runCmd.RegisterFlagCompletionFunc("skip-behavior", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"skip-with-dependents\tAlso skip steps that depend on skipped ones",
			"skip-only\tSkip exactly the named steps",
			"run-anyway\tIgnore --skip",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runRun(cmd *cobra.Command, args []string) error {
	bivvy, err := newBivvy(cmd)
	if err != nil {
		return err
	}

	_, err = bivvy.Run(cmd.Context(), app.RunOptions{
		Workflow:     firstArg(args),
		Environment:  envName,
		Only:         runOnly,
		Skip:         runSkip,
		SkipBehavior: runSkipBehavior,
		Force:        runForce,
		DryRun:       runDryRun,
	})
	return err
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

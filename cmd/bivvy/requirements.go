package main

import (
	"github.com/spf13/cobra"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Check the tools and services steps require",
	Long: `Requirements checks every requirement declared by a step of the
active environment and prints its status. Nothing is installed, activated
or started.`,
	Aliases: []string{"reqs"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		bivvy, err := newBivvy(cmd)
		if err != nil {
			return err
		}
		_, err = bivvy.Requirements(cmd.Context(), envName)
		return err
	},
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
}

package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows and steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		bivvy, err := newBivvy(cmd)
		if err != nil {
			return err
		}
		bivvy.List()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

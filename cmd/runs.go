package main

import (
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs <batch-id>",
	Short: "List pipeline runs for a batch, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		runs, err := env.Store.ListRuns(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(runs)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

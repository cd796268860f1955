package main

import (
	"github.com/spf13/cobra"

	"repowiki/internal/wiki"
)

var diffCmd = &cobra.Command{
	Use:   "diff <snapshot>",
	Short: "Show what an update would change",
	Long:  "Reconciles a snapshot against the persisted collection without writing state, pages or history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args[0], wiki.Options{DryRun: true}, wiki.WithoutHistory())
}

package main

import (
	"github.com/spf13/cobra"

	"repowiki/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := version.Current()
		return printResponse(cmd, &b)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

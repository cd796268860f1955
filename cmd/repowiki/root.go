package main

import (
	"repowiki/internal/version"

	"github.com/spf13/cobra"
)

var (
	rootFlag    string
	formatFlag  string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "repowiki",
	Short: "repowiki - categorized wiki of crawled GitHub repositories",
	Long: `repowiki classifies crawled repository listings into categories, tags and
scores every repository, reconciles each new crawl against the persisted
collection and regenerates a category report and markdown wiki pages.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("repowiki version {{.Version}}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", ".", "Workspace root directory")
	pf.StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress log output")
}

package main

import (
	"github.com/spf13/cobra"

	"repowiki/internal/wiki"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the collection",
	Long:  "Displays the persisted collection, its backups and the most recent update run",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ws, err := s.workspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, cancel := newContext()
	defer cancel()
	st, err := ws.Status(ctx)
	if err != nil {
		return err
	}
	return printResponse(cmd, &StatusResponseCLI{Root: s.root, Status: st})
}

// StatusResponseCLI wraps the workspace status for output.
type StatusResponseCLI struct {
	Root string `json:"root"`
	*wiki.Status
}

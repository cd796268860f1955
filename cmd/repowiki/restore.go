package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [backup]",
	Short: "Replace the collection with a backup",
	Long: `Restores the state file from one of the backups listed by 'repowiki status'.
Without an argument the newest backup is used. The current state is backed up
first, so a restore can itself be undone. Run 'repowiki update --force' to
regenerate the report and pages afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
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
	if ws.Backups == nil {
		return fmt.Errorf("backups are disabled (backups.enabled is false)")
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else {
		names, err := ws.Backups.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no backups to restore")
		}
		name = names[len(names)-1]
	}

	st, err := ws.Store.Restore(name)
	if err != nil {
		return err
	}
	return printResponse(cmd, &RestoreResponseCLI{
		Backup:      name,
		DataFile:    ws.Store.Path(),
		Records:     len(st.Repositories),
		LastUpdated: st.LastUpdated,
	})
}

// RestoreResponseCLI reports a completed restore.
type RestoreResponseCLI struct {
	Backup      string `json:"backup"`
	DataFile    string `json:"dataFile"`
	Records     int    `json:"records"`
	LastUpdated string `json:"lastUpdated"`
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"repowiki/internal/history"
)

var (
	historyLimit int
	historyPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List update runs or show the changes of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list (0 for all)")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Delete all but the newest N runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
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
	if ws.History == nil {
		return fmt.Errorf("run history is disabled (historyDB is empty)")
	}

	ctx, cancel := newContext()
	defer cancel()

	if historyPrune > 0 {
		n, err := ws.History.Prune(ctx, historyPrune)
		if err != nil {
			return err
		}
		s.logger.Info("Pruned run history", "deleted", n, "kept", historyPrune)
	}

	if len(args) == 1 {
		run, err := ws.History.Get(ctx, args[0])
		if err != nil {
			return err
		}
		changes, err := ws.History.Changes(ctx, run.ID)
		if err != nil {
			return err
		}
		return printResponse(cmd, &RunDetailCLI{Run: run, Changes: changes})
	}

	runs, err := ws.History.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	return printResponse(cmd, &HistoryResponseCLI{Runs: runs})
}

// HistoryResponseCLI lists recent runs, newest first.
type HistoryResponseCLI struct {
	Runs []history.Run `json:"runs"`
}

// RunDetailCLI is one run with its recorded changes.
type RunDetailCLI struct {
	*history.Run
	Changes []history.ChangeRow `json:"changes"`
}

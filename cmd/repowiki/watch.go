package main

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"repowiki/internal/source"
	"repowiki/internal/watcher"
	"repowiki/internal/wiki"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch <snapshot>",
	Short: "Run an update whenever the snapshot changes",
	Long: `Watches a snapshot file or directory of pages and runs an update pass after
each burst of changes settles. Runs never overlap.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "Do not run an update before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	u, err := ws.Updater()
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	snapshot := args[0]
	var mu sync.Mutex
	pass := func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		raws, err := source.ReadFile(snapshot)
		if err != nil {
			s.logger.Error("Cannot read snapshot", "path", snapshot, "error", err.Error())
			return
		}
		res, err := u.Update(ctx, raws, wiki.Options{Source: snapshot})
		if err != nil {
			s.logger.Error("Update failed", "error", err.Error())
			return
		}
		if err := printResponse(cmd, convertUpdateResult(res, snapshot, time.Since(start))); err != nil {
			s.logger.Warn("Failed to print result", "error", err.Error())
		}
	}

	if !watchSkipInitial {
		pass(ctx)
	}

	debounce := time.Duration(s.cfg.Watch.DebounceMs) * time.Millisecond
	w, err := watcher.New(snapshot, debounce, func(events []watcher.Event) {
		s.logger.Info("Snapshot changed", "events", len(events))
		pass(ctx)
	}, s.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

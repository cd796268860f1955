package main

import (
	"time"

	"github.com/spf13/cobra"

	"repowiki/internal/model"
	"repowiki/internal/source"
	"repowiki/internal/wiki"
)

var (
	updateForce  bool
	updateDryRun bool
)

var updateCmd = &cobra.Command{
	Use:   "update <snapshot>",
	Short: "Reconcile a crawl snapshot into the collection",
	Long: `Reads a crawl snapshot (JSON file, saved HTML listing page or a directory of
pages), reconciles it against the persisted collection and, when anything
changed, backs up the old state and rewrites the state file, category report
and wiki pages.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Rewrite outputs even when nothing changed")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Compute the diff without writing anything")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, args[0], wiki.Options{Force: updateForce, DryRun: updateDryRun})
}

// runPipeline reads snapshot and runs one update pass with opts.
func runPipeline(cmd *cobra.Command, snapshot string, opts wiki.Options, wsOpts ...wiki.Option) error {
	start := time.Now()
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	raws, err := source.ReadFile(snapshot)
	if err != nil {
		return err
	}
	ws, err := s.workspace(wsOpts...)
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

	opts.Source = snapshot
	res, err := u.Update(ctx, raws, opts)
	if err != nil {
		return err
	}
	return printResponse(cmd, convertUpdateResult(res, snapshot, time.Since(start)))
}

// UpdateResponseCLI is the CLI view of one update pass.
type UpdateResponseCLI struct {
	RunID      string             `json:"runId,omitempty"`
	Status     string             `json:"status"`
	Source     string             `json:"source"`
	Observed   int                `json:"observed"`
	Skipped    int                `json:"skipped"`
	Duplicates []string           `json:"duplicates,omitempty"`
	Total      int                `json:"total"`
	Added      []RecordLineCLI    `json:"added"`
	Updated    []ChangeLineCLI    `json:"updated"`
	Removed    []RecordLineCLI    `json:"removed"`
	Categories []CategoryCountCLI `json:"categories"`
	DurationMs int64              `json:"durationMs"`
}

// RecordLineCLI identifies one added or removed record.
type RecordLineCLI struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ChangeLineCLI is one updated record with the fields that changed.
type ChangeLineCLI struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// CategoryCountCLI is the size of one category after the pass.
type CategoryCountCLI struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func convertUpdateResult(res *wiki.Result, snapshot string, took time.Duration) *UpdateResponseCLI {
	resp := &UpdateResponseCLI{
		RunID:      res.RunID,
		Status:     string(res.Status),
		Source:     snapshot,
		Observed:   res.Observed,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
		Total:      res.Total,
		Added:      recordLines(res.Diff.Added),
		Removed:    recordLines(res.Diff.Removed),
		Updated:    make([]ChangeLineCLI, 0, len(res.Diff.Updated)),
		DurationMs: took.Milliseconds(),
	}
	for _, ch := range res.Diff.Updated {
		resp.Updated = append(resp.Updated, ChangeLineCLI{Key: ch.Key, Name: ch.After.Name, Fields: ch.Fields})
	}
	if res.Enrichment != nil {
		for _, v := range res.Enrichment.Categories {
			resp.Categories = append(resp.Categories, CategoryCountCLI{Key: v.Key, Name: v.Name, Count: v.Count})
		}
	}
	return resp
}

func recordLines(recs []model.Record) []RecordLineCLI {
	out := make([]RecordLineCLI, 0, len(recs))
	for _, r := range recs {
		out = append(out, RecordLineCLI{Key: r.Key(), Name: r.Name})
	}
	return out
}

// Package wiki wires the source feed, reconciliation, enrichment and
// renderers into the update pipeline.
package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"repowiki/internal/enrich"
	"repowiki/internal/history"
	"repowiki/internal/metrics"
	"repowiki/internal/model"
	"repowiki/internal/reconcile"
	"repowiki/internal/report"
	"repowiki/internal/slogutil"
	"repowiki/internal/store"
)

// Updater runs update passes against one workspace.
type Updater struct {
	enricher    *enrich.Enricher
	store       *store.Store
	reportPath  string
	site        *report.Site
	history     *history.Store
	metrics     *metrics.Metrics
	metricsPath string
	logger      *slog.Logger
	now         func() time.Time
}

// Config holds the Updater collaborators. Store and Enricher are required;
// the rest are skipped when nil or empty.
type Config struct {
	Enricher    *enrich.Enricher
	Store       *store.Store
	ReportPath  string
	Site        *report.Site
	History     *history.Store
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewUpdater creates an Updater.
func NewUpdater(cfg Config) (*Updater, error) {
	if cfg.Enricher == nil || cfg.Store == nil {
		return nil, fmt.Errorf("updater needs an enricher and a store")
	}
	if cfg.Logger == nil {
		cfg.Logger = slogutil.NewDiscardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Updater{
		enricher:    cfg.Enricher,
		store:       cfg.Store,
		reportPath:  cfg.ReportPath,
		site:        cfg.Site,
		history:     cfg.History,
		metrics:     cfg.Metrics,
		metricsPath: cfg.MetricsPath,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}, nil
}

// Options controls one update pass.
type Options struct {
	Source string // label stored in history
	Force  bool   // write even when nothing changed
	DryRun bool   // never write state, report or pages
}

// Result is the outcome of one update pass.
type Result struct {
	RunID      string               `json:"runId"`
	Status     history.RunStatus    `json:"status"`
	Observed   int                  `json:"observed"`
	Skipped    int                  `json:"skipped"`
	Duplicates []string             `json:"duplicates,omitempty"`
	Diff       reconcile.Diff       `json:"diff"`
	Total      int                  `json:"total"`
	Enrichment *enrich.Result       `json:"enrichment"`
	Manifest   *report.Manifest     `json:"-"`
	Next       reconcile.Collection `json:"-"`

	prevFingerprint string
}

// Update reconciles the persisted collection against raws, re-enriches the
// next state and, when something changed or Force is set, replaces the
// state file, report and pages.
func (u *Updater) Update(ctx context.Context, raws []model.RawRecord, opts Options) (*Result, error) {
	started := u.now()
	run := history.NewRun(opts.Source, started)
	run.Forced = opts.Force
	log := u.logger.With("run", run.ID[:8])

	res, err := u.update(log, raws, opts)
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
		run.Observed = len(raws)
	} else {
		res.RunID = run.ID
		run.Status = res.Status
		run.Observed = res.Observed
		run.Skipped = res.Skipped
		run.Counts = res.Diff.Counts()
		run.Total = res.Total
		run.NextFingerprint = store.Fingerprint(res.Next.Records())
	}
	run.FinishedAt = u.now()
	if res != nil {
		run.PrevFingerprint = res.prevFingerprint
	}

	u.recordRun(ctx, log, run, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *Updater) update(log *slog.Logger, raws []model.RawRecord, opts Options) (*Result, error) {
	recs, dropped := enrich.NormalizeBatch(raws)
	for _, err := range dropped {
		log.Warn("Dropping record without identity", "error", err.Error())
	}

	dups := reconcile.Duplicates(recs)
	if len(dups) > 0 {
		log.Warn("Observed batch repeats records, keeping first occurrence", "keys", dups)
	}
	observed := reconcile.NewCollection(recs)

	prev, err := u.store.Previous()
	if err != nil {
		return nil, err
	}
	prevFP := ""
	if prev.Len() > 0 {
		prevFP = store.Fingerprint(prev.Records())
	}

	diff, next := reconcile.Reconcile(prev, observed)
	log.Info("Reconciled collection",
		"previous", prev.Len(),
		"observed", observed.Len(),
		"added", len(diff.Added),
		"updated", len(diff.Updated),
		"removed", len(diff.Removed),
	)
	for _, ch := range diff.Updated {
		log.Debug("Record changed", "key", ch.Key, "fields", ch.Fields)
	}

	enriched, err := u.enricher.EnrichRecords(next.Records())
	if err != nil {
		return nil, err
	}
	enriched.Skipped = len(dropped)

	res := &Result{
		Observed:        len(raws),
		Skipped:         len(dropped),
		Duplicates:      dups,
		Diff:            diff,
		Total:           enriched.Total,
		Enrichment:      enriched,
		Next:            reconcile.NewCollection(enriched.Records),
		prevFingerprint: prevFP,
	}

	switch {
	case opts.DryRun:
		res.Status = history.StatusDryRun
		log.Info("Dry run, nothing written")
		return res, nil
	case diff.Empty() && !opts.Force:
		res.Status = history.StatusUnchanged
		log.Info("No changes detected, collection is up to date")
		return res, nil
	}

	if err := u.write(res); err != nil {
		return nil, err
	}
	res.Status = history.StatusApplied
	return res, nil
}

func (u *Updater) write(res *Result) error {
	if _, err := u.store.Save(res.Next, res.Enrichment.Categories); err != nil {
		return err
	}
	if u.reportPath != "" {
		if err := report.WriteJSON(u.reportPath, report.Build(res.Enrichment, u.now())); err != nil {
			return fmt.Errorf("failed to write category report: %w", err)
		}
	}
	if u.site != nil {
		m, err := u.site.Write(res.Enrichment)
		if err != nil {
			return err
		}
		res.Manifest = m
	}
	return nil
}

func (u *Updater) recordRun(ctx context.Context, log *slog.Logger, run *history.Run, res *Result) {
	if u.history != nil {
		d := reconcile.Diff{}
		if res != nil {
			d = res.Diff
		}
		if err := u.history.Record(ctx, run, d); err != nil {
			log.Warn("Failed to record run history", "error", err.Error())
		}
	}

	if u.metrics == nil {
		return
	}
	obs := metrics.Run{
		Status:   string(run.Status),
		Counts:   run.Counts,
		Total:    run.Total,
		Skipped:  run.Skipped,
		Duration: run.FinishedAt.Sub(run.StartedAt),
		Finished: run.FinishedAt,
		Failed:   run.Status == history.StatusFailed,
	}
	if res != nil && res.Enrichment != nil {
		obs.Categories = make(map[string]int, len(res.Enrichment.Categories))
		for _, v := range res.Enrichment.Categories {
			obs.Categories[v.Key] = v.Count
		}
	}
	u.metrics.ObserveRun(obs)
	if u.metricsPath != "" {
		if err := u.metrics.WriteTextfile(u.metricsPath); err != nil {
			log.Warn("Failed to write metrics textfile", "path", u.metricsPath, "error", err.Error())
		}
	}
}

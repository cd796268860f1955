package wiki

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"repowiki/internal/config"
	"repowiki/internal/enrich"
	"repowiki/internal/history"
	"repowiki/internal/metrics"
	"repowiki/internal/report"
	"repowiki/internal/rules"
	"repowiki/internal/slogutil"
	"repowiki/internal/store"
)

// SiteTitle heads the generated index page.
const SiteTitle = "GitHub Repository Wiki"

// Workspace is a configured repowiki root with its open resources.
type Workspace struct {
	Root     string
	Config   *config.Config
	Rules    *rules.Ruleset
	Enricher *enrich.Enricher
	Store    *store.Store
	Backups  *store.Backups
	History  *history.Store
	Metrics  *metrics.Metrics
	Site     *report.Site

	logger *slog.Logger
	now    func() time.Time
}

// Option configures Open.
type Option func(*Workspace)

// WithClock overrides the clock for scoring, stamps and history.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithoutHistory skips opening the history database.
func WithoutHistory() Option {
	return func(w *Workspace) { w.History = nil; w.Config.HistoryDB = "" }
}

// Open loads rules and opens stores for root according to cfg.
func Open(root string, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Workspace, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	cfgCopy := *cfg
	w := &Workspace{Root: root, Config: &cfgCopy, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}

	rs, err := rules.Load(config.Resolve(root, w.Config.RulesFile))
	if err != nil {
		return nil, err
	}
	w.Rules = rs
	w.Enricher = enrich.New(rs, logger, enrich.WithClock(w.now))

	storeOpts := []store.Option{store.WithLogger(logger), store.WithClock(w.now)}
	if w.Config.Backups.Enabled {
		w.Backups = store.NewBackups(filepath.Join(root, config.Dir, "backups"), w.Config.Backups.Keep)
		storeOpts = append(storeOpts, store.WithBackups(w.Backups))
	}
	w.Store = store.New(config.Resolve(root, w.Config.DataFile), storeOpts...)

	if w.Config.DocsDir != "" {
		w.Site = report.NewSite(config.Resolve(root, w.Config.DocsDir), report.NewRenderer(SiteTitle, w.now), logger)
	}
	if w.Config.Metrics.Textfile != "" {
		w.Metrics = metrics.New()
	}
	if w.Config.HistoryDB != "" {
		h, err := history.Open(config.Resolve(root, w.Config.HistoryDB), logger)
		if err != nil {
			return nil, err
		}
		w.History = h
	}
	return w, nil
}

// Close releases the history database.
func (w *Workspace) Close() error {
	if w.History != nil {
		return w.History.Close()
	}
	return nil
}

// Updater builds the update pipeline for this workspace.
func (w *Workspace) Updater() (*Updater, error) {
	return NewUpdater(Config{
		Enricher:    w.Enricher,
		Store:       w.Store,
		ReportPath:  config.Resolve(w.Root, w.Config.ReportFile),
		Site:        w.Site,
		History:     w.History,
		Metrics:     w.Metrics,
		MetricsPath: config.Resolve(w.Root, w.Config.Metrics.Textfile),
		Logger:      w.logger,
		Now:         w.now,
	})
}

// Status summarizes the persisted state of a workspace.
type Status struct {
	DataFile    string         `json:"dataFile"`
	Exists      bool           `json:"exists"`
	Malformed   string         `json:"malformed,omitempty"`
	Records     int            `json:"records"`
	LastUpdated string         `json:"lastUpdated,omitempty"`
	Categories  map[string]int `json:"categories,omitempty"`
	SizeBytes   int64          `json:"sizeBytes"`
	Backups     []string       `json:"backups,omitempty"`
	RulesSource string         `json:"rulesSource"`
	LastRun     *history.Run   `json:"lastRun,omitempty"`
}

// Status reads the state file, backups and newest history entry.
func (w *Workspace) Status(ctx context.Context) (*Status, error) {
	st := &Status{DataFile: w.Store.Path(), RulesSource: "builtin"}
	if w.Config.RulesFile != "" {
		st.RulesSource = config.Resolve(w.Root, w.Config.RulesFile)
	}

	if info, err := os.Stat(w.Store.Path()); err == nil {
		st.Exists = true
		st.SizeBytes = info.Size()
		doc, err := w.Store.Read()
		if err != nil {
			st.Malformed = err.Error()
		} else {
			st.Records = len(doc.Repositories)
			st.LastUpdated = doc.LastUpdated
			st.Categories = make(map[string]int, len(doc.Categories))
			for k, recs := range doc.Categories {
				st.Categories[k] = len(recs)
			}
		}
	}

	if w.Backups != nil {
		names, err := w.Backups.List()
		if err != nil {
			return nil, err
		}
		st.Backups = names
	}
	if w.History != nil {
		last, err := w.History.Last(ctx)
		if err != nil {
			return nil, err
		}
		st.LastRun = last
	}
	return st, nil
}

// Package enrich classifies, tags, grades and scores repository records and
// groups them into category views.
package enrich

import (
	"log/slog"
	"sort"
	"time"

	"repowiki/internal/model"
	"repowiki/internal/rules"
	"repowiki/internal/slogutil"
)

// Enricher runs the four scoring components over a batch.
type Enricher struct {
	rules      *rules.Ruleset
	classifier *Classifier
	tags       *TagGenerator
	difficulty *DifficultyEstimator
	quality    *QualityScorer
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used for the recency bonus.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates an Enricher over rs. A nil logger discards output.
func New(rs *rules.Ruleset, logger *slog.Logger, opts ...Option) *Enricher {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Enricher{
		rules:      rs,
		classifier: NewClassifier(rs),
		tags:       NewTagGenerator(rs),
		difficulty: NewDifficultyEstimator(rs),
		quality:    NewQualityScorer(rs, o.now),
		logger:     logger,
	}
}

// Classifier exposes the classifier for score breakdowns.
func (e *Enricher) Classifier() *Classifier {
	return e.classifier
}

// Result is the outcome of one enrichment pass.
type Result struct {
	Total      int                  `json:"total"`
	Skipped    int                  `json:"skipped"`
	Categories []model.CategoryView `json:"categories"`
	Records    []model.Record       `json:"-"`
}

// Category returns the view for key, if non-empty.
func (r *Result) Category(key string) (model.CategoryView, bool) {
	for _, c := range r.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return model.CategoryView{}, false
}

// EnrichOne derives category, tags, difficulty and quality for a normalized
// record. Previously derived fields are recomputed.
func (e *Enricher) EnrichOne(rec model.Record) (model.Record, error) {
	out := rec.Stripped()
	out.Category = e.classifier.Classify(out)
	out.Tags = e.tags.Tags(out, out.Category)
	out.Difficulty = e.difficulty.Difficulty(out, out.Category)

	score, err := e.quality.Score(out)
	if err != nil {
		return model.Record{}, err
	}
	out.QualityScore = score
	return out, nil
}

// Enrich normalizes and enriches a raw batch. Records without identity are
// logged and skipped; a scoring error aborts the pass.
func (e *Enricher) Enrich(raws []model.RawRecord) (*Result, error) {
	recs := make([]model.Record, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			e.logger.Warn("Dropping record without identity",
				"index", i,
				"error", err.Error(),
			)
			skipped++
			continue
		}
		recs = append(recs, rec)
	}

	res, err := e.EnrichRecords(recs)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	return res, nil
}

// EnrichRecords enriches already-normalized records.
func (e *Enricher) EnrichRecords(recs []model.Record) (*Result, error) {
	enriched := make([]model.Record, 0, len(recs))
	groups := make(map[string][]model.Record)
	var order []string

	for _, rec := range recs {
		out, err := e.EnrichOne(rec)
		if err != nil {
			e.logger.Error("Scoring contract violated",
				"key", rec.Key(),
				"error", err.Error(),
			)
			return nil, err
		}
		enriched = append(enriched, out)
		if _, seen := groups[out.Category]; !seen {
			order = append(order, out.Category)
		}
		groups[out.Category] = append(groups[out.Category], out)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return e.rules.Index(order[i]) < e.rules.Index(order[j])
	})

	res := &Result{
		Total:      len(enriched),
		Categories: make([]model.CategoryView, 0, len(order)),
		Records:    enriched,
	}
	for _, key := range order {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].QualityScore > members[j].QualityScore
		})

		name, desc, prio := e.rules.Describe(key)
		res.Categories = append(res.Categories, model.CategoryView{
			Key:          key,
			Name:         name,
			Description:  desc,
			Count:        len(members),
			Priority:     prio,
			Repositories: members,
		})
	}

	e.logger.Debug("Enrichment complete",
		"records", res.Total,
		"categories", len(res.Categories),
	)
	return res, nil
}

package enrich

import (
	"strings"

	"repowiki/internal/model"
	"repowiki/internal/rules"
)

// DifficultyEstimator assigns an entry level from keyword heuristics.
type DifficultyEstimator struct {
	rules *rules.Ruleset
}

// NewDifficultyEstimator creates an estimator over rs.
func NewDifficultyEstimator(rs *rules.Ruleset) *DifficultyEstimator {
	return &DifficultyEstimator{rules: rs}
}

// Difficulty returns the level of the first keyword rule that matches the
// name or description. Otherwise the category default applies, and
// beginner when the category declares none.
func (d *DifficultyEstimator) Difficulty(rec model.Record, category string) model.Difficulty {
	name, desc := rec.Lower()
	for _, rule := range d.rules.LevelRules() {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) || strings.Contains(desc, kw) {
				return rule.Level
			}
		}
	}
	if c, ok := d.rules.Category(category); ok && c.DefaultDifficulty != "" {
		return c.DefaultDifficulty
	}
	return model.Beginner
}

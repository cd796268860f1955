package enrich

import (
	"math"
	"strconv"
	"strings"
	"time"

	"repowiki/internal/errors"
	"repowiki/internal/model"
	"repowiki/internal/rules"
)

// Quality score terms.
const (
	baseScore     = 5.0
	languageBonus = 1.0
	licenseBonus  = 1.0
	recencyBonus  = 0.5
	starWeight    = 0.001
	maxScore      = 10.0
)

// QualityScorer computes a 0-10 score from language, license, recency and
// stars. The recency term depends on the clock's current year.
type QualityScorer struct {
	rules *rules.Ruleset
	now   func() time.Time
}

// NewQualityScorer creates a scorer. A nil clock means time.Now.
func NewQualityScorer(rs *rules.Ruleset, now func() time.Time) *QualityScorer {
	if now == nil {
		now = time.Now
	}
	return &QualityScorer{rules: rs, now: now}
}

// Score returns the clamped score rounded to one decimal.
func (q *QualityScorer) Score(rec model.Record) (float64, error) {
	if rec.Stars < 0 {
		return 0, errors.New(errors.ScoringDomain, "negative star count", nil).
			WithDetails(map[string]interface{}{"key": rec.Key(), "stars": rec.Stars})
	}

	score := baseScore
	if q.rules.Popular(strings.ToLower(rec.Language)) {
		score += languageBonus
	}
	if strings.Contains(rec.License, "MIT") {
		score += licenseBonus
	}
	if strings.Contains(rec.LastUpdated, strconv.Itoa(q.now().Year())) {
		score += recencyBonus
	}
	score += float64(rec.Stars) * starWeight

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, errors.New(errors.ScoringDomain, "non-finite quality score", nil).
			WithDetails(map[string]interface{}{"key": rec.Key()})
	}
	return roundTenth(math.Max(0, math.Min(score, maxScore))), nil
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

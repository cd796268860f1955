package enrich

import (
	"strings"

	"repowiki/internal/model"
	"repowiki/internal/rules"
)

// Score weights.
const (
	keywordWeight  = 3
	languageWeight = 2
	patternWeight  = 2
)

// CategoryScore is the score breakdown of one category for one record.
type CategoryScore struct {
	Category string `json:"category"`
	Keywords int    `json:"keywords"`
	Language int    `json:"language"`
	Patterns int    `json:"patterns"`
	Total    int    `json:"total"`
}

// Classifier assigns exactly one category to a record.
type Classifier struct {
	rules *rules.Ruleset
}

// NewClassifier creates a classifier over rs.
func NewClassifier(rs *rules.Ruleset) *Classifier {
	return &Classifier{rules: rs}
}

// Classify returns the highest-scoring category. Ties go to the category
// declared first; when nothing scores, the default category is returned.
func (c *Classifier) Classify(rec model.Record) string {
	best, bestScore := "", 0
	for _, s := range c.Scores(rec) {
		if s.Total > bestScore {
			best, bestScore = s.Category, s.Total
		}
	}
	if bestScore == 0 {
		return c.rules.DefaultCategory()
	}
	return best
}

// Scores returns the breakdown for every category in declared order.
func (c *Classifier) Scores(rec model.Record) []CategoryScore {
	name, desc := rec.Lower()
	lang := strings.ToLower(rec.Language)

	cats := c.rules.Categories()
	out := make([]CategoryScore, 0, len(cats))
	for _, cat := range cats {
		s := CategoryScore{Category: cat.Key}

		// Name and description are matched independently.
		for _, kw := range cat.Keywords {
			if strings.Contains(name, kw) {
				s.Keywords += keywordWeight
			}
			if strings.Contains(desc, kw) {
				s.Keywords += keywordWeight
			}
		}
		if cat.Languages[lang] {
			s.Language = languageWeight
		}
		for _, re := range cat.Patterns {
			if re.MatchString(name) {
				s.Patterns += patternWeight
			}
			if re.MatchString(desc) {
				s.Patterns += patternWeight
			}
		}

		s.Total = s.Keywords + s.Language + s.Patterns
		out = append(out, s)
	}
	return out
}

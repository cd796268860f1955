package enrich

import (
	"strings"

	"repowiki/internal/model"
	"repowiki/internal/rules"
)

// TagGenerator derives a bounded, ordered tag set from a record.
type TagGenerator struct {
	rules *rules.Ruleset
}

// NewTagGenerator creates a tag generator over rs.
func NewTagGenerator(rs *rules.Ruleset) *TagGenerator {
	return &TagGenerator{rules: rs}
}

// Tags returns at most MaxTags distinct tags. Insertion order is category
// tag, language, language bundle, then feature tags, and truncation keeps the
// earliest.
func (g *TagGenerator) Tags(rec model.Record, category string) []string {
	ts := newTagSet(g.rules.MaxTags())

	ts.add(strings.ReplaceAll(category, "-", ""))

	lang := strings.ToLower(strings.TrimSpace(rec.Language))
	if lang != "" && lang != strings.ToLower(model.Unknown) {
		ts.add(lang)
		for _, t := range g.rules.Bundle(lang) {
			ts.add(t)
		}
	}

	name, desc := rec.Lower()
	for _, trigger := range g.rules.FeatureTags() {
		if strings.Contains(name, trigger) || strings.Contains(desc, trigger) {
			ts.add(trigger)
		}
	}

	return ts.items
}

type tagSet struct {
	limit int
	seen  map[string]bool
	items []string
}

func newTagSet(limit int) *tagSet {
	return &tagSet{limit: limit, seen: make(map[string]bool), items: make([]string, 0, limit)}
}

func (s *tagSet) add(tag string) {
	if tag == "" || s.seen[tag] || len(s.items) >= s.limit {
		return
	}
	s.seen[tag] = true
	s.items = append(s.items, tag)
}

// Package rules holds the keyword, language and pattern tables that drive
// classification, tagging and difficulty estimation.
//
// A Ruleset is compiled once at startup, from the built-in defaults or from a
// TOML override file, and is then passed explicitly to every component that
// needs it. Compiled rulesets are never modified; every slice handed out by
// its accessors must be treated as read-only.
//
// Order matters throughout: categories are scored in declared order and the
// first category reaching the maximum score wins, difficulty rules are tried
// in declared order, and tag bundles keep their declared tag order.
package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"repowiki/internal/errors"
	"repowiki/internal/model"
)

// DefaultMaxTags bounds the tag set of a record.
const DefaultMaxTags = 10

// Category is a compiled category rule.
type Category struct {
	Key               string
	Name              string
	Description       string
	Priority          model.Priority
	DefaultDifficulty model.Difficulty
	Keywords          []string
	Languages         map[string]bool
	Patterns          []*regexp.Regexp
}

// LevelRule maps keywords to a difficulty level.
type LevelRule struct {
	Level    model.Difficulty
	Keywords []string
}

// Ruleset is the immutable, compiled form of a rules File.
type Ruleset struct {
	source          File
	categories      []Category
	byKey           map[string]int
	defaultCategory string
	bundles         map[string][]string
	featureTags     []string
	levelRules      []LevelRule
	popular         map[string]bool
	maxTags         int
}

// Compile validates f and builds a Ruleset from it.
func Compile(f File) (*Ruleset, error) {
	rs := &Ruleset{
		source:          f.clone(),
		byKey:           make(map[string]int, len(f.Categories)),
		defaultCategory: f.DefaultCategory,
		bundles:         make(map[string][]string, len(f.Bundles)),
		featureTags:     lowerAll(f.FeatureTags),
		popular:         make(map[string]bool, len(f.PopularLanguages)),
		maxTags:         f.MaxTags,
	}
	if rs.maxTags <= 0 {
		rs.maxTags = DefaultMaxTags
	}
	if len(f.Categories) == 0 {
		return nil, invalid("no categories declared", nil)
	}

	for _, c := range f.Categories {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return nil, invalid("category with empty key", nil)
		}
		if _, dup := rs.byKey[key]; dup {
			return nil, invalid(fmt.Sprintf("category %q declared twice", key), nil)
		}

		priority := model.Priority(c.Priority)
		switch priority {
		case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		case "":
			priority = model.PriorityMedium
		default:
			return nil, invalid(fmt.Sprintf("category %q: unknown priority %q", key, c.Priority), nil)
		}

		level := model.Difficulty(c.Difficulty)
		if level != "" && !level.Valid() {
			return nil, invalid(fmt.Sprintf("category %q: unknown difficulty %q", key, c.Difficulty), nil)
		}

		compiled := Category{
			Key:               key,
			Name:              c.Name,
			Description:       c.Description,
			Priority:          priority,
			DefaultDifficulty: level,
			Keywords:          lowerAll(c.Keywords),
			Languages:         make(map[string]bool, len(c.Languages)),
		}
		if compiled.Name == "" {
			compiled.Name = FallbackName(key)
		}
		if compiled.Description == "" {
			compiled.Description = fallbackDescription(key)
		}
		for _, l := range c.Languages {
			compiled.Languages[strings.ToLower(l)] = true
		}
		for _, p := range c.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, invalid(fmt.Sprintf("category %q: bad pattern %q", key, p), err)
			}
			compiled.Patterns = append(compiled.Patterns, re)
		}

		rs.byKey[key] = len(rs.categories)
		rs.categories = append(rs.categories, compiled)
	}

	if _, ok := rs.byKey[rs.defaultCategory]; !ok {
		return nil, invalid(fmt.Sprintf("default category %q is not declared", rs.defaultCategory), nil)
	}

	for _, b := range f.Bundles {
		lang := strings.ToLower(strings.TrimSpace(b.Language))
		if lang == "" {
			return nil, invalid("tag bundle with empty language", nil)
		}
		rs.bundles[lang] = lowerAll(b.Tags)
	}

	for _, r := range f.Difficulty {
		level := model.Difficulty(r.Level)
		if !level.Valid() {
			return nil, invalid(fmt.Sprintf("difficulty rule: unknown level %q", r.Level), nil)
		}
		rs.levelRules = append(rs.levelRules, LevelRule{Level: level, Keywords: lowerAll(r.Keywords)})
	}

	for _, l := range f.PopularLanguages {
		rs.popular[strings.ToLower(l)] = true
	}

	return rs, nil
}

// MustCompile is like Compile but panics on error. It is meant for the
// built-in tables.
func MustCompile(f File) *Ruleset {
	rs, err := Compile(f)
	if err != nil {
		panic(err)
	}
	return rs
}

// Categories returns the categories in declared order.
func (r *Ruleset) Categories() []Category {
	return r.categories
}

// Category looks up a category by key.
func (r *Ruleset) Category(key string) (Category, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Category{}, false
	}
	return r.categories[i], true
}

// Index returns the declared position of a category, or -1.
func (r *Ruleset) Index(key string) int {
	if i, ok := r.byKey[key]; ok {
		return i
	}
	return -1
}

// DefaultCategory is returned when no category scores above zero.
func (r *Ruleset) DefaultCategory() string {
	return r.defaultCategory
}

// Bundle returns the extra tags for an exact lower-cased language name.
func (r *Ruleset) Bundle(lang string) []string {
	return r.bundles[lang]
}

// FeatureTags returns the trigger words that become tags when present.
func (r *Ruleset) FeatureTags() []string {
	return r.featureTags
}

// LevelRules returns the difficulty keyword rules in evaluation order.
func (r *Ruleset) LevelRules() []LevelRule {
	return r.levelRules
}

// Popular reports whether a lower-cased language earns the popularity bonus.
func (r *Ruleset) Popular(lang string) bool {
	return r.popular[lang]
}

// MaxTags is the upper bound on tags per record.
func (r *Ruleset) MaxTags() int {
	return r.maxTags
}

// Source returns a copy of the file the ruleset was compiled from.
func (r *Ruleset) Source() File {
	return r.source.clone()
}

// Describe returns display metadata for a category key, falling back to a
// generated name for keys the ruleset does not declare.
func (r *Ruleset) Describe(key string) (name, description string, priority model.Priority) {
	if c, ok := r.Category(key); ok {
		return c.Name, c.Description, c.Priority
	}
	return FallbackName(key), fallbackDescription(key), model.PriorityMedium
}

// FallbackName turns a category key such as "game-tools" into "Game Tools".
func FallbackName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "-", " "))
}

func fallbackDescription(key string) string {
	return "Repositories related to " + key
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func invalid(msg string, cause error) error {
	return errors.New(errors.InvalidRules, msg, cause)
}

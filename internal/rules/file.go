package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	toml "github.com/pelletier/go-toml/v2"

	"repowiki/internal/errors"
)

// File is the on-disk TOML form of a ruleset. Sections left empty in an
// override file keep their built-in values.
type File struct {
	DefaultCategory  string         `toml:"default_category,omitempty"`
	MaxTags          int            `toml:"max_tags,omitempty"`
	PopularLanguages []string       `toml:"popular_languages,omitempty"`
	FeatureTags      []string       `toml:"feature_tags,omitempty"`
	Categories       []CategorySpec `toml:"category,omitempty"`
	Bundles          []BundleSpec   `toml:"bundle,omitempty"`
	Difficulty       []LevelSpec    `toml:"difficulty,omitempty"`
}

// CategorySpec declares one category.
type CategorySpec struct {
	Key         string   `toml:"key"`
	Name        string   `toml:"name,omitempty"`
	Description string   `toml:"description,omitempty"`
	Priority    string   `toml:"priority,omitempty"`
	Difficulty  string   `toml:"difficulty,omitempty"`
	Keywords    []string `toml:"keywords,omitempty"`
	Languages   []string `toml:"languages,omitempty"`
	Patterns    []string `toml:"patterns,omitempty"`
}

// BundleSpec maps a language to extra technology tags.
type BundleSpec struct {
	Language string   `toml:"language"`
	Tags     []string `toml:"tags"`
}

// LevelSpec maps keywords to a difficulty level.
type LevelSpec struct {
	Level    string   `toml:"level"`
	Keywords []string `toml:"keywords"`
}

var builtin = MustCompile(DefaultFile())

// Default returns the built-in ruleset.
func Default() *Ruleset {
	return builtin
}

// Load compiles the ruleset at path on top of the built-in tables. An empty
// path yields the built-in ruleset.
func Load(path string) (*Ruleset, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.InvalidRules, "cannot open rules file", err).WithDetails(path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a TOML rules override and compiles it. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Parse(r io.Reader) (*Ruleset, error) {
	var override File
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&override); err != nil {
		return nil, errors.New(errors.InvalidRules, "cannot decode rules file", err)
	}
	return Compile(merge(DefaultFile(), override))
}

// Dump writes the ruleset source as TOML.
func (r *Ruleset) Dump(w io.Writer) error {
	data, err := toml.Marshal(r.source)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

func merge(base, override File) File {
	if override.DefaultCategory != "" {
		base.DefaultCategory = override.DefaultCategory
	}
	if override.MaxTags > 0 {
		base.MaxTags = override.MaxTags
	}
	if len(override.PopularLanguages) > 0 {
		base.PopularLanguages = override.PopularLanguages
	}
	if len(override.FeatureTags) > 0 {
		base.FeatureTags = override.FeatureTags
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}
	if len(override.Bundles) > 0 {
		base.Bundles = override.Bundles
	}
	if len(override.Difficulty) > 0 {
		base.Difficulty = override.Difficulty
	}
	return base
}

func (f File) clone() File {
	out := f
	out.PopularLanguages = slices.Clone(f.PopularLanguages)
	out.FeatureTags = slices.Clone(f.FeatureTags)
	out.Categories = make([]CategorySpec, len(f.Categories))
	for i, c := range f.Categories {
		c.Keywords = slices.Clone(c.Keywords)
		c.Languages = slices.Clone(c.Languages)
		c.Patterns = slices.Clone(c.Patterns)
		out.Categories[i] = c
	}
	out.Bundles = make([]BundleSpec, len(f.Bundles))
	for i, b := range f.Bundles {
		b.Tags = slices.Clone(b.Tags)
		out.Bundles[i] = b
	}
	out.Difficulty = make([]LevelSpec, len(f.Difficulty))
	for i, d := range f.Difficulty {
		d.Keywords = slices.Clone(d.Keywords)
		out.Difficulty[i] = d
	}
	return out
}

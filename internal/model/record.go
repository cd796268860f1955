// Package model defines the repository records that flow between the source
// feed, the enricher, the reconciliation engine and the renderers.
package model

import "strings"

// Unknown is the placeholder for absent language, license and update fields.
const Unknown = "Unknown"

// Difficulty is the estimated entry level of a repository.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the declared levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Priority orders categories on rendered pages.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RawRecord is a record as handed over by a source feed. Every field except
// URL and Name is optional.
type RawRecord struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	License     string `json:"license,omitempty"`
	Stars       *int   `json:"stars,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Forks       bool   `json:"forks,omitempty"`
	Original    string `json:"original,omitempty"`

	// LegacyLastUpdated accepts the snake_case key older crawls wrote.
	LegacyLastUpdated string `json:"last_updated,omitempty"`
}

// Record is one observed repository, optionally enriched.
type Record struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	License     string `json:"license"`
	Stars       int    `json:"stars"`
	LastUpdated string `json:"lastUpdated"`
	Forks       bool   `json:"forks,omitempty"`
	Original    string `json:"original,omitempty"`

	Category     string     `json:"category,omitempty"`
	Tags         []string   `json:"tags"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	QualityScore float64    `json:"quality_score"`
}

// Key returns the identity of the record within a collection. Records that
// arrived without a URL are keyed by name.
func (r Record) Key() string {
	if r.URL != "" {
		return r.URL
	}
	return "name:" + r.Name
}

// Enriched reports whether the derived fields have been filled in.
func (r Record) Enriched() bool {
	return r.Category != "" && r.Difficulty != ""
}

// Clone returns a copy that shares no slices with r.
func (r Record) Clone() Record {
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r
}

// Stripped returns the record without derived metadata.
func (r Record) Stripped() Record {
	r.Category = ""
	r.Tags = []string{}
	r.Difficulty = ""
	r.QualityScore = 0
	return r
}

// Lower returns the lower-cased name and description used by keyword rules.
func (r Record) Lower() (name, description string) {
	return strings.ToLower(r.Name), strings.ToLower(r.Description)
}

// CategoryView is one non-empty category in an enrichment result.
type CategoryView struct {
	Key          string   `json:"-"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Count        int      `json:"count"`
	Priority     Priority `json:"priority"`
	Repositories []Record `json:"repositories"`
}

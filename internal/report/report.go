// Package report renders enrichment results: the category report document,
// markdown wiki pages and the site manifest.
package report

import (
	"encoding/json"
	"time"

	"repowiki/internal/enrich"
	"repowiki/internal/model"
	"repowiki/internal/store"
)

// Report is the category report document.
type Report struct {
	Total       int                    `json:"total"`
	LastUpdated string                 `json:"lastUpdated"`
	Categories  map[string]CategoryDoc `json:"categories"`
}

// CategoryDoc is one category entry in a Report.
type CategoryDoc struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Count        int            `json:"count"`
	Priority     model.Priority `json:"priority"`
	Repositories []model.Record `json:"repositories"`
}

// Build converts an enrichment result into a Report stamped with now.
func Build(res *enrich.Result, now time.Time) *Report {
	r := &Report{
		Total:       res.Total,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Categories:  make(map[string]CategoryDoc, len(res.Categories)),
	}
	for _, v := range res.Categories {
		r.Categories[v.Key] = CategoryDoc{
			Name:         v.Name,
			Description:  v.Description,
			Count:        v.Count,
			Priority:     v.Priority,
			Repositories: v.Repositories,
		}
	}
	return r
}

// WriteJSON writes r to path atomically.
func WriteJSON(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, append(data, '\n'))
}

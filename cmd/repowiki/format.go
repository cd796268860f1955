package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"repowiki/internal/history"
	"repowiki/internal/reconcile"
	"repowiki/internal/report"
	"repowiki/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

const rule = "============================================================"

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *UpdateResponseCLI:
		return formatUpdateHuman(v), nil
	case *ClassifyResponseCLI:
		return formatClassifyHuman(v), nil
	case *ExplainResponseCLI:
		return formatExplainHuman(v), nil
	case *StatusResponseCLI:
		return formatStatusHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	case *RunDetailCLI:
		return formatRunDetailHuman(v), nil
	case *RestoreResponseCLI:
		return fmt.Sprintf("✓ Restored %s from %s\n  Repositories: %d (saved %s)\n\nNext: repowiki update --force <snapshot> to regenerate pages",
			v.DataFile, v.Backup, v.Records, v.LastUpdated), nil
	case *version.Build:
		return fmt.Sprintf("repowiki version %s\nCommit: %s\nBuilt: %s\nGo: %s",
			v.Version, v.Commit, v.BuildDate, v.GoVersion), nil
	default:
		// Unknown types fall back to JSON
		return formatJSON(resp)
	}
}

func formatUpdateHuman(resp *UpdateResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("repowiki update - %s\n", resp.Status))
	b.WriteString(rule + "\n\n")

	b.WriteString(fmt.Sprintf("Source: %s\n", resp.Source))
	if resp.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", shortID(resp.RunID)))
	}
	b.WriteString(fmt.Sprintf("Observed: %d (skipped %d)\n", resp.Observed, resp.Skipped))
	b.WriteString(fmt.Sprintf("Collection: %s\n", pluralize(resp.Total, "repository", "repositories")))
	if len(resp.Duplicates) > 0 {
		b.WriteString(fmt.Sprintf("Duplicates ignored: %s\n", strings.Join(resp.Duplicates, ", ")))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Changes: +%d ~%d -%d\n", len(resp.Added), len(resp.Updated), len(resp.Removed)))
	for _, r := range resp.Added {
		b.WriteString(fmt.Sprintf("  + %s (%s)\n", r.Name, r.Key))
	}
	for _, c := range resp.Updated {
		b.WriteString(fmt.Sprintf("  ~ %s: %s\n", c.Name, strings.Join(c.Fields, ", ")))
	}
	for _, r := range resp.Removed {
		b.WriteString(fmt.Sprintf("  - %s (%s)\n", r.Name, r.Key))
	}

	if len(resp.Categories) > 0 {
		b.WriteString("\nCategories:\n")
		for _, c := range resp.Categories {
			b.WriteString(fmt.Sprintf("  %s: %d\n", c.Name, c.Count))
		}
	}
	b.WriteString(fmt.Sprintf("\n(took %dms)", resp.DurationMs))
	return b.String()
}

func formatClassifyHuman(resp *ClassifyResponseCLI) string {
	var b strings.Builder

	b.WriteString("Category Report\n")
	b.WriteString(rule + "\n\n")
	b.WriteString(fmt.Sprintf("Total: %s", pluralize(resp.Total, "repository", "repositories")))
	if resp.Skipped > 0 {
		b.WriteString(fmt.Sprintf(" (%d skipped)", resp.Skipped))
	}
	b.WriteString("\n\n")

	for _, c := range resp.Categories {
		b.WriteString(fmt.Sprintf("%s [%s] - %d\n", c.Name, c.Priority, c.Count))
		for _, r := range c.Repositories {
			marker := "📖"
			if r.QualityScore >= report.HighQuality {
				marker = "⭐"
			}
			b.WriteString(fmt.Sprintf("  %s %s (%.1f, %s)\n", marker, r.Name, r.QualityScore, r.Difficulty))
		}
		if hidden := c.Count - len(c.Repositories); hidden > 0 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", hidden))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatExplainHuman(resp *ExplainResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Classification: %s\n", resp.Name))
	b.WriteString(rule + "\n\n")
	b.WriteString(fmt.Sprintf("Key: %s\n", resp.Key))
	b.WriteString(fmt.Sprintf("Language: %s\n\n", resp.Language))

	b.WriteString(fmt.Sprintf("  %-20s %8s %8s %8s %6s\n", "category", "keywords", "language", "patterns", "total"))
	for _, s := range resp.Scores {
		marker := " "
		if s.Category == resp.Category {
			marker = "→"
		}
		b.WriteString(fmt.Sprintf("%s %-20s %8d %8d %8d %6d\n", marker, s.Category, s.Keywords, s.Language, s.Patterns, s.Total))
	}

	b.WriteString(fmt.Sprintf("\nCategory: %s\n", resp.Category))
	b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(resp.Tags, ", ")))
	b.WriteString(fmt.Sprintf("Difficulty: %s\n", resp.Difficulty))
	b.WriteString(fmt.Sprintf("Quality: %.1f/10", resp.QualityScore))
	return b.String()
}

func formatStatusHuman(resp *StatusResponseCLI) string {
	var b strings.Builder

	b.WriteString("repowiki Status\n")
	b.WriteString(rule + "\n\n")
	b.WriteString(fmt.Sprintf("Root: %s\n", resp.Root))
	b.WriteString(fmt.Sprintf("Rules: %s\n\n", resp.RulesSource))

	b.WriteString("Collection:\n")
	switch {
	case !resp.Exists:
		b.WriteString(fmt.Sprintf("  ✗ %s does not exist yet\n", resp.DataFile))
	case resp.Malformed != "":
		b.WriteString(fmt.Sprintf("  ✗ %s is malformed: %s\n", resp.DataFile, resp.Malformed))
	default:
		b.WriteString(fmt.Sprintf("  ✓ %s (%s)\n", resp.DataFile, humanize.Bytes(uint64(resp.SizeBytes))))
		b.WriteString(fmt.Sprintf("  Repositories: %d\n", resp.Records))
		b.WriteString(fmt.Sprintf("  Last updated: %s\n", resp.LastUpdated))
		keys := make([]string, 0, len(resp.Categories))
		for k := range resp.Categories {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("    %s: %d\n", k, resp.Categories[k]))
		}
	}

	b.WriteString(fmt.Sprintf("\nBackups: %d\n", len(resp.Backups)))
	if n := len(resp.Backups); n > 0 {
		b.WriteString(fmt.Sprintf("  Newest: %s\n", resp.Backups[n-1]))
	}

	if resp.LastRun != nil {
		b.WriteString("\nLast run:\n")
		b.WriteString("  " + runLine(*resp.LastRun) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistoryHuman(resp *HistoryResponseCLI) string {
	var b strings.Builder

	b.WriteString("Update History\n")
	b.WriteString(rule + "\n\n")
	if len(resp.Runs) == 0 {
		b.WriteString("No runs recorded yet.")
		return b.String()
	}
	for _, r := range resp.Runs {
		b.WriteString(runLine(r) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunDetailHuman(resp *RunDetailCLI) string {
	var b strings.Builder
	r := resp.Run

	b.WriteString(fmt.Sprintf("Run %s\n", r.ID))
	b.WriteString(rule + "\n\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
	b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Started: %s (%s)\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(r.StartedAt)))
	b.WriteString(fmt.Sprintf("Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("Observed: %d (skipped %d), collection: %d\n", r.Observed, r.Skipped, r.Total))
	if r.Forced {
		b.WriteString("Forced: yes\n")
	}
	if r.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", r.Error))
	}

	b.WriteString(fmt.Sprintf("\nChanges: +%d ~%d -%d\n", r.Counts.Added, r.Counts.Updated, r.Counts.Removed))
	for _, c := range resp.Changes {
		b.WriteString(fmt.Sprintf("  %s %s", kindSymbol(c.Kind), c.Name))
		if len(c.Fields) > 0 {
			b.WriteString(": " + strings.Join(c.Fields, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func runLine(r history.Run) string {
	return fmt.Sprintf("%s  %-9s  +%d ~%d -%d  total %d  %s",
		shortID(r.ID), r.Status, r.Counts.Added, r.Counts.Updated, r.Counts.Removed, r.Total, humanize.Time(r.StartedAt))
}

func kindSymbol(kind string) string {
	switch kind {
	case reconcile.KindAdded:
		return "+"
	case reconcile.KindUpdated:
		return "~"
	case reconcile.KindRemoved:
		return "-"
	default:
		return "?"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

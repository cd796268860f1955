package enrich

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	wikierrors "repowiki/internal/errors"
	"repowiki/internal/model"
	"repowiki/internal/rules"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func intp(n int) *int { return &n }

func mustNormalize(t *testing.T, raw model.RawRecord) model.Record {
	t.Helper()
	rec, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize(%+v) error = %v", raw, err)
	}
	return rec
}

func TestNormalize_Defaults(t *testing.T) {
	rec := mustNormalize(t, model.RawRecord{URL: " u1 ", Name: "tool"})

	if rec.URL != "u1" {
		t.Errorf("URL = %q, want trimmed", rec.URL)
	}
	if rec.Language != model.Unknown || rec.License != model.Unknown || rec.LastUpdated != model.Unknown {
		t.Errorf("defaults = %q/%q/%q, want Unknown", rec.Language, rec.License, rec.LastUpdated)
	}
	if rec.Stars != 0 {
		t.Errorf("Stars = %d, want 0", rec.Stars)
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Errorf("Tags = %v, want empty non-nil", rec.Tags)
	}
}

func TestNormalize_LegacyLastUpdated(t *testing.T) {
	rec := mustNormalize(t, model.RawRecord{Name: "a", LegacyLastUpdated: "Jan 2026"})
	if rec.LastUpdated != "Jan 2026" {
		t.Errorf("LastUpdated = %q", rec.LastUpdated)
	}
	rec = mustNormalize(t, model.RawRecord{Name: "a", LastUpdated: "Feb 2026", LegacyLastUpdated: "Jan 2026"})
	if rec.LastUpdated != "Feb 2026" {
		t.Errorf("lastUpdated should win, got %q", rec.LastUpdated)
	}
}

func TestNormalize_MissingIdentity(t *testing.T) {
	_, err := Normalize(model.RawRecord{Description: "orphan", Stars: intp(4)})
	if !errors.Is(err, wikierrors.ErrMissingIdentity) {
		t.Fatalf("error = %v, want MISSING_IDENTITY", err)
	}

	// Name alone is enough identity.
	rec := mustNormalize(t, model.RawRecord{Name: "only-name"})
	if rec.Key() != "name:only-name" {
		t.Errorf("Key() = %q", rec.Key())
	}
}

func TestNormalizeBatch(t *testing.T) {
	recs, dropped := NormalizeBatch([]model.RawRecord{
		{URL: "u1", Name: "a"},
		{Name: "  ", URL: ""},
		{URL: "u3"},
	})
	if len(recs) != 2 || len(dropped) != 1 {
		t.Errorf("got %d records, %d dropped; want 2, 1", len(recs), len(dropped))
	}
}

func TestClassify_ScenarioA(t *testing.T) {
	c := NewClassifier(rules.Default())
	rec := mustNormalize(t, model.RawRecord{URL: "u1", Name: "mcp-tool", Description: "an MCP server", Language: "TypeScript"})

	if got := c.Classify(rec); got != "mcp-servers" {
		t.Errorf("Classify() = %q, want mcp-servers", got)
	}

	scores := c.Scores(rec)
	if scores[0].Category != "mcp-servers" {
		t.Fatalf("scores[0] = %q", scores[0].Category)
	}
	// mcp in name and description (+6), typescript (+2), ^mcp- on name (+2),
	// .*mcp.* on name and description (+4).
	want := CategoryScore{Category: "mcp-servers", Keywords: 6, Language: 2, Patterns: 6, Total: 14}
	if scores[0] != want {
		t.Errorf("mcp-servers score = %+v, want %+v", scores[0], want)
	}
}

func TestClassify_Table(t *testing.T) {
	c := NewClassifier(rules.Default())

	tests := []struct {
		name string
		raw  model.RawRecord
		want string
	}{
		{"no signal falls back to default", model.RawRecord{Name: "zzz", Language: "COBOL"}, "development-tools"},
		{"language-only tie goes to first declared", model.RawRecord{Name: "x", Language: "Python"}, "mcp-servers"},
		{"scraper", model.RawRecord{Name: "site-crawler", Description: "a fast web crawler", Language: "Go"}, "web-scraping"},
		{"security", model.RawRecord{Name: "vuln-scanner", Description: "security scan for containers", Language: "C"}, "security-tools"},
		{"mobile", model.RawRecord{Name: "ios-kit", Description: "swift helpers for android and ios", Language: "Swift"}, "mobile-development"},
		{"neural", model.RawRecord{Name: "tiny-neural", Description: "neural network training", Language: "Jupyter Notebook"}, "ai-ml-tools"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(mustNormalize(t, tt.raw)); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(rules.Default())
	for i := 0; i < 50; i++ {
		rec := mustNormalize(t, model.RawRecord{
			Name:        fmt.Sprintf("repo-%d", i),
			Description: []string{"ai tool", "mcp scraper", "", "mobile security", "library"}[i%5],
			Language:    []string{"Python", "Go", "Swift", "", "Rust"}[i%5],
		})
		if a, b := c.Classify(rec), c.Classify(rec); a != b {
			t.Fatalf("Classify not deterministic for %+v: %q vs %q", rec, a, b)
		}
	}
}

func TestTags_ScenarioA(t *testing.T) {
	g := NewTagGenerator(rules.Default())
	rec := mustNormalize(t, model.RawRecord{URL: "u1", Name: "mcp-tool", Description: "an MCP server", Language: "TypeScript"})

	got := g.Tags(rec, "mcp-servers")
	want := []string{"mcpservers", "typescript", "nodejs", "web", "typed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestTags_UnknownLanguageAndFeatures(t *testing.T) {
	g := NewTagGenerator(rules.Default())
	rec := mustNormalize(t, model.RawRecord{Name: "docker-api", Description: "database web frontend"})

	got := g.Tags(rec, "development-tools")
	want := []string{"developmenttools", "api", "web", "docker", "database"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestTags_TruncationKeepsInsertionOrder(t *testing.T) {
	f := rules.DefaultFile()
	f.MaxTags = 4
	g := NewTagGenerator(rules.MustCompile(f))
	rec := mustNormalize(t, model.RawRecord{Name: "docker-api", Language: "JavaScript"})

	got := g.Tags(rec, "development-tools")
	want := []string{"developmenttools", "javascript", "nodejs", "web"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestTags_Bound(t *testing.T) {
	f := rules.DefaultFile()
	f.FeatureTags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	g := NewTagGenerator(rules.MustCompile(f))

	for _, lang := range []string{"Rust", "Java", "C#", "", "Unknown"} {
		rec := mustNormalize(t, model.RawRecord{Name: "abcdefghijk", Language: lang})
		for _, cat := range []string{"mcp-servers", "x"} {
			tags := g.Tags(rec, cat)
			if len(tags) > 10 {
				t.Errorf("len(Tags(%q, %q)) = %d, want <= 10", lang, cat, len(tags))
			}
			seen := map[string]bool{}
			for _, tag := range tags {
				if seen[tag] {
					t.Errorf("duplicate tag %q", tag)
				}
				seen[tag] = true
			}
		}
	}
}

func TestDifficulty(t *testing.T) {
	d := NewDifficultyEstimator(rules.Default())

	tests := []struct {
		name     string
		raw      model.RawRecord
		category string
		want     model.Difficulty
	}{
		{"beginner rules are checked first", model.RawRecord{Name: "simple", Description: "production ready"}, "ai-ml-tools", model.Beginner},
		{"advanced keyword", model.RawRecord{Name: "x", Description: "Enterprise grade"}, "development-tools", model.Advanced},
		{"category default", model.RawRecord{Name: "x"}, "ai-ml-tools", model.Advanced},
		{"mcp default", model.RawRecord{Name: "x"}, "mcp-servers", model.Intermediate},
		{"undeclared category", model.RawRecord{Name: "x"}, "games", model.Beginner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Difficulty(mustNormalize(t, tt.raw), tt.category); got != tt.want {
				t.Errorf("Difficulty() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuality_ScenarioB(t *testing.T) {
	q := NewQualityScorer(rules.Default(), fixedClock)
	rec := mustNormalize(t, model.RawRecord{
		URL: "u1", Name: "py", License: "MIT License", Language: "Python",
		Stars: intp(500), LastUpdated: "Updated Feb 3, 2026",
	})

	got, err := q.Score(rec)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got != 8.0 {
		t.Errorf("Score() = %v, want 8.0", got)
	}
}

func TestQuality_Table(t *testing.T) {
	q := NewQualityScorer(rules.Default(), fixedClock)

	tests := []struct {
		name string
		raw  model.RawRecord
		want float64
	}{
		{"base only", model.RawRecord{Name: "a"}, 5.0},
		{"license is case sensitive", model.RawRecord{Name: "a", License: "mit"}, 5.0},
		{"last year earns nothing", model.RawRecord{Name: "a", LastUpdated: "2025-12-31"}, 5.0},
		{"stars round to one decimal", model.RawRecord{Name: "a", Stars: intp(1234)}, 6.2},
		{"clamped at ten", model.RawRecord{Name: "a", Language: "Go", License: "MIT", Stars: intp(100000)}, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Score(mustNormalize(t, tt.raw))
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuality_Bound(t *testing.T) {
	q := NewQualityScorer(rules.Default(), fixedClock)
	for _, stars := range []int{0, 1, 49, 555, 4999, 5000, 123456789} {
		for _, lang := range []string{"Go", "COBOL"} {
			got, err := q.Score(model.Record{Name: "a", Language: lang, License: "MIT", LastUpdated: "2026", Stars: stars})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got < 0 || got > 10 {
				t.Errorf("Score(stars=%d) = %v, out of [0,10]", stars, got)
			}
			if math.Abs(got*10-math.Round(got*10)) > 1e-9 {
				t.Errorf("Score(stars=%d) = %v has more than one decimal", stars, got)
			}
		}
	}
}

func TestQuality_NegativeStars(t *testing.T) {
	q := NewQualityScorer(rules.Default(), fixedClock)
	_, err := q.Score(model.Record{Name: "a", Stars: -1})
	if !errors.Is(err, wikierrors.ErrScoringDomain) {
		t.Errorf("error = %v, want SCORING_DOMAIN", err)
	}
}

func TestEnrich_ScenarioD(t *testing.T) {
	e := New(rules.Default(), nil, WithClock(fixedClock))
	batch := []model.RawRecord{
		{URL: "u1", Name: "mcp-tool", Description: "an MCP server", Language: "TypeScript"},
		{URL: "", Name: ""},
		{URL: "u3", Name: "crawler", Description: "scraper"},
	}

	res, err := e.Enrich(batch)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if res.Total != len(batch)-1 || res.Skipped != 1 {
		t.Errorf("Total = %d, Skipped = %d; want %d, 1", res.Total, res.Skipped, len(batch)-1)
	}
}

func TestEnrich_GroupsInDeclaredOrder(t *testing.T) {
	e := New(rules.Default(), nil, WithClock(fixedClock))
	res, err := e.Enrich([]model.RawRecord{
		{URL: "s", Name: "vuln-scanner", Description: "security scan", Language: "C"},
		{URL: "m", Name: "mcp-a", Language: "TypeScript"},
		{URL: "d", Name: "zzz"},
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	var keys []string
	for _, c := range res.Categories {
		keys = append(keys, c.Key)
		if c.Count != len(c.Repositories) {
			t.Errorf("%s: Count = %d, members = %d", c.Key, c.Count, len(c.Repositories))
		}
	}
	want := []string{"mcp-servers", "development-tools", "security-tools"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("category order = %v, want %v", keys, want)
	}

	mcp, ok := res.Category("mcp-servers")
	if !ok || mcp.Name != "MCP Servers" || mcp.Priority != model.PriorityHigh {
		t.Errorf("mcp view = %+v", mcp)
	}
	r := mcp.Repositories[0]
	if r.Category != "mcp-servers" || r.Difficulty != model.Intermediate || len(r.Tags) == 0 {
		t.Errorf("enriched record = %+v", r)
	}
}

func TestEnrich_StableQualitySort(t *testing.T) {
	e := New(rules.Default(), nil, WithClock(fixedClock))
	res, err := e.Enrich([]model.RawRecord{
		{URL: "a", Name: "zz-a"},
		{URL: "b", Name: "zz-b", Stars: intp(900)},
		{URL: "c", Name: "zz-c"},
		{URL: "d", Name: "zz-d"},
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	view, _ := res.Category("development-tools")
	var order []string
	for _, r := range view.Repositories {
		order = append(order, r.URL)
	}
	if want := []string{"b", "a", "c", "d"}; !reflect.DeepEqual(order, want) {
		t.Errorf("member order = %v, want %v", order, want)
	}
}

func TestEnrich_ScoringErrorIsFatal(t *testing.T) {
	e := New(rules.Default(), nil, WithClock(fixedClock))
	_, err := e.Enrich([]model.RawRecord{{URL: "a", Name: "a", Stars: intp(-5)}})
	if !errors.Is(err, wikierrors.ErrScoringDomain) {
		t.Errorf("Enrich() error = %v, want SCORING_DOMAIN", err)
	}
}

func TestEnrichOne_RecomputesDerivedFields(t *testing.T) {
	e := New(rules.Default(), nil, WithClock(fixedClock))
	stale := model.Record{URL: "u", Name: "zzz", Language: model.Unknown, Category: "mcp-servers", Tags: []string{"old"}, QualityScore: 9.9}

	got, err := e.EnrichOne(stale)
	if err != nil {
		t.Fatalf("EnrichOne() error = %v", err)
	}
	if got.Category != "development-tools" || got.QualityScore != 5.0 {
		t.Errorf("EnrichOne() = %+v", got)
	}
	if stale.Tags[0] != "old" {
		t.Error("input record must not be mutated")
	}
}

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"repowiki/internal/enrich"
	"repowiki/internal/model"
)

var fixed = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func sampleResult() *enrich.Result {
	star := model.Record{
		URL: "https://github.com/o/mcp-tool", Name: "mcp-tool", Description: "An MCP server",
		Language: "TypeScript", License: "MIT", Stars: 3000, LastUpdated: "2026-01-01",
		Category: "mcp-servers", Tags: []string{"mcpservers", "typescript"}, Difficulty: model.Intermediate, QualityScore: 9.5,
	}
	plain := model.Record{
		URL: "https://github.com/o/bridge", Name: "bridge", Language: "Go", License: "Unknown",
		LastUpdated: "Unknown", Forks: true, Original: "up/bridge",
		Category: "mcp-servers", Tags: []string{}, Difficulty: model.Beginner, QualityScore: 6,
	}
	sec := model.Record{
		URL: "https://github.com/o/scan", Name: "scan", Description: "Port scanner",
		Language: "C", License: "GPL", Category: "security-tools", Tags: []string{"securitytools"},
		Difficulty: model.Advanced, QualityScore: 5,
	}
	return &enrich.Result{
		Total: 3,
		Categories: []model.CategoryView{
			{Key: "mcp-servers", Name: "MCP Servers", Description: "Model Context Protocol servers", Count: 2, Priority: model.PriorityHigh, Repositories: []model.Record{star, plain}},
			{Key: "security-tools", Name: "Security Tools", Description: "Security research", Count: 1, Priority: model.PriorityMedium, Repositories: []model.Record{sec}},
		},
		Records: []model.Record{star, plain, sec},
	}
}

func TestBuildAndWriteJSON(t *testing.T) {
	rep := Build(sampleResult(), fixed)
	if rep.Total != 3 || rep.LastUpdated != "2026-05-04T09:30:00Z" {
		t.Errorf("header = %d %q", rep.Total, rep.LastUpdated)
	}

	path := filepath.Join(t.TempDir(), "data", "categories.json")
	if err := WriteJSON(path, rep); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	raw, _ := os.ReadFile(path)

	var doc struct {
		Total      int `json:"total"`
		Categories map[string]struct {
			Name         string `json:"name"`
			Count        int    `json:"count"`
			Priority     string `json:"priority"`
			Repositories []struct {
				URL          string  `json:"url"`
				QualityScore float64 `json:"quality_score"`
			} `json:"repositories"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	mcp := doc.Categories["mcp-servers"]
	if mcp.Name != "MCP Servers" || mcp.Count != 2 || mcp.Priority != "high" {
		t.Errorf("mcp-servers = %+v", mcp)
	}
	if mcp.Repositories[0].QualityScore != 9.5 {
		t.Errorf("members should keep view order, got %+v", mcp.Repositories)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mcp-servers", "mcp-servers"},
		{"AI & ML Tools", "ai-ml-tools"},
		{"Café Crème", "cafe-creme"},
		{"snake_case.name", "snake-case-name"},
		{"--edge--", "edge"},
		{"日本", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := SlugOr("日本", "category"); got != "category" {
		t.Errorf("SlugOr fallback = %q", got)
	}
}

func TestRenderer_Category(t *testing.T) {
	r := NewRenderer("Repository Wiki", clock)
	res := sampleResult()

	page, err := r.Category(res.Categories[0])
	if err != nil {
		t.Fatalf("Category failed: %v", err)
	}
	fm, body, err := ParseFrontMatter(page)
	if err != nil {
		t.Fatalf("ParseFrontMatter failed: %v", err)
	}
	if fm.Title != "MCP Servers" || fm.Slug != "mcp-servers" || fm.Priority != "high" || fm.Count != 2 {
		t.Errorf("front matter = %+v", fm)
	}
	if fm.LastUpdated != "2026-05-04 09:30:00" {
		t.Errorf("LastUpdated = %q", fm.LastUpdated)
	}

	text := string(body)
	for _, want := range []string{
		"# MCP Servers\n",
		"⭐ [mcp-tool](https://github.com/o/mcp-tool)",
		"📖 [bridge](https://github.com/o/bridge)",
		"**Quality**: 9.5/10",
		"**Tags**: mcpservers, typescript",
		"*Forked from up/bridge*",
		"No description available",
		"*Last updated: 2026-05-04 09:30:00*",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("page missing %q\n%s", want, text)
		}
	}
	if strings.Index(text, "mcp-tool") > strings.Index(text, "bridge") {
		t.Error("members should appear in view order")
	}
}

func TestRenderer_Index(t *testing.T) {
	page, err := NewRenderer("Repository Wiki", clock).Index(sampleResult())
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	text := string(page)
	for _, want := range []string{
		"title: Repository Wiki",
		"- **Total Repositories**: 3",
		"- **Categories**: 2",
		"### [MCP Servers](mcp-servers/) - 2 repositories",
		"### [Security Tools](security-tools/) - 1 repositories",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestParseFrontMatter_NoHeader(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("# plain\n"))
	if err != nil || fm.Title != "" || string(body) != "# plain\n" {
		t.Errorf("got %+v %q %v", fm, body, err)
	}
}

func TestSite_WriteAndPruneStale(t *testing.T) {
	dir := t.TempDir()
	site := NewSite(dir, NewRenderer("Repository Wiki", clock), nil)

	res := sampleResult()
	m, err := site.Write(res)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(m.Pages) != 3 {
		t.Fatalf("pages = %+v, want index plus 2 categories", m.Pages)
	}
	for _, rel := range []string{"index.md", "mcp-servers/README.md", "security-tools/README.md", ManifestName} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s not written: %v", rel, err)
		}
	}

	loaded, err := ReadManifest(dir)
	if err != nil || loaded == nil {
		t.Fatalf("ReadManifest = %v, %v", loaded, err)
	}
	if loaded.Total != 3 || loaded.Fingerprint != m.Fingerprint || !loaded.Generated.Equal(fixed) {
		t.Errorf("manifest = %+v", loaded)
	}

	res.Categories = res.Categories[:1]
	res.Records = res.Records[:2]
	res.Total = 2
	if _, err := site.Write(res); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "security-tools")); !os.IsNotExist(err) {
		t.Error("stale category directory should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "mcp-servers", "README.md")); err != nil {
		t.Error("live category page should remain")
	}
}

func TestSite_PruneStaysInsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "docs")
	outside := filepath.Join(parent, "outside.md")
	stale := filepath.Join(dir, "old", "README.md")
	for _, p := range []string{outside, stale} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("keep?"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	edited := Manifest{Title: "Repository Wiki", Pages: []ManifestPage{
		{Path: "../outside.md"},
		{Path: filepath.ToSlash(outside)},
		{Path: "old/README.md"},
	}}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(edited); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSite(dir, NewRenderer("Repository Wiki", clock), nil).Write(sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the site directory was removed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale page inside the site directory should be removed")
	}
}

func TestReadManifest_Missing(t *testing.T) {
	m, err := ReadManifest(t.TempDir())
	if m != nil || err != nil {
		t.Errorf("ReadManifest = %v, %v; want nil, nil", m, err)
	}
}

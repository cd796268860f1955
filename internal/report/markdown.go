package report

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"repowiki/internal/enrich"
	"repowiki/internal/model"
)

// HighQuality is the score from which a repository is starred on pages.
const HighQuality = 8.0

// FrontMatter is the YAML header of every generated page.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Slug        string   `yaml:"slug"`
	Priority    string   `yaml:"priority,omitempty"`
	Count       int      `yaml:"count"`
	Tags        []string `yaml:"tags,omitempty"`
	LastUpdated string   `yaml:"last_updated"`
}

// Renderer produces markdown pages.
type Renderer struct {
	title    string
	now      func() time.Time
	index    *template.Template
	category *template.Template
}

// NewRenderer creates a renderer. A nil clock means time.Now.
func NewRenderer(title string, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	funcs := template.FuncMap{
		"marker": qualityMarker,
		"score":  formatScore,
		"join":   strings.Join,
	}
	return &Renderer{
		title:    title,
		now:      now,
		index:    template.Must(template.New("index").Funcs(funcs).Parse(indexTemplate)),
		category: template.Must(template.New("category").Funcs(funcs).Parse(categoryTemplate)),
	}
}

type indexEntry struct {
	Name        string
	Description string
	Slug        string
	Count       int
}

// Index renders the landing page listing every category.
func (r *Renderer) Index(res *enrich.Result) ([]byte, error) {
	updated := r.stamp()
	entries := make([]indexEntry, 0, len(res.Categories))
	for _, v := range res.Categories {
		entries = append(entries, indexEntry{
			Name:        v.Name,
			Description: v.Description,
			Slug:        categorySlug(v.Key),
			Count:       v.Count,
		})
	}

	fm := FrontMatter{
		Title:       r.title,
		Slug:        "/",
		Count:       res.Total,
		LastUpdated: updated,
	}
	data := struct {
		Title      string
		Total      int
		Updated    string
		Categories []indexEntry
	}{r.title, res.Total, updated, entries}
	return render(fm, r.index, data)
}

// Category renders one category page with members in view order.
func (r *Renderer) Category(v model.CategoryView) ([]byte, error) {
	updated := r.stamp()
	fm := FrontMatter{
		Title:       v.Name,
		Description: v.Description,
		Slug:        categorySlug(v.Key),
		Priority:    string(v.Priority),
		Count:       v.Count,
		Tags:        []string{v.Key},
		LastUpdated: updated,
	}
	data := struct {
		model.CategoryView
		Updated string
	}{v, updated}
	return render(fm, r.category, data)
}

func (r *Renderer) stamp() string {
	return r.now().UTC().Format("2006-01-02 15:04:05")
}

func render(fm FrontMatter, tmpl *template.Template, data interface{}) ([]byte, error) {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseFrontMatter splits a generated page into its header and body.
func ParseFrontMatter(page []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	rest, ok := bytes.CutPrefix(page, []byte("---\n"))
	if !ok {
		return fm, page, nil
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return fm, page, nil
	}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, nil, err
	}
	return fm, bytes.TrimLeft(body, "\n"), nil
}

func qualityMarker(score float64) string {
	if score >= HighQuality {
		return "⭐"
	}
	return "📖"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

func categorySlug(key string) string {
	return SlugOr(key, "category")
}

const indexTemplate = `# {{.Title}}

Documentation of {{.Total}} repositories, grouped by category and refreshed on every update.

## Repository Statistics

- **Total Repositories**: {{.Total}}
- **Categories**: {{len .Categories}}
- **Last Updated**: {{.Updated}}

## Repository Categories

{{range .Categories}}### [{{.Name}}]({{.Slug}}/) - {{.Count}} repositories
{{.Description}}

{{end}}## Quality Scoring

Repositories are scored 0-10 from language popularity, license, recent activity and stars.
Entries scoring 8 or more are marked with ⭐.
`

const categoryTemplate = `# {{.Name}}

{{.Description}}

**Total Repositories**: {{.Count}}

## Repository List

{{range .Repositories}}{{marker .QualityScore}} [{{.Name}}]({{.URL}})
**Language**: {{.Language}} | **License**: {{.License}} | **Difficulty**: {{.Difficulty}}
**Stars**: {{.Stars}} | **Updated**: {{.LastUpdated}} | **Quality**: {{score .QualityScore}}/10
{{if .Tags}}**Tags**: {{join .Tags ", "}}
{{end}}{{if .Forks}}*Forked from {{.Original}}*
{{end}}{{or .Description "No description available"}}

{{end}}---
*Last updated: {{.Updated}}*
`

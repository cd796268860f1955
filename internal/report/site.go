package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"repowiki/internal/enrich"
	"repowiki/internal/slogutil"
	"repowiki/internal/store"
)

// ManifestName is the file recording which pages a site write produced.
const ManifestName = "manifest.toml"

// Manifest lists generated pages so stale ones can be removed later.
type Manifest struct {
	Title       string         `toml:"title"`
	Generated   time.Time      `toml:"generated"`
	Total       int            `toml:"total"`
	Fingerprint string         `toml:"fingerprint"`
	Pages       []ManifestPage `toml:"page"`
}

// ManifestPage is one generated page, relative to the site directory.
type ManifestPage struct {
	Category string `toml:"category,omitempty"`
	Path     string `toml:"path"`
	Title    string `toml:"title"`
	Count    int    `toml:"count"`
}

// ReadManifest decodes dir/manifest.toml. A missing file returns nil, nil.
func ReadManifest(dir string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestName), &m); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Site writes the index, one page per category and the manifest into dir.
type Site struct {
	dir      string
	renderer *Renderer
	logger   *slog.Logger
}

// NewSite creates a site writer. A nil logger discards output.
func NewSite(dir string, r *Renderer, logger *slog.Logger) *Site {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Site{dir: dir, renderer: r, logger: logger}
}

// Write regenerates every page. Pages listed in the previous manifest that
// are no longer produced are deleted.
func (s *Site) Write(res *enrich.Result) (*Manifest, error) {
	prev, err := ReadManifest(s.dir)
	if err != nil {
		s.logger.Warn("Ignoring unreadable site manifest", "dir", s.dir, "error", err.Error())
		prev = nil
	}

	m := &Manifest{
		Title:       s.renderer.title,
		Generated:   s.renderer.now().UTC().Truncate(time.Second),
		Total:       res.Total,
		Fingerprint: store.Fingerprint(res.Records),
	}

	index, err := s.renderer.Index(res)
	if err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}
	if err := s.writePage("index.md", index); err != nil {
		return nil, err
	}
	m.Pages = append(m.Pages, ManifestPage{Path: "index.md", Title: s.renderer.title, Count: res.Total})

	for _, v := range res.Categories {
		page, err := s.renderer.Category(v)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", v.Key, err)
		}
		rel := filepath.ToSlash(filepath.Join(categorySlug(v.Key), "README.md"))
		if err := s.writePage(rel, page); err != nil {
			return nil, err
		}
		m.Pages = append(m.Pages, ManifestPage{Category: v.Key, Path: rel, Title: v.Name, Count: v.Count})
	}

	if prev != nil {
		s.removeStale(prev, m)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := store.WriteFileAtomic(filepath.Join(s.dir, ManifestName), buf.Bytes()); err != nil {
		return nil, err
	}
	s.logger.Info("Wrote wiki pages", "dir", s.dir, "pages", len(m.Pages))
	return m, nil
}

func (s *Site) writePage(rel string, data []byte) error {
	if err := store.WriteFileAtomic(filepath.Join(s.dir, filepath.FromSlash(rel)), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

func (s *Site) removeStale(prev, next *Manifest) {
	keep := make(map[string]bool, len(next.Pages))
	for _, p := range next.Pages {
		keep[p.Path] = true
	}
	for _, p := range prev.Pages {
		if keep[p.Path] {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(p.Path)) {
			s.logger.Warn("Ignoring manifest page outside the site directory", "path", p.Path)
			continue
		}
		full := filepath.Join(s.dir, filepath.FromSlash(p.Path))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove stale page", "path", p.Path, "error", err.Error())
			continue
		}
		// Only succeeds when the category directory is now empty.
		_ = os.Remove(filepath.Dir(full))
		s.logger.Debug("Removed stale page", "path", p.Path)
	}
}

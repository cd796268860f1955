package report

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRun = regexp.MustCompile(`-+`)
)

// Slug turns s into a lower-case ASCII path segment. Accents are dropped
// and separators collapse to single hyphens.
func Slug(s string) string {
	s = stripMarks(strings.ToLower(s))
	s = strings.NewReplacer(" ", "-", "_", "-", "/", "-", ".", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugOr returns Slug(s), or Slug(fallback) when s has no usable characters.
func SlugOr(s, fallback string) string {
	if out := Slug(s); out != "" {
		return out
	}
	return Slug(fallback)
}

// stripMarks removes combining marks after canonical decomposition.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

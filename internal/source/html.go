package source

import (
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"repowiki/internal/model"
)

// BaseURL resolves relative repository links on saved pages.
const BaseURL = "https://github.com"

var licensePattern = regexp.MustCompile(`^[A-Za-z0-9. -]*(License|Public Domain|GPL|LGPL|Apache|MIT|BSD)[A-Za-z0-9. -]*$`)

// ParseHTML extracts repository list items from a saved repository-tab page.
// Items are <li> elements marked itemtype="http://schema.org/Code" or
// data-testid="repo-list-item". Items without a name are skipped.
func ParseHTML(r io.Reader) ([]model.RawRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(BaseURL)
	var recs []model.RawRecord
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isRepoItem(n) {
			if rec, ok := extractRecord(n, base); ok {
				recs = append(recs, rec)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return recs, nil
}

func isRepoItem(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "li" {
		return false
	}
	return attr(n, "itemtype") == "http://schema.org/Code" || attr(n, "data-testid") == "repo-list-item"
}

func extractRecord(item *html.Node, base *url.URL) (model.RawRecord, bool) {
	var rec model.RawRecord
	var nameLink *html.Node
	forkedFrom := false

	var f func(*html.Node)
	f = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			switch {
			case strings.HasPrefix(text, "Forked from"):
				forkedFrom = true
				rec.Forks = true
			case rec.License == "" && licensePattern.MatchString(text) && !within(n, "p") && !within(n, "a"):
				rec.License = clean(text)
			}
		case html.ElementNode:
			if n.Data == "a" {
				href := attr(n, "href")
				switch {
				case strings.HasSuffix(href, "/stargazers"):
					if stars, err := ParseCount(textOf(n)); err == nil {
						rec.Stars = &stars
					}
				case nameLink == nil && (strings.Contains(itemprop(n), "name") || isRepoPath(href)):
					nameLink = n
				case forkedFrom && rec.Original == "":
					rec.Original = clean(textOf(n))
				}
				break
			}
			switch prop := itemprop(n); {
			case prop == "description":
				rec.Description = clean(textOf(n))
			case prop == "programmingLanguage" || prop == "main-language":
				rec.Language = clean(textOf(n))
			case prop == "license":
				rec.License = clean(textOf(n))
			case n.Data == "relative-time":
				if dt := attr(n, "datetime"); dt != "" {
					rec.LastUpdated = dt
				} else {
					rec.LastUpdated = clean(textOf(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(item)

	if nameLink == nil {
		return model.RawRecord{}, false
	}
	rec.Name = clean(textOf(nameLink))
	if href := attr(nameLink, "href"); href != "" {
		if u, err := base.Parse(href); err == nil {
			rec.URL = u.String()
		}
	}
	if rec.Name == "" {
		return model.RawRecord{}, false
	}
	return rec, true
}

// ParseCount parses counts as rendered by GitHub: "42", "3,456", "1.2k",
// "2m".
func ParseCount(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	n := math.Round(f * mult)
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("count %q out of range", s)
	}
	return int(n), nil
}

func isRepoPath(href string) bool {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	if strings.HasPrefix(href, BaseURL) {
		parts = strings.Split(strings.Trim(strings.TrimPrefix(href, BaseURL), "/"), "/")
	}
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

func itemprop(n *html.Node) string {
	if p := attr(n, "itemprop"); p != "" {
		return p
	}
	return attr(n, "item-prop")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func within(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var parts []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(parts, " ")
}

// clean normalizes to NFC and collapses whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

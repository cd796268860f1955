// Package source reads raw repository records from saved crawl output: JSON
// snapshots and saved GitHub repository-tab pages.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"repowiki/internal/errors"
	"repowiki/internal/model"
)

// Format identifies a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// DetectFormat guesses the format from a file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatJSON
	}
}

// ReadFile reads records from path. A directory is read as a sequence of
// pages: every .json, .html and .htm file in lexical order.
func ReadFile(path string) ([]model.RawRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	if !info.IsDir() {
		return readOne(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	var pages []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".html", ".htm":
			if !e.IsDir() {
				pages = append(pages, filepath.Join(path, e.Name()))
			}
		}
	}
	sort.Strings(pages)

	var all []model.RawRecord
	for _, p := range pages {
		recs, err := readOne(p)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

func readOne(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()

	var recs []model.RawRecord
	switch DetectFormat(path) {
	case FormatHTML:
		recs, err = ParseHTML(f)
	default:
		recs, err = ParseJSON(f)
	}
	if err != nil {
		return nil, unreadable(path, err)
	}
	return recs, nil
}

// ParseJSON decodes either a bare array of records or an object carrying a
// "repositories" array, which covers persisted state files.
func ParseJSON(r io.Reader) ([]model.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}

	if data[0] == '[' {
		var recs []model.RawRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}

	var doc struct {
		Repositories *[]model.RawRecord `json:"repositories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Repositories == nil {
		return nil, fmt.Errorf("snapshot has no repositories array")
	}
	return *doc.Repositories, nil
}

func unreadable(path string, err error) error {
	if errors.CodeOf(err) == errors.SourceUnreadable {
		return err
	}
	return errors.New(errors.SourceUnreadable, fmt.Sprintf("cannot read snapshot %s", path), err).
		WithDetails(map[string]interface{}{"path": path})
}

// Package store persists the reconciled collection as a single JSON document
// and keeps compressed backups of the states it replaces.
package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"repowiki/internal/enrich"
	"repowiki/internal/errors"
	"repowiki/internal/model"
	"repowiki/internal/reconcile"
	"repowiki/internal/slogutil"
)

// State is the on-disk document.
type State struct {
	TotalRepositories int                       `json:"total_repositories"`
	LastUpdated       string                    `json:"last_updated"`
	Categories        map[string][]model.Record `json:"categories"`
	Repositories      []model.Record            `json:"repositories"`
}

// Store reads and writes one state file.
type Store struct {
	path    string
	backups *Backups
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBackups enables a backup of the current file before every save.
func WithBackups(b *Backups) Option {
	return func(s *Store) { s.backups = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the clock used for last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store for path.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: slogutil.NewDiscardLogger(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file path.
func (s *Store) Path() string { return s.path }

// Read decodes the state file. A missing file returns an error satisfying
// os.IsNotExist; an undecodable one returns MALFORMED_PERSISTED_STATE.
// Persisted records pass through the normalizer, so files written by older
// crawls (absent fields, last_updated) load with the same defaults as
// observed records.
func (s *Store) Read() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// persistedRecord accepts the snake_case timestamp of older state files.
type persistedRecord struct {
	model.Record
	LegacyLastUpdated string `json:"last_updated,omitempty"`
}

type stateDoc struct {
	TotalRepositories int                          `json:"total_repositories"`
	LastUpdated       string                       `json:"last_updated"`
	Categories        map[string][]persistedRecord `json:"categories"`
	Repositories      []persistedRecord            `json:"repositories"`
}

func (s *Store) decode(data []byte) (*State, error) {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.MalformedPersistedState, "cannot parse persisted collection", err).
			WithDetails(map[string]interface{}{"path": s.path})
	}

	st := &State{
		TotalRepositories: doc.TotalRepositories,
		LastUpdated:       doc.LastUpdated,
		Categories:        make(map[string][]model.Record, len(doc.Categories)),
	}
	recs, err := s.normalize(doc.Repositories, "repositories")
	if err != nil {
		return nil, err
	}
	st.Repositories = recs
	for key, members := range doc.Categories {
		if st.Categories[key], err = s.normalize(members, "categories."+key); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Store) normalize(in []persistedRecord, section string) ([]model.Record, error) {
	out := make([]model.Record, 0, len(in))
	for i, p := range in {
		stars := p.Stars
		rec, err := enrich.Normalize(model.RawRecord{
			URL:               p.URL,
			Name:              p.Name,
			Description:       p.Description,
			Language:          p.Language,
			License:           p.License,
			Stars:             &stars,
			LastUpdated:       p.LastUpdated,
			LegacyLastUpdated: p.LegacyLastUpdated,
			Forks:             p.Forks,
			Original:          p.Original,
		})
		if err != nil {
			return nil, errors.New(errors.MalformedPersistedState,
				fmt.Sprintf("persisted record %s[%d] has no identity", section, i), err).
				WithDetails(map[string]interface{}{"path": s.path, "section": section, "index": i})
		}
		rec.Category = p.Category
		rec.Difficulty = p.Difficulty
		rec.QualityScore = p.QualityScore
		if p.Tags != nil {
			rec.Tags = p.Tags
		}
		out = append(out, rec)
	}
	return out, nil
}

// Previous returns the persisted collection. A missing file is an initial
// crawl and a malformed one is logged and treated the same way; both yield
// an empty collection. Other read failures are returned.
func (s *Store) Previous() (reconcile.Collection, error) {
	st, err := s.Read()
	switch {
	case err == nil:
		return reconcile.NewCollection(st.Repositories), nil
	case os.IsNotExist(err):
		s.logger.Info("No persisted collection, starting from empty state", "path", s.path)
		return reconcile.NewCollection(nil), nil
	case errors.CodeOf(err) == errors.MalformedPersistedState:
		s.logger.Warn("Persisted collection is malformed, starting from empty state",
			"path", s.path,
			"error", err.Error(),
		)
		return reconcile.NewCollection(nil), nil
	default:
		return reconcile.Collection{}, errors.New(errors.InternalError, "cannot read persisted collection", err)
	}
}

// Restore replaces the state file with backup name. The backup must decode
// as a valid collection, and the current file is itself backed up first so
// a restore can be undone.
func (s *Store) Restore(name string) (*State, error) {
	if s.backups == nil {
		return nil, fmt.Errorf("backups are disabled")
	}
	data, err := s.backups.Read(name)
	if err != nil {
		return nil, fmt.Errorf("cannot read backup %s: %w", name, err)
	}
	st, err := s.decode(data)
	if err != nil {
		return nil, err
	}

	if prev, err := s.backups.Backup(s.path); err != nil {
		return nil, err
	} else if prev != "" {
		s.logger.Info("Backed up state before restore", "backup", prev)
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		return nil, err
	}
	s.logger.Info("Restored persisted collection", "backup", name, "records", len(st.Repositories))
	return st, nil
}

// Save replaces the state file with coll grouped by views. The previous file
// is backed up first when backups are enabled; the write itself is a
// temp-file rename.
func (s *Store) Save(coll reconcile.Collection, views []model.CategoryView) (*State, error) {
	st := &State{
		TotalRepositories: coll.Len(),
		LastUpdated:       s.now().UTC().Format(time.RFC3339),
		Categories:        make(map[string][]model.Record, len(views)),
		Repositories:      coll.Records(),
	}
	for _, v := range views {
		st.Categories[v.Key] = v.Repositories
	}

	if s.backups != nil {
		name, err := s.backups.Backup(s.path)
		if err != nil {
			return nil, err
		}
		if name != "" {
			s.logger.Debug("Backed up persisted collection", "backup", name)
		}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(s.path, append(data, '\n')); err != nil {
		return nil, err
	}
	s.logger.Info("Saved persisted collection", "path", s.path, "records", st.TotalRepositories)
	return st, nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}

// Fingerprint hashes the source fields of recs in order. Derived metadata is
// ignored, so re-enriching does not change it.
func Fingerprint(recs []model.Record) string {
	h, _ := blake2b.New256(nil)
	enc := json.NewEncoder(h)
	for _, r := range recs {
		_ = enc.Encode(r.Stripped())
	}
	return hex.EncodeToString(h.Sum(nil))
}

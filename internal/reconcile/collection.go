// Package reconcile keeps a persisted repository collection consistent with a
// freshly observed snapshot.
package reconcile

import "repowiki/internal/model"

// Collection is an insertion-ordered, immutable set of records keyed by
// Record.Key. Every accessor returns copies.
type Collection struct {
	keys  []string
	byKey map[string]model.Record
}

// NewCollection builds a collection from recs. When two records share a key
// the first one wins.
func NewCollection(recs []model.Record) Collection {
	c := Collection{
		keys:  make([]string, 0, len(recs)),
		byKey: make(map[string]model.Record, len(recs)),
	}
	for _, r := range recs {
		k := r.Key()
		if _, dup := c.byKey[k]; dup {
			continue
		}
		c.keys = append(c.keys, k)
		c.byKey[k] = r.Clone()
	}
	return c
}

// Duplicates returns the keys that occur more than once in recs, in first
// repeat order.
func Duplicates(recs []model.Record) []string {
	seen := make(map[string]int, len(recs))
	var dups []string
	for _, r := range recs {
		k := r.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// Len returns the number of records.
func (c Collection) Len() int { return len(c.keys) }

// Get returns the record stored under key.
func (c Collection) Get(key string) (model.Record, bool) {
	r, ok := c.byKey[key]
	if !ok {
		return model.Record{}, false
	}
	return r.Clone(), true
}

// Has reports whether key is present.
func (c Collection) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Keys returns the keys in insertion order.
func (c Collection) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Records returns the records in insertion order.
func (c Collection) Records() []model.Record {
	out := make([]model.Record, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.byKey[k].Clone()
	}
	return out
}

// Map applies fn to every record and returns the resulting collection.
// fn must not change a record's key.
func (c Collection) Map(fn func(model.Record) (model.Record, error)) (Collection, error) {
	next := Collection{
		keys:  append([]string(nil), c.keys...),
		byKey: make(map[string]model.Record, len(c.keys)),
	}
	for _, k := range c.keys {
		r, err := fn(c.byKey[k].Clone())
		if err != nil {
			return Collection{}, err
		}
		next.byKey[k] = r
	}
	return next, nil
}

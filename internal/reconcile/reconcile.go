package reconcile

import "repowiki/internal/model"

// Significant fields compared by the change predicate.
const (
	FieldDescription = "description"
	FieldLanguage    = "language"
	FieldStars       = "stars"
)

// Diff entry kinds.
const (
	KindAdded   = "added"
	KindUpdated = "updated"
	KindRemoved = "removed"
)

// Change is one record present on both sides with a significant difference.
type Change struct {
	Key    string       `json:"key"`
	Before model.Record `json:"before"`
	After  model.Record `json:"after"`
	Fields []string     `json:"fields"`
}

// Diff is the three-way result of comparing previous and observed state.
// Added follows observed order; Updated and Removed follow previous order.
type Diff struct {
	Added   []model.Record `json:"added"`
	Updated []Change       `json:"updated"`
	Removed []model.Record `json:"removed"`
}

// Empty reports whether the diff carries no change.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// ChangedFields returns which of description, language and stars differ.
// Other fields are ignored.
func ChangedFields(before, after model.Record) []string {
	var fields []string
	if before.Description != after.Description {
		fields = append(fields, FieldDescription)
	}
	if before.Language != after.Language {
		fields = append(fields, FieldLanguage)
	}
	if before.Stars != after.Stars {
		fields = append(fields, FieldStars)
	}
	return fields
}

// Compute returns the diff between previous and observed without building
// the next state.
func Compute(previous, observed Collection) Diff {
	d := Diff{
		Added:   []model.Record{},
		Updated: []Change{},
		Removed: []model.Record{},
	}
	for _, k := range previous.keys {
		before := previous.byKey[k]
		after, ok := observed.byKey[k]
		if !ok {
			d.Removed = append(d.Removed, before.Clone())
			continue
		}
		if fields := ChangedFields(before, after); len(fields) > 0 {
			d.Updated = append(d.Updated, Change{
				Key:    k,
				Before: before.Clone(),
				After:  after.Clone(),
				Fields: fields,
			})
		}
	}
	for _, k := range observed.keys {
		if !previous.Has(k) {
			d.Added = append(d.Added, observed.byKey[k].Clone())
		}
	}
	return d
}

// Apply produces the state that results from applying d to previous:
// removed entries are dropped, updated entries are replaced at their
// original position and added entries are appended. previous is not
// modified.
func Apply(previous Collection, d Diff) Collection {
	removed := make(map[string]bool, len(d.Removed))
	for _, r := range d.Removed {
		removed[r.Key()] = true
	}
	updated := make(map[string]model.Record, len(d.Updated))
	for _, ch := range d.Updated {
		updated[ch.Key] = ch.After
	}

	next := Collection{
		keys:  make([]string, 0, previous.Len()+len(d.Added)),
		byKey: make(map[string]model.Record, previous.Len()+len(d.Added)),
	}
	for _, k := range previous.keys {
		if removed[k] {
			continue
		}
		r := previous.byKey[k]
		if u, ok := updated[k]; ok {
			r = u
		}
		next.keys = append(next.keys, k)
		next.byKey[k] = r.Clone()
	}
	for _, r := range d.Added {
		k := r.Key()
		if _, dup := next.byKey[k]; dup {
			continue
		}
		next.keys = append(next.keys, k)
		next.byKey[k] = r.Clone()
	}
	return next
}

// Reconcile compares previous with observed and returns the diff together
// with the next state. Reconciling the returned state against the same
// observed collection yields an empty diff.
func Reconcile(previous, observed Collection) (Diff, Collection) {
	d := Compute(previous, observed)
	return d, Apply(previous, d)
}

// Counts summarizes a diff for logs and history.
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Counts returns the number of entries of each kind.
func (d Diff) Counts() Counts {
	return Counts{Added: len(d.Added), Updated: len(d.Updated), Removed: len(d.Removed)}
}

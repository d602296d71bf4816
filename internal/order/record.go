// SPDX-License-Identifier: MPL-2.0

package order

import (
	"maps"
	"slices"

	"github.com/reqdoc/reqdoc/internal/kind"
)

// CurrentVersion is written into new and rewritten records.
const CurrentVersion = 1

type (
	// Entry is one document child of a container, in display order.
	Entry struct {
		Name string
		// KindHint is the kind recorded when the entry was last written. It is
		// a hint only: the physical kind always wins.
		KindHint string
		// Label is a free-form legacy label such as "Section" or "Document".
		Label string

		Disabled   bool
		Horizontal bool
		Unnumbered bool

		// Include overlay metadata.
		Title       string
		Description string
		ReadOnly    bool

		extra map[string]any
	}

	// Record is the ordered list of document children of one container.
	Record struct {
		Version int
		Entries []Entry

		extra map[string]any
	}
)

// New returns the default, empty record.
func New() *Record {
	return &Record{Version: CurrentVersion}
}

// Kind parses KindHint. It returns kind.Unknown for empty or unknown hints.
func (e Entry) Kind() kind.Kind {
	k, err := kind.Parse(e.KindHint)
	if err != nil {
		return kind.Unknown
	}
	return k
}

// Equal reports whether two entries carry the same data.
func (e Entry) Equal(o Entry) bool {
	return e.Name == o.Name &&
		e.KindHint == o.KindHint &&
		e.Label == o.Label &&
		e.Disabled == o.Disabled &&
		e.Horizontal == o.Horizontal &&
		e.Unnumbered == o.Unnumbered &&
		e.Title == o.Title &&
		e.Description == o.Description &&
		e.ReadOnly == o.ReadOnly &&
		maps.EqualFunc(e.extra, o.extra, equalValue)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		Version: r.Version,
		Entries: make([]Entry, len(r.Entries)),
		extra:   maps.Clone(r.extra),
	}
	for i, e := range r.Entries {
		e.extra = maps.Clone(e.extra)
		c.Entries[i] = e
	}
	return c
}

// Equal reports whether two records would encode identically.
func (r *Record) Equal(o *Record) bool {
	return r.Version == o.Version &&
		slices.EqualFunc(r.Entries, o.Entries, Entry.Equal) &&
		maps.EqualFunc(r.extra, o.extra, equalValue)
}

// Names returns the entry names in order.
func (r *Record) Names() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Name
	}
	return out
}

// Index returns the position of name, or -1.
func (r *Record) Index(name string) int {
	return slices.IndexFunc(r.Entries, func(e Entry) bool { return e.Name == name })
}

// Lookup returns the entry called name.
func (r *Record) Lookup(name string) (Entry, bool) {
	i := r.Index(name)
	if i < 0 {
		return Entry{}, false
	}
	return r.Entries[i], true
}

// Insert places e at index i; an index outside [0, len] appends.
func (r *Record) Insert(i int, e Entry) {
	if i < 0 || i > len(r.Entries) {
		i = len(r.Entries)
	}
	r.Entries = slices.Insert(r.Entries, i, e)
}

// Remove deletes the entry called name and returns it.
func (r *Record) Remove(name string) (Entry, bool) {
	i := r.Index(name)
	if i < 0 {
		return Entry{}, false
	}
	e := r.Entries[i]
	r.Entries = slices.Delete(r.Entries, i, i+1)
	return e, true
}

// Move relocates the entry called name to index i, keeping the relative
// order of every other entry. An index outside [0, len-1] moves to the end.
func (r *Record) Move(name string, i int) bool {
	e, ok := r.Remove(name)
	if !ok {
		return false
	}
	r.Insert(i, e)
	return true
}

// Update applies fn to the entry called name in place.
func (r *Record) Update(name string, fn func(*Entry)) bool {
	i := r.Index(name)
	if i < 0 {
		return false
	}
	fn(&r.Entries[i])
	return true
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		return ok && slices.EqualFunc(av, bv, equalValue)
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && maps.EqualFunc(av, bv, equalValue)
	default:
		return a == b
	}
}

// SPDX-License-Identifier: MPL-2.0

package order

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
)

type (
	// Listed is one classified physical entry of a container.
	Listed struct {
		classify.Entry
		classify.Result
	}

	// Child is a document child: the physical entry plus its order metadata.
	Child struct {
		Listed
		Meta Entry
	}

	// Conflict records an order entry whose kind hint disagrees with the
	// physical kind. The physical kind wins.
	Conflict struct {
		Name     string
		Recorded string
		Physical kind.Kind
	}

	// Result is the outcome of reconciling one container.
	Result struct {
		// All is the classified physical listing in name order.
		All []Listed
		// Document is the ordered list of document children.
		Document []Child
		// Record is the reconciled order record.
		Record *Record
		// Changed reports whether the record differs from the stored one.
		Changed bool
		// Written reports whether the record file was rewritten.
		Written   bool
		Conflicts []Conflict
	}

	// Options controls one reconciliation.
	Options struct {
		// Parent is the kind of the container being reconciled.
		Parent kind.Kind
		// ReadOnly suppresses every write; the merged order is still returned.
		ReadOnly bool
	}

	// Reconciler merges physical listings with order records.
	Reconciler struct {
		fs     afero.Fs
		names  classify.Names
		schema classify.FormSchema
		logger *log.Logger
	}
)

// NewReconciler creates a Reconciler. schema and logger may be nil.
func NewReconciler(fsys afero.Fs, names classify.Names, schema classify.FormSchema, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{fs: fsys, names: names, schema: schema, logger: logger}
}

// RecordPath returns the order record path of the container at dir.
func (r *Reconciler) RecordPath(dir string) string {
	return filepath.Join(dir, r.names.OrderFile)
}

// List classifies the physical children of dir in name order.
func (r *Reconciler) List(dir string, parent kind.Kind) ([]Listed, error) {
	infos, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	ctx := classify.Context{Parent: parent, Names: r.names, Schema: r.schema}
	out := make([]Listed, 0, len(infos))
	for _, fi := range infos {
		e, probeErr := classify.Probe(r.fs, dir, fi, r.names)
		if probeErr != nil {
			r.logger.Warn("probe failed, classifying without markers", "dir", dir, "entry", fi.Name(), "error", probeErr)
		}
		out = append(out, Listed{Entry: e, Result: classify.Classify(e, ctx)})
	}
	return out, nil
}

// Reconcile lists dir, merges the listing with the container's order record
// and writes the record back when it changed. A missing record is created
// with the default empty model; an undecodable one is rebuilt from the
// listing. Calling Reconcile again without physical changes returns the same
// order and does not write. A failed write-back is logged and the merged
// order is still returned with Written unset; only a failed listing is an
// error.
func (r *Reconciler) Reconcile(dir string, opts Options) (*Result, error) {
	listed, err := r.List(dir, opts.Parent)
	if err != nil {
		return nil, err
	}

	path := r.RecordPath(dir)
	stored, warnings, err := Load(r.fs, path)
	for _, w := range warnings {
		r.logger.Warn("order record entry ignored", "record", path, "warning", w)
	}
	if err != nil {
		r.logger.Warn("order record unreadable, rebuilding", "record", path, "error", err)
		stored = nil
	}
	absent := stored == nil
	if absent {
		stored = New()
	}

	res := Merge(stored, listed)
	res.All = listed
	for _, c := range res.Conflicts {
		r.logger.Warn("order entry kind mismatch, physical kind wins",
			"container", dir, "entry", c.Name, "recorded", c.Recorded, "physical", c.Physical)
	}

	if (res.Changed || absent) && !opts.ReadOnly {
		written, err := Save(r.fs, path, res.Record)
		if err != nil {
			r.logger.Warn("order record not written, using merged order", "record", path, "error", err)
		}
		res.Written = written
		if written {
			r.logger.Debug("order record written", "record", path, "entries", len(res.Record.Entries))
		}
	}
	return res, nil
}

// Merge reconciles rec with a physical listing without touching storage.
// Entries without a physical document child are dropped, duplicate names
// keep their first occurrence, and new document children are appended in
// listing order. rec is not modified.
func Merge(rec *Record, listed []Listed) *Result {
	physical := make(map[string]Listed, len(listed))
	for _, l := range listed {
		if !l.Kind.IsDocument() {
			continue
		}
		if _, dup := physical[l.Name]; !dup {
			physical[l.Name] = l
		}
	}

	next := &Record{Version: rec.Version, extra: maps.Clone(rec.extra)}
	if next.Version == 0 {
		next.Version = CurrentVersion
	}
	res := &Result{Record: next}
	seen := make(map[string]bool, len(rec.Entries))

	for _, e := range rec.Entries {
		if seen[e.Name] {
			res.Changed = true
			continue
		}
		l, ok := physical[e.Name]
		if !ok {
			res.Changed = true
			continue
		}
		seen[e.Name] = true
		if e.KindHint != "" && e.KindHint != l.Kind.String() {
			res.Conflicts = append(res.Conflicts, Conflict{Name: e.Name, Recorded: e.KindHint, Physical: l.Kind})
			e.KindHint = l.Kind.String()
			res.Changed = true
		}
		next.Entries = append(next.Entries, e)
		res.Document = append(res.Document, Child{Listed: l, Meta: e})
	}

	for _, l := range listed {
		if !l.Kind.IsDocument() || seen[l.Name] {
			continue
		}
		seen[l.Name] = true
		e := Entry{Name: l.Name, KindHint: l.Kind.String()}
		next.Entries = append(next.Entries, e)
		res.Document = append(res.Document, Child{Listed: l, Meta: e})
		res.Changed = true
	}
	return res
}

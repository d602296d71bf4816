// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/order"
	"github.com/reqdoc/reqdoc/internal/sidecar"
)

// Load reconciles an Unloaded or Stale container with its physical listing
// and order record. It does nothing for a Loaded container.
func (n *Node) Load() error {
	if err := n.alive(); err != nil {
		return err
	}
	if n.c == nil {
		return fmt.Errorf("%w: %s is a %s", ErrNotContainer, n.name, n.kind)
	}
	if n.c.state == Loaded {
		return nil
	}
	return n.reload()
}

// Invalidate marks a Loaded container Stale. Its children stay readable
// until the next Load.
func (n *Node) Invalidate() {
	if n.c != nil && n.c.state == Loaded {
		n.c.state = Stale
	}
}

// Refresh invalidates the container and loads it again.
func (n *Node) Refresh() error {
	n.Invalidate()
	return n.Load()
}

func (n *Node) reload() error {
	p := n.project
	if n.kind == kind.Include {
		n.c.target = p.readLink(n.Path())
		if n.IsBroken() {
			n.replaceChildren(nil, nil, nil)
			n.c.folder = sidecar.Set{}
			n.c.state = Loaded
			p.logger.Warn("include target missing", "include", n.id, "target", n.c.target)
			return nil
		}
	}

	var (
		listed []order.Listed
		doc    []order.Child
		rec    *order.Record
	)
	if n.kind.IsAuxiliary() {
		l, err := p.reconciler.List(n.Path(), n.kind)
		if err != nil {
			return ioErr("list", n.Path(), err)
		}
		listed = l
	} else {
		res, err := p.reconciler.Reconcile(n.Path(), order.Options{Parent: n.kind, ReadOnly: n.IsReadOnly()})
		if err != nil {
			return ioErr("reconcile", n.Path(), err)
		}
		listed, doc, rec = res.All, res.Document, res.Record
	}

	byName := make(map[string]*Node, len(listed))
	all := make([]*Node, 0, len(listed))
	for _, l := range listed {
		child := p.resolve(n, l.Name, l.Result)
		byName[l.Name] = child
		all = append(all, child)
	}
	docNodes := make([]*Node, 0, len(doc))
	for _, d := range doc {
		child := byName[d.Name]
		child.meta = d.Meta
		docNodes = append(docNodes, child)
	}

	n.replaceChildren(all, docNodes, rec)
	n.bindSidecars()
	n.c.state = Loaded
	return nil
}

// resolve returns the live node for a listed child of parent, creating it
// when the registry holds none or holds one with another parent or kind.
func (p *Project) resolve(parent *Node, name string, res classify.Result) *Node {
	probe := &Node{project: p, parent: parent, name: name}
	id := probe.computeIdentity()
	node, created := p.registry.Resolve(id,
		func(cached *Node) bool {
			return cached.parent == parent && cached.kind == res.Kind && !cached.IsDisposed()
		},
		func() *Node { return p.newNode(parent, name, res) },
	)
	if !created {
		node.formKind = res.FormKind
	}
	return node
}

// replaceChildren installs new child lists and discards nodes that are no
// longer present.
func (n *Node) replaceChildren(all, doc []*Node, rec *order.Record) {
	p := n.project
	keep := make(map[*Node]bool, len(all))
	for _, c := range all {
		keep[c] = true
	}
	for _, old := range n.c.all {
		if !keep[old] {
			p.discard(old)
		}
	}

	n.c.all = all
	n.c.doc = doc
	n.c.record = rec
	n.c.aux = [auxSlots]*Node{}
	for _, c := range all {
		if slot, ok := slotOf(c.kind); ok {
			n.c.aux[slot] = c
			p.aggregates.add(c)
		}
	}
}

// bindSidecars attaches comment and description files to their owners by
// name once per load. The binding is kept on both sides until the next load.
func (n *Node) bindSidecars() {
	files := make([]sidecar.File, len(n.c.all))
	byName := make(map[string]*Node, len(n.c.all))
	for i, c := range n.c.all {
		files[i] = sidecar.File{Name: c.name, Kind: c.kind}
		byName[c.name] = c
		c.owner = nil
	}
	owners := make(map[string]*Node, len(n.c.doc))
	for _, d := range n.c.doc {
		owners[d.name] = d
	}

	att := sidecar.Attach(n.project.names, files, func(name string) bool {
		_, ok := owners[name]
		return ok
	})
	for name, d := range owners {
		d.sidecars, _ = att.For(name)
		for _, f := range []string{d.sidecars.Comment, d.sidecars.Description} {
			if s, ok := byName[f]; ok && f != "" {
				s.owner = d
			}
		}
	}
	n.c.folder = att.Folder()
	for _, f := range []string{n.c.folder.Comment, n.c.folder.Description} {
		if s, ok := byName[f]; ok && f != "" {
			s.owner = n
		}
	}
	for _, o := range att.Orphans() {
		n.project.logger.Debug("orphaned sidecar", "container", n.id, "file", o.Name)
	}
}

// insertChild adds c to the name-ordered list of all children.
func (n *Node) insertChild(c *Node) {
	i, _ := slices.BinarySearchFunc(n.c.all, c.name, func(e *Node, name string) int {
		return strings.Compare(e.name, name)
	})
	n.c.all = slices.Insert(n.c.all, i, c)
}

// dropChild removes c from every child list of n without disposing it.
func (n *Node) dropChild(c *Node) {
	n.c.all = slices.DeleteFunc(n.c.all, func(e *Node) bool { return e == c })
	n.c.doc = slices.DeleteFunc(n.c.doc, func(e *Node) bool { return e == c })
	if slot, ok := slotOf(c.kind); ok && n.c.aux[slot] == c {
		n.c.aux[slot] = nil
	}
}

// sidecarNodes returns the sidecar children of n.parent bound to n.
func (n *Node) sidecarNodes() []*Node {
	if n.parent == nil || n.parent.c == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.parent.c.all {
		if c.owner == n && c.kind.IsSidecar() {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) resortChildren() {
	slices.SortFunc(n.c.all, func(a, b *Node) int { return strings.Compare(a.name, b.name) })
}

// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/numbering"
	"github.com/reqdoc/reqdoc/internal/order"
	"github.com/reqdoc/reqdoc/internal/registry"
	"github.com/reqdoc/reqdoc/internal/sidecar"
)

// End appends when passed as an index.
const End = -1

const (
	// Unloaded containers have never been reconciled.
	Unloaded LoadState = iota
	// Loaded containers reflect the last reconciliation.
	Loaded
	// Stale containers keep their last children until the next Load.
	Stale
)

const (
	slotVariables = iota
	slotReports
	slotGlossary
	slotSchemas
	auxSlots
)

type (
	// LoadState is the state of a container's child lists.
	LoadState uint8

	// Node is one element of the project tree. Exactly one live Node exists
	// per identity; a Node removed from the tree is disposed and rejects
	// further operations.
	Node struct {
		project *Project
		// parent is a non-owning back reference; nil for the project root.
		parent *Node
		// owner is set on sidecar nodes when they are bound to their owner.
		owner *Node

		kind     kind.Kind
		formKind string
		name     string
		id       string

		// meta is this node's entry in its parent's order record.
		meta order.Entry
		// sidecars names the comment and description files bound to the node.
		sidecars sidecar.Set

		number   atomic.Pointer[string]
		disposed atomic.Bool

		c *containerState
	}

	containerState struct {
		state  LoadState
		all    []*Node
		doc    []*Node
		record *order.Record
		aux    [auxSlots]*Node
		// folder holds the folder-level sidecars found inside the container.
		folder sidecar.Set
		// target is the resolved link target of an include overlay.
		target string
	}
)

var loadStateNames = [...]string{Unloaded: "unloaded", Loaded: "loaded", Stale: "stale"}

func (s LoadState) String() string {
	if int(s) < len(loadStateNames) {
		return loadStateNames[s]
	}
	return fmt.Sprintf("LoadState(%d)", s)
}

func (p *Project) newNode(parent *Node, name string, res classify.Result) *Node {
	n := &Node{project: p, parent: parent, kind: res.Kind, formKind: res.FormKind, name: name}
	if res.Kind.IsContainer() || res.Kind.IsAuxiliary() {
		n.c = &containerState{}
	}
	if res.Kind == kind.Include {
		n.c.target = p.readLink(n.Path())
	}
	n.id = n.computeIdentity()
	return n
}

func (n *Node) computeIdentity() string {
	if n.parent == nil {
		return registry.ProjectIdentity(n.name)
	}
	if n.parent.kind == kind.Include {
		return registry.Identity(n.name, registry.IncludeRoot(n.parent.id, n.parent.includeKey()))
	}
	return registry.Identity(n.name, n.parent.id)
}

// includeKey identifies the backing resource of an include overlay so that
// its children get include-local identities.
func (n *Node) includeKey() string {
	if n.c != nil && n.c.target != "" {
		return n.c.target
	}
	return n.Path()
}

// Identity implements registry.Entry.
func (n *Node) Identity() string { return n.id }

// Dispose implements registry.Entry.
func (n *Node) Dispose() { n.disposed.Store(true) }

// Contained implements registry.Container.
func (n *Node) Contained() []*Node {
	if n.c == nil {
		return nil
	}
	return n.c.all
}

// ID returns the node's identity.
func (n *Node) ID() string { return n.id }

// Name returns the physical name (the link name for include overlays).
func (n *Node) Name() string { return n.name }

// Kind returns the node kind.
func (n *Node) Kind() kind.Kind { return n.kind }

// FormKind returns the form kind assigned by the schema, for kind.Form.
func (n *Node) FormKind() string { return n.formKind }

// Extension returns the lower-case file extension including the dot.
func (n *Node) Extension() string { return strings.ToLower(filepath.Ext(n.name)) }

// Parent returns the owning container, or nil for the project root.
func (n *Node) Parent() *Node { return n.parent }

// Owner returns the node a sidecar is bound to. It is nil for orphaned
// sidecars and for every other kind.
func (n *Node) Owner() *Node { return n.owner }

// Project returns the project the node belongs to.
func (n *Node) Project() *Project { return n.project }

// Path returns the physical path. Children of an include overlay are
// addressed through the link.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.project.dir
	}
	return filepath.Join(n.parent.Path(), n.name)
}

// Meta returns the node's order record entry.
func (n *Node) Meta() order.Entry { return n.meta }

// IsDisposed reports whether the node has left the registry.
func (n *Node) IsDisposed() bool { return n.disposed.Load() }

// IsDisabled reports the node's own disabled flag.
func (n *Node) IsDisabled() bool { return n.meta.Disabled }

// IsHorizontal reports the unit orientation flag.
func (n *Node) IsHorizontal() bool { return n.meta.Horizontal }

// IsUnnumbered reports whether the container is excluded from positional
// numbering.
func (n *Node) IsUnnumbered() bool { return n.meta.Unnumbered }

// DisabledInDocument reports whether the node or any ancestor is disabled.
func (n *Node) DisabledInDocument() bool {
	for it := n; it != nil; it = it.parent {
		if it.meta.Disabled {
			return true
		}
	}
	return false
}

// IsIncluded reports whether the node is reached through an include overlay.
func (n *Node) IsIncluded() bool {
	for it := n.parent; it != nil; it = it.parent {
		if it.kind == kind.Include {
			return true
		}
	}
	return false
}

// IsReadOnly reports whether the node's contents are read-only: it is a
// read-only include overlay or lies inside one.
func (n *Node) IsReadOnly() bool {
	for it := n; it != nil; it = it.parent {
		if it.kind == kind.Include && it.meta.ReadOnly {
			return true
		}
	}
	return false
}

// State returns the load state of a container. Non-containers are always
// Unloaded.
func (n *Node) State() LoadState {
	if n.c == nil {
		return Unloaded
	}
	return n.c.state
}

// Children returns every child of the last load: document children,
// sidecars, markers, the order record and auxiliary folders, in name order.
func (n *Node) Children() []*Node {
	if n.c == nil {
		return nil
	}
	return slices.Clone(n.c.all)
}

// DocumentChildren returns the ordered document children of the last load.
// A broken include overlay has none.
func (n *Node) DocumentChildren() []*Node {
	if n.c == nil {
		return nil
	}
	return slices.Clone(n.c.doc)
}

// Child returns the document child called name.
func (n *Node) Child(name string) (*Node, bool) {
	if n.c == nil {
		return nil, false
	}
	i := slices.IndexFunc(n.c.doc, func(c *Node) bool { return c.name == name })
	if i < 0 {
		return nil, false
	}
	return n.c.doc[i], true
}

// Index returns the position of the node among its parent's document
// children, or -1.
func (n *Node) Index() int {
	if n.parent == nil || n.parent.c == nil {
		return -1
	}
	return slices.Index(n.parent.c.doc, n)
}

// Items implements numbering.Item.
func (n *Node) Items() []numbering.Item {
	if n.c == nil || n.c.state == Unloaded || !n.kind.IsContainer() {
		return nil
	}
	out := make([]numbering.Item, len(n.c.doc))
	for i, c := range n.c.doc {
		out[i] = c
	}
	return out
}

// SetItemNumber implements numbering.Item.
func (n *Node) SetItemNumber(number string) {
	n.number.Store(&number)
}

func (n *Node) String() string {
	return n.id
}

func (n *Node) alive() error {
	if n.disposed.Load() {
		return fmt.Errorf("%w: %s", ErrDisposed, n.id)
	}
	return nil
}

func (n *Node) isDescendantOf(anc *Node) bool {
	for it := n.parent; it != nil; it = it.parent {
		if it == anc {
			return true
		}
	}
	return false
}

// subtree returns n and every loaded descendant, parents before children.
func (n *Node) subtree() []*Node {
	out := []*Node{n}
	if n.c != nil {
		for _, c := range n.c.all {
			out = append(out, c.subtree()...)
		}
	}
	return out
}

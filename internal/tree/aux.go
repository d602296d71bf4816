// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
)

type (
	// Aggregates lists the auxiliary folders registered across the project.
	Aggregates struct {
		Variables  []*Node
		Reports    []*Node
		Glossaries []*Node
	}

	aggregates struct {
		mu    sync.Mutex
		byKey map[kind.Kind]map[*Node]struct{}
	}
)

func newAggregates() *aggregates {
	return &aggregates{byKey: map[kind.Kind]map[*Node]struct{}{
		kind.Variables:      {},
		kind.Reports:        {},
		kind.GlossaryFolder: {},
	}}
}

func (a *aggregates) add(n *Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if set, ok := a.byKey[n.kind]; ok {
		set[n] = struct{}{}
	}
}

func (a *aggregates) remove(n *Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if set, ok := a.byKey[n.kind]; ok {
		delete(set, n)
	}
}

func (a *aggregates) list(k kind.Kind) []*Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Node, 0, len(a.byKey[k]))
	for n := range a.byKey[k] {
		out = append(out, n)
	}
	slices.SortFunc(out, func(x, y *Node) int { return cmp.Compare(x.id, y.id) })
	return out
}

// Aggregates returns the variables, report and glossary folders of every
// loaded container, ordered by identity.
func (p *Project) Aggregates() Aggregates {
	return Aggregates{
		Variables:  p.aggregates.list(kind.Variables),
		Reports:    p.aggregates.list(kind.Reports),
		Glossaries: p.aggregates.list(kind.GlossaryFolder),
	}
}

func slotOf(k kind.Kind) (int, bool) {
	switch k {
	case kind.Variables:
		return slotVariables, true
	case kind.Reports:
		return slotReports, true
	case kind.GlossaryFolder:
		return slotGlossary, true
	case kind.SchemaFolder:
		return slotSchemas, true
	default:
		return 0, false
	}
}

func auxName(names classify.Names, k kind.Kind) string {
	switch k {
	case kind.Variables:
		return names.VariablesFolder
	case kind.Reports:
		return names.ReportsFolder
	case kind.GlossaryFolder:
		return names.GlossaryFolder
	default:
		return names.SchemaFolder
	}
}

// Auxiliary returns the container's singleton folders in their fixed order:
// variables, reports, glossary, schemas. Absent slots are skipped.
func (n *Node) Auxiliary() []*Node {
	if n.c == nil {
		return nil
	}
	out := make([]*Node, 0, auxSlots)
	for _, a := range n.c.aux {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (n *Node) auxByName(name string) (*Node, bool) {
	for _, a := range n.Auxiliary() {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

// EnsureVariables returns the variables folder, creating it when missing.
func (n *Node) EnsureVariables() (*Node, error) { return n.ensureAux(kind.Variables) }

// EnsureReports returns the reports folder, creating it when missing.
func (n *Node) EnsureReports() (*Node, error) { return n.ensureAux(kind.Reports) }

// EnsureGlossary returns the glossary folder, creating it when missing.
func (n *Node) EnsureGlossary() (*Node, error) { return n.ensureAux(kind.GlossaryFolder) }

func (n *Node) ensureAux(k kind.Kind) (*Node, error) {
	if err := n.writable(); err != nil {
		return nil, err
	}
	slot, _ := slotOf(k)
	if a := n.c.aux[slot]; a != nil {
		return a, nil
	}

	p := n.project
	name := auxName(p.names, k)
	if n.hasChild(name) {
		return nil, fmt.Errorf("%w: %s holds a non-folder %s", ErrNameExists, n.id, name)
	}
	path := filepath.Join(n.Path(), name)
	if err := p.fs.Mkdir(path, 0o755); err != nil {
		return nil, ioErr("create folder", path, err)
	}

	a := p.resolve(n, name, classify.Result{Kind: k})
	n.insertChild(a)
	n.c.aux[slot] = a
	p.aggregates.add(a)
	p.logger.Debug("auxiliary folder created", "container", n.id, "kind", k)
	return a, nil
}

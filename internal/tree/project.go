// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/numbering"
	"github.com/reqdoc/reqdoc/internal/order"
	"github.com/reqdoc/reqdoc/internal/registry"
	"github.com/reqdoc/reqdoc/internal/sidecar"
)

type (
	// Options configures Open.
	Options struct {
		// Fs defaults to the OS filesystem.
		Fs afero.Fs
		// Names overrides the on-disk names; unset fields use the defaults.
		Names classify.Names
		// Schema maps form extensions to form kinds. It may be nil.
		Schema classify.FormSchema
		Logger *log.Logger
	}

	// Project is an open document project. Close releases every node.
	Project struct {
		dir    string
		fs     afero.Fs
		names  classify.Names
		schema classify.FormSchema
		logger *log.Logger

		registry   *registry.Registry[*Node]
		reconciler *order.Reconciler
		sidecars   *sidecar.Store
		engine     *numbering.Engine
		aggregates *aggregates

		root   *Node
		closed atomic.Bool
	}
)

// Init creates the project directory and its root order record when they
// are missing, then opens the project.
func Init(dir string, opts Options) (*Project, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	names := opts.Names.WithDefaults()
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, ioErr("create project", dir, err)
	}
	path := filepath.Join(dir, names.OrderFile)
	if ok, err := afero.Exists(fsys, path); err != nil {
		return nil, ioErr("stat", path, err)
	} else if !ok {
		if _, err := order.Save(fsys, path, order.New()); err != nil {
			return nil, ioErr("create order record", path, err)
		}
	}
	opts.Fs = fsys
	return Open(dir, opts)
}

// Open opens the project rooted at dir and loads the root container.
func Open(dir string, opts Options) (*Project, error) {
	p := &Project{
		dir:        filepath.Clean(dir),
		fs:         opts.Fs,
		names:      opts.Names.WithDefaults(),
		schema:     opts.Schema,
		logger:     opts.Logger,
		aggregates: newAggregates(),
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if err := p.names.Validate(); err != nil {
		return nil, err
	}

	fi, err := p.fs.Stat(p.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, p.dir)
	}
	if err != nil {
		return nil, ioErr("stat", p.dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, p.dir)
	}

	p.registry = registry.New[*Node](registry.WithLogger(p.logger))
	p.reconciler = order.NewReconciler(p.fs, p.names, p.schema, p.logger)
	p.sidecars = sidecar.NewStore(p.fs, p.names, p.logger)
	p.root = p.newNode(nil, filepath.Base(p.dir), classify.Result{Kind: kind.Project})
	p.registry.Put(p.root)
	p.engine = numbering.New(p.root, numbering.WithLogger(p.logger))

	if err := p.root.Load(); err != nil {
		p.Close()
		return nil, err
	}
	p.logger.Debug("project opened", "dir", p.dir, "identity", p.root.id)
	return p, nil
}

// Close disposes every node. Further operations fail with ErrDisposed.
func (p *Project) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.registry.Close()
	return nil
}

// Dir returns the project root directory.
func (p *Project) Dir() string { return p.dir }

// Root returns the project root node.
func (p *Project) Root() *Node { return p.root }

// Names returns the on-disk names in use.
func (p *Project) Names() classify.Names { return p.names }

// Fs returns the project filesystem.
func (p *Project) Fs() afero.Fs { return p.fs }

// Numbering returns the project's numbering engine.
func (p *Project) Numbering() *numbering.Engine { return p.engine }

// Renumber runs a numbering pass over the loaded tree.
func (p *Project) Renumber() bool { return p.engine.Renumber() }

// Lookup returns the live node registered under identity.
func (p *Project) Lookup(identity string) (*Node, bool) {
	return p.registry.Get(identity)
}

// Registered returns the number of live nodes.
func (p *Project) Registered() int { return p.registry.Len() }

// LoadTree loads every container that is not Loaded, depth first. Broken
// include overlays load as empty. An include overlay whose target encloses
// a directory already being loaded is left Unloaded so that link cycles
// terminate.
func (p *Project) LoadTree() error {
	var load func(n *Node, real string, stack []string) error
	load = func(n *Node, real string, stack []string) error {
		if err := n.Load(); err != nil {
			return err
		}
		stack = append(stack, real)
		for _, c := range n.c.all {
			if c.c == nil {
				continue
			}
			childReal := filepath.Join(real, c.name)
			if c.kind == kind.Include && c.c.target != "" {
				childReal = c.c.target
				if encloses(childReal, stack) {
					p.logger.Warn("include cycle, not descending", "include", c.id, "target", childReal)
					continue
				}
			}
			if err := load(c, childReal, stack); err != nil {
				return err
			}
		}
		return nil
	}
	return load(p.root, p.dir, nil)
}

func encloses(dir string, stack []string) bool {
	for _, s := range stack {
		if s == dir || strings.HasPrefix(s, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Refresh marks every loaded container stale and loads the tree again.
// Node identities survive a refresh as long as the backing resources do.
func (p *Project) Refresh() error {
	for _, n := range p.root.subtree() {
		n.Invalidate()
	}
	return p.LoadTree()
}

// Walk visits the document children of every loaded container depth-first
// in document order. Returning fs.SkipDir from fn skips the node's
// children; any other error stops the walk.
func (p *Project) Walk(fn func(n *Node, depth int) error) error {
	err := walk(p.root, 0, fn)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func walk(n *Node, depth int, fn func(*Node, int) error) error {
	if n.c == nil || !n.kind.IsContainer() {
		return nil
	}
	for _, c := range n.c.doc {
		err := fn(c, depth)
		if errors.Is(err, fs.SkipDir) {
			continue
		}
		if err != nil {
			return err
		}
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find resolves a slash-separated path of document names from the root.
// Containers on the way are loaded when needed. "" and "/" return the root.
func (p *Project) Find(path string) (*Node, error) {
	n := p.root
	for _, seg := range strings.Split(strings.Trim(filepath.ToSlash(path), "/"), "/") {
		if seg == "" {
			continue
		}
		if n.c == nil || !n.kind.IsContainer() {
			return nil, fmt.Errorf("%w: %s is a %s", ErrNotContainer, n.name, n.kind)
		}
		if err := n.Load(); err != nil {
			return nil, err
		}
		child, ok := n.Child(seg)
		if !ok {
			child, ok = n.auxByName(seg)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, seg, n.id)
		}
		n = child
	}
	return n, nil
}

func (p *Project) readLink(path string) string {
	lr, ok := p.fs.(afero.LinkReader)
	if !ok {
		return ""
	}
	target, err := lr.ReadlinkIfPossible(path)
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target)
}

func (p *Project) classifyContext(parent kind.Kind) classify.Context {
	return classify.Context{Parent: parent, Names: p.names, Schema: p.schema}
}

// discard removes n and everything below it from the registry and the
// project-wide aggregates.
func (p *Project) discard(n *Node) {
	for _, d := range n.subtree() {
		p.aggregates.remove(d)
	}
	p.registry.Discard(n)
}

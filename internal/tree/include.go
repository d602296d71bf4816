// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/order"
)

// IsBroken reports whether an include overlay has no backing resource.
// Other kinds are never broken; broken folders have their own kind.
func (n *Node) IsBroken() bool {
	if n.kind != kind.Include {
		return false
	}
	fi, err := n.project.fs.Stat(n.Path())
	return err != nil || !fi.IsDir()
}

// Target returns the last known link target of an include overlay.
func (n *Node) Target() string {
	if n.kind != kind.Include {
		return ""
	}
	return n.c.target
}

// DisplayName returns the name shown for the node. For include overlays
// this is the title override, else the backing folder's name, else the last
// segment of the broken link.
func (n *Node) DisplayName() string {
	if n.kind != kind.Include {
		return n.name
	}
	if n.meta.Title != "" {
		return n.meta.Title
	}
	if n.c.target != "" {
		return filepath.Base(n.c.target)
	}
	return n.name
}

// SetLink points the include overlay at target, replacing the old link, and
// reloads its children. The link is refused when target does not exist.
func (n *Node) SetLink(target string, readOnly bool) error {
	if err := n.alive(); err != nil {
		return err
	}
	if n.kind != kind.Include {
		return fmt.Errorf("%w: set link on %s", ErrUnsupported, n.kind)
	}
	parent := n.parent
	if err := parent.writable(); err != nil {
		return err
	}
	p := n.project
	resolved, err := p.checkTarget(parent.Path(), target)
	if err != nil {
		return err
	}

	path := n.Path()
	previous := p.readLink(path)
	if _, err := lstat(p.fs, path); err == nil {
		if err := p.fs.Remove(path); err != nil {
			return ioErr("remove link", path, err)
		}
	}
	if err := p.symlink(resolved, path); err != nil {
		if previous != "" {
			p.undo("restore link", p.symlink(previous, path))
		}
		return err
	}

	rec := parent.c.record.Clone()
	rec.Update(n.name, func(e *order.Entry) { e.ReadOnly = readOnly })
	if err := parent.saveRecord(rec); err != nil {
		p.undo("remove link", p.fs.Remove(path))
		if previous != "" {
			p.undo("restore link", p.symlink(previous, path))
		}
		return err
	}
	n.meta, _ = rec.Lookup(n.name)

	for _, c := range n.c.all {
		p.discard(c)
	}
	n.c.all, n.c.doc, n.c.record = nil, nil, nil
	n.c.state = Unloaded
	n.c.target = resolved
	return n.Load()
}

// checkTarget resolves target against dir and verifies that it is an
// existing directory.
func (p *Project) checkTarget(dir, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	target = filepath.Clean(target)
	fi, err := p.fs.Stat(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrLinkTargetMissing, target, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrLinkTargetMissing, target)
	}
	return target, nil
}

func (p *Project) symlink(target, path string) error {
	l, ok := p.fs.(afero.Linker)
	if !ok {
		return ioErr("symlink", path, afero.ErrNoSymlink)
	}
	if err := l.SymlinkIfPossible(target, path); err != nil {
		return ioErr("symlink", path, err)
	}
	return nil
}

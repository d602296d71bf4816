// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/order"
	"github.com/reqdoc/reqdoc/internal/sidecar"
	"github.com/reqdoc/reqdoc/pkg/types"
)

// writable checks that n accepts structural changes and loads it if needed.
func (n *Node) writable() error {
	if err := n.alive(); err != nil {
		return err
	}
	if !n.kind.IsContainer() {
		return fmt.Errorf("%w: %s is a %s", ErrNotContainer, n.name, n.kind)
	}
	if n.IsReadOnly() {
		return fmt.Errorf("%w: %s", ErrReadOnly, n.id)
	}
	if n.kind == kind.Include && n.IsBroken() {
		return fmt.Errorf("%w: %s", ErrBrokenContainer, n.id)
	}
	if n.c.state != Loaded {
		return n.reload()
	}
	return nil
}

// slot converts an insertion index into a position in the document
// children. End appends.
func (n *Node) slot(index int) (int, error) {
	if index == End {
		return len(n.c.doc), nil
	}
	if index < 0 || index > len(n.c.doc) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidIndex, index, len(n.c.doc))
	}
	return index, nil
}

func (n *Node) hasChild(name string) bool {
	return slices.ContainsFunc(n.c.all, func(c *Node) bool { return c.name == name })
}

// checkNewName validates name for a new child of n.
func (n *Node) checkNewName(name string) error {
	if err := types.NodeName(name).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	if n.hasChild(name) {
		return fmt.Errorf("%w: %s in %s", ErrNameExists, name, n.id)
	}
	path := filepath.Join(n.Path(), name)
	if _, err := lstat(n.project.fs, path); err == nil {
		return fmt.Errorf("%w: %s", ErrNameExists, path)
	}
	return nil
}

func (n *Node) saveRecord(rec *order.Record) error {
	path := n.project.reconciler.RecordPath(n.Path())
	if _, err := order.Save(n.project.fs, path, rec); err != nil {
		return ioErr("save order record", path, err)
	}
	n.c.record = rec
	return nil
}

// adopt registers a new document child at position at. The record must
// already hold its entry.
func (n *Node) adopt(name string, res classify.Result, at int) *Node {
	child := n.project.resolve(n, name, res)
	child.meta, _ = n.c.record.Lookup(name)
	n.c.doc = slices.Insert(n.c.doc, at, child)
	n.insertChild(child)
	return child
}

// CreateUnit creates a unit file holding content at position index.
func (n *Node) CreateUnit(name string, index int, content []byte) (*Node, error) {
	if err := n.writable(); err != nil {
		return nil, err
	}
	at, err := n.slot(index)
	if err != nil {
		return nil, err
	}
	if err := n.checkNewName(name); err != nil {
		return nil, err
	}
	p := n.project
	res := classify.Classify(classify.Entry{Name: name}, p.classifyContext(n.kind))
	if !res.Kind.IsUnit() {
		return nil, fmt.Errorf("%w: %q names a %s, not a unit", ErrInvalidName, name, res.Kind)
	}

	path := filepath.Join(n.Path(), name)
	if err := writeNew(p.fs, path, content); err != nil {
		return nil, ioErr("create unit", path, err)
	}
	rec := n.c.record.Clone()
	rec.Insert(at, order.Entry{Name: name, KindHint: res.Kind.String()})
	if err := n.saveRecord(rec); err != nil {
		p.undo("remove unit", p.fs.Remove(path))
		return nil, err
	}
	return n.adopt(name, res, at), nil
}

// CreateFolder creates a folder with an empty order record at index.
func (n *Node) CreateFolder(name string, index int) (*Node, error) {
	return n.createContainer(name, index, kind.Folder)
}

// CreateAppendix creates an appendix folder at index.
func (n *Node) CreateAppendix(name string, index int) (*Node, error) {
	return n.createContainer(name, index, kind.Appendix)
}

func (n *Node) createContainer(name string, index int, k kind.Kind) (*Node, error) {
	if err := n.writable(); err != nil {
		return nil, err
	}
	at, err := n.slot(index)
	if err != nil {
		return nil, err
	}
	if err := n.checkNewName(name); err != nil {
		return nil, err
	}
	p := n.project
	entry := classify.Entry{Name: name, IsDir: true, HasOrderRecord: true, HasAppendixMarker: k == kind.Appendix}
	if res := classify.Classify(entry, p.classifyContext(n.kind)); res.Kind != k {
		return nil, fmt.Errorf("%w: %q is reserved for a %s", ErrInvalidName, name, res.Kind)
	}

	path := filepath.Join(n.Path(), name)
	if err := p.makeContainer(path, k == kind.Appendix); err != nil {
		return nil, err
	}
	rec := n.c.record.Clone()
	rec.Insert(at, order.Entry{Name: name, KindHint: k.String()})
	if err := n.saveRecord(rec); err != nil {
		p.undo("remove folder", p.fs.RemoveAll(path))
		return nil, err
	}
	return n.adopt(name, classify.Result{Kind: k}, at), nil
}

func (p *Project) makeContainer(path string, appendix bool) error {
	if err := p.fs.Mkdir(path, 0o755); err != nil {
		return ioErr("create folder", path, err)
	}
	err := func() error {
		if _, err := order.Save(p.fs, filepath.Join(path, p.names.OrderFile), order.New()); err != nil {
			return err
		}
		if appendix {
			return afero.WriteFile(p.fs, filepath.Join(path, p.names.AppendixMarker), nil, 0o644)
		}
		return nil
	}()
	if err != nil {
		p.undo("remove folder", p.fs.RemoveAll(path))
		return ioErr("initialize folder", path, err)
	}
	return nil
}

// CreateInclude creates an include overlay called name pointing at target.
// A relative target is resolved against the container and the link always
// stores the resolved path, so moving the overlay keeps it intact. The link
// is refused when the target does not exist.
func (n *Node) CreateInclude(name string, index int, target string, readOnly bool) (*Node, error) {
	if err := n.writable(); err != nil {
		return nil, err
	}
	at, err := n.slot(index)
	if err != nil {
		return nil, err
	}
	if err := n.checkNewName(name); err != nil {
		return nil, err
	}
	p := n.project
	path := filepath.Join(n.Path(), name)
	target, err = p.checkTarget(n.Path(), target)
	if err != nil {
		return nil, err
	}
	if err := p.symlink(target, path); err != nil {
		return nil, err
	}
	rec := n.c.record.Clone()
	rec.Insert(at, order.Entry{Name: name, KindHint: kind.Include.String(), ReadOnly: readOnly})
	if err := n.saveRecord(rec); err != nil {
		p.undo("remove link", p.fs.Remove(path))
		return nil, err
	}
	return n.adopt(name, classify.Result{Kind: kind.Include}, at), nil
}

// Delete removes the node from its container. With reserve set, the slot is
// kept: a unit is replaced by a reserved unit with the same stem and a
// container is emptied and marked reserved.
func (n *Node) Delete(reserve bool) error {
	if err := n.alive(); err != nil {
		return err
	}
	parent := n.parent
	if parent == nil {
		return fmt.Errorf("%w: the project root cannot be deleted", ErrUnsupported)
	}
	if !n.kind.IsDocument() && !n.kind.IsAuxiliary() {
		return fmt.Errorf("%w: delete %s", ErrUnsupported, n.kind)
	}
	if err := parent.writable(); err != nil {
		return err
	}
	if reserve && n.kind.IsDocument() {
		return parent.reserve(n)
	}

	p := n.project
	path := n.Path()
	var err error
	switch {
	case n.kind == kind.Include || n.kind.IsUnit():
		err = p.fs.Remove(path)
	default:
		err = p.fs.RemoveAll(path)
	}
	if err != nil {
		return ioErr("delete", path, err)
	}
	if n.kind.IsDocument() {
		if err := p.sidecars.Remove(n.ownRef()); err != nil {
			p.logger.Warn("sidecars left behind", "owner", n.id, "error", err)
		}
	}

	var saveErr error
	if slices.Contains(parent.c.doc, n) {
		rec := parent.c.record.Clone()
		rec.Remove(n.name)
		saveErr = parent.saveRecord(rec)
	}
	for _, s := range n.sidecarNodes() {
		parent.dropChild(s)
		p.discard(s)
	}
	parent.dropChild(n)
	p.discard(n)
	if saveErr != nil {
		// the element is gone; the next load drops the stale entry
		parent.c.state = Stale
		return saveErr
	}
	p.logger.Debug("node deleted", "identity", n.id)
	return nil
}

func (n *Node) reserve(child *Node) error {
	switch {
	case child.kind == kind.ReservedUnit || child.kind == kind.Reserved:
		return nil
	case child.kind.IsUnit():
		return n.reserveUnit(child)
	default:
		return n.reserveContainer(child)
	}
}

func (n *Node) reserveUnit(u *Node) error {
	p := n.project
	stem := strings.TrimSuffix(u.name, filepath.Ext(u.name))
	name := stem + p.names.ReservedUnitExt
	if err := n.checkNewName(name); err != nil {
		return err
	}
	path := filepath.Join(n.Path(), name)
	if err := writeNew(p.fs, path, nil); err != nil {
		return ioErr("create reserved unit", path, err)
	}
	if err := p.fs.Remove(u.Path()); err != nil {
		p.undo("remove reserved unit", p.fs.Remove(path))
		return ioErr("delete", u.Path(), err)
	}
	if err := p.sidecars.Remove(u.ownRef()); err != nil {
		p.logger.Warn("sidecars left behind", "owner", u.id, "error", err)
	}

	at := slices.Index(n.c.doc, u)
	rec := n.c.record.Clone()
	rec.Update(u.name, func(e *order.Entry) {
		e.Name = name
		e.KindHint = kind.ReservedUnit.String()
		e.Horizontal = false
	})
	saveErr := n.saveRecord(rec)
	if saveErr != nil {
		n.c.record = rec
	}
	for _, s := range u.sidecarNodes() {
		n.dropChild(s)
		p.discard(s)
	}
	n.dropChild(u)
	p.discard(u)
	n.adopt(name, classify.Result{Kind: kind.ReservedUnit}, at)
	if saveErr != nil {
		n.c.state = Stale
	}
	return saveErr
}

func (n *Node) reserveContainer(c *Node) error {
	p := n.project
	path := c.Path()
	marker := filepath.Join(path, p.names.ReservedMarker)

	if c.kind == kind.Include {
		if err := p.fs.Remove(path); err != nil {
			return ioErr("delete link", path, err)
		}
		if err := p.fs.Mkdir(path, 0o755); err != nil {
			return ioErr("create folder", path, err)
		}
	}
	if err := afero.WriteFile(p.fs, marker, nil, 0o644); err != nil {
		return ioErr("mark reserved", marker, err)
	}
	infos, err := afero.ReadDir(p.fs, path)
	if err != nil {
		return ioErr("list", path, err)
	}
	for _, fi := range infos {
		if fi.Name() == p.names.ReservedMarker {
			continue
		}
		sub := filepath.Join(path, fi.Name())
		if err := p.fs.RemoveAll(sub); err != nil {
			return ioErr("empty reserved folder", sub, err)
		}
	}

	at := slices.Index(n.c.doc, c)
	rec := n.c.record.Clone()
	rec.Update(c.name, func(e *order.Entry) {
		e.KindHint = kind.Reserved.String()
		e.ReadOnly = false
		e.Title = ""
		e.Description = ""
	})
	saveErr := n.saveRecord(rec)
	if saveErr != nil {
		n.c.record = rec
	}
	name := c.name
	n.dropChild(c)
	p.discard(c)
	reserved := n.adopt(name, classify.Result{Kind: kind.Reserved}, at)
	reserved.sidecars = c.sidecars
	for _, s := range n.c.all {
		if s.owner == c {
			s.owner = reserved
		}
	}
	if saveErr != nil {
		n.c.state = Stale
	}
	return saveErr
}

// Reorder moves child to position index among n's document children. End
// moves it to the last position.
func (n *Node) Reorder(child *Node, index int) error {
	if child == nil {
		return fmt.Errorf("%w: no child given to reorder in %s", ErrNotFound, n.id)
	}
	if err := n.writable(); err != nil {
		return err
	}
	from := slices.Index(n.c.doc, child)
	if from < 0 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, child.name, n.id)
	}
	to := index
	if to == End {
		to = len(n.c.doc) - 1
	}
	if to < 0 || to >= len(n.c.doc) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, len(n.c.doc))
	}
	if from == to {
		return nil
	}
	rec := n.c.record.Clone()
	rec.Move(child.name, to)
	if err := n.saveRecord(rec); err != nil {
		return err
	}
	n.c.doc = slices.Delete(n.c.doc, from, from+1)
	n.c.doc = slices.Insert(n.c.doc, to, child)
	return nil
}

// Move moves the node into target at position index. Moving within the
// same container is a Reorder.
func (n *Node) Move(target *Node, index int) error {
	if err := n.alive(); err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: %s has no target container", ErrInvalidMove, n.id)
	}
	src := n.parent
	if src == nil {
		return fmt.Errorf("%w: the project root cannot be moved", ErrUnsupported)
	}
	if target == src {
		return src.Reorder(n, index)
	}
	if !n.kind.IsDocument() {
		return fmt.Errorf("%w: move %s", ErrUnsupported, n.kind)
	}
	if target == n || target.isDescendantOf(n) {
		return fmt.Errorf("%w: %s into %s", ErrInvalidMove, n.id, target.id)
	}
	if err := src.writable(); err != nil {
		return err
	}
	if err := target.writable(); err != nil {
		return err
	}
	at, err := target.slot(index)
	if err != nil {
		return err
	}
	if err := target.checkNewName(n.name); err != nil {
		return err
	}
	p := n.project
	fromRef, toRef := n.ownRef(), sidecar.Ref{Dir: target.Path(), Owner: n.name}
	if err := p.checkSidecarMove(fromRef, toRef); err != nil {
		return err
	}

	oldPath, newPath := n.Path(), filepath.Join(target.Path(), n.name)
	if err := p.fs.Rename(oldPath, newPath); err != nil {
		return ioErr("move", oldPath, err)
	}
	if err := p.sidecars.Move(fromRef, toRef); err != nil {
		p.undo("move back", p.fs.Rename(newPath, oldPath))
		return ioErr("move sidecars", oldPath, err)
	}
	rollback := func() {
		p.undo("move sidecars back", p.sidecars.Move(toRef, fromRef))
		p.undo("move back", p.fs.Rename(newPath, oldPath))
	}

	srcRec, dstRec := src.c.record.Clone(), target.c.record.Clone()
	entry, _ := srcRec.Remove(n.name)
	dstRec.Insert(at, entry)
	prevDst := target.c.record
	if err := target.saveRecord(dstRec); err != nil {
		rollback()
		return err
	}
	if err := src.saveRecord(srcRec); err != nil {
		if restoreErr := target.saveRecord(prevDst); restoreErr != nil {
			p.logger.Error("order record rollback failed", "container", target.id, "error", restoreErr)
		}
		rollback()
		return err
	}

	old := identities(n)
	sidecars := n.sidecarNodes()
	src.dropChild(n)
	for _, s := range sidecars {
		old[s] = s.id
		src.dropChild(s)
	}
	n.parent = target
	target.c.doc = slices.Insert(target.c.doc, at, n)
	target.insertChild(n)
	for _, s := range sidecars {
		s.parent = target
		target.insertChild(s)
		p.rekey(s, old)
	}
	p.rekey(n, old)
	p.logger.Debug("node moved", "identity", n.id)
	return nil
}

// Rename changes the physical name of the node and its sidecars. The new
// name must classify to the same kind.
func (n *Node) Rename(name string) error {
	if err := n.alive(); err != nil {
		return err
	}
	parent := n.parent
	if parent == nil || !n.kind.IsDocument() {
		return fmt.Errorf("%w: rename %s", ErrUnsupported, n.kind)
	}
	if name == n.name {
		return nil
	}
	if err := parent.writable(); err != nil {
		return err
	}
	if err := parent.checkNewName(name); err != nil {
		return err
	}
	p := n.project
	if n.kind.IsUnit() {
		res := classify.Classify(classify.Entry{Name: name}, p.classifyContext(parent.kind))
		if res.Kind != n.kind {
			return fmt.Errorf("%w: %q would turn a %s into a %s", ErrInvalidName, name, n.kind, res.Kind)
		}
	} else if res := classify.Classify(classify.Entry{Name: name, IsDir: true, HasOrderRecord: true}, p.classifyContext(parent.kind)); res.Kind.IsAuxiliary() {
		return fmt.Errorf("%w: %q is reserved for a %s", ErrInvalidName, name, res.Kind)
	}

	fromRef, toRef := n.ownRef(), sidecar.Ref{Dir: parent.Path(), Owner: name}
	if err := p.checkSidecarMove(fromRef, toRef); err != nil {
		return err
	}

	oldPath, newPath := n.Path(), filepath.Join(parent.Path(), name)
	if err := p.fs.Rename(oldPath, newPath); err != nil {
		return ioErr("rename", oldPath, err)
	}
	if err := p.sidecars.Move(fromRef, toRef); err != nil {
		p.undo("rename back", p.fs.Rename(newPath, oldPath))
		return ioErr("rename sidecars", oldPath, err)
	}
	rec := parent.c.record.Clone()
	rec.Update(n.name, func(e *order.Entry) { e.Name = name })
	if err := parent.saveRecord(rec); err != nil {
		p.undo("rename sidecars back", p.sidecars.Move(toRef, fromRef))
		p.undo("rename back", p.fs.Rename(newPath, oldPath))
		return err
	}

	old := identities(n)
	oldName := n.name
	n.name = name
	n.meta.Name = name
	for _, s := range n.sidecarNodes() {
		old[s] = s.id
		s.name = name + strings.TrimPrefix(s.name, oldName)
		p.rekey(s, old)
	}
	n.sidecars = sidecar.Set{
		Comment:     renameSidecar(n.sidecars.Comment, oldName, name),
		Description: renameSidecar(n.sidecars.Description, oldName, name),
	}
	parent.resortChildren()
	p.rekey(n, old)
	return nil
}

// checkSidecarMove refuses a move or rename whose sidecars would replace
// sidecars already at the destination.
func (p *Project) checkSidecarMove(from, to sidecar.Ref) error {
	err := p.sidecars.CheckMove(from, to)
	if errors.Is(err, sidecar.ErrSidecarExists) {
		return fmt.Errorf("%w: %w", ErrNameExists, err)
	}
	if err != nil {
		return ioErr("check sidecars", from.Dir, err)
	}
	return nil
}

func renameSidecar(file, oldOwner, newOwner string) string {
	if file == "" {
		return ""
	}
	return newOwner + strings.TrimPrefix(file, oldOwner)
}

// SetDisabled sets the per-document disabled flag.
func (n *Node) SetDisabled(disabled bool) error {
	if !n.kind.IsDocument() {
		return fmt.Errorf("%w: disable %s", ErrUnsupported, n.kind)
	}
	return n.updateMeta(func(e *order.Entry) { e.Disabled = disabled })
}

// SetHorizontal sets the orientation flag of a unit.
func (n *Node) SetHorizontal(horizontal bool) error {
	if !n.kind.IsUnit() {
		return fmt.Errorf("%w: orientation of %s", ErrUnsupported, n.kind)
	}
	return n.updateMeta(func(e *order.Entry) { e.Horizontal = horizontal })
}

// SetUnnumbered excludes a container from positional numbering.
func (n *Node) SetUnnumbered(unnumbered bool) error {
	if !n.kind.IsDocumentContainer() {
		return fmt.Errorf("%w: unnumbered %s", ErrUnsupported, n.kind)
	}
	return n.updateMeta(func(e *order.Entry) { e.Unnumbered = unnumbered })
}

// SetIncludeMeta overrides the display name and description of an include
// overlay. Empty values fall back to the backing folder.
func (n *Node) SetIncludeMeta(title, description string) error {
	if n.kind != kind.Include {
		return fmt.Errorf("%w: include metadata on %s", ErrUnsupported, n.kind)
	}
	desc := types.DescriptionText(description)
	if err := desc.Validate(); err != nil {
		return err
	}
	if desc.IsBlank() {
		description = ""
	}
	return n.updateMeta(func(e *order.Entry) {
		e.Title = title
		e.Description = description
	})
}

func (n *Node) updateMeta(fn func(*order.Entry)) error {
	if err := n.alive(); err != nil {
		return err
	}
	parent := n.parent
	if parent == nil {
		return fmt.Errorf("%w: the project root has no order entry", ErrUnsupported)
	}
	if err := parent.writable(); err != nil {
		return err
	}
	rec := parent.c.record.Clone()
	if !rec.Update(n.name, fn) {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, n.name, parent.id)
	}
	if err := parent.saveRecord(rec); err != nil {
		return err
	}
	n.meta, _ = rec.Lookup(n.name)
	return nil
}

func (p *Project) rekey(n *Node, old map[*Node]string) {
	for _, d := range n.subtree() {
		d.id = d.computeIdentity()
		if prev, ok := old[d]; ok && prev != d.id {
			p.registry.Rekey(d, prev)
		}
	}
}

func identities(n *Node) map[*Node]string {
	out := map[*Node]string{}
	for _, d := range n.subtree() {
		out[d] = d.id
	}
	return out
}

// undo logs a failed rollback step; the original error is what the caller
// reports.
func (p *Project) undo(step string, err error) {
	if err != nil {
		p.logger.Error("rollback failed", "step", step, "error", err)
	}
}

func writeNew(fsys afero.Fs, path string, content []byte) error {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.Write(content)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = fsys.Remove(path)
		return err
	}
	return nil
}

func lstat(fsys afero.Fs, path string) (fs.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(path)
		return fi, err
	}
	return fsys.Stat(path)
}

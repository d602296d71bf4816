// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"path/filepath"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/sidecar"
	"github.com/reqdoc/reqdoc/pkg/types"
)

// ownRef addresses the owner-named sidecars next to n.
func (n *Node) ownRef() sidecar.Ref {
	return sidecar.Ref{Dir: n.parent.Path(), Owner: n.name}
}

// commentRef returns where n's comment lives and the container listing it.
// Folders keep their comment inside; units and include overlays keep it
// next to themselves.
func (n *Node) commentRef() (sidecar.Ref, *Node, error) {
	switch {
	case n.parent == nil || n.kind == kind.Folder || n.kind == kind.Appendix:
		return sidecar.FolderRef(n.Path()), n, nil
	case n.kind.IsDocument():
		return n.ownRef(), n.parent, nil
	}
	return sidecar.Ref{}, nil, fmt.Errorf("%w: comments on %s", ErrUnsupported, n.kind)
}

func (n *Node) descriptionRef() (sidecar.Ref, *Node, error) {
	switch {
	case n.parent == nil:
		return sidecar.FolderRef(n.Path()), n, nil
	case n.kind.IsDocument():
		return n.ownRef(), n.parent, nil
	}
	return sidecar.Ref{}, nil, fmt.Errorf("%w: descriptions on %s", ErrUnsupported, n.kind)
}

// HasComment reports whether a comment file was bound to the node by the
// last load or write.
func (n *Node) HasComment() bool {
	ref, host, err := n.commentRef()
	if err != nil || host.c == nil {
		return false
	}
	if ref.Owner == "" {
		return host.c.folder.Comment != ""
	}
	return n.sidecars.Comment != ""
}

// Comment reads the node's comment.
func (n *Node) Comment() (sidecar.Comment, error) {
	if err := n.alive(); err != nil {
		return sidecar.Comment{}, err
	}
	ref, _, err := n.commentRef()
	if err != nil {
		return sidecar.Comment{}, err
	}
	c, err := n.project.sidecars.Comment(ref)
	if err != nil {
		return sidecar.Comment{}, ioErr("read comment", n.project.sidecars.CommentPath(ref), err)
	}
	return c, nil
}

// Description returns the node's description. Include overlays prefer their
// override from the order record.
func (n *Node) Description() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	if n.kind == kind.Include && n.meta.Description != "" {
		return n.meta.Description, nil
	}
	ref, _, err := n.descriptionRef()
	if err != nil {
		return "", err
	}
	d, err := n.project.sidecars.Description(ref)
	if err != nil {
		return "", ioErr("read description", n.project.sidecars.DescriptionPath(ref), err)
	}
	return d, nil
}

// UpdateComment writes the node's comment. An empty comment removes the
// file.
func (n *Node) UpdateComment(c sidecar.Comment) error {
	if err := n.alive(); err != nil {
		return err
	}
	ref, host, err := n.commentRef()
	if err != nil {
		return err
	}
	if host.IsReadOnly() {
		return fmt.Errorf("%w: %s", ErrReadOnly, host.id)
	}
	st := n.project.sidecars
	if err := st.SetComment(ref, c); err != nil {
		return ioErr("write comment", st.CommentPath(ref), err)
	}
	host.syncSidecar(n, ref, filepath.Base(st.CommentPath(ref)), !c.IsEmpty())
	return nil
}

// UpdateDescription writes the node's description. Blank text removes the
// file.
func (n *Node) UpdateDescription(text string) error {
	if err := n.alive(); err != nil {
		return err
	}
	desc := types.DescriptionText(text)
	if err := desc.Validate(); err != nil {
		return err
	}
	ref, host, err := n.descriptionRef()
	if err != nil {
		return err
	}
	if host.IsReadOnly() {
		return fmt.Errorf("%w: %s", ErrReadOnly, host.id)
	}
	st := n.project.sidecars
	if err := st.SetDescription(ref, text); err != nil {
		return ioErr("write description", st.DescriptionPath(ref), err)
	}
	host.syncSidecar(n, ref, filepath.Base(st.DescriptionPath(ref)), !desc.IsBlank())
	return nil
}

// syncSidecar keeps the loaded child list of n and the owner binding in
// step with a sidecar write.
func (n *Node) syncSidecar(owner *Node, ref sidecar.Ref, file string, present bool) {
	if n.c == nil || n.c.state == Unloaded {
		return
	}
	p := n.project
	res := classify.Classify(classify.Entry{Name: file}, p.classifyContext(n.kind))

	var set *sidecar.Set
	if ref.Owner == "" {
		set = &n.c.folder
	} else {
		set = &owner.sidecars
	}
	switch res.Kind {
	case kind.Comment, kind.FolderComment:
		set.Comment = ""
		if present {
			set.Comment = file
		}
	case kind.Description:
		set.Description = ""
		if present {
			set.Description = file
		}
	}

	existing, _ := n.childNamed(file)
	switch {
	case present && existing == nil:
		s := p.resolve(n, file, res)
		s.owner = owner
		n.insertChild(s)
	case !present && existing != nil:
		n.dropChild(existing)
		p.discard(existing)
	}
}

func (n *Node) childNamed(name string) (*Node, bool) {
	for _, c := range n.c.all {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

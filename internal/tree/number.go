// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"strconv"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/numbering"
)

// Number returns the node's number. Units return the item number of the
// last numbering pass ("" until numbered); document containers return
// their positional number, computed from their parent's document children.
func (n *Node) Number() string {
	if n.kind.IsUnit() {
		if s := n.number.Load(); s != nil {
			return *s
		}
		return ""
	}
	return n.positional()
}

func (n *Node) positional() string {
	parent := n.parent
	if parent == nil || !n.kind.IsDocumentContainer() {
		return ""
	}
	local := n.localNumber()
	if local == "" || local == numbering.Disabled {
		return local
	}
	if parent.parent != nil && parent.activeNumeration() {
		if prefix := parent.positional(); prefix != "" {
			return prefix + "." + local
		}
	}
	return local
}

func (n *Node) activeNumeration() bool {
	return n.kind.ActiveNumeration() && !n.meta.Unnumbered
}

// localNumber counts the active, enabled siblings up to and including n.
// Appendices count among themselves and use letters.
func (n *Node) localNumber() string {
	if !n.activeNumeration() {
		return ""
	}
	if n.DisabledInDocument() {
		return numbering.Disabled
	}
	appendix := n.kind == kind.Appendix
	count := 0
	for _, s := range n.parent.c.doc {
		if s.activeNumeration() && !s.DisabledInDocument() && (s.kind == kind.Appendix) == appendix {
			count++
		}
		if s == n {
			break
		}
	}
	if appendix {
		return numbering.Letter(count)
	}
	return strconv.Itoa(count)
}

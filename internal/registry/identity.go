// SPDX-License-Identifier: MPL-2.0

package registry

import "strings"

const (
	// Sep joins the name chain of an identity.
	Sep = "|"
	// projectPrefix terminates a chain at a project root.
	projectPrefix = "@"
	// includePrefix terminates a chain at an include overlay's local root.
	includePrefix = "~"
)

// Identity returns the identity of a node called name whose parent has the
// identity parent.
func Identity(name, parent string) string {
	return name + Sep + parent
}

// ProjectIdentity returns the chain terminator for a project root.
func ProjectIdentity(name string) string {
	return projectPrefix + name
}

// IncludeRoot returns the chain terminator used by the children of the
// include overlay identified by overlay whose backing folder is target.
// Children reached through an overlay get include-local identities: the
// same backing file never shares an identity with its normal-tree
// counterpart, nor with its copy under another overlay on the same target.
func IncludeRoot(overlay, target string) string {
	return includePrefix + target + Sep + overlay
}

// Name returns the first element of an identity chain.
func Name(identity string) string {
	name, _, _ := strings.Cut(identity, Sep)
	return name
}

// SPDX-License-Identifier: MPL-2.0

// Package kind defines the closed set of node kinds found in a reqdoc project.
//
// Every listing entry of a project directory is assigned exactly one Kind by
// the classifier. Behaviour that differs per kind is expressed as predicates
// on Kind (IsDocument, IsContainer, IsNumberable, ...) and switch statements,
// never by subtyping. New kinds are added by extending the enum and the
// predicates below.
package kind

import (
	"errors"
	"fmt"
)

const (
	// Unknown is the zero value. The classifier never returns it.
	Unknown Kind = iota

	// Project is the root container of a repository.
	Project
	// Folder is an ordinary document container (a chapter or section).
	Folder
	// Appendix is a container with letter numbering and its own counters.
	Appendix
	// Include is a container backed by a symlink to another folder.
	Include
	// Reserved is a folder that keeps its slot and number but has no content.
	Reserved
	// Broken is a directory without an order record. It is inert.
	Broken

	// Unit is a generic document element without a more specific kind.
	Unit
	// Table is a numbered table unit.
	Table
	// Image is a numbered image unit.
	Image
	// Text is a plain text unit.
	Text
	// Form is a form-document unit; its form kind comes from the schema registry.
	Form
	// ReservedUnit is a unit placeholder that keeps its slot.
	ReservedUnit
	// TocRef references the table of contents.
	TocRef
	// ChangelogRef references the change log.
	ChangelogRef
	// GlossaryRef references the glossary.
	GlossaryRef

	// OrderRecord is the persisted order file of a container.
	OrderRecord
	// ReservedMarker marks its folder as Reserved.
	ReservedMarker
	// AppendixMarker marks its folder as Appendix.
	AppendixMarker
	// FolderComment is the folder-level comment file.
	FolderComment
	// Comment is a comment sidecar of a sibling element.
	Comment
	// Description is a description sidecar of a sibling element.
	Description
	// ExportConfig is an export configuration file.
	ExportConfig
	// Variables is the singleton variables container of a folder.
	Variables
	// Reports is the singleton report container of a folder.
	Reports
	// GlossaryFolder is the singleton glossary folder of a folder.
	GlossaryFolder
	// SchemaFolder holds form schema definitions.
	SchemaFolder
	// Glossary is a glossary data file.
	Glossary
	// VariableSet is a variable definition file.
	VariableSet
	// Ignored covers hidden entries that are not markers.
	Ignored
)

// ErrUnknownKind is returned by Parse for names that match no kind.
var ErrUnknownKind = errors.New("unknown node kind")

// Kind is the tag of a node.
type Kind uint8

var names = [...]string{
	Unknown:        "unknown",
	Project:        "project",
	Folder:         "folder",
	Appendix:       "appendix",
	Include:        "include",
	Reserved:       "reserved",
	Broken:         "broken",
	Unit:           "unit",
	Table:          "table",
	Image:          "image",
	Text:           "text",
	Form:           "form",
	ReservedUnit:   "reserved-unit",
	TocRef:         "toc-ref",
	ChangelogRef:   "changelog-ref",
	GlossaryRef:    "glossary-ref",
	OrderRecord:    "order-record",
	ReservedMarker: "reserved-marker",
	AppendixMarker: "appendix-marker",
	FolderComment:  "folder-comment",
	Comment:        "comment",
	Description:    "description",
	ExportConfig:   "export-config",
	Variables:      "variables",
	Reports:        "reports",
	GlossaryFolder: "glossary-folder",
	SchemaFolder:   "schema-folder",
	Glossary:       "glossary",
	VariableSet:    "variable-set",
	Ignored:        "ignored",
}

// String returns the stable name of the kind. The name is what the order
// record stores as kind hint.
func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Parse maps a kind name back to its Kind.
func Parse(s string) (Kind, error) {
	for k, name := range names {
		if name == s && Kind(k) != Unknown {
			return Kind(k), nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IsDocument reports whether nodes of this kind appear in a container's
// ordered document children.
func (k Kind) IsDocument() bool {
	return k.IsDocumentContainer() || k.IsUnit()
}

// IsDocumentContainer reports whether the kind occupies a container slot in
// the document tree (traversable or not).
func (k Kind) IsDocumentContainer() bool {
	switch k {
	case Folder, Appendix, Include, Reserved, Broken:
		return true
	default:
		return false
	}
}

// IsUnit reports whether the kind is a leaf document element.
func (k Kind) IsUnit() bool {
	switch k {
	case Unit, Table, Image, Text, Form, ReservedUnit, TocRef, ChangelogRef, GlossaryRef:
		return true
	default:
		return false
	}
}

// IsContainer reports whether nodes of this kind hold children that are
// listed and reconciled.
func (k Kind) IsContainer() bool {
	switch k {
	case Project, Folder, Appendix, Include:
		return true
	default:
		return false
	}
}

// IsAuxiliary reports whether the kind is one of the singleton folders a
// container owns besides its document children.
func (k Kind) IsAuxiliary() bool {
	switch k {
	case Variables, Reports, GlossaryFolder, SchemaFolder:
		return true
	default:
		return false
	}
}

// IsSidecar reports whether the kind holds metadata about another node.
func (k Kind) IsSidecar() bool {
	return k == Comment || k == Description || k == FolderComment
}

// IsNumberable reports whether units of this kind take a number from the
// numbering engine.
func (k Kind) IsNumberable() bool {
	return k == Table || k == Image || k == Form
}

// ActiveNumeration reports whether a document container of this kind takes
// part in positional section numbering. Reserved folders keep their number.
func (k Kind) ActiveNumeration() bool {
	switch k {
	case Folder, Appendix, Include, Reserved:
		return true
	default:
		return false
	}
}

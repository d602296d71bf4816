// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"path/filepath"
	"strings"

	"github.com/reqdoc/reqdoc/internal/kind"
)

type (
	// FormSchema maps a file extension (with leading dot, lower case) to a
	// form kind. It is supplied by the schema collaborator.
	FormSchema interface {
		FormKind(ext string) (string, bool)
	}

	// Entry holds the facts about one physical listing entry.
	Entry struct {
		Name string
		// IsDir is true for directories and for symlinks whose target is a
		// directory or cannot be resolved.
		IsDir bool
		// IsSymlink is true for symlinks that classify as include overlays.
		IsSymlink         bool
		HasReservedMarker bool
		HasAppendixMarker bool
		HasOrderRecord    bool
	}

	// Context is the listing context of an entry.
	Context struct {
		// Parent is the kind of the container being listed.
		Parent kind.Kind
		Names  Names
		// Schema may be nil.
		Schema FormSchema
	}

	// Result is the outcome of classification.
	Result struct {
		Kind kind.Kind
		// FormKind is set for kind.Form.
		FormKind string
	}
)

var builtinExtensions = map[string]kind.Kind{
	".tbl":  kind.Table,
	".img":  kind.Image,
	".png":  kind.Image,
	".jpg":  kind.Image,
	".jpeg": kind.Image,
	".svg":  kind.Image,
	".txt":  kind.Text,
	".md":   kind.Text,
}

// Classify assigns a kind to a listing entry. Rules apply in priority order:
//  1. fixed marker names (exact match), then hidden names as Ignored
//  2. symlinked directories are include overlays
//  3. directories with a reserved marker are Reserved, with an appendix marker Appendix
//  4. directories without an order record are Broken, otherwise Folder
//  5. files by suffix: sidecars and export configs, the reserved unit
//     extension, the form schema, built-in unit extensions, else Unit
func Classify(e Entry, ctx Context) Result {
	n := ctx.Names

	if k, ok := fixedName(e, n); ok {
		return Result{Kind: k}
	}
	if strings.HasPrefix(e.Name, ".") {
		return Result{Kind: kind.Ignored}
	}

	if e.IsDir {
		switch {
		case e.IsSymlink:
			return Result{Kind: kind.Include}
		case e.HasReservedMarker:
			return Result{Kind: kind.Reserved}
		case e.HasAppendixMarker:
			return Result{Kind: kind.Appendix}
		case !e.HasOrderRecord:
			return Result{Kind: kind.Broken}
		default:
			return Result{Kind: kind.Folder}
		}
	}

	switch ctx.Parent {
	case kind.Variables:
		return Result{Kind: kind.VariableSet}
	case kind.GlossaryFolder:
		return Result{Kind: kind.Glossary}
	}

	return classifyFile(e.Name, ctx)
}

func fixedName(e Entry, n Names) (kind.Kind, bool) {
	if e.IsDir && !e.IsSymlink {
		switch e.Name {
		case n.VariablesFolder:
			return kind.Variables, true
		case n.ReportsFolder:
			return kind.Reports, true
		case n.GlossaryFolder:
			return kind.GlossaryFolder, true
		case n.SchemaFolder:
			return kind.SchemaFolder, true
		}
		return kind.Unknown, false
	}
	if e.IsDir {
		return kind.Unknown, false
	}
	switch e.Name {
	case n.OrderFile:
		return kind.OrderRecord, true
	case n.ReservedMarker:
		return kind.ReservedMarker, true
	case n.AppendixMarker:
		return kind.AppendixMarker, true
	case n.FolderComment:
		return kind.FolderComment, true
	case n.GlossaryFile:
		return kind.Glossary, true
	case n.VariablesFile:
		return kind.VariableSet, true
	case n.TocRefFile:
		return kind.TocRef, true
	case n.ChangelogRefFile:
		return kind.ChangelogRef, true
	case n.GlossaryRefFile:
		return kind.GlossaryRef, true
	}
	return kind.Unknown, false
}

func classifyFile(name string, ctx Context) Result {
	n := ctx.Names
	switch {
	case hasSuffix(name, n.CommentSuffix):
		return Result{Kind: kind.Comment}
	case hasSuffix(name, n.DescriptionSuffix):
		return Result{Kind: kind.Description}
	case hasSuffix(name, n.ExportSuffix):
		return Result{Kind: kind.ExportConfig}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return Result{Kind: kind.Unit}
	}
	if ext == strings.ToLower(n.ReservedUnitExt) {
		return Result{Kind: kind.ReservedUnit}
	}
	if ctx.Schema != nil {
		if formKind, ok := ctx.Schema.FormKind(ext); ok {
			return Result{Kind: kind.Form, FormKind: formKind}
		}
	}
	if k, ok := builtinExtensions[ext]; ok {
		return Result{Kind: k}
	}
	return Result{Kind: kind.Unit}
}

// hasSuffix requires a non-empty owner part before the suffix.
func hasSuffix(name, suffix string) bool {
	return suffix != "" && len(name) > len(suffix) && strings.HasSuffix(name, suffix)
}

// OwnerName strips a sidecar suffix from name. ok is false when name does
// not carry the suffix.
func OwnerName(name, suffix string) (owner string, ok bool) {
	if !hasSuffix(name, suffix) {
		return "", false
	}
	return strings.TrimSuffix(name, suffix), true
}

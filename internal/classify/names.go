// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNames is the sentinel error wrapped by InvalidNamesError.
var ErrInvalidNames = errors.New("invalid marker names")

type (
	// Names holds the fixed file names and suffixes that drive classification.
	// Suffixes include their leading dot.
	Names struct {
		OrderFile      string `json:"order_file" mapstructure:"order_file"`
		ReservedMarker string `json:"reserved_marker" mapstructure:"reserved_marker"`
		AppendixMarker string `json:"appendix_marker" mapstructure:"appendix_marker"`
		FolderComment  string `json:"folder_comment" mapstructure:"folder_comment"`

		CommentSuffix     string `json:"comment_suffix" mapstructure:"comment_suffix"`
		DescriptionSuffix string `json:"description_suffix" mapstructure:"description_suffix"`
		ExportSuffix      string `json:"export_suffix" mapstructure:"export_suffix"`
		ReservedUnitExt   string `json:"reserved_unit_ext" mapstructure:"reserved_unit_ext"`

		VariablesFolder string `json:"variables_folder" mapstructure:"variables_folder"`
		ReportsFolder   string `json:"reports_folder" mapstructure:"reports_folder"`
		GlossaryFolder  string `json:"glossary_folder" mapstructure:"glossary_folder"`
		SchemaFolder    string `json:"schema_folder" mapstructure:"schema_folder"`

		GlossaryFile     string `json:"glossary_file" mapstructure:"glossary_file"`
		VariablesFile    string `json:"variables_file" mapstructure:"variables_file"`
		TocRefFile       string `json:"toc_ref_file" mapstructure:"toc_ref_file"`
		ChangelogRefFile string `json:"changelog_ref_file" mapstructure:"changelog_ref_file"`
		GlossaryRefFile  string `json:"glossary_ref_file" mapstructure:"glossary_ref_file"`
	}

	// InvalidNamesError is returned when a Names value has empty or clashing fields.
	InvalidNamesError struct {
		FieldErrors []error
	}
)

// DefaultNames returns the built-in marker names.
func DefaultNames() Names {
	return Names{
		OrderFile:         ".order.toml",
		ReservedMarker:    ".reserved",
		AppendixMarker:    ".appendix",
		FolderComment:     "_folder.comment",
		CommentSuffix:     ".comment",
		DescriptionSuffix: ".desc",
		ExportSuffix:      ".export",
		ReservedUnitExt:   ".rsv",
		VariablesFolder:   "_variables",
		ReportsFolder:     "_reports",
		GlossaryFolder:    "_glossary",
		SchemaFolder:      "_schemas",
		GlossaryFile:      "glossary.tsv",
		VariablesFile:     "variables.toml",
		TocRefFile:        "toc.ref",
		ChangelogRefFile:  "changelog.ref",
		GlossaryRefFile:   "glossary.ref",
	}
}

// WithDefaults fills every empty field from DefaultNames.
func (n Names) WithDefaults() Names {
	d := DefaultNames()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&n.OrderFile, d.OrderFile)
	fill(&n.ReservedMarker, d.ReservedMarker)
	fill(&n.AppendixMarker, d.AppendixMarker)
	fill(&n.FolderComment, d.FolderComment)
	fill(&n.CommentSuffix, d.CommentSuffix)
	fill(&n.DescriptionSuffix, d.DescriptionSuffix)
	fill(&n.ExportSuffix, d.ExportSuffix)
	fill(&n.ReservedUnitExt, d.ReservedUnitExt)
	fill(&n.VariablesFolder, d.VariablesFolder)
	fill(&n.ReportsFolder, d.ReportsFolder)
	fill(&n.GlossaryFolder, d.GlossaryFolder)
	fill(&n.SchemaFolder, d.SchemaFolder)
	fill(&n.GlossaryFile, d.GlossaryFile)
	fill(&n.VariablesFile, d.VariablesFile)
	fill(&n.TocRefFile, d.TocRefFile)
	fill(&n.ChangelogRefFile, d.ChangelogRefFile)
	fill(&n.GlossaryRefFile, d.GlossaryRefFile)
	return n
}

// Validate checks that suffixes start with a dot, that no field contains a
// path separator and that the fixed names do not collide.
func (n Names) Validate() error {
	var errs []error
	suffixes := map[string]string{
		"comment_suffix":     n.CommentSuffix,
		"description_suffix": n.DescriptionSuffix,
		"export_suffix":      n.ExportSuffix,
		"reserved_unit_ext":  n.ReservedUnitExt,
	}
	for field, v := range suffixes {
		if !strings.HasPrefix(v, ".") || len(v) < 2 {
			errs = append(errs, fmt.Errorf("%s: %q must start with a dot", field, v))
		}
	}

	fixed := map[string]string{
		"order_file":         n.OrderFile,
		"reserved_marker":    n.ReservedMarker,
		"appendix_marker":    n.AppendixMarker,
		"folder_comment":     n.FolderComment,
		"variables_folder":   n.VariablesFolder,
		"reports_folder":     n.ReportsFolder,
		"glossary_folder":    n.GlossaryFolder,
		"schema_folder":      n.SchemaFolder,
		"glossary_file":      n.GlossaryFile,
		"variables_file":     n.VariablesFile,
		"toc_ref_file":       n.TocRefFile,
		"changelog_ref_file": n.ChangelogRefFile,
		"glossary_ref_file":  n.GlossaryRefFile,
	}
	seen := make(map[string]string, len(fixed))
	for field, v := range fixed {
		if strings.TrimSpace(v) == "" || strings.ContainsAny(v, `/\`) {
			errs = append(errs, fmt.Errorf("%s: %q must be a single file name", field, v))
			continue
		}
		if other, dup := seen[v]; dup {
			// map iteration order is random; report the pair deterministically
			a, b := field, other
			if b < a {
				a, b = b, a
			}
			errs = append(errs, fmt.Errorf("%s and %s both use %q", a, b, v))
		}
		seen[v] = field
	}

	if len(errs) > 0 {
		return &InvalidNamesError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNamesError) Error() string {
	return fmt.Sprintf("invalid marker names: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidNames for errors.Is() compatibility.
func (e *InvalidNamesError) Unwrap() error { return ErrInvalidNames }

// CommentName returns the comment sidecar name for an owner.
func (n Names) CommentName(owner string) string { return owner + n.CommentSuffix }

// DescriptionName returns the description sidecar name for an owner.
func (n Names) DescriptionName(owner string) string { return owner + n.DescriptionSuffix }

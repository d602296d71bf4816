// SPDX-License-Identifier: MPL-2.0

// Package schema provides the form registry that maps file extensions to
// form kinds for the classifier.
//
// Forms come from two places: the application configuration (the base
// forms) and the *.cue files of a project's schema folder. Each schema file
// declares one form:
//
//	extension: ".req"
//	kind:      "requirement"
//	title:     "Requirement"
//
// Project files override base forms with the same extension. Files that fail
// validation are skipped and reported; the remaining forms still load.
package schema

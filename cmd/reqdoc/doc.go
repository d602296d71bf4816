// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the reqdoc command line interface.
//
// Every command receives the App composition root and opens the project
// through it: configuration comes from the config Provider, form kinds from
// the schema registry, and the document tree from internal/tree. Errors are
// returned to fang, which prints them; Execute then renders the matching
// issue guidance and maps the error to an exit code.
package cmd

// SPDX-License-Identifier: MPL-2.0

// Package order persists the logical order of a container's document
// children and reconciles it with the physical directory listing.
//
// The order record is a small TOML file inside every document container:
//
//	version = 1
//
//	[[entry]]
//	name = "chapter-1"
//	kind = "folder"
//
//	[[entry]]
//	name = "loads.tbl"
//	kind = "table"
//	horizontal = true
//
// Keys this package does not know about, at the top level and inside
// entries, are kept and written back unchanged.
package order

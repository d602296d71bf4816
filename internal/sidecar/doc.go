// SPDX-License-Identifier: MPL-2.0

// Package sidecar reads and writes comment and description files.
//
// A sidecar is a sibling file named after its owner plus a fixed suffix
// (t1.tbl.comment, chapter.desc). Folders additionally carry one
// folder-level comment with a fixed name inside the folder. Writing empty
// content removes the file: classification relies on file existence to
// detect whether an owner has a comment.
//
// Comment files hold a main text followed by zero or more ranges, each
// introduced by an [offset,length] marker line:
//
//	Needs review by the safety team.
//	[12,7]
//	Typo in the unit name.
//	[40,3]
//	Value out of range.
package sidecar

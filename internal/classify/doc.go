// SPDX-License-Identifier: MPL-2.0

// Package classify assigns a kind.Kind to every entry of a directory listing.
//
// Classification is split in two steps:
//   - Probe gathers the facts about one physical entry (symlink, marker files,
//     order record presence) from an afero filesystem.
//   - Classify is a pure, total function from those facts plus the listing
//     context to a Kind. It never fails: anything unrecognised is a generic Unit.
//
// Marker file names and sidecar suffixes are configurable through Names.
package classify

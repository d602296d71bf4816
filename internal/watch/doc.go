// SPDX-License-Identifier: MPL-2.0

// Package watch drives rescans of a document project from filesystem events.
//
// A Watcher registers every directory of the project root, plus any extra
// roots such as include overlay targets, with fsnotify. Events are filtered
// through doublestar ignore patterns and collected until the tree has been
// quiet for the debounce interval; the callback then receives the changed
// paths once. A callback that outlasts the interval is never re-entered;
// events arriving meanwhile are delivered by a later call.
package watch

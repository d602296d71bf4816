// SPDX-License-Identifier: MPL-2.0

// Package tree is the containment tree of a document project.
//
// A Project owns a registry that maps identities to long-lived Nodes. Each
// container moves through an explicit load state machine
// (Unloaded -> Loaded -> Stale -> Loaded): Load reconciles the physical
// listing with the container's order record, Invalidate marks it stale, and
// getters only ever return what the last load produced.
//
// Structural operations (create, delete, move, reorder, rename) change the
// physical resource first, then the order record, then memory. A failing
// physical step leaves record and memory untouched so the operation can be
// retried. Structural operations must not run concurrently with each other;
// read accessors may be called from other goroutines while no structural
// operation is in flight.
package tree

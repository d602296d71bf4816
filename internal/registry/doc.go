// SPDX-License-Identifier: MPL-2.0

// Package registry maps identity strings to live nodes.
//
// A Registry guarantees that at most one live entry is registered per
// identity: registering a second entry under an identity disposes the first.
// Registries are created per open project and closed with it; there is no
// process-wide instance.
package registry

// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv,
// MustUnsetenv, SetConfigHome), file operations (MustMkdirAll, MustWriteFile,
// MustSymlink) and the Project fixture builder, which lays out a document
// project on disk with order records written in the canonical format.
package testutil

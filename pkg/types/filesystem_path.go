// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
var ErrInvalidFilesystemPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is a path given on the command line or in configuration
	// (project directory, config file, include target). The zero value means
	// "not set"; non-zero values must not be whitespace-only or contain NUL.
	FilesystemPath string

	// InvalidFilesystemPathError is returned when a FilesystemPath value is
	// whitespace-only or contains a NUL byte.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}
)

// String returns the string representation of the FilesystemPath.
func (p FilesystemPath) String() string { return string(p) }

// IsSet reports whether a path was given.
func (p FilesystemPath) IsSet() bool { return p != "" }

// Validate returns an error for a non-empty path that cannot name a file.
func (p FilesystemPath) Validate() error {
	if p == "" {
		return nil
	}
	if strings.TrimSpace(string(p)) == "" || strings.ContainsRune(string(p), 0) {
		return &InvalidFilesystemPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidFilesystemPathError.
func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }

// SPDX-License-Identifier: MPL-2.0

// Package types defines value types shared by the repository packages
// (tree, sidecar, order). They carry validation but no domain behaviour.
//
// This package is a leaf dependency: it imports only the standard library.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDescriptionBytes bounds a description so that a sidecar stays a small
// text file.
const MaxDescriptionBytes = 64 << 10

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is the human-readable description attached to a document
	// element or container. Blank text (empty or whitespace-only) means "no
	// description" and removes the description sidecar when written.
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText value
	// cannot be stored.
	InvalidDescriptionTextError struct {
		Length int
		Reason string
	}
)

// String returns the string representation of the DescriptionText.
func (d DescriptionText) String() string { return string(d) }

// IsBlank reports whether the description carries no content.
func (d DescriptionText) IsBlank() bool { return strings.TrimSpace(string(d)) == "" }

// Validate rejects NUL bytes and oversized text.
func (d DescriptionText) Validate() error {
	switch {
	case strings.ContainsRune(string(d), 0):
		return &InvalidDescriptionTextError{Length: len(d), Reason: "must not contain NUL"}
	case len(d) > MaxDescriptionBytes:
		return &InvalidDescriptionTextError{Length: len(d), Reason: fmt.Sprintf("exceeds %d bytes", MaxDescriptionBytes)}
	}
	return nil
}

// Error implements the error interface for InvalidDescriptionTextError.
func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description text (%d bytes): %s", e.Length, e.Reason)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is() compatibility.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }

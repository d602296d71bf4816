// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNodeName is the sentinel error wrapped by InvalidNodeNameError.
var ErrInvalidNodeName = errors.New("invalid node name")

type (
	// NodeName is the physical name of a document element inside its container
	// (a file or directory name, extension included). It must be a single path
	// segment: non-empty, not "." or "..", without separators or NUL bytes, and
	// it must not start with a dot (dot-names are reserved for markers).
	NodeName string

	// InvalidNodeNameError is returned when a NodeName value is not a usable
	// single path segment.
	InvalidNodeNameError struct {
		Value  NodeName
		Reason string
	}
)

// String returns the string representation of the NodeName.
func (n NodeName) String() string { return string(n) }

// Validate returns an error when the name cannot be used for a document element.
func (n NodeName) Validate() error {
	s := string(n)
	switch {
	case strings.TrimSpace(s) == "":
		return &InvalidNodeNameError{Value: n, Reason: "must be non-empty"}
	case s == "." || s == "..":
		return &InvalidNodeNameError{Value: n, Reason: "must not be a relative path element"}
	case strings.ContainsAny(s, `/\`):
		return &InvalidNodeNameError{Value: n, Reason: "must not contain path separators"}
	case strings.ContainsRune(s, 0):
		return &InvalidNodeNameError{Value: n, Reason: "must not contain NUL"}
	case strings.HasPrefix(s, "."):
		return &InvalidNodeNameError{Value: n, Reason: "must not start with a dot"}
	}
	return nil
}

// Error implements the error interface for InvalidNodeNameError.
func (e *InvalidNodeNameError) Error() string {
	return fmt.Sprintf("invalid node name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidNodeName for errors.Is() compatibility.
func (e *InvalidNodeNameError) Unwrap() error { return ErrInvalidNodeName }

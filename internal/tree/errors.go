// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrPhysicalIO is the sentinel wrapped by IOError.
	ErrPhysicalIO = errors.New("physical I/O failure")
	// ErrLinkTargetMissing is returned when an include overlay would point
	// at a location that does not exist.
	ErrLinkTargetMissing = errors.New("include target does not exist")
	// ErrNotContainer is returned when a container operation is applied to
	// a node that holds no children.
	ErrNotContainer = errors.New("not a container")
	// ErrReadOnly is returned for structural changes inside a read-only
	// include overlay.
	ErrReadOnly = errors.New("container is read-only")
	// ErrNameExists is returned when a child with the same name exists.
	ErrNameExists = errors.New("name already exists")
	// ErrInvalidIndex is returned for a position outside the document children.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrBrokenContainer is returned when traversing or changing a broken
	// include overlay.
	ErrBrokenContainer = errors.New("broken container")
	// ErrDisposed is returned by operations on a node that has been removed
	// from the registry.
	ErrDisposed = errors.New("node disposed")
	// ErrNotFound is returned when a path or child cannot be resolved.
	ErrNotFound = errors.New("node not found")
	// ErrInvalidName is returned for names that cannot hold the requested
	// element.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidMove is returned when a node would be moved into itself or
	// one of its descendants.
	ErrInvalidMove = errors.New("invalid move")
	// ErrUnsupported is returned when an operation does not apply to the
	// node's kind.
	ErrUnsupported = errors.New("operation not supported for this kind")
)

// IOError reports a failed physical step of an operation. It unwraps to both
// ErrPhysicalIO and the underlying cause.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrPhysicalIO and the cause for errors.Is() compatibility.
func (e *IOError) Unwrap() []error { return []error{ErrPhysicalIO, e.Err} }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *IOError
	if errors.As(err, &existing) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

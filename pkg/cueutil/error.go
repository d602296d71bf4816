// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is returned when a document exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

type (
	// Issue is one failure at a CUE path.
	Issue struct {
		// Path is the JSON-style path to the invalid value (e.g. "forms[0].extension").
		// It is empty for syntax errors.
		Path    string
		Message string
	}

	// Error collects the failures of one document.
	Error struct {
		File   string
		Issues []Issue
	}
)

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Error implements the error interface.
//
//	reqdoc.cue: forms[0].extension: invalid value "req" (does not match =~"^\\.")
func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		return e.File + ": " + e.Issues[0].String()
	}
	lines := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		lines[i] = is.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// FormatError converts a CUE error into an *Error naming file. Errors that
// carry no CUE detail are wrapped with the file name instead.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	out := &Error{File: file, Issues: make([]Issue, 0, len(list))}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE repeats the path at the start of some messages
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		out.Issues = append(out.Issues, Issue{Path: path, Message: msg})
	}
	return out
}

// formatPath turns ["forms", "0", "kind"] into "forms[0].kind".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize fails when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, filename, len(data), maxSize)
	}
	return nil
}

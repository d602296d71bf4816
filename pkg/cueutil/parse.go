// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
)

// ParseResult holds a decoded document.
type ParseResult[T any] struct {
	Value *T

	// Unified is the unified CUE value, for callers that need more than the
	// decoded struct.
	Unified cue.Value
}

// Unify compiles schema and data, unifies data with the definition at
// schemaPath (e.g. "#Config") and validates the result. Validation and
// syntax failures are returned as *Error.
func Unify(schema, data []byte, schemaPath string, opts ...Option) (cue.Value, error) {
	o := applyOptions(opts)
	filename := o.filename

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if def.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, def.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	return unified, nil
}

// ParseAndDecode unifies data with the schema definition and decodes the
// result into a T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	unified, err := Unify(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, applyOptions(opts).filename)
	}
	return &ParseResult[T]{Value: &out, Unified: unified}, nil
}

// ParseFile reads path from fsys and decodes it like ParseAndDecode. The
// size limit is checked before the file is read and the path names the
// document in errors unless WithFilename overrides it.
func ParseFile[T any](fsys afero.Fs, path string, schema []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := applyOptions(opts)

	fi, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if fi.Size() > o.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, fi.Size(), o.maxFileSize)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	opts = append([]Option{WithFilename(path)}, opts...)
	return ParseAndDecode[T](schema, data, schemaPath, opts...)
}

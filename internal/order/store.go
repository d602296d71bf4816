// SPDX-License-Identifier: MPL-2.0

package order

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// Load reads the record at path. A missing file yields (nil, nil, nil) so
// callers can tell "absent" from "empty".
func Load(fsys afero.Fs, path string) (*Record, []error, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read order record %s: %w", path, err)
	}
	rec, warnings, err := Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, warnings, nil
}

// Save writes the record to path unless the file already holds the same
// bytes. written reports whether the file was touched.
func Save(fsys afero.Fs, path string, rec *Record) (written bool, err error) {
	data, err := rec.Encode()
	if err != nil {
		return false, err
	}
	existing, readErr := afero.ReadFile(fsys, path)
	if readErr == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return false, fmt.Errorf("read order record %s: %w", path, readErr)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return false, fmt.Errorf("write order record %s: %w", path, err)
	}
	return true, nil
}

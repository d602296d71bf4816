// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Probe builds the Entry for fi, a FileInfo obtained from listing dir
// (afero.ReadDir reports symlinks without following them). Errors while
// probing marker files degrade to "marker absent" so classification stays
// total; they are returned for logging only.
func Probe(fs afero.Fs, dir string, fi os.FileInfo, names Names) (Entry, error) {
	e := Entry{Name: fi.Name(), IsDir: fi.IsDir()}
	path := filepath.Join(dir, fi.Name())

	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Stat(path)
		if err != nil || target.IsDir() {
			// dangling links stay include overlays so they keep their slot
			e.IsDir = true
			e.IsSymlink = true
			return e, nil
		}
		e.IsDir = false
		return e, nil
	}

	if !e.IsDir || strings.HasPrefix(e.Name, ".") {
		return e, nil
	}

	var probeErr error
	check := func(marker string) bool {
		ok, err := afero.Exists(fs, filepath.Join(path, marker))
		if err != nil && probeErr == nil {
			probeErr = fmt.Errorf("probe %s in %s: %w", marker, path, err)
		}
		return ok
	}
	e.HasReservedMarker = check(names.ReservedMarker)
	e.HasAppendixMarker = check(names.AppendixMarker)
	e.HasOrderRecord = check(names.OrderFile)
	return e, probeErr
}

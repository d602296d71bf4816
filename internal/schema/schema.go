// SPDX-License-Identifier: MPL-2.0

package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/pkg/cueutil"
)

// FilePattern selects schema files inside the schema folder.
const FilePattern = "**/*.cue"

//go:embed form_schema.cue
var formSchema []byte

// ErrInvalidForm is the sentinel error wrapped by InvalidFormError.
var ErrInvalidForm = errors.New("invalid form")

type (
	// Form maps an extension to a form kind.
	Form struct {
		Extension string `json:"extension"`
		Kind      string `json:"kind"`
		Title     string `json:"title,omitempty"`
		// Source is the schema file the form was read from, empty for
		// configured forms.
		Source string `json:"-"`
	}

	// InvalidFormError is returned by NewRegistry for a configured form
	// that does not validate.
	InvalidFormError struct {
		Form   Form
		Reason string
	}

	// Registry is the default classify.FormSchema. It is safe for
	// concurrent use; Load swaps the project forms atomically.
	Registry struct {
		mu      sync.RWMutex
		base    map[string]Form
		project map[string]Form
		logger  *log.Logger
	}

	// Option configures a Registry.
	Option func(*Registry)
)

// Error implements the error interface.
func (e *InvalidFormError) Error() string {
	return fmt.Sprintf("invalid form %q -> %q: %s", e.Form.Extension, e.Form.Kind, e.Reason)
}

// Unwrap returns ErrInvalidForm for errors.Is() compatibility.
func (e *InvalidFormError) Unwrap() error { return ErrInvalidForm }

// WithLogger sets the logger used to report skipped schema files.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns a registry holding the base forms.
func NewRegistry(base []Form, opts ...Option) (*Registry, error) {
	r := &Registry{
		base:    make(map[string]Form, len(base)),
		project: map[string]Form{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, f := range base {
		f.Extension = normalize(f.Extension)
		if err := f.Validate(); err != nil {
			return nil, err
		}
		r.base[f.Extension] = f
	}
	return r, nil
}

// Validate checks the shape rules the schema file applies.
func (f Form) Validate() error {
	switch {
	case len(f.Extension) < 2 || f.Extension[0] != '.':
		return &InvalidFormError{Form: f, Reason: "extension must start with a dot"}
	case strings.ContainsAny(f.Extension[1:], "./\\ "):
		return &InvalidFormError{Form: f, Reason: "extension must be a single segment"}
	case f.Kind == "":
		return &InvalidFormError{Form: f, Reason: "kind must not be empty"}
	}
	return nil
}

// FormKind implements classify.FormSchema.
func (r *Registry) FormKind(ext string) (string, bool) {
	f, ok := r.Lookup(ext)
	return f.Kind, ok
}

// Lookup returns the form registered for ext. Project forms win over base
// forms.
func (r *Registry) Lookup(ext string) (Form, bool) {
	ext = normalize(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.project[ext]; ok {
		return f, true
	}
	f, ok := r.base[ext]
	return f, ok
}

// Forms returns every effective form sorted by extension.
func (r *Registry) Forms() []Form {
	r.mu.RLock()
	merged := make(map[string]Form, len(r.base)+len(r.project))
	for ext, f := range r.base {
		merged[ext] = f
	}
	for ext, f := range r.project {
		merged[ext] = f
	}
	r.mu.RUnlock()

	out := make([]Form, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Form) int { return strings.Compare(a.Extension, b.Extension) })
	return out
}

// Load replaces the project forms with those declared by the *.cue files
// below dir. A missing dir clears them. Invalid files are skipped and their
// errors joined into the result; two files declaring the same extension
// keep the first in path order.
func (r *Registry) Load(fsys afero.Fs, dir string) error {
	files, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fsys, dir)), FilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("list schema files in %s: %w", dir, err)
	}

	forms := make(map[string]Form, len(files))
	var errs []error
	for _, rel := range files {
		if hidden(rel) {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(rel))
		res, err := cueutil.ParseFile[Form](fsys, path, formSchema, "#Form")
		if err != nil {
			r.logger.Warn("schema file skipped", "file", path, "err", err)
			errs = append(errs, err)
			continue
		}
		f := *res.Value
		f.Extension = normalize(f.Extension)
		f.Source = path
		if prev, dup := forms[f.Extension]; dup {
			r.logger.Warn("duplicate form extension", "extension", f.Extension, "kept", prev.Source, "skipped", path)
			continue
		}
		forms[f.Extension] = f
	}

	r.mu.Lock()
	r.project = forms
	r.mu.Unlock()
	r.logger.Debug("schema loaded", "dir", dir, "forms", len(forms), "skipped", len(errs))
	return errors.Join(errs...)
}

func normalize(ext string) string { return strings.ToLower(ext) }

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

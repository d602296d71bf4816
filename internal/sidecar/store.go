// SPDX-License-Identifier: MPL-2.0

package sidecar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/classify"
)

// ErrSidecarExists is returned when moving sidecars would replace a sidecar
// already present at the destination.
var ErrSidecarExists = errors.New("sidecar already exists")

type (
	// Ref addresses the sidecars of one owner.
	Ref struct {
		// Dir is the directory holding the sidecar files.
		Dir string
		// Owner is the owner's file name. An empty Owner addresses the
		// folder-level sidecars stored inside Dir.
		Owner string
	}

	// Store reads and writes sidecar files.
	Store struct {
		fs     afero.Fs
		names  classify.Names
		logger *log.Logger
	}
)

// FolderRef addresses the folder-level sidecars of dir.
func FolderRef(dir string) Ref {
	return Ref{Dir: dir}
}

// NewStore creates a Store. A nil logger discards parse warnings.
func NewStore(fsys afero.Fs, names classify.Names, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{fs: fsys, names: names, logger: logger}
}

// CommentPath returns the comment file of ref.
func (s *Store) CommentPath(ref Ref) string {
	if ref.Owner == "" {
		return filepath.Join(ref.Dir, s.names.FolderComment)
	}
	return filepath.Join(ref.Dir, s.names.CommentName(ref.Owner))
}

// DescriptionPath returns the description file of ref.
func (s *Store) DescriptionPath(ref Ref) string {
	if ref.Owner == "" {
		return filepath.Join(ref.Dir, folderDescriptionName(s.names))
	}
	return filepath.Join(ref.Dir, s.names.DescriptionName(ref.Owner))
}

func folderDescriptionName(n classify.Names) string {
	return strings.TrimSuffix(n.FolderComment, n.CommentSuffix) + n.DescriptionSuffix
}

// Comment reads the comment of ref. A missing file yields an empty comment.
// Malformed range markers are logged and kept as text.
func (s *Store) Comment(ref Ref) (Comment, error) {
	path := s.CommentPath(ref)
	data, ok, err := s.read(path)
	if err != nil || !ok {
		return Comment{}, err
	}
	c, warnings := Parse(data)
	for _, w := range warnings {
		s.logger.Warn("comment parsed partially", "file", path, "warning", w)
	}
	return c, nil
}

// SetComment writes the comment of ref. An empty comment deletes the file.
func (s *Store) SetComment(ref Ref, c Comment) error {
	path := s.CommentPath(ref)
	if c.IsEmpty() {
		return s.remove(path)
	}
	return s.write(path, c.Format())
}

// Description reads the description of ref. A missing file yields "".
func (s *Store) Description(ref Ref) (string, error) {
	data, _, err := s.read(s.DescriptionPath(ref))
	return strings.TrimRight(data, "\n"), err
}

// SetDescription writes the description of ref. Blank text deletes the file.
func (s *Store) SetDescription(ref Ref, text string) error {
	path := s.DescriptionPath(ref)
	if strings.TrimSpace(text) == "" {
		return s.remove(path)
	}
	return s.write(path, text+"\n")
}

// CheckMove reports whether Move(from, to) can run without replacing a
// sidecar at the destination. A destination sidecar whose source does not
// exist is an orphan that will bind to the moved owner; it is kept.
func (s *Store) CheckMove(from, to Ref) error {
	if from.Owner == "" || to.Owner == "" {
		return nil
	}
	for _, p := range s.movePairs(from, to) {
		src, err := afero.Exists(s.fs, p[0])
		if err != nil {
			return fmt.Errorf("stat sidecar %s: %w", p[0], err)
		}
		if !src {
			continue
		}
		dst, err := afero.Exists(s.fs, p[1])
		if err != nil {
			return fmt.Errorf("stat sidecar %s: %w", p[1], err)
		}
		if dst {
			return fmt.Errorf("%w: %s", ErrSidecarExists, p[1])
		}
	}
	return nil
}

// Move renames the owner-named sidecars of from to to. Folder-level
// sidecars travel with their folder and are not touched. Move refuses with
// ErrSidecarExists instead of replacing a destination sidecar. When the
// second rename fails the first one is rolled back.
func (s *Store) Move(from, to Ref) error {
	if from.Owner == "" || to.Owner == "" {
		return nil
	}
	if err := s.CheckMove(from, to); err != nil {
		return err
	}
	var done [][2]string
	for _, p := range s.movePairs(from, to) {
		ok, err := afero.Exists(s.fs, p[0])
		if err != nil {
			return s.rollback(done, err)
		}
		if !ok {
			continue
		}
		if err := s.fs.Rename(p[0], p[1]); err != nil {
			return s.rollback(done, fmt.Errorf("move sidecar %s: %w", p[0], err))
		}
		done = append(done, p)
	}
	return nil
}

func (s *Store) movePairs(from, to Ref) [][2]string {
	return [][2]string{
		{s.CommentPath(from), s.CommentPath(to)},
		{s.DescriptionPath(from), s.DescriptionPath(to)},
	}
}

func (s *Store) rollback(done [][2]string, cause error) error {
	for _, p := range done {
		if err := s.fs.Rename(p[1], p[0]); err != nil {
			s.logger.Error("sidecar rollback failed", "file", p[1], "error", err)
		}
	}
	return cause
}

// Remove deletes both sidecars of ref.
func (s *Store) Remove(ref Ref) error {
	return errors.Join(s.remove(s.CommentPath(ref)), s.remove(s.DescriptionPath(ref)))
}

func (s *Store) read(path string) (string, bool, error) {
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	return string(data), true, nil
}

func (s *Store) write(path, content string) error {
	if err := afero.WriteFile(s.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

func (s *Store) remove(path string) error {
	err := s.fs.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove sidecar %s: %w", path, err)
}

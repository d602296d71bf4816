// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// OrderFile is the default order record name.
const OrderFile = ".order.toml"

// Project lays out a document project on disk for tests.
//
// Usage:
//
//	p := testutil.NewProject(t)
//	p.Folder("chapter-1", "intro.md", "loads.tbl")
//	p.File("chapter-1/intro.md", "# Intro")
//	p.File("chapter-1/loads.tbl", "")
//	proj, err := tree.Open(p.Root, tree.Options{})
type Project struct {
	t    testing.TB
	Root string
}

// NewProject creates an empty project directory named "proj" under a fresh
// temporary directory, with an empty root order record.
func NewProject(t testing.TB) *Project {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	p := &Project{t: t, Root: root}
	p.Order("")
	return p
}

// Path joins rel (slash separated) onto the project root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Order writes the order record of the container at rel listing names.
func (p *Project) Order(rel string, names ...string) {
	p.t.Helper()
	var b strings.Builder
	b.WriteString("version = 1\n")
	for _, n := range names {
		fmt.Fprintf(&b, "\n[[entry]]\nname = %q\n", n)
	}
	MustWriteFile(p.t, filepath.Join(p.Path(rel), OrderFile), b.String())
}

// Folder creates the folder at rel with an order record listing names.
func (p *Project) Folder(rel string, names ...string) string {
	p.t.Helper()
	p.Order(rel, names...)
	return p.Path(rel)
}

// Appendix creates an appendix folder at rel.
func (p *Project) Appendix(rel string, names ...string) string {
	p.t.Helper()
	dir := p.Folder(rel, names...)
	MustWriteFile(p.t, filepath.Join(dir, ".appendix"), "")
	return dir
}

// File writes a file at rel.
func (p *Project) File(rel, content string) string {
	p.t.Helper()
	path := p.Path(rel)
	MustWriteFile(p.t, path, content)
	return path
}

// Files writes empty files at every rel.
func (p *Project) Files(rels ...string) {
	p.t.Helper()
	for _, rel := range rels {
		p.File(rel, "")
	}
}

// Dir creates a plain directory without an order record.
func (p *Project) Dir(rel string) string {
	p.t.Helper()
	path := p.Path(rel)
	MustMkdirAll(p.t, path, 0o755)
	return path
}

// Link creates a symbolic link at rel pointing to target.
func (p *Project) Link(rel, target string) string {
	p.t.Helper()
	path := p.Path(rel)
	MustSymlink(p.t, target, path)
	return path
}

// Remove deletes rel and everything below it.
func (p *Project) Remove(rel string) {
	p.t.Helper()
	if err := os.RemoveAll(p.Path(rel)); err != nil {
		p.t.Fatalf("failed to remove %s: %v", rel, err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/testutil"
)

var errInjected = errors.New("injected failure")

// faultyFs fails selected writes on demand.
type faultyFs struct {
	afero.Fs
	failOrder  atomic.Bool
	failRename atomic.Bool
	failCreate atomic.Bool
}

func newFaultyFs() *faultyFs {
	return &faultyFs{Fs: afero.NewOsFs()}
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	writing := flag&(os.O_WRONLY|os.O_RDWR) != 0
	if writing && f.failOrder.Load() && filepath.Base(name) == testutil.OrderFile {
		return nil, errInjected
	}
	if writing && f.failCreate.Load() && filepath.Base(name) != testutil.OrderFile {
		return nil, errInjected
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *faultyFs) Rename(oldname, newname string) error {
	if f.failRename.Load() {
		return errInjected
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *faultyFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	return f.Fs.(afero.Lstater).LstatIfPossible(name)
}

func (f *faultyFs) SymlinkIfPossible(oldname, newname string) error {
	return f.Fs.(afero.Linker).SymlinkIfPossible(oldname, newname)
}

func (f *faultyFs) ReadlinkIfPossible(name string) (string, error) {
	return f.Fs.(afero.LinkReader).ReadlinkIfPossible(name)
}

func open(t *testing.T, fx *testutil.Project, opts ...func(*Options)) *Project {
	t.Helper()

	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	p, err := Open(fx.Root, o)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, p))
	return p
}

func openTree(t *testing.T, fx *testutil.Project, opts ...func(*Options)) *Project {
	t.Helper()

	p := open(t, fx, opts...)
	if err := p.LoadTree(); err != nil {
		t.Fatalf("LoadTree() error: %v", err)
	}
	return p
}

func withFs(fsys afero.Fs) func(*Options) {
	return func(o *Options) { o.Fs = fsys }
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func mustFind(t *testing.T, p *Project, path string) *Node {
	t.Helper()

	n, err := p.Find(path)
	if err != nil {
		t.Fatalf("Find(%q) error: %v", path, err)
	}
	return n
}

func TestOpen_ReconcilesRoot(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch2", "ch1")
	fx.Folder("ch1")
	fx.Folder("ch2")
	fx.Dir("broken")
	fx.Files("intro.md", "intro.md.comment", "_folder.comment", ".cache")
	fx.Dir("_reports")
	fx.Dir("_variables")

	p := open(t, fx)
	root := p.Root()

	if root.State() != Loaded {
		t.Fatalf("root state = %v, want loaded", root.State())
	}
	if diff := cmp.Diff([]string{"ch2", "ch1", "broken", "intro.md"}, names(root.DocumentChildren())); diff != "" {
		t.Errorf("document children (-want +got):\n%s", diff)
	}
	broken := mustFind(t, p, "broken")
	if broken.Kind() != kind.Broken {
		t.Errorf("folder without order record is %v", broken.Kind())
	}
	if err := broken.Load(); !errors.Is(err, ErrNotContainer) {
		t.Errorf("Load() on a broken folder = %v, want ErrNotContainer", err)
	}
	if diff := cmp.Diff([]string{"_variables", "_reports"}, names(root.Auxiliary())); diff != "" {
		t.Errorf("auxiliary order (-want +got):\n%s", diff)
	}
	ch1 := mustFind(t, p, "ch1")
	if ch1.State() != Unloaded {
		t.Errorf("child container loaded eagerly: %v", ch1.State())
	}

	intro := mustFind(t, p, "intro.md")
	if !intro.HasComment() {
		t.Error("intro.md comment not bound")
	}
	for _, c := range root.Children() {
		switch c.Name() {
		case "intro.md.comment":
			if c.Owner() != intro {
				t.Errorf("comment owner = %v, want intro.md", c.Owner())
			}
		case "_folder.comment":
			if c.Owner() != root {
				t.Errorf("folder comment owner = %v, want root", c.Owner())
			}
		case ".cache":
			if c.Kind() != kind.Ignored {
				t.Errorf(".cache kind = %v", c.Kind())
			}
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing"), Options{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) = %v, want ErrNotFound", err)
	}
	file := filepath.Join(t.TempDir(), "file")
	testutil.MustWriteFile(t, file, "")
	if _, err := Open(file, Options{}); !errors.Is(err, ErrNotContainer) {
		t.Errorf("Open(file) = %v, want ErrNotContainer", err)
	}
}

func TestOpen_RecordWriteFailureIsRecovered(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.txt")
	fx.Files("a.txt", "late.txt")
	before := testutil.MustReadFile(t, fx.Path(testutil.OrderFile))
	ffs := newFaultyFs()
	ffs.failOrder.Store(true)

	p := open(t, fx, withFs(ffs))
	if diff := cmp.Diff([]string{"a.txt", "late.txt"}, names(p.Root().DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if after := testutil.MustReadFile(t, fx.Path(testutil.OrderFile)); after != before {
		t.Errorf("order record rewritten:\n%s", cmp.Diff(before, after))
	}
}

func TestInit_CreatesRecord(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "fresh")
	p, err := Init(dir, Options{})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer testutil.MustClose(t, p)

	if !testutil.Exists(t, filepath.Join(dir, testutil.OrderFile)) {
		t.Error("root order record not created")
	}
	if len(p.Root().DocumentChildren()) != 0 {
		t.Error("new project is not empty")
	}
}

func TestLoad_StateMachine(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Folder("ch", "a.txt")
	fx.Files("ch/a.txt")

	p := open(t, fx)
	a := mustFind(t, p, "ch/a.txt")
	ch := a.Parent()
	if ch.State() != Loaded {
		t.Fatalf("Find should load the containers on its path, state = %v", ch.State())
	}

	fx.Files("ch/b.txt")
	if got := names(ch.DocumentChildren()); len(got) != 1 {
		t.Errorf("getter reconciled implicitly: %v", got)
	}

	ch.Invalidate()
	if ch.State() != Stale {
		t.Errorf("state after Invalidate = %v, want stale", ch.State())
	}
	if got := names(ch.DocumentChildren()); len(got) != 1 {
		t.Errorf("stale container changed children: %v", got)
	}

	if err := ch.Load(); err != nil {
		t.Fatal(err)
	}
	if ch.State() != Loaded {
		t.Errorf("state after Load = %v", ch.State())
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, names(ch.DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if again := mustFind(t, p, "ch/a.txt"); again != a {
		t.Error("existing child was not reused across a reload")
	}

	fx.Remove("ch/a.txt")
	if err := ch.Refresh(); err != nil {
		t.Fatal(err)
	}
	if !a.IsDisposed() {
		t.Error("vanished child was not disposed")
	}
	if _, ok := p.Lookup(a.ID()); ok {
		t.Error("vanished child still registered")
	}
}

func TestRefresh_IdentityStable(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch")
	fx.Folder("ch", "sub", "t.tbl")
	fx.Folder("ch/sub", "x.png")
	fx.Files("ch/t.tbl", "ch/sub/x.png")

	p := openTree(t, fx)
	before := map[string]*Node{}
	_ = p.Walk(func(n *Node, _ int) error {
		before[n.ID()] = n
		return nil
	})
	count := p.Registered()

	if err := p.Refresh(); err != nil {
		t.Fatal(err)
	}
	for id, n := range before {
		got, ok := p.Lookup(id)
		if !ok || got != n {
			t.Errorf("identity %s not stable across refresh", id)
		}
	}
	if p.Registered() != count {
		t.Errorf("Registered() = %d after refresh, want %d", p.Registered(), count)
	}
	if got := mustFind(t, p, "ch/sub/x.png").ID(); got != "x.png|sub|ch|@proj" {
		t.Errorf("ID() = %q", got)
	}
}

func TestReopen_DoesNotRewriteRecords(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Files("b.txt", "a.txt")
	record := fx.Path(testutil.OrderFile)

	p, err := Open(fx.Root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	testutil.MustClose(t, p)

	past := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(record, past, past); err != nil {
		t.Fatal(err)
	}
	p = open(t, fx)
	fi, err := os.Stat(record)
	if err != nil {
		t.Fatal(err)
	}
	if !fi.ModTime().Equal(past) {
		t.Error("second open rewrote an unchanged order record")
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, names(p.Root().DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFindAndWalk(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch", "z.md")
	fx.Folder("ch", "skip", "keep.tbl")
	fx.Folder("ch/skip", "hidden.tbl")
	fx.Files("ch/keep.tbl", "ch/skip/hidden.tbl", "z.md")

	p := openTree(t, fx)

	var visited []string
	err := p.Walk(func(n *Node, depth int) error {
		visited = append(visited, n.Name())
		if n.Name() == "skip" {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"ch", "skip", "keep.tbl", "z.md"}, visited); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}

	if _, err := p.Find("ch/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(missing) = %v", err)
	}
	if _, err := p.Find("z.md/x"); !errors.Is(err, ErrNotContainer) {
		t.Errorf("Find(through unit) = %v", err)
	}
	if n, _ := p.Find("/"); n != p.Root() {
		t.Error("Find(/) is not the root")
	}
}

func TestEnsureAuxiliary(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch")
	fx.Folder("ch")
	p := openTree(t, fx)
	ch := mustFind(t, p, "ch")

	g, err := ch.EnsureGlossary()
	if err != nil {
		t.Fatalf("EnsureGlossary() error: %v", err)
	}
	v, err := ch.EnsureVariables()
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := ch.EnsureVariables(); again != v {
		t.Error("EnsureVariables() is not idempotent")
	}
	if _, err := p.Root().EnsureReports(); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"_variables", "_glossary"}, names(ch.Auxiliary())); diff != "" {
		t.Errorf("Auxiliary() (-want +got):\n%s", diff)
	}
	if g.Kind() != kind.GlossaryFolder || !testutil.Exists(t, g.Path()) {
		t.Errorf("glossary folder %v not created", g)
	}
	agg := p.Aggregates()
	if len(agg.Variables) != 1 || len(agg.Glossaries) != 1 || len(agg.Reports) != 1 {
		t.Errorf("Aggregates() = %+v", agg)
	}
	if len(ch.DocumentChildren()) != 0 {
		t.Error("auxiliary folders must not become document children")
	}

	if err := ch.Delete(false); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	agg = p.Aggregates()
	if len(agg.Variables) != 0 || len(agg.Glossaries) != 0 || len(agg.Reports) != 1 {
		t.Errorf("deleting a folder did not detach its aggregates: %+v", agg)
	}
}

func TestLoadTree_IncludeCycleTerminates(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch")
	fx.Folder("ch", "loop")
	fx.Link("ch/loop", fx.Root)

	p := openTree(t, fx)
	loop := mustFind(t, p, "ch/loop")
	if loop.Kind() != kind.Include {
		t.Fatalf("loop kind = %v", loop.Kind())
	}
	if loop.State() != Unloaded {
		t.Errorf("cyclic include was loaded: %v", loop.State())
	}
}

func TestClose_DisposesNodes(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Files("a.txt")
	p, err := Open(fx.Root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	a := mustFind(t, p, "a.txt")
	testutil.MustClose(t, p)
	testutil.MustClose(t, p)

	if !a.IsDisposed() || p.Registered() != 0 {
		t.Error("Close left live nodes")
	}
	if err := a.Rename("b.txt"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Rename() after Close = %v, want ErrDisposed", err)
	}
}

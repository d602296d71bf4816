// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/testutil"
)

// reopen opens a second project on the same directory to observe what was
// persisted.
func reopen(t *testing.T, fx *testutil.Project) *Project {
	t.Helper()
	return openTree(t, fx)
}

func TestCreateUnit(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch", "note.md")
	fx.Folder("ch")
	fx.Files("note.md")
	p := openTree(t, fx)
	ch := mustFind(t, p, "ch")

	b, err := ch.CreateUnit("b.tbl", End, []byte("rows"))
	if err != nil {
		t.Fatalf("CreateUnit() error: %v", err)
	}
	if _, err := ch.CreateUnit("a.png", 0, nil); err != nil {
		t.Fatal(err)
	}
	if b.Kind() != kind.Table || b.Parent() != ch {
		t.Errorf("created unit = %v (%v)", b, b.Kind())
	}
	if got := testutil.MustReadFile(t, fx.Path("ch/b.tbl")); got != "rows" {
		t.Errorf("content = %q", got)
	}
	if diff := cmp.Diff([]string{"a.png", "b.tbl"}, names(ch.DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got, ok := p.Lookup("b.tbl|ch|@proj"); !ok || got != b {
		t.Error("created unit not registered")
	}

	q := reopen(t, fx)
	if diff := cmp.Diff([]string{"a.png", "b.tbl"}, names(mustFind(t, q, "ch").DocumentChildren())); diff != "" {
		t.Errorf("persisted order (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		node   *Node
		child  string
		index  int
		target error
	}{
		{"existing name", ch, "b.tbl", End, ErrNameExists},
		{"separator", ch, "x/y.tbl", End, ErrInvalidName},
		{"hidden", ch, ".secret", End, ErrInvalidName},
		{"sidecar name", ch, "b.tbl.comment", End, ErrInvalidName},
		{"index out of range", ch, "c.tbl", 3, ErrInvalidIndex},
		{"negative index", ch, "c.tbl", -2, ErrInvalidIndex},
		{"unit is no container", b, "c.tbl", End, ErrNotContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.node.CreateUnit(tt.child, tt.index, nil); !errors.Is(err, tt.target) {
				t.Errorf("CreateUnit(%q, %d) = %v, want %v", tt.child, tt.index, err, tt.target)
			}
		})
	}
	if len(ch.DocumentChildren()) != 2 {
		t.Error("failed creations changed the container")
	}
}

func TestCreateUnit_RecordFailureRemovesFile(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	ffs := newFaultyFs()
	p := open(t, fx, withFs(ffs))
	root := p.Root()

	ffs.failOrder.Store(true)
	_, err := root.CreateUnit("t.tbl", End, nil)
	if !errors.Is(err, ErrPhysicalIO) || !errors.Is(err, errInjected) {
		t.Fatalf("CreateUnit() = %v, want injected physical failure", err)
	}
	if testutil.Exists(t, fx.Path("t.tbl")) {
		t.Error("unit file left behind after the record write failed")
	}
	if len(root.DocumentChildren()) != 0 {
		t.Error("failed creation is visible in memory")
	}

	ffs.failOrder.Store(false)
	if _, err := root.CreateUnit("t.tbl", End, nil); err != nil {
		t.Fatalf("CreateUnit() after recovery: %v", err)
	}
}

func TestCreateUnit_PhysicalFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.txt")
	fx.Files("a.txt")
	ffs := newFaultyFs()
	p := open(t, fx, withFs(ffs))
	before := testutil.MustReadFile(t, fx.Path(testutil.OrderFile))

	ffs.failCreate.Store(true)
	if _, err := p.Root().CreateUnit("b.txt", End, nil); !errors.Is(err, errInjected) {
		t.Fatalf("CreateUnit() = %v", err)
	}
	if after := testutil.MustReadFile(t, fx.Path(testutil.OrderFile)); after != before {
		t.Errorf("order record changed:\n%s", cmp.Diff(before, after))
	}
}

func TestCreateContainers(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	p := open(t, fx)
	root := p.Root()

	sec, err := root.CreateFolder("sec", End)
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}
	app, err := root.CreateAppendix("app", End)
	if err != nil {
		t.Fatalf("CreateAppendix() error: %v", err)
	}
	if _, err := sec.CreateFolder("inner", End); err != nil {
		t.Fatalf("nested CreateFolder() error: %v", err)
	}
	if sec.Kind() != kind.Folder || app.Kind() != kind.Appendix {
		t.Errorf("kinds = %v, %v", sec.Kind(), app.Kind())
	}
	for _, rel := range []string{"sec/" + testutil.OrderFile, "app/" + testutil.OrderFile, "app/.appendix", "sec/inner/" + testutil.OrderFile} {
		if !testutil.Exists(t, fx.Path(rel)) {
			t.Errorf("%s not created", rel)
		}
	}

	if _, err := root.CreateFolder("_reports", End); !errors.Is(err, ErrInvalidName) {
		t.Errorf("CreateFolder(_reports) = %v, want ErrInvalidName", err)
	}

	q := reopen(t, fx)
	if got := mustFind(t, q, "app").Kind(); got != kind.Appendix {
		t.Errorf("reopened appendix kind = %v", got)
	}
	if got := mustFind(t, q, "sec/inner").Kind(); got != kind.Folder {
		t.Errorf("reopened inner kind = %v", got)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.tbl", "b.tbl", "ch")
	fx.Files("a.tbl", "a.tbl.comment", "a.tbl.desc", "b.tbl")
	fx.Folder("ch", "x.tbl")
	fx.Files("ch/x.tbl", "ch.desc")
	p := openTree(t, fx)

	a := mustFind(t, p, "a.tbl")
	ch := mustFind(t, p, "ch")
	x := mustFind(t, p, "ch/x.tbl")
	registered := p.Registered()

	if err := a.Delete(false); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	for _, rel := range []string{"a.tbl", "a.tbl.comment", "a.tbl.desc"} {
		if testutil.Exists(t, fx.Path(rel)) {
			t.Errorf("%s still on disk", rel)
		}
	}
	if p.Registered() != registered-3 {
		t.Errorf("Registered() = %d, want %d", p.Registered(), registered-3)
	}
	if !a.IsDisposed() {
		t.Error("deleted node not disposed")
	}
	if err := a.Delete(false); !errors.Is(err, ErrDisposed) {
		t.Errorf("second Delete() = %v, want ErrDisposed", err)
	}

	if err := ch.Delete(false); err != nil {
		t.Fatal(err)
	}
	if !x.IsDisposed() {
		t.Error("descendant of a deleted folder still live")
	}
	if testutil.Exists(t, fx.Path("ch")) || testutil.Exists(t, fx.Path("ch.desc")) {
		t.Error("folder or its description left on disk")
	}

	if err := p.Root().Delete(false); !errors.Is(err, ErrUnsupported) {
		t.Errorf("deleting the root = %v", err)
	}

	q := reopen(t, fx)
	if diff := cmp.Diff([]string{"b.tbl"}, names(q.Root().DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDelete_ReserveUnit(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.tbl", "b.tbl")
	fx.Files("a.tbl", "a.tbl.comment", "b.tbl")
	p := openTree(t, fx)

	if err := mustFind(t, p, "a.tbl").Delete(true); err != nil {
		t.Fatalf("Delete(reserve) error: %v", err)
	}
	root := p.Root()
	if diff := cmp.Diff([]string{"a.rsv", "b.tbl"}, names(root.DocumentChildren())); diff != "" {
		t.Errorf("reserved slot (-want +got):\n%s", diff)
	}
	rsv := root.DocumentChildren()[0]
	if rsv.Kind() != kind.ReservedUnit {
		t.Errorf("kind = %v", rsv.Kind())
	}
	if testutil.Exists(t, fx.Path("a.tbl")) || testutil.Exists(t, fx.Path("a.tbl.comment")) {
		t.Error("original unit or comment kept")
	}
	if err := rsv.Delete(true); err != nil {
		t.Errorf("reserving a reserved unit = %v", err)
	}

	q := reopen(t, fx)
	if diff := cmp.Diff([]string{"a.rsv", "b.tbl"}, names(q.Root().DocumentChildren())); diff != "" {
		t.Errorf("persisted (-want +got):\n%s", diff)
	}
}

func TestDelete_ReserveFolder(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch1", "ch2")
	fx.Folder("ch1", "t.tbl")
	fx.Files("ch1/t.tbl", "ch1/_folder.comment")
	fx.Folder("ch2")
	p := openTree(t, fx)
	t1 := mustFind(t, p, "ch1/t.tbl")

	if err := mustFind(t, p, "ch1").Delete(true); err != nil {
		t.Fatalf("Delete(reserve) error: %v", err)
	}
	res := mustFind(t, p, "ch1")
	if res.Kind() != kind.Reserved || res.Index() != 0 {
		t.Errorf("reserved folder = %v at %d", res.Kind(), res.Index())
	}
	if !t1.IsDisposed() {
		t.Error("content of a reserved folder still live")
	}
	if !testutil.Exists(t, fx.Path("ch1/.reserved")) {
		t.Error("reserved marker missing")
	}
	for _, rel := range []string{"ch1/t.tbl", "ch1/_folder.comment", "ch1/" + testutil.OrderFile} {
		if testutil.Exists(t, fx.Path(rel)) {
			t.Errorf("%s kept in a reserved folder", rel)
		}
	}
	if got := mustFind(t, p, "ch2").Number(); got != "2" {
		t.Errorf("reserved folder does not keep its number: ch2 = %q", got)
	}

	q := reopen(t, fx)
	if got := mustFind(t, q, "ch1").Kind(); got != kind.Reserved {
		t.Errorf("reopened kind = %v", got)
	}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.txt", "b.txt", "c.txt")
	fx.Files("a.txt", "b.txt", "c.txt")
	p := open(t, fx)
	root := p.Root()
	a, c := mustFind(t, p, "a.txt"), mustFind(t, p, "c.txt")

	if err := root.Reorder(c, 0); err != nil {
		t.Fatal(err)
	}
	if err := root.Reorder(a, End); err != nil {
		t.Fatal(err)
	}
	want := []string{"c.txt", "b.txt", "a.txt"}
	if diff := cmp.Diff(want, names(root.DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if err := root.Reorder(a, 3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Reorder(3) = %v", err)
	}
	if err := a.Move(root, 1); err != nil {
		t.Errorf("Move() within the same container: %v", err)
	}

	q := reopen(t, fx)
	if diff := cmp.Diff([]string{"c.txt", "a.txt", "b.txt"}, names(q.Root().DocumentChildren())); diff != "" {
		t.Errorf("persisted (-want +got):\n%s", diff)
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch1", "ch2")
	fx.Folder("ch1", "t.tbl")
	fx.File("ch1/t.tbl", "data")
	fx.File("ch1/t.tbl.comment", "checked\n")
	fx.Folder("ch2")
	p := openTree(t, fx)
	ch1, ch2 := mustFind(t, p, "ch1"), mustFind(t, p, "ch2")
	tbl := mustFind(t, p, "ch1/t.tbl")
	oldID := tbl.ID()

	if err := tbl.Move(ch2, End); err != nil {
		t.Fatalf("Move() error: %v", err)
	}
	if !testutil.Exists(t, fx.Path("ch2/t.tbl")) || !testutil.Exists(t, fx.Path("ch2/t.tbl.comment")) {
		t.Error("unit or its comment not moved")
	}
	if tbl.ID() != "t.tbl|ch2|@proj" {
		t.Errorf("ID() = %q", tbl.ID())
	}
	if _, ok := p.Lookup(oldID); ok {
		t.Error("old identity still registered")
	}
	if got, ok := p.Lookup(tbl.ID()); !ok || got != tbl {
		t.Error("moved node not registered under its new identity")
	}
	if _, ok := p.Lookup("t.tbl.comment|ch2|@proj"); !ok {
		t.Error("comment node not rekeyed")
	}
	c, err := tbl.Comment()
	if err != nil || c.Main != "checked" {
		t.Errorf("Comment() = %+v, %v", c, err)
	}
	if len(ch1.DocumentChildren()) != 0 {
		t.Error("source still lists the unit")
	}

	if err := ch2.Move(ch1, End); err != nil {
		t.Fatalf("moving a folder: %v", err)
	}
	if tbl.ID() != "t.tbl|ch2|ch1|@proj" {
		t.Errorf("descendant not rekeyed: %q", tbl.ID())
	}
	if tbl.Path() != fx.Path("ch1/ch2/t.tbl") {
		t.Errorf("Path() = %q", tbl.Path())
	}
	if err := ch1.Move(ch2, End); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("moving into a descendant = %v", err)
	}

	q := reopen(t, fx)
	if _, err := q.Find("ch1/ch2/t.tbl"); err != nil {
		t.Errorf("persisted move: %v", err)
	}
}

func TestMoveAndRename_KeepOrphanedSidecars(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch1", "ch2")
	fx.Folder("ch1", "t.tbl", "u.tbl")
	fx.Files("ch1/t.tbl", "ch1/u.tbl")
	fx.File("ch1/t.tbl.comment", "mine\n")
	fx.File("ch1/v.tbl.comment", "orphan here\n")
	fx.Folder("ch2")
	fx.File("ch2/t.tbl.comment", "orphan there\n")
	p := openTree(t, fx)
	tbl := mustFind(t, p, "ch1/t.tbl")

	if err := tbl.Move(mustFind(t, p, "ch2"), End); !errors.Is(err, ErrNameExists) {
		t.Fatalf("Move() = %v, want ErrNameExists", err)
	}
	if err := tbl.Rename("v.tbl"); !errors.Is(err, ErrNameExists) {
		t.Fatalf("Rename() = %v, want ErrNameExists", err)
	}
	for rel, want := range map[string]string{
		"ch1/t.tbl.comment": "mine\n",
		"ch1/v.tbl.comment": "orphan here\n",
		"ch2/t.tbl.comment": "orphan there\n",
	} {
		if got := testutil.MustReadFile(t, fx.Path(rel)); got != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
	if !testutil.Exists(t, fx.Path("ch1/t.tbl")) || tbl.Parent() != mustFind(t, p, "ch1") {
		t.Error("refused move changed the tree")
	}

	// A node without a sidecar of its own adopts the orphan.
	u := mustFind(t, p, "ch1/u.tbl")
	if err := u.Rename("v.tbl"); err != nil {
		t.Fatalf("Rename() onto an orphan without own sidecar: %v", err)
	}
	q := reopen(t, fx)
	c, err := mustFind(t, q, "ch1/v.tbl").Comment()
	if err != nil || c.Main != "orphan here" {
		t.Errorf("adopted comment = %+v, %v", c, err)
	}
}

func TestReorderAndMove_NilArguments(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.txt")
	fx.Files("a.txt")
	p := openTree(t, fx)
	a := mustFind(t, p, "a.txt")

	if err := p.Root().Reorder(nil, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reorder(nil) = %v, want ErrNotFound", err)
	}
	if err := a.Move(nil, End); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("Move(nil) = %v, want ErrInvalidMove", err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, names(p.Root().DocumentChildren())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMove_RecordFailureRollsBack(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch1", "ch2")
	fx.Folder("ch1", "t.tbl")
	fx.Files("ch1/t.tbl", "ch1/t.tbl.desc")
	fx.Folder("ch2")
	ffs := newFaultyFs()
	p := openTree(t, fx, withFs(ffs))
	tbl := mustFind(t, p, "ch1/t.tbl")

	ffs.failOrder.Store(true)
	if err := tbl.Move(mustFind(t, p, "ch2"), End); !errors.Is(err, errInjected) {
		t.Fatalf("Move() = %v", err)
	}
	if !testutil.Exists(t, fx.Path("ch1/t.tbl")) || !testutil.Exists(t, fx.Path("ch1/t.tbl.desc")) {
		t.Error("physical move not rolled back")
	}
	if tbl.Parent() != mustFind(t, p, "ch1") || tbl.Index() != 0 {
		t.Error("failed move changed memory")
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "t.tbl", "ch", "other.tbl")
	fx.Files("t.tbl", "t.tbl.comment", "t.tbl.desc", "other.tbl")
	fx.Folder("ch")
	p := openTree(t, fx)
	tbl := mustFind(t, p, "t.tbl")

	if err := tbl.Rename("u.tbl"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}
	for _, rel := range []string{"u.tbl", "u.tbl.comment", "u.tbl.desc"} {
		if !testutil.Exists(t, fx.Path(rel)) {
			t.Errorf("%s missing after rename", rel)
		}
	}
	if tbl.ID() != "u.tbl|@proj" || tbl.Index() != 0 {
		t.Errorf("renamed node = %s at %d", tbl.ID(), tbl.Index())
	}
	if !tbl.HasComment() {
		t.Error("comment binding lost")
	}
	if _, ok := p.Lookup("u.tbl.desc|@proj"); !ok {
		t.Error("description node not rekeyed")
	}

	tests := []struct {
		name   string
		node   *Node
		to     string
		target error
	}{
		{"kind change", tbl, "u.png", ErrInvalidName},
		{"taken", tbl, "other.tbl", ErrNameExists},
		{"auxiliary name", mustFind(t, p, "ch"), "_glossary", ErrInvalidName},
		{"root", p.Root(), "x", ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.node.Rename(tt.to); !errors.Is(err, tt.target) {
				t.Errorf("Rename(%q) = %v, want %v", tt.to, err, tt.target)
			}
		})
	}

	q := reopen(t, fx)
	if diff := cmp.Diff([]string{"u.tbl", "ch", "other.tbl"}, names(q.Root().DocumentChildren())); diff != "" {
		t.Errorf("persisted (-want +got):\n%s", diff)
	}
}

func TestFlags(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch", "t.tbl")
	fx.Folder("ch", "in.tbl")
	fx.Files("ch/in.tbl", "t.tbl")
	p := openTree(t, fx)
	ch, tbl := mustFind(t, p, "ch"), mustFind(t, p, "t.tbl")
	in := mustFind(t, p, "ch/in.tbl")

	if err := ch.SetDisabled(true); err != nil {
		t.Fatal(err)
	}
	if err := ch.SetUnnumbered(true); err != nil {
		t.Fatal(err)
	}
	if err := tbl.SetHorizontal(true); err != nil {
		t.Fatal(err)
	}
	if !ch.IsDisabled() || !ch.IsUnnumbered() || !tbl.IsHorizontal() {
		t.Error("flags not applied in memory")
	}
	if in.IsDisabled() || !in.DisabledInDocument() {
		t.Error("disabled state must be inherited, not copied")
	}
	if err := ch.SetHorizontal(true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetHorizontal(folder) = %v", err)
	}
	if err := tbl.SetUnnumbered(true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetUnnumbered(unit) = %v", err)
	}

	q := reopen(t, fx)
	if !mustFind(t, q, "ch").IsDisabled() || !mustFind(t, q, "t.tbl").IsHorizontal() {
		t.Error("flags not persisted")
	}
}

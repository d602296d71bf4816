// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reqdoc/reqdoc/internal/sidecar"
	"github.com/reqdoc/reqdoc/internal/testutil"
	"github.com/reqdoc/reqdoc/pkg/types"
)

func sidecarNode(n *Node, name string) *Node {
	for _, c := range n.Children() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestUpdateComment_Unit(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "a.tbl")
	fx.Files("a.tbl")
	p := open(t, fx)
	a := mustFind(t, p, "a.tbl")

	if a.HasComment() {
		t.Fatal("HasComment() without a file")
	}
	want := sidecar.Comment{
		Main:   "Check the load factors.",
		Ranges: []sidecar.Range{{Offset: 4, Length: 12, Text: "source: sheet 3"}},
	}
	if err := a.UpdateComment(want); err != nil {
		t.Fatalf("UpdateComment() error: %v", err)
	}
	if !testutil.Exists(t, fx.Path("a.tbl.comment")) || !a.HasComment() {
		t.Error("comment not written or not bound")
	}
	if s := sidecarNode(p.Root(), "a.tbl.comment"); s == nil || s.Owner() != a {
		t.Errorf("comment node = %v", s)
	}
	got, err := a.Comment()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Comment() (-want +got):\n%s", diff)
	}

	if err := a.UpdateComment(sidecar.Comment{Main: "  "}); err != nil {
		t.Fatal(err)
	}
	if testutil.Exists(t, fx.Path("a.tbl.comment")) || a.HasComment() {
		t.Error("empty comment did not remove the file")
	}
	if sidecarNode(p.Root(), "a.tbl.comment") != nil {
		t.Error("removed comment still listed")
	}
	if err := p.Root().Refresh(); err != nil {
		t.Fatal(err)
	}
	if a.HasComment() {
		t.Error("HasComment() after reload")
	}
}

func TestUpdateComment_FolderKeepsItInside(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch")
	fx.Folder("ch")
	p := openTree(t, fx)
	ch := mustFind(t, p, "ch")

	if err := ch.UpdateComment(sidecar.Comment{Main: "chapter notes"}); err != nil {
		t.Fatal(err)
	}
	if !testutil.Exists(t, fx.Path("ch/_folder.comment")) {
		t.Error("folder comment not stored inside the folder")
	}
	if !ch.HasComment() {
		t.Error("HasComment() = false")
	}
	if s := sidecarNode(ch, "_folder.comment"); s == nil || s.Owner() != ch {
		t.Errorf("folder comment node = %v", s)
	}
	if err := p.Root().UpdateComment(sidecar.Comment{Main: "project notes"}); err != nil {
		t.Fatal(err)
	}
	if !testutil.Exists(t, fx.Path("_folder.comment")) {
		t.Error("root comment not stored inside the root")
	}
}

func TestUpdateDescription(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.Order("", "ch", "a.tbl")
	fx.Folder("ch")
	fx.Files("a.tbl")
	p := openTree(t, fx)

	tests := []struct {
		path string
		file string
	}{
		{"a.tbl", "a.tbl.desc"},
		{"ch", "ch.desc"},
		{"", "_folder.desc"},
	}
	for _, tt := range tests {
		n := mustFind(t, p, tt.path)
		if err := n.UpdateDescription("Loads at rest"); err != nil {
			t.Fatalf("UpdateDescription(%q) error: %v", tt.path, err)
		}
		if got := testutil.MustReadFile(t, fx.Path(tt.file)); got != "Loads at rest\n" {
			t.Errorf("%s = %q", tt.file, got)
		}
		if d, err := n.Description(); err != nil || d != "Loads at rest" {
			t.Errorf("Description(%q) = %q, %v", tt.path, d, err)
		}
		if err := n.UpdateDescription("\n"); err != nil {
			t.Fatal(err)
		}
		if testutil.Exists(t, fx.Path(tt.file)) {
			t.Errorf("blank description kept %s", tt.file)
		}
	}

	if err := mustFind(t, p, "a.tbl").UpdateDescription("bad\x00text"); !errors.Is(err, types.ErrInvalidDescriptionText) {
		t.Errorf("description with NUL = %v", err)
	}
	if testutil.Exists(t, fx.Path("a.tbl.desc")) {
		t.Error("rejected description was written")
	}

	if err := sidecarNode(p.Root(), testutil.OrderFile).UpdateDescription("x"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("description on an order record = %v", err)
	}
}

func TestSidecar_OrphanBindsWhenOwnerAppears(t *testing.T) {
	t.Parallel()

	fx := testutil.NewProject(t)
	fx.File("late.tbl.comment", "arrives early\n")
	p := open(t, fx)

	orphan := sidecarNode(p.Root(), "late.tbl.comment")
	if orphan == nil || orphan.Owner() != nil {
		t.Fatalf("orphan = %v", orphan)
	}

	fx.Files("late.tbl")
	if err := p.Root().Refresh(); err != nil {
		t.Fatal(err)
	}
	late := mustFind(t, p, "late.tbl")
	if !late.HasComment() || orphan.Owner() != late {
		t.Error("comment not bound to its new owner")
	}
	if c, _ := late.Comment(); c.Main != "arrives early" {
		t.Errorf("Comment() = %+v", c)
	}
}

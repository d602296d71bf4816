// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/testutil"
)

func openSession(t *testing.T, dir string) *session {
	t.Helper()
	app := NewApp(Dependencies{
		Config: isolatedProvider{dir: t.TempDir()},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	s, err := app.open(t.Context(), &rootFlagValues{projectDir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.project.LoadTree(); err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	return s
}

func TestRescan_PicksUpExternalChanges(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t)
	mustRun(t, dir, "new", "unit", "/", "a.tbl")
	s := openSession(t, dir)

	testutil.MustWriteFile(t, filepath.Join(dir, "b.tbl"), "")
	if err := s.rescan(t.Context(), []string{"b.tbl"}); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	b, err := s.project.Find("b.tbl")
	if err != nil {
		t.Fatalf("new file not loaded: %v", err)
	}
	if b.Number() != "2" {
		t.Errorf("b.tbl numbered %q, want 2", b.Number())
	}
}

func TestRescan_ReloadsSchema(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t)
	testutil.MustWriteFile(t, filepath.Join(dir, "r1.req"), "")
	s := openSession(t, dir)

	n, err := s.project.Find("r1.req")
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind() != kind.Unit {
		t.Fatalf("r1.req kind = %s before the schema exists", n.Kind())
	}

	testutil.MustWriteFile(t, filepath.Join(dir, "_schemas", "req.cue"), `extension: ".req", kind: "requirement"`)
	if err := s.rescan(t.Context(), []string{"_schemas/req.cue"}); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	n, err = s.project.Find("r1.req")
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind() != kind.Form || n.FormKind() != "requirement" {
		t.Errorf("r1.req = %s/%q, want form/requirement", n.Kind(), n.FormKind())
	}
	if n.Number() != "1" {
		t.Errorf("r1.req numbered %q, want 1", n.Number())
	}
}

func TestRescan_Canceled(t *testing.T) {
	t.Parallel()

	s := openSession(t, newProjectDir(t))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := s.rescan(ctx, []string{"x"}); err == nil {
		t.Error("rescan with a canceled context should fail")
	}
}

func TestTouchesSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		changed []string
		want    bool
	}{
		{[]string{"a.tbl"}, false},
		{[]string{"a.tbl", "_schemas/req.cue"}, true},
		{[]string{"_schemas"}, true},
		{[]string{"ch1/_schemas/x"}, true},
		{[]string{"../lib/forms.cue"}, true},
		{nil, false},
	}
	for _, tt := range tests {
		if got := touchesSchema(tt.changed, "_schemas"); got != tt.want {
			t.Errorf("touchesSchema(%v) = %v, want %v", tt.changed, got, tt.want)
		}
	}
}

func TestIncludeTargets(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t)
	lib := filepath.Join(t.TempDir(), "lib")
	mustRun(t, lib, "init", "--no-config")
	mustRun(t, dir, "new", "include", "/", "shared", lib)
	s := openSession(t, dir)

	if got := includeTargets(s.project); !slices.Equal(got, []string{lib}) {
		t.Errorf("includeTargets() = %v, want [%s]", got, lib)
	}
}

type recordingAdder struct{ dirs []string }

func (r *recordingAdder) AddRoot(dir string) error {
	r.dirs = append(r.dirs, dir)
	return nil
}

func TestTrackIncludes_PicksUpNewOverlays(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t)
	lib := filepath.Join(t.TempDir(), "lib")
	mustRun(t, lib, "init", "--no-config")
	s := openSession(t, dir)

	var adder recordingAdder
	s.trackIncludes(&adder)
	if len(adder.dirs) != 0 {
		t.Fatalf("AddRoot called for %v without overlays", adder.dirs)
	}

	// created by another process while watching
	if err := os.Symlink(lib, filepath.Join(dir, "shared")); err != nil {
		t.Fatal(err)
	}
	if err := s.rescan(t.Context(), []string{"shared"}); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	s.trackIncludes(&adder)
	if !slices.Equal(adder.dirs, []string{lib}) {
		t.Errorf("AddRoot calls = %v, want [%s]", adder.dirs, lib)
	}
}

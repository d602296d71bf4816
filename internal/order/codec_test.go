// SPDX-License-Identifier: MPL-2.0

package order

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const legacyRecord = `
version = 1
generator = "legacy-editor 2.3"

[[entry]]
name = "chapter-1"
kind = "folder"
label = "Section"
uuid = "1f0c"

[[entry]]
name = "loads.tbl"
kind = "table"
horizontal = true
disabled = true

[[entry]]
kind = "table"

[[entry]]
name = "shared"
kind = "include"
title = "Shared specs"
description = "Pulled in from the platform repo"
read_only = true
`

func TestDecode_KnownAndUnknownFields(t *testing.T) {
	t.Parallel()

	rec, warnings, err := Decode([]byte(legacyRecord))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning for the nameless entry, got %v", warnings)
	}
	if diff := cmp.Diff([]string{"chapter-1", "loads.tbl", "shared"}, rec.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	table, _ := rec.Lookup("loads.tbl")
	if !table.Horizontal || !table.Disabled || table.KindHint != "table" {
		t.Errorf("table entry decoded as %+v", table)
	}
	shared, _ := rec.Lookup("shared")
	if shared.Title != "Shared specs" || !shared.ReadOnly || shared.Description == "" {
		t.Errorf("include entry decoded as %+v", shared)
	}
	chapter, _ := rec.Lookup("chapter-1")
	if chapter.Label != "Section" || chapter.extra["uuid"] != "1f0c" {
		t.Errorf("chapter entry decoded as %+v", chapter)
	}
}

func TestEncode_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	rec, _, err := Decode([]byte(legacyRecord))
	if err != nil {
		t.Fatal(err)
	}
	rec.Insert(1, Entry{Name: "intro.md", KindHint: "text"})

	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := string(data)
	for _, want := range []string{"generator", "legacy-editor 2.3", "uuid", "1f0c", "intro.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded record lost %q:\n%s", want, out)
		}
	}

	again, warnings, err := Decode(data)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("re-decode: err=%v warnings=%v", err, warnings)
	}
	if !again.Equal(rec) {
		t.Errorf("decode(encode(rec)) != rec\nencoded:\n%s", out)
	}
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()

	rec, _, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) error: %v", err)
	}
	if rec.Version != CurrentVersion || len(rec.Entries) != 0 {
		t.Errorf("Decode(nil) = %+v", rec)
	}

	data, err := New().Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, _, err := Decode(data)
	if err != nil || !back.Equal(New()) {
		t.Errorf("default record does not round-trip: %v\n%s", err, data)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"version = [",
		`version = "one"`,
		`entry = "chapter"`,
	} {
		if _, _, err := Decode([]byte(in)); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformedRecord", in, err)
		}
	}
}

func TestRecord_Mutations(t *testing.T) {
	t.Parallel()

	rec := New()
	for _, n := range []string{"a", "b", "c", "d"} {
		rec.Insert(-1, Entry{Name: n})
	}

	rec.Move("d", 1)
	if diff := cmp.Diff([]string{"a", "d", "b", "c"}, rec.Names()); diff != "" {
		t.Errorf("after Move (-want +got):\n%s", diff)
	}
	rec.Move("a", 99)
	if diff := cmp.Diff([]string{"d", "b", "c", "a"}, rec.Names()); diff != "" {
		t.Errorf("after Move to end (-want +got):\n%s", diff)
	}
	if _, ok := rec.Remove("b"); !ok {
		t.Error("Remove(b) failed")
	}
	if _, ok := rec.Remove("b"); ok {
		t.Error("second Remove(b) should fail")
	}
	rec.Update("c", func(e *Entry) { e.Name = "c2"; e.Disabled = true })
	if e, ok := rec.Lookup("c2"); !ok || !e.Disabled {
		t.Errorf("Update did not apply: %+v", e)
	}

	clone := rec.Clone()
	clone.Entries[0].Name = "changed"
	if rec.Entries[0].Name == "changed" {
		t.Error("Clone shares entries")
	}
}

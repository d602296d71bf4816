// SPDX-License-Identifier: MPL-2.0

package kind

import (
	"errors"
	"testing"
)

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	for k := Project; k <= Ignored; k++ {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %v, want %v", k.String(), got, k)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "unknown", "chapter"} {
		if _, err := Parse(s); !errors.Is(err, ErrUnknownKind) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownKind", s, err)
		}
	}
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind       Kind
		document   bool
		container  bool
		numberable bool
		active     bool
	}{
		{Folder, true, true, false, true},
		{Appendix, true, true, false, true},
		{Include, true, true, false, true},
		{Reserved, true, false, false, true},
		{Broken, true, false, false, false},
		{Table, true, false, true, false},
		{Image, true, false, true, false},
		{Form, true, false, true, false},
		{Text, true, false, false, false},
		{ReservedUnit, true, false, false, false},
		{TocRef, true, false, false, false},
		{Comment, false, false, false, false},
		{OrderRecord, false, false, false, false},
		{Variables, false, false, false, false},
		{Project, false, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.IsDocument(); got != tt.document {
				t.Errorf("IsDocument() = %v, want %v", got, tt.document)
			}
			if got := tt.kind.IsContainer(); got != tt.container {
				t.Errorf("IsContainer() = %v, want %v", got, tt.container)
			}
			if got := tt.kind.IsNumberable(); got != tt.numberable {
				t.Errorf("IsNumberable() = %v, want %v", got, tt.numberable)
			}
			if got := tt.kind.ActiveNumeration(); got != tt.active {
				t.Errorf("ActiveNumeration() = %v, want %v", got, tt.active)
			}
		})
	}
}

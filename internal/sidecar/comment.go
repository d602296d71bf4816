// SPDX-License-Identifier: MPL-2.0

package sidecar

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// Range is a comment anchored to a span of the owner's text.
	Range struct {
		Offset int
		Length int
		Text   string
	}

	// Comment is the logical content of a comment file.
	Comment struct {
		Main   string
		Ranges []Range
	}

	// ParseWarning describes a malformed range marker. The offending line is
	// kept as plain text; parsing always continues.
	ParseWarning struct {
		Line   int
		Marker string
		Reason string
	}
)

func (w ParseWarning) Error() string {
	return fmt.Sprintf("line %d: malformed range marker %q: %s", w.Line, w.Marker, w.Reason)
}

// IsEmpty reports whether the comment carries no content. An empty comment
// is never persisted.
func (c Comment) IsEmpty() bool {
	return strings.TrimSpace(c.Main) == "" && len(c.Ranges) == 0
}

// Parse decodes comment file content. Lines before the first marker form
// the main text; each marker starts a range whose text runs until the next
// marker. Text following a marker on the same line belongs to the range.
// A backslash in front of a marker escapes it; one backslash is removed and
// the line is text.
func Parse(data string) (Comment, []ParseWarning) {
	var (
		c        Comment
		warnings []ParseWarning
		main     []string
		current  *Range
		body     []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(body, "\n")
			c.Ranges = append(c.Ranges, *current)
		}
	}

	data = strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(data, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		if text, escaped := unescapeLine(line); escaped {
			if current == nil {
				main = append(main, text)
			} else {
				body = append(body, text)
			}
			continue
		}
		r, rest, isMarker, warn := parseMarker(line)
		if warn != "" {
			warnings = append(warnings, ParseWarning{Line: i + 1, Marker: markerText(line), Reason: warn})
		}
		if !isMarker {
			if current == nil {
				main = append(main, line)
			} else {
				body = append(body, line)
			}
			continue
		}
		flush()
		current = &r
		body = body[:0]
		if rest != "" {
			body = append(body, rest)
		}
	}
	flush()
	c.Main = strings.Join(main, "\n")
	return c, warnings
}

// Format encodes the comment so that Parse returns it unchanged. Text lines
// that would read back as markers are escaped.
func (c Comment) Format() string {
	var b strings.Builder
	writeText := func(text string) {
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(escapeLine(line))
			b.WriteByte('\n')
		}
	}
	if c.Main != "" {
		writeText(c.Main)
	}
	for _, r := range c.Ranges {
		fmt.Fprintf(&b, "[%d,%d]\n", r.Offset, r.Length)
		if r.Text != "" {
			writeText(r.Text)
		}
	}
	return b.String()
}

// escapeLine prefixes a backslash to a text line that is a marker after any
// leading backslashes.
func escapeLine(line string) string {
	if isMarker(strings.TrimLeft(line, `\`)) {
		return `\` + line
	}
	return line
}

// unescapeLine reverses escapeLine.
func unescapeLine(line string) (string, bool) {
	if strings.HasPrefix(line, `\`) && isMarker(strings.TrimLeft(line, `\`)) {
		return line[1:], true
	}
	return line, false
}

func isMarker(line string) bool {
	_, _, ok, _ := parseMarker(line)
	return ok
}

// parseMarker recognizes a leading "[offset,length]" marker. A bracketed
// prefix containing a comma that does not hold two non-negative integers is
// reported through warn and treated as text.
func parseMarker(line string) (r Range, rest string, ok bool, warn string) {
	if !strings.HasPrefix(line, "[") {
		return Range{}, "", false, ""
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return Range{}, "", false, ""
	}
	inner := line[1:end]
	offText, lenText, found := strings.Cut(inner, ",")
	if !found {
		return Range{}, "", false, ""
	}
	off, err := strconv.Atoi(strings.TrimSpace(offText))
	if err != nil || off < 0 {
		return Range{}, "", false, "offset is not a non-negative integer"
	}
	length, err := strconv.Atoi(strings.TrimSpace(lenText))
	if err != nil || length < 0 {
		return Range{}, "", false, "length is not a non-negative integer"
	}
	return Range{Offset: off, Length: length}, strings.TrimSpace(line[end+1:]), true, ""
}

func markerText(line string) string {
	if end := strings.IndexByte(line, ']'); end >= 0 {
		return line[:end+1]
	}
	return line
}

// Package source owns the UTF-8 source buffer for a single compilation unit
// and answers (line, column) queries for byte offsets within it.
package source

import (
	"fmt"
	"os"
)

// Position is a 1-based (line, column) location within a source file.
type Position struct {
	Line   uint32
	Column uint32
}

// String renders a position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a contiguous half-open range [Start, End) of byte offsets within a
// File's contents.
type Span struct {
	Start int
	End   int
}

// NewSpan constructs a span, panicking if the bounds are inverted.
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span: start after end")
	}

	return Span{start, end}
}

// Length returns the number of bytes covered by this span.
func (s Span) Length() int {
	return s.End - s.Start
}

// File owns the bytes of one source file and its name.
type File struct {
	path     string
	contents []byte
	// lineOffsets[i] is the byte offset at which line i+1 (1-based) begins.
	lineOffsets []int
}

// New constructs a File from a path and its already-read contents.
func New(path string, contents []byte) *File {
	f := &File{path: path, contents: contents}
	f.indexLines()

	return f
}

// ReadFile reads a file from disk and wraps it as a source File.
func ReadFile(path string) (*File, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return New(path, bytes), nil
}

// Path returns the filename this source buffer was read from (or an
// arbitrary label for in-memory sources, e.g. in tests).
func (f *File) Path() string {
	return f.path
}

// Contents returns the raw bytes of this source file. Callers must not
// mutate the returned slice.
func (f *File) Contents() []byte {
	return f.contents
}

// Slice returns the substring of the source file covered by span.
func (f *File) Slice(span Span) string {
	return string(f.contents[span.Start:span.End])
}

func (f *File) indexLines() {
	offsets := []int{0}

	for i, b := range f.contents {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}

	f.lineOffsets = offsets
}

// Position converts a byte offset into a 1-based (line, column) position.
// Offsets past the end of the file resolve to the last position in the
// file, matching the teacher's "clamp to last line" behaviour for
// out-of-bounds spans.
func (f *File) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	} else if offset > len(f.contents) {
		offset = len(f.contents)
	}
	// Binary search for the last line offset <= offset.
	lo, hi := 0, len(f.lineOffsets)-1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	line := lo + 1
	column := offset - f.lineOffsets[lo] + 1

	return Position{uint32(line), uint32(column)}
}

// Line returns the text of the given 1-based line number, without its
// trailing newline.
func (f *File) Line(number int) string {
	if number < 1 || number > len(f.lineOffsets) {
		return ""
	}

	start := f.lineOffsets[number-1]

	var end int
	if number < len(f.lineOffsets) {
		end = f.lineOffsets[number] - 1
	} else {
		end = len(f.contents)
	}

	if end > start && f.contents[end-1] == '\r' {
		end--
	}

	return string(f.contents[start:end])
}

// Package source owns source buffers and maps byte offsets to line/column
// positions, mirroring the role of a compiler's SourceManager.
package source

import "sort"

// Buffer is an immutable chunk of source text plus an identifying name
// (a filename, or a memory tag for host-supplied buffers). Line-start
// offsets are precomputed once so GetLineColumn is a binary search rather
// than a linear scan.
type Buffer struct {
	name       string
	text       []byte
	lineStarts []int
}

// NewBuffer constructs a Buffer over the given bytes, computing the
// line-start table eagerly.
func NewBuffer(name string, text []byte) *Buffer {
	b := &Buffer{name: name, text: text}
	b.lineStarts = []int{0}
	for i, c := range text {
		if c == '\n' {
			b.lineStarts = append(b.lineStarts, i+1)
		}
	}
	return b
}

// Name returns this buffer's identifying name.
func (b *Buffer) Name() string { return b.name }

// Text returns the full underlying byte slice. Callers must not mutate it.
func (b *Buffer) Text() []byte { return b.text }

// Len returns the number of bytes in this buffer.
func (b *Buffer) Len() int { return len(b.text) }

// At returns the byte at the given offset.
func (b *Buffer) At(offset int) byte { return b.text[offset] }

// Slice returns the bytes in [start,end).
func (b *Buffer) Slice(start, end int) []byte { return b.text[start:end] }

// GetLineColumn returns the 1-based line and column of the given byte
// offset via an upper-bound search in the line-start table.
func (b *Buffer) GetLineColumn(offset int) (line, column int) {
	// sort.Search finds the first lineStart > offset; the line containing
	// offset is the one immediately before that.
	idx := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	line = idx // lineStarts[0] is line 1, so idx (1-based count of starts <= offset) is the line number
	column = offset - b.lineStarts[idx-1] + 1
	return line, column
}

// Location is an opaque handle addressing one byte within a Buffer.
type Location struct {
	Buffer *Buffer
	Offset int
}

// Valid reports whether this location addresses a byte within its buffer.
func (l Location) Valid() bool {
	return l.Buffer != nil && l.Offset >= 0 && l.Offset < l.Buffer.Len()
}

// Byte dereferences this location to the byte it addresses.
func (l Location) Byte() byte { return l.Buffer.At(l.Offset) }

// Advance returns the location one byte further on.
func (l Location) Advance() Location { return Location{l.Buffer, l.Offset + 1} }

// Less orders two locations in the same buffer by offset.
func (l Location) Less(other Location) bool { return l.Offset < other.Offset }

// Range is a half-open [Start,End) span of locations. End is exclusive.
type Range struct {
	Start Location
	End   Location
}

// NewRange constructs a Range from two locations in the same buffer.
func NewRange(start, end Location) Range { return Range{start, end} }

// Length returns the number of bytes spanned.
func (r Range) Length() int { return r.End.Offset - r.Start.Offset }

// Text returns the source text this range covers.
func (r Range) Text() []byte { return r.Start.Buffer.Slice(r.Start.Offset, r.End.Offset) }

// Union returns the smallest range enclosing both r and other.
func (r Range) Union(other Range) Range {
	start, end := r.Start, r.End
	if other.Start.Offset < start.Offset {
		start = other.Start
	}
	if other.End.Offset > end.Offset {
		end = other.End
	}
	return Range{start, end}
}

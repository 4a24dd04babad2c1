package workspace

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a 0-based line and byte column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextModel indexes line starts so byte offsets and positions convert cheaply.
type TextModel struct {
	content    []byte
	lineStarts []int
}

// NewTextModel builds a line index over content.
func NewTextModel(content []byte) *TextModel {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &TextModel{content: content, lineStarts: starts}
}

func (m *TextModel) Content() []byte {
	return m.content
}

func (m *TextModel) Len() int {
	return len(m.content)
}

func (m *TextModel) LineCount() int {
	return len(m.lineStarts)
}

// PositionAt converts a byte offset to a position, clamping to the content.
func (m *TextModel) PositionAt(offset int) Position {
	offset = m.clamp(offset)
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line, Character: offset - m.lineStarts[line]}
}

// OffsetAt converts a position to a byte offset. Lines past the end clamp to
// the end of the content; columns past the end of a line clamp to that line.
func (m *TextModel) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(m.lineStarts) {
		return len(m.content)
	}
	start := m.lineStarts[pos.Line]
	end := len(m.content)
	if pos.Line+1 < len(m.lineStarts) {
		end = m.lineStarts[pos.Line+1] - 1
	}
	character := pos.Character
	if character < 0 {
		character = 0
	}
	if start+character > end {
		return end
	}
	return start + character
}

// OffsetToRange converts an offset/length pair into a display range.
func (m *TextModel) OffsetToRange(offset, length int) Range {
	if length < 0 {
		length = 0
	}
	return Range{
		Start: m.PositionAt(offset),
		End:   m.PositionAt(offset + length),
	}
}

// UTF16Offset converts a byte offset to a count of UTF-16 code units from the
// start of the content. Invalid bytes count as one unit each.
func (m *TextModel) UTF16Offset(offset int) int {
	offset = m.clamp(offset)
	units := 0
	for i := 0; i < offset; {
		r, size := utf8.DecodeRune(m.content[i:])
		i += size
		units += runeUnits(r)
	}
	return units
}

// ByteOffsetFromUTF16 converts a count of UTF-16 code units to a byte offset.
// A count that splits a surrogate pair resolves to the start of that rune.
func (m *TextModel) ByteOffsetFromUTF16(units int) int {
	offset := 0
	for units > 0 && offset < len(m.content) {
		r, size := utf8.DecodeRune(m.content[offset:])
		n := runeUnits(r)
		if n > units {
			break
		}
		units -= n
		offset += size
	}
	return offset
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func (m *TextModel) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(m.content) {
		return len(m.content)
	}
	return offset
}

// Document is an opened file: its path and indexed text.
type Document struct {
	Path string
	*TextModel
}

// NewDocument wraps content for path.
func NewDocument(path string, content []byte) *Document {
	return &Document{Path: path, TextModel: NewTextModel(content)}
}

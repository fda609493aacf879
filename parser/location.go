package parser

import "fmt"

// Location tracks where a node or error originates in a source file.
// The zero value describes the start of the file.
type Location struct {
	Offset     int // zero-based byte offset
	Size       int // width in bytes
	LineBreaks int // newlines spanned
	Line       int // one-based line number, 0 when unknown
	Column     int // one-based column number, 0 when unknown
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// IsZero reports whether the location carries no source position.
func (l Location) IsZero() bool {
	return l == Location{}
}

package node

import (
	"strings"

	"github.com/gofhir/hl7v2/pkg/delim"
)

// Unrecognized is the catch-all segment. It keeps the source line verbatim
// so that it re-encodes exactly as it was read.
type Unrecognized struct {
	base
	name string
	line string

	// Cause is the condition that made the segment fall back, if any.
	Cause error
}

// NewUnrecognized creates a catch-all segment for line. The segment name is
// the text before the first field separator.
func NewUnrecognized(ctx *Context, line string, cause error) *Unrecognized {
	line = strings.TrimRight(line, "\r\n")
	u := &Unrecognized{name: SegmentName(line, ctx.Delims.Field), line: line, Cause: cause}
	u.bind(ctx, ctx.LineNumber)
	return u
}

// SegmentName returns the segment code at the start of line.
func SegmentName(line string, fieldSep byte) string {
	if i := strings.IndexByte(line, fieldSep); i >= 0 {
		return line[:i]
	}
	return line
}

// Tag returns the segment code read from the line.
func (u *Unrecognized) Tag() string { return u.name }

// Kind returns KindUnrecognized.
func (u *Unrecognized) Kind() Kind { return KindUnrecognized }

// Line returns the source line.
func (u *Unrecognized) Line() string { return u.line }

// Encode returns the source line. The delimiters are ignored.
func (u *Unrecognized) Encode(delim.Delimiters) string { return u.line }

// Clone returns a copy of the catch-all segment.
func (u *Unrecognized) Clone() Node {
	c := *u
	return &c
}

// Equal compares the source lines.
func (u *Unrecognized) Equal(other Node) bool {
	o, ok := other.(*Unrecognized)
	return ok && o != nil && u.line == o.line
}

// Package node defines the data nodes of a parsed HL7 v2 message and their
// recursive decode/encode against bounded substrings.
package node

import (
	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/delim"
)

// Kind is the variant of a data node.
type Kind int

const (
	KindPrimitive Kind = iota
	KindComposite
	KindSegment
	KindGroup
	KindMessage
	KindUnrecognized
)

var kindNames = [...]string{"primitive", "composite", "segment", "group", "message", "unrecognized"}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsSegment reports whether nodes of this kind are emitted as segment lines.
func (k Kind) IsSegment() bool {
	return k == KindSegment || k == KindUnrecognized
}

// Node is one node of a parsed message.
type Node interface {
	// Tag is the declared type name (segment code, composite or primitive type,
	// group or structure name). It is derived from the type, not from data.
	Tag() string

	Kind() Kind

	// Index is the 1-based parse position within the parent. It is only used
	// for diagnostics and is zero for nodes built programmatically.
	Index() int

	// Options is the configuration in effect when the node was created.
	Options() *hl7v2.Options

	// IsNull reports whether the node holds the explicit null value.
	IsNull() bool

	Clone() Node
	Equal(other Node) bool
}

// Level is the delimiter level a value is decoded at.
type Level int

const (
	LevelField Level = iota
	LevelComponent
	LevelSubcomponent
)

// separator returns the delimiter that splits a composite at this level.
func (l Level) separator(d delim.Delimiters) (byte, bool) {
	switch l {
	case LevelField:
		return d.Component, true
	case LevelComponent:
		return d.Subcomponent, true
	default:
		return 0, false
	}
}

// Value is a field value: a Primitive or a Composite.
type Value interface {
	Node

	// Text returns the decoded text of the value, or of its first component.
	Text() string

	// decode reads token into the value. It returns false when the value must be
	// left absent, either because the token was empty or because a condition
	// was swallowed by the gate.
	decode(ctx *Context, token string, level Level, index int) (bool, error)

	appendTo(buf []byte, d delim.Delimiters, level Level) []byte
	setNull()
}

// Factory creates an empty value of a declared type.
type Factory func() Value

// Encodable is implemented by the segment-level nodes.
type Encodable interface {
	Node
	Encode(d delim.Delimiters) string
}

// base carries the fields shared by every node.
type base struct {
	index int
	opts  *hl7v2.Options
	null  bool
}

func (b *base) Index() int              { return b.index }
func (b *base) Options() *hl7v2.Options { return b.opts }
func (b *base) IsNull() bool            { return b.null }
func (b *base) setNull()                { b.null = true }

func (b *base) bind(ctx *Context, index int) {
	b.index = index
	if ctx != nil {
		b.opts = ctx.Options
	}
}

// SetIndex sets the parse index of a node built outside a decode.
func SetIndex(n Node, index int) {
	if b, ok := n.(interface{ setIndex(int) }); ok {
		b.setIndex(index)
	}
}

func (b *base) setIndex(index int) { b.index = index }

// Decode decodes token into v at the given level. It returns false when v was
// left absent.
func Decode(ctx *Context, v Value, token string, level Level) (bool, error) {
	return v.decode(ctx, token, level, 1)
}

// EncodeValue encodes v at the given level.
func EncodeValue(v Value, d delim.Delimiters, level Level) string {
	if v == nil {
		return ""
	}
	return string(v.appendTo(nil, d, level))
}

// NewNull creates an explicit null value of the factory's type.
func NewNull(f Factory) Value {
	v := f()
	v.setNull()
	return v
}

// equalValues compares two values, treating nil as absent.
func equalValues(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func cloneValue(v Value) Value {
	if v == nil {
		return nil
	}
	return v.Clone().(Value)
}

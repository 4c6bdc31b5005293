package node

import (
	"github.com/gofhir/hl7v2/pkg/delim"
)

// Group is a named cluster of segments and nested groups. Its children live
// in the structure tree, so the node itself only carries the declared type.
type Group struct {
	base
	typ *GroupType
}

// NewGroup creates a group of the given type.
func NewGroup(t *GroupType) *Group {
	return &Group{typ: t}
}

// Tag returns the full group name, e.g. "ORU_R01.PATIENT_RESULT".
func (g *Group) Tag() string { return g.typ.Name }

// Kind returns KindGroup.
func (g *Group) Kind() Kind { return KindGroup }

// Type returns the declared type.
func (g *Group) Type() *GroupType { return g.typ }

// Clone returns a copy of the group node.
func (g *Group) Clone() Node {
	c := *g
	return &c
}

// Equal compares the declared type name.
func (g *Group) Equal(other Node) bool {
	o, ok := other.(*Group)
	return ok && o != nil && g.typ.Name == o.typ.Name
}

// Message is the root group plus message-level metadata.
type Message struct {
	Group

	// Version is the HL7 version the message was decoded with.
	Version string

	// Delimiters are the delimiters declared by the message header.
	Delimiters delim.Delimiters
}

// NewMessage creates a message of the given structure.
func NewMessage(t *GroupType, version string, d delim.Delimiters) *Message {
	return &Message{Group: Group{typ: t}, Version: version, Delimiters: d}
}

// Kind returns KindMessage.
func (m *Message) Kind() Kind { return KindMessage }

// Structure returns the message structure name, e.g. "ADT_A01".
func (m *Message) Structure() string { return m.typ.Name }

// Clone returns a copy of the message node.
func (m *Message) Clone() Node {
	c := *m
	return &c
}

// Equal compares structure and version.
func (m *Message) Equal(other Node) bool {
	o, ok := other.(*Message)
	return ok && o != nil && m.typ.Name == o.typ.Name && m.Version == o.Version
}

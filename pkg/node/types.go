package node

// ScalarKind is how a primitive's text is interpreted.
type ScalarKind int

const (
	ScalarText ScalarKind = iota
	ScalarNumeric
	ScalarSequence
	ScalarDate
	ScalarTime
	ScalarDateTime
)

// PrimitiveType declares a primitive data type such as ST, NM or DTM.
type PrimitiveType struct {
	Name   string
	Scalar ScalarKind

	// Complex keeps structural delimiters found in the token verbatim.
	Complex bool
}

// Slot is one positional child of a composite or segment.
type Slot struct {
	// Name is a descriptive name, e.g. "Patient Identifier List".
	Name string

	// Type is the declared type name, e.g. "CX".
	Type string

	// Repeatable is only meaningful for segment fields.
	Repeatable bool

	// TypeFrom is the 1-based field whose value names this slot's data type
	// (OBX-5 takes its type from OBX-2). Zero for statically typed slots.
	TypeFrom int

	New Factory
}

// CompositeType declares a composite data type such as CX or XPN.
type CompositeType struct {
	Name       string
	Components []Slot

	// Open composites accept any number of components (the varies type).
	Open bool
}

// Arity returns the declared number of components, or -1 when open.
func (t *CompositeType) Arity() int {
	if t.Open {
		return -1
	}
	return len(t.Components)
}

// SegmentType declares a segment such as PID.
type SegmentType struct {
	Name   string
	Fields []Slot

	// Header segments (MSH, FHS, BHS) carry the field separator as field 1 and
	// the encoding characters as field 2.
	Header bool

	// Resolve returns a factory for a data type name. It is used by slots
	// with TypeFrom set.
	Resolve func(typeName string) (Factory, bool)
}

// Field returns the 1-based field slot.
func (t *SegmentType) Field(n int) (Slot, bool) {
	if n < 1 || n > len(t.Fields) {
		return Slot{}, false
	}
	return t.Fields[n-1], true
}

// Member is one declared child of a group: a segment or a nested group.
type Member struct {
	// Name is the segment code, or the short group name for nested groups.
	Name string

	// Group is nil for segment members.
	Group *GroupType

	Optional   bool
	Repeatable bool
}

// IsGroup reports whether the member is a nested group.
func (m Member) IsGroup() bool {
	return m.Group != nil
}

// GroupType declares a message structure or one of its groups.
type GroupType struct {
	// Name is the full name, e.g. "ORU_R01" or "ORU_R01.PATIENT_RESULT".
	Name     string
	Children []Member

	// Open groups accept any segment in any order.
	Open bool
}

// CanStart reports whether a segment with the given code may open a new
// instance of the group: it matches a leading member, possibly after skipping
// optional ones.
func (t *GroupType) CanStart(segment string) bool {
	if t.Open {
		return true
	}
	for _, m := range t.Children {
		if m.IsGroup() {
			if m.Group.CanStart(segment) {
				return true
			}
		} else if m.Name == segment {
			return true
		}
		if !m.Optional {
			return false
		}
	}
	return false
}

// Member returns the child declared with the given name.
func (t *GroupType) Member(name string) (Member, bool) {
	for _, m := range t.Children {
		if m.Name == name || (m.Group != nil && m.Group.Name == name) {
			return m, true
		}
	}
	return Member{}, false
}

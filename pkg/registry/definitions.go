package registry

import (
	"errors"
	"maps"
	"sync"

	"github.com/gofhir/hl7v2/pkg/node"
)

// ErrFrozen is returned when a definition is registered after the process-wide
// registries were built.
var ErrFrozen = errors.New("registry: definitions are frozen after first use")

// FieldDef declares one positional slot of a composite or segment.
type FieldDef struct {
	Name       string
	Type       string
	Repeatable bool

	// TypeFrom is the 1-based field naming this slot's data type at run time.
	TypeFrom int
}

// F declares a single-valued slot.
func F(name, typ string) FieldDef {
	return FieldDef{Name: name, Type: typ}
}

// R declares a repeatable slot.
func R(name, typ string) FieldDef {
	return FieldDef{Name: name, Type: typ, Repeatable: true}
}

// MemberDef declares one child of a message structure or group.
type MemberDef struct {
	Name       string
	Optional   bool
	Repeatable bool

	// Children is non-nil for groups.
	Children []MemberDef
}

// Seg declares a required, single segment.
func Seg(name string) MemberDef { return MemberDef{Name: name} }

// Opt declares an optional segment.
func Opt(name string) MemberDef { return MemberDef{Name: name, Optional: true} }

// Rep declares a required, repeating segment.
func Rep(name string) MemberDef { return MemberDef{Name: name, Repeatable: true} }

// OptRep declares an optional, repeating segment.
func OptRep(name string) MemberDef {
	return MemberDef{Name: name, Optional: true, Repeatable: true}
}

// Grp declares a group.
func Grp(name string, optional, repeatable bool, children ...MemberDef) MemberDef {
	return MemberDef{Name: name, Optional: optional, Repeatable: repeatable, Children: children}
}

// Definitions is the source table a Registry is built from.
type Definitions struct {
	Primitives map[string]node.ScalarKind
	Composites map[string][]FieldDef
	Segments   map[string][]FieldDef
	Structures map[string][]MemberDef

	// Aliases maps "TYPE^TRIGGER" to the structure it uses, e.g. "ADT^A04" to
	// "ADT_A01".
	Aliases map[string]string
}

// Standard returns a copy of the built-in definitions.
func Standard() *Definitions {
	return &Definitions{
		Primitives: maps.Clone(primitiveDefs),
		Composites: maps.Clone(compositeDefs),
		Segments:   maps.Clone(segmentDefs),
		Structures: maps.Clone(structureDefs),
		Aliases:    maps.Clone(aliasDefs),
	}
}

// AddSegment adds or replaces a segment definition.
func (d *Definitions) AddSegment(name string, fields ...FieldDef) {
	d.Segments[name] = fields
}

// AddComposite adds or replaces a composite type definition.
func (d *Definitions) AddComposite(name string, components ...FieldDef) {
	d.Composites[name] = components
}

// AddStructure adds or replaces a message structure. Each alias ("ADT^A04")
// is mapped to the structure.
func (d *Definitions) AddStructure(name string, members []MemberDef, aliases ...string) {
	d.Structures[name] = members
	for _, a := range aliases {
		d.Aliases[a] = name
	}
}

var (
	globalMu   sync.Mutex
	globalDefs = Standard()
	frozen     bool
)

func register(fn func(*Definitions)) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if frozen {
		return ErrFrozen
	}
	fn(globalDefs)
	return nil
}

// RegisterSegment adds a segment to the process-wide definitions. It must be
// called before the first ForVersion.
func RegisterSegment(name string, fields ...FieldDef) error {
	return register(func(d *Definitions) { d.AddSegment(name, fields...) })
}

// RegisterComposite adds a composite type to the process-wide definitions.
func RegisterComposite(name string, components ...FieldDef) error {
	return register(func(d *Definitions) { d.AddComposite(name, components...) })
}

// RegisterStructure adds a message structure to the process-wide definitions.
func RegisterStructure(name string, members []MemberDef, aliases ...string) error {
	return register(func(d *Definitions) { d.AddStructure(name, members, aliases...) })
}

// freeze marks the process-wide definitions read-only and returns them.
func freeze() *Definitions {
	globalMu.Lock()
	defer globalMu.Unlock()
	frozen = true
	return globalDefs
}

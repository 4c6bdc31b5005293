// Package registry maps HL7 v2 tag names (segment codes, data type names and
// message structure or group names) to node types, per HL7 version.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
)

// Entry is the result of resolving a tag name. Exactly one of the type
// pointers is set unless the entry is the catch-all.
type Entry struct {
	Name string
	Kind node.Kind

	Primitive *node.PrimitiveType
	Composite *node.CompositeType
	Segment   *node.SegmentType
	Group     *node.GroupType
}

// Found reports whether the entry resolved to anything.
func (e Entry) Found() bool {
	return e.Name != ""
}

// CatchAll reports whether the entry is the catch-all segment.
func (e Entry) CatchAll() bool {
	return e.Kind == node.KindUnrecognized
}

// Factory returns a value factory for primitive and composite entries.
func (e Entry) Factory() (node.Factory, bool) {
	switch {
	case e.Primitive != nil:
		return node.PrimitiveFactory(e.Primitive), true
	case e.Composite != nil:
		return node.CompositeFactory(e.Composite), true
	}
	return nil, false
}

// Registry holds the node types of one HL7 version. It is read-only once
// built and may be shared between goroutines.
type Registry struct {
	version    string
	primitives map[string]*node.PrimitiveType
	composites map[string]*node.CompositeType
	segments   map[string]*node.SegmentType
	groups     map[string]*node.GroupType
	aliases    map[string]string
}

// New builds a registry for a version from defs.
func New(version string, defs *Definitions) *Registry {
	v := hl7v2.Version(version)
	r := &Registry{
		version:    version,
		primitives: make(map[string]*node.PrimitiveType, len(defs.Primitives)),
		composites: make(map[string]*node.CompositeType, len(defs.Composites)),
		segments:   make(map[string]*node.SegmentType, len(defs.Segments)),
		groups:     make(map[string]*node.GroupType),
		aliases:    defs.Aliases,
	}

	for name, kind := range defs.Primitives {
		r.primitives[name] = &node.PrimitiveType{Name: name, Scalar: kind, Complex: name == "varies"}
	}

	// Types are allocated first so that composites may refer to each other.
	for name := range defs.Composites {
		r.composites[name] = &node.CompositeType{Name: name}
	}
	for name := range defs.Segments {
		r.segments[name] = &node.SegmentType{Name: name, Header: isHeader(name), Resolve: r.Factory}
	}

	for name, comps := range defs.Composites {
		r.composites[name].Components = r.slots(v, comps)
	}
	for name, fields := range defs.Segments {
		r.segments[name].Fields = r.slots(v, versionFields(v, name, fields))
	}
	for name, members := range defs.Structures {
		r.groups[name] = r.group(name, members)
	}
	return r
}

func isHeader(name string) bool {
	return name == "MSH" || name == "FHS" || name == "BHS"
}

// typeName applies the version's naming of the timestamp and message type.
func typeName(v hl7v2.Version, name string) string {
	switch name {
	case "TS":
		return v.TimestampComposite()
	case "MSG":
		return v.MessageTypeComposite()
	}
	return name
}

func (r *Registry) slots(v hl7v2.Version, defs []FieldDef) []node.Slot {
	out := make([]node.Slot, len(defs))
	for i, d := range defs {
		name := typeName(v, d.Type)
		out[i] = node.Slot{
			Name:       d.Name,
			Type:       name,
			Repeatable: d.Repeatable,
			TypeFrom:   d.TypeFrom,
		}
		if f, ok := r.Factory(name); ok {
			out[i].New = f
		} else {
			out[i].New = node.Varies
		}
	}
	return out
}

func (r *Registry) group(name string, members []MemberDef) *node.GroupType {
	g := &node.GroupType{Name: name, Children: make([]node.Member, len(members))}
	for i, m := range members {
		g.Children[i] = node.Member{Name: m.Name, Optional: m.Optional, Repeatable: m.Repeatable}
		if m.Children != nil {
			// Group names are qualified by their structure: ORU_R01.PATIENT_RESULT.
			root := name
			if j := strings.IndexByte(name, '.'); j >= 0 {
				root = name[:j]
			}
			child := r.group(root+"."+m.Name, m.Children)
			g.Children[i].Group = child
			r.groups[child.Name] = child
		}
	}
	return g
}

// Version returns the HL7 version the registry was built for.
func (r *Registry) Version() string {
	return r.version
}

// Factory returns a value factory for a data type name.
func (r *Registry) Factory(name string) (node.Factory, bool) {
	if p, ok := r.primitives[name]; ok {
		return node.PrimitiveFactory(p), true
	}
	if c, ok := r.composites[name]; ok {
		return node.CompositeFactory(c), true
	}
	return nil, false
}

// Lookup finds a tag name by exact match.
func (r *Registry) Lookup(tag string) (Entry, bool) {
	if s, ok := r.segments[tag]; ok {
		return Entry{Name: tag, Kind: node.KindSegment, Segment: s}, true
	}
	if c, ok := r.composites[tag]; ok {
		return Entry{Name: tag, Kind: node.KindComposite, Composite: c}, true
	}
	if p, ok := r.primitives[tag]; ok {
		return Entry{Name: tag, Kind: node.KindPrimitive, Primitive: p}, true
	}
	if g, ok := r.groups[tag]; ok {
		kind := node.KindGroup
		if !strings.Contains(tag, ".") {
			kind = node.KindMessage
		}
		return Entry{Name: tag, Kind: kind, Group: g}, true
	}
	return Entry{}, false
}

// Resolve finds the node type for tag. When no entry exists, lenient parsing
// falls back to the catch-all segment for plain names; names with an internal
// separator cannot be segments and are ambiguous. Strict parsing reports the
// tag as unrecognized. A condition swallowed by the gate yields an entry that
// is not Found, and the caller must reject the content.
func (r *Registry) Resolve(ctx *node.Context, tag string) (Entry, error) {
	if e, ok := r.Lookup(tag); ok {
		return e, nil
	}
	var e *issue.Error
	switch {
	case ctx.Options.Lenient() && !strings.ContainsAny(tag, "._"):
		return Entry{Name: tag, Kind: node.KindUnrecognized}, nil
	case ctx.Options.Lenient():
		e = ctx.Errorf(issue.KindAmbiguousType)
	default:
		e = ctx.Errorf(issue.KindUnrecognizedTag)
	}
	e.Tag = tag
	return Entry{}, ctx.Report(e)
}

// Segment returns a segment type.
func (r *Registry) Segment(name string) (*node.SegmentType, bool) {
	s, ok := r.segments[name]
	return s, ok
}

// Structure picks the message structure for a header's MSH-9 parts. The
// explicit structure (MSH-9.3) wins, then TYPE_TRIGGER, then the alias table.
// Messages with no known structure get an open structure that accepts any
// segment order.
func (r *Registry) Structure(msgType, trigger, structure string) *node.GroupType {
	if g, ok := r.groups[structure]; ok {
		return g
	}
	key := msgType + "_" + trigger
	if g, ok := r.groups[key]; ok {
		return g
	}
	if name, ok := r.aliases[msgType+"^"+trigger]; ok {
		if g, ok := r.groups[name]; ok {
			return g
		}
	}
	if name, ok := r.aliases[msgType]; ok {
		if g, ok := r.groups[name]; ok {
			return g
		}
	}
	name := key
	switch {
	case structure != "":
		name = structure
	case msgType == "":
		name = "UNKNOWN"
	case trigger == "":
		name = msgType
	}
	return &node.GroupType{Name: name, Open: true}
}

// Count returns the number of registered tag names.
func (r *Registry) Count() int {
	return len(r.primitives) + len(r.composites) + len(r.segments) + len(r.groups)
}

// SegmentNames returns the registered segment codes, sorted.
func (r *Registry) SegmentNames() []string {
	names := make([]string, 0, len(r.segments))
	for name := range r.segments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type versionEntry struct {
	once sync.Once
	reg  *Registry
}

var versions sync.Map // map[hl7v2.Version]*versionEntry

// ForVersion returns the process-wide registry for an HL7 version. Unknown
// versions use the 2.5 tables. The first call freezes the definitions.
func ForVersion(version string) *Registry {
	v, ok := hl7v2.ParseVersion(version)
	if !ok {
		v = hl7v2.V25
	}
	e, _ := versions.LoadOrStore(v, &versionEntry{})
	entry := e.(*versionEntry)
	entry.once.Do(func() {
		entry.reg = New(string(v), freeze())
	})
	return entry.reg
}

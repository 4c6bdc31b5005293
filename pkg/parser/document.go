package parser

import (
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// Document is a parsed message: its structure tree and the issues recorded
// while building it.
type Document struct {
	Tree    *tree.Node
	Message *node.Message
	Result  *hl7v2.Result
}

// Header returns the message header segment, or nil.
func (d *Document) Header() *node.Segment {
	if d == nil || d.Tree == nil {
		return nil
	}
	for _, tag := range []string{"MSH", "FHS", "BHS"} {
		if n := d.Tree.FindByTag(tag); n != nil {
			if s, ok := n.Value().(*node.Segment); ok {
				return s
			}
		}
	}
	return nil
}

// Segment returns the first decoded segment with the given code, or nil.
func (d *Document) Segment(name string) *node.Segment {
	if d == nil || d.Tree == nil {
		return nil
	}
	if n := d.Tree.FindByTag(name); n != nil {
		s, _ := n.Value().(*node.Segment)
		return s
	}
	return nil
}

// ControlID returns MSH-10.
func (d *Document) ControlID() string {
	if h := d.Header(); h != nil {
		return h.FieldText(10)
	}
	return ""
}

// MessageType returns MSH-9 as "TYPE^TRIGGER", or just the type when there
// is no trigger.
func (d *Document) MessageType() string {
	h := d.Header()
	if h == nil {
		return ""
	}
	typ, trigger := h.Component(9, 1), h.Component(9, 2)
	if trigger == "" {
		return typ
	}
	return typ + "^" + trigger
}

// Timestamp returns MSH-7 and its precision.
func (d *Document) Timestamp() (time.Time, node.Precision, bool) {
	h := d.Header()
	if h == nil {
		return time.Time{}, node.PrecisionNone, false
	}
	switch v := h.Field(7).(type) {
	case *node.Primitive:
		return v.Time()
	case *node.Composite:
		if p, ok := v.Component(1).(*node.Primitive); ok {
			return p.Time()
		}
	}
	return time.Time{}, node.PrecisionNone, false
}

// Version returns the HL7 version the message was parsed with.
func (d *Document) Version() string {
	if d == nil || d.Message == nil {
		return ""
	}
	return d.Message.Version
}

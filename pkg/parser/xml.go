package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/registry"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// ErrIncomplete is returned by Builder.Document before the root element ends.
var ErrIncomplete = errors.New("hl7v2: incomplete XML document")

type frameKind int

const (
	frameMessage frameKind = iota
	frameGroup
	frameSegment
	frameHeaderField
	frameValue
	frameRawSegment
	frameRawPart
	frameSkip
)

// frame is one open XML element.
type frame struct {
	kind  frameKind
	name  string
	index int

	node  *tree.Node
	seg   *node.Segment
	value node.Value
	level node.Level

	text     strings.Builder
	children bool

	// parts holds the encoded children of catch-all elements by index.
	parts map[int]string
}

// Builder assembles a message from XML element events. Element names follow
// the HL7 v2 XML encoding: the structure name for the root, qualified names
// for groups (ADT_A01.PATIENT), segment codes, "SEG.n" for fields and
// "TYPE.n" for components. With FlatXML set, group elements are ignored and
// segments are placed by the same rules as piped text.
type Builder struct {
	p    *Parser
	gate *issue.Gate
	ctx  *node.Context
	reg  *registry.Registry

	doc    *Document
	placer *placer
	frames []*frame

	segments int
	done     bool
	err      error
}

// NewBuilder creates a builder for one message.
func (p *Parser) NewBuilder() *Builder {
	gate := issue.NewGate(p.opts.Silent, p.opts.Strict)
	return &Builder{
		p:    p,
		gate: gate,
		ctx:  node.NewContext(p.opts, gate),
		reg:  registry.ForVersion(p.opts.DefaultVersion),
	}
}

func (b *Builder) top() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

func (b *Builder) push(f *frame) {
	b.frames = append(b.frames, f)
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// report passes e through the gate. When it is swallowed the element is
// skipped.
func (b *Builder) report(name string, e *issue.Error) error {
	if err := b.ctx.Report(e); err != nil {
		return b.fail(err)
	}
	b.push(&frame{kind: frameSkip, name: name})
	return nil
}

// StartElement opens an element. Attributes carry no HL7 content and are
// ignored.
func (b *Builder) StartElement(name string, _ map[string]string) error {
	if b.err != nil {
		return b.err
	}
	if b.done {
		return b.fail(fmt.Errorf("element %q after end of message", name))
	}
	top := b.top()
	if top != nil {
		top.children = true
	}
	if top == nil {
		b.startMessage(name)
		return nil
	}

	switch top.kind {
	case frameMessage, frameGroup:
		if strings.Contains(name, ".") {
			b.startGroup(name, top)
			return nil
		}
		return b.startSegment(name)
	case frameSegment:
		return b.startField(name, top)
	case frameValue:
		return b.startComponent(name, top)
	case frameRawSegment, frameRawPart:
		b.push(&frame{kind: frameRawPart, name: name, index: suffixIndex(name), parts: map[int]string{}})
		return nil
	default:
		b.push(&frame{kind: frameSkip, name: name})
		return nil
	}
}

func (b *Builder) startMessage(name string) {
	gt := &node.GroupType{Name: name, Open: true}
	if e, ok := b.reg.Lookup(name); ok && e.Group != nil {
		gt = e.Group
	}
	msg := node.NewMessage(gt, b.reg.Version(), b.p.opts.Delimiters)
	root := tree.New(msg)
	b.doc = &Document{Tree: root, Message: msg, Result: hl7v2.NewResult()}
	b.doc.Result.Structure = gt.Name
	b.placer = newPlacer(root, gt)
	b.push(&frame{kind: frameMessage, name: name, node: root})
}

func (b *Builder) startGroup(name string, parent *frame) {
	if b.p.opts.FlatXML {
		b.push(&frame{kind: frameGroup, name: name})
		return
	}
	gt := &node.GroupType{Name: name, Open: true}
	if e, ok := b.reg.Lookup(name); ok && e.Group != nil {
		gt = e.Group
	}
	n := tree.New(node.NewGroup(gt))
	b.groupNode(parent).AddChild(n)
	node.SetIndex(n.Value(), n.Parent().Len())
	b.push(&frame{kind: frameGroup, name: name, node: n})
}

// groupNode returns the tree node segments are added to for a frame.
func (b *Builder) groupNode(f *frame) *tree.Node {
	if f.node != nil {
		return f.node
	}
	return b.doc.Tree
}

func (b *Builder) startSegment(name string) error {
	b.segments++
	b.ctx.BeginSegment(name, b.segments)

	entry, err := b.reg.Resolve(b.ctx, name)
	if err != nil {
		if !b.p.opts.Recover || b.p.opts.Strict {
			return b.fail(err)
		}
		if e, ok := issue.As(err); ok {
			b.gate.Recovered(e)
		}
		entry = registry.Entry{Name: name, Kind: node.KindUnrecognized}
	}
	switch {
	case !entry.Found():
		b.push(&frame{kind: frameSkip, name: name})
	case entry.Segment == nil:
		b.push(&frame{kind: frameRawSegment, name: name, index: b.segments, parts: map[int]string{}})
	default:
		seg := node.NewSegment(entry.Segment)
		node.SetIndex(seg, b.segments)
		b.ctx.Push(name, b.segments)
		b.push(&frame{kind: frameSegment, name: name, seg: seg, index: b.segments})
	}
	return nil
}

func (b *Builder) startField(name string, top *frame) error {
	n := suffixIndex(name)
	if n < 1 || !strings.HasPrefix(name, top.seg.Tag()+".") {
		e := b.ctx.Errorf(issue.KindUnrecognizedTag)
		e.Tag = name
		return b.report(name, e)
	}
	if top.seg.Type().Header && n <= 2 {
		b.push(&frame{kind: frameHeaderField, name: name, index: n})
		return nil
	}

	slot, ok := top.seg.SlotFactory(n)
	if !ok {
		e := b.ctx.Errorf(issue.KindExtraContent)
		e.Tag, e.Index, e.Value = top.seg.Tag(), n, name
		return b.report(name, e)
	}
	v := slot.New()
	if err := top.seg.AddRepetition(n, v); err != nil {
		e, _ := issue.As(err)
		e.Line = b.ctx.Line
		return b.report(name, e)
	}
	b.ctx.Push(slot.Type, n)
	b.push(&frame{kind: frameValue, name: name, index: n, value: v, level: node.LevelField})
	return nil
}

func (b *Builder) startComponent(name string, top *frame) error {
	c, ok := top.value.(*node.Composite)
	n := suffixIndex(name)
	if !ok || n < 1 {
		e := b.ctx.Errorf(issue.KindExtraContent)
		e.Tag, e.Value = top.value.Tag(), name
		return b.report(name, e)
	}
	v, err := c.NewComponent(n, top.level)
	if err != nil {
		e, _ := issue.As(err)
		e.Location = b.ctx.Location()
		e.Line = b.ctx.Line
		e.Value = name
		return b.report(name, e)
	}
	b.ctx.Push(v.Tag(), n)
	b.push(&frame{kind: frameValue, name: name, index: n, value: v, level: top.level + 1})
	return nil
}

// Characters appends character data to the open element.
func (b *Builder) Characters(text string) error {
	if b.err != nil {
		return b.err
	}
	if top := b.top(); top != nil {
		top.text.WriteString(text)
	}
	return nil
}

// EndElement closes the open element, which must be name.
func (b *Builder) EndElement(name string) error {
	if b.err != nil {
		return b.err
	}
	f := b.top()
	if f == nil || f.name != name {
		return b.fail(fmt.Errorf("unexpected end element %q", name))
	}
	b.frames = b.frames[:len(b.frames)-1]
	parent := b.top()

	switch f.kind {
	case frameMessage:
		b.done = true
	case frameSegment:
		b.ctx.Pop()
		return b.endSegment(f, parent)
	case frameHeaderField:
		b.endHeaderField(f, parent)
	case frameValue:
		b.ctx.Pop()
		return b.endValue(f, parent)
	case frameRawPart:
		parent.parts[f.index] = b.rawText(f, parent.kind == frameRawSegment)
	case frameRawSegment:
		return b.endRawSegment(f, parent)
	}
	return nil
}

func (b *Builder) endHeaderField(f *frame, seg *frame) {
	s := seg.seg
	sep := s.FieldText(1)
	enc := s.FieldText(2)
	if f.index == 1 && f.text.Len() > 0 {
		sep = f.text.String()[:1]
	}
	if f.index == 2 {
		enc = f.text.String()
	}
	if sep == "" {
		sep = string(b.p.opts.Delimiters.Field)
	}
	s.SetHeaderFields(sep[0], enc)
}

func (b *Builder) endValue(f *frame, parent *frame) error {
	switch v := f.value.(type) {
	case *node.Primitive:
		if f.text.Len() > 0 {
			ok, err := v.Assign(b.ctx, f.text.String())
			if err != nil {
				return b.fail(err)
			}
			if ok {
				return nil
			}
		}
		if v.IsNull() {
			return nil
		}
	case *node.Composite:
		text := strings.TrimSpace(f.text.String())
		if !f.children && text != "" {
			// A composite written as plain text fills its first component.
			first, err := v.NewComponent(1, f.level)
			if err == nil {
				if p, ok := first.(*node.Primitive); ok {
					if _, err := p.Assign(b.ctx, text); err != nil {
						return b.fail(err)
					}
				}
			}
		}
		if v.IsNull() || v.Width() > 0 {
			return nil
		}
	}
	b.dropValue(f, parent)
	return nil
}

// dropValue removes an element that decoded to nothing, leaving its slot
// absent.
func (b *Builder) dropValue(f *frame, parent *frame) {
	switch parent.kind {
	case frameSegment:
		reps := parent.seg.Repetitions(f.index)
		if len(reps) > 0 {
			_ = parent.seg.SetField(f.index, reps[:len(reps)-1]...)
		}
	case frameValue:
		if c, ok := parent.value.(*node.Composite); ok {
			_ = c.SetComponent(f.index, nil)
		}
	}
}

func (b *Builder) endSegment(f *frame, parent *frame) error {
	seg := f.seg
	if seg.Type().Header {
		if seg.Field(1) == nil {
			seg.SetHeaderFields(b.p.opts.Delimiters.Field, seg.FieldText(2))
		}
		b.adoptHeader(seg)
	}
	return b.add(tree.New(seg), parent)
}

// adoptHeader takes the delimiters and version declared by a header.
func (b *Builder) adoptHeader(seg *node.Segment) {
	msg := b.doc.Message
	if d, err := delim.Extract(seg.Tag() + seg.FieldText(1) + seg.FieldText(2)); err == nil {
		msg.Delimiters = d
		b.ctx.Delims = d
	}
	if seg.Tag() != "MSH" {
		return
	}
	if v, ok := hl7v2.ParseVersion(seg.FieldText(12)); ok && string(v) != b.reg.Version() {
		b.reg = registry.ForVersion(string(v))
	}
	msg.Version = b.reg.Version()
}

func (b *Builder) add(n *tree.Node, parent *frame) error {
	b.doc.Result.Segments++
	if b.p.metrics != nil {
		_, unknown := n.Value().(*node.Unrecognized)
		b.p.metrics.RecordSegment(n.Tag(), unknown)
	}
	if b.p.opts.FlatXML {
		return b.placer.place(b.ctx, n)
	}
	b.groupNode(parent).AddChild(n)
	return nil
}

func (b *Builder) endRawSegment(f *frame, parent *frame) error {
	d := b.ctx.Delims
	width := 0
	for i := range f.parts {
		width = max(width, i)
	}
	var sb strings.Builder
	sb.WriteString(f.name)
	for i := 1; i <= width; i++ {
		sb.WriteByte(d.Field)
		sb.WriteString(f.parts[i])
	}
	b.ctx.BeginSegment(sb.String(), f.index)
	return b.add(tree.New(node.NewUnrecognized(b.ctx, sb.String(), nil)), parent)
}

// rawText encodes a catch-all element: escaped text, or its children joined
// by the delimiter of the next level down.
func (b *Builder) rawText(f *frame, field bool) string {
	d := b.ctx.Delims
	if len(f.parts) == 0 {
		return delim.Escape(f.text.String(), d)
	}
	sep := d.Subcomponent
	if field {
		sep = d.Component
	}
	width := 0
	for i := range f.parts {
		width = max(width, i)
	}
	out := make([]string, width)
	for i := 1; i <= width; i++ {
		out[i-1] = f.parts[i]
	}
	return strings.Join(out, string(sep))
}

// Document returns the assembled message once the root element has ended.
func (b *Builder) Document() (*Document, error) {
	if b.err != nil {
		return b.doc, b.err
	}
	if !b.done {
		return b.doc, ErrIncomplete
	}
	b.doc.Result.Version = b.doc.Message.Version
	b.p.collect(b.gate, b.doc.Result)
	return b.doc, nil
}

// suffixIndex returns n for names of the form "NAME.n", or 0.
func suffixIndex(name string) int {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// ParseXML reads one message in the HL7 v2 XML encoding.
func (p *Parser) ParseXML(r io.Reader) (*Document, error) {
	start := time.Now()
	doc, err := p.parseXML(r)
	if p.metrics != nil {
		p.metrics.RecordParse(time.Since(start), err == nil)
	}
	return doc, err
}

func (p *Parser) parseXML(r io.Reader) (*Document, error) {
	b := p.NewBuilder()
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var attrs map[string]string
			if len(t.Attr) > 0 {
				attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					attrs[a.Name.Local] = a.Value
				}
			}
			err = b.StartElement(t.Name.Local, attrs)
		case xml.CharData:
			err = b.Characters(string(t))
		case xml.EndElement:
			err = b.EndElement(t.Name.Local)
		}
		if err != nil {
			return b.doc, err
		}
	}
	return b.Document()
}

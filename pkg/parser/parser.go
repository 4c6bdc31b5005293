// Package parser turns HL7 v2 text or XML events into a structure tree and
// encodes trees back to the wire format.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/logger"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/reader"
	"github.com/gofhir/hl7v2/pkg/registry"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// Sentinel errors returned by the parser itself.
var (
	ErrEmptyMessage = errors.New("hl7v2: empty message")
	ErrNilTree      = errors.New("hl7v2: nil tree")
)

// Parser decodes and encodes HL7 v2 messages. A Parser is immutable after
// construction and safe for concurrent use; all per-parse state lives in a
// node.Context.
type Parser struct {
	opts    *hl7v2.Options
	log     *logger.Logger
	metrics *hl7v2.Metrics
}

// New creates a parser with the given options.
func New(opts ...hl7v2.Option) *Parser {
	return &Parser{
		opts: hl7v2.NewOptions(opts...),
		log:  logger.Default().Named("parser"),
	}
}

// NewWithOptions creates a parser from a prepared Options value.
func NewWithOptions(o *hl7v2.Options) *Parser {
	if o == nil {
		o = hl7v2.DefaultOptions()
	}
	return &Parser{opts: o.Clone(), log: logger.Default().Named("parser")}
}

// WithLogger returns a copy of the parser that logs to l's "parser"
// component.
func (p *Parser) WithLogger(l *logger.Logger) *Parser {
	cp := *p
	cp.log = l.Named("parser")
	return &cp
}

// WithMetrics returns a copy of the parser that records into m.
func (p *Parser) WithMetrics(m *hl7v2.Metrics) *Parser {
	cp := *p
	cp.metrics = m
	return &cp
}

// Options returns a copy of the parser's options.
func (p *Parser) Options() *hl7v2.Options {
	return p.opts.Clone()
}

// Metrics returns the metrics the parser records into, or nil.
func (p *Parser) Metrics() *hl7v2.Metrics {
	return p.metrics
}

// ParseString parses one message from a string.
func (p *Parser) ParseString(s string) (*Document, error) {
	return p.Parse(strings.NewReader(s))
}

// ParseBytes parses one message from a byte slice.
func (p *Parser) ParseBytes(b []byte) (*Document, error) {
	return p.Parse(bytes.NewReader(b))
}

// Parse reads one message. Segments after a second message header are
// placed like any other segment; use the stream package for inputs that hold
// several messages.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	start := time.Now()
	doc, err := p.parse(r)
	if p.metrics != nil {
		p.metrics.RecordParse(time.Since(start), err == nil)
		if doc != nil {
			for _, is := range doc.Result.Issues {
				p.metrics.RecordIssue(is.Severity)
			}
		}
	}
	return doc, err
}

func (p *Parser) parse(r io.Reader) (*Document, error) {
	rd := reader.New(r, reader.Config{
		Delimiters:         p.opts.Delimiters,
		ContinuationMarker: p.opts.ContinuationMarker,
		Allow:              p.opts.SegmentFilter,
	})
	gate := issue.NewGate(p.opts.Silent, p.opts.Strict)
	ctx := node.NewContext(p.opts, gate)

	first, err := rd.Next()
	if err == io.EOF {
		return nil, ErrEmptyMessage
	}
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	ctx.Delims = first.Delimiters
	if first.Err != nil {
		ctx.BeginSegment(first.Line, first.Number)
		e, _ := issue.As(first.Err)
		if err := ctx.Report(e); err != nil {
			return nil, err
		}
	}

	version, reg, structure := p.header(first)
	msg := node.NewMessage(structure, version, first.Delimiters)
	root := tree.New(msg)
	doc := &Document{Tree: root, Message: msg, Result: hl7v2.NewResult()}
	doc.Result.Version = version
	doc.Result.Structure = structure.Name

	pl := newPlacer(root, structure)
	seg := first
	for {
		if err := p.addSegment(ctx, reg, pl, seg, doc.Result); err != nil {
			p.collect(gate, doc.Result)
			return doc, err
		}
		seg, err = rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.collect(gate, doc.Result)
			return doc, fmt.Errorf("reading segment %d: %w", rd.LineNumber(), err)
		}
		ctx.Delims = seg.Delimiters
	}

	p.collect(gate, doc.Result)
	return doc, nil
}

// header peeks the version and structure from the raw header line before any
// segment is decoded.
func (p *Parser) header(first reader.Segment) (string, *registry.Registry, *node.GroupType) {
	version := p.opts.DefaultVersion
	var msgType, trigger, structure string

	if first.Name == "MSH" {
		fields := strings.Split(first.Line, string(first.Delimiters.Field))
		// fields[0] is the tag and fields[1] MSH-2, so MSH-n is fields[n-1].
		if len(fields) > 11 {
			if v, ok := hl7v2.ParseVersionField(fields[11], first.Delimiters); ok {
				version = string(v)
			}
		}
		if len(fields) > 8 {
			parts := strings.Split(fields[8], string(first.Delimiters.Component))
			msgType = parts[0]
			if len(parts) > 1 {
				trigger = parts[1]
			}
			if len(parts) > 2 {
				structure = parts[2]
			}
		}
	}

	reg := registry.ForVersion(version)
	return version, reg, reg.Structure(msgType, trigger, structure)
}

// addSegment decodes one segment and places it in the tree.
func (p *Parser) addSegment(ctx *node.Context, reg *registry.Registry, pl *placer, s reader.Segment, res *hl7v2.Result) error {
	v, recovered, err := p.decodeSegment(ctx, reg, s)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}

	res.Segments++
	if recovered {
		res.Recovered++
	}
	if p.metrics != nil {
		p.metrics.RecordSegment(v.Tag(), recovered)
	}
	return pl.place(ctx, tree.New(v))
}

// decodeSegment resolves and decodes one segment line. A nil value with a
// nil error means the segment was dropped by the gate.
func (p *Parser) decodeSegment(ctx *node.Context, reg *registry.Registry, s reader.Segment) (node.Encodable, bool, error) {
	ctx.Delims = s.Delimiters
	ctx.BeginSegment(s.Line, s.Number)

	entry, err := reg.Resolve(ctx, s.Name)
	if err != nil {
		return p.recover(ctx, s, err)
	}
	if !entry.Found() {
		return nil, false, nil
	}
	if entry.CatchAll() {
		return node.NewUnrecognized(ctx, s.Line, nil), false, nil
	}
	if entry.Segment == nil {
		e := ctx.Errorf(issue.KindUnrecognizedTag)
		e.Tag, e.Value = s.Name, entry.Kind.String()
		if err := ctx.Report(e); err != nil {
			return p.recover(ctx, s, err)
		}
		return nil, false, nil
	}

	seg := node.NewSegment(entry.Segment)
	if err := seg.Decode(ctx, s.Line); err != nil {
		return p.recover(ctx, s, err)
	}
	return seg, false, nil
}

// recover substitutes a catch-all segment for one that failed to decode,
// unless recovery is off or parsing is strict.
func (p *Parser) recover(ctx *node.Context, s reader.Segment, cause error) (node.Encodable, bool, error) {
	if !p.opts.Recover || p.opts.Strict {
		return nil, false, cause
	}
	e, ok := issue.As(cause)
	if !ok {
		e = ctx.Errorf(issue.KindUnrecognizedTag)
		e.Err = cause
	}
	ctx.Gate.Recovered(e)
	if p.opts.Verbose {
		p.log.Warn("segment %d (%s) kept verbatim: %v", s.Number, s.Name, cause)
	} else {
		p.log.Debug("segment %d (%s) kept verbatim: %v", s.Number, s.Name, cause)
	}
	return node.NewUnrecognized(ctx, s.Line, cause), true, nil
}

// collect moves the gate's recorded conditions into the result.
func (p *Parser) collect(gate *issue.Gate, res *hl7v2.Result) {
	for _, c := range gate.Conditions() {
		res.AddIssue(hl7v2.IssueFromError(c.Severity, c.Err))
	}
	gate.Reset()
}

// delimiters returns the delimiters a tree is encoded with: the message's
// own when the root is a message, else the parser's.
func (p *Parser) delimiters(t *tree.Node) delim.Delimiters {
	if m, ok := t.Root().Value().(*node.Message); ok && m.Delimiters.Validate() == nil {
		return m.Delimiters
	}
	return p.opts.Delimiters
}

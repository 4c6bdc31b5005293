package parser

import (
	"fmt"
	"strings"

	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/registry"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// Encode renders the segments under t in the wire format, each followed by
// the configured segment terminator.
func (p *Parser) Encode(t *tree.Node) (string, error) {
	if t == nil {
		return "", ErrNilTree
	}
	d := p.delimiters(t)
	var sb strings.Builder
	for _, seg := range t.Segments() {
		sb.WriteString(seg.Encode(d))
		sb.WriteString(p.opts.SegmentTerminator)
	}
	return sb.String(), nil
}

// Render renders the segments under t joined by the tree's segment
// delimiter, for display.
func (p *Parser) Render(t *tree.Node) (string, error) {
	if t == nil {
		return "", ErrNilTree
	}
	d := p.delimiters(t)
	return t.Render(func(seg node.Encodable) (string, error) {
		return seg.Encode(d), nil
	})
}

// EncodeSegment renders one segment line, without terminator, using the
// parser's delimiters.
func (p *Parser) EncodeSegment(seg node.Encodable) string {
	return seg.Encode(p.opts.Delimiters)
}

// EncodeValue renders a field value with the parser's delimiters.
func (p *Parser) EncodeValue(v node.Value) string {
	return node.EncodeValue(v, p.opts.Delimiters, node.LevelField)
}

// Reclassify decodes every catch-all segment under t again, with this
// parser's options, and replaces the ones whose code is now known. It
// returns the number of segments replaced.
func (p *Parser) Reclassify(t *tree.Node) (int, error) {
	version := p.opts.DefaultVersion
	if m, ok := t.Root().Value().(*node.Message); ok && m.Version != "" {
		version = m.Version
	}
	reg := registry.ForVersion(version)
	d := p.delimiters(t)

	var targets []*tree.Node
	t.Walk(func(n *tree.Node) bool {
		if n.Kind() == node.KindUnrecognized {
			targets = append(targets, n)
		}
		return true
	})

	replaced := 0
	for _, n := range targets {
		u := n.Value().(*node.Unrecognized)
		st, ok := reg.Segment(u.Tag())
		if !ok {
			continue
		}
		seg, err := p.redecode(st, d, u)
		if err != nil {
			return replaced, fmt.Errorf("reclassify %s: %w", u.Tag(), err)
		}
		if seg != nil {
			n.ReplaceValue(seg)
			replaced++
		}
	}
	return replaced, nil
}

func (p *Parser) redecode(st *node.SegmentType, d delim.Delimiters, u *node.Unrecognized) (*node.Segment, error) {
	gate := issue.NewGate(p.opts.Silent, p.opts.Strict)
	ctx := node.NewContext(p.opts, gate)
	ctx.Delims = d
	ctx.BeginSegment(u.Line(), u.Index())

	seg := node.NewSegment(st)
	if err := seg.Decode(ctx, u.Line()); err != nil {
		if p.opts.Strict {
			return nil, err
		}
		// Still undecodable: keep the catch-all.
		return nil, nil
	}
	return seg, nil
}

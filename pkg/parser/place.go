package parser

import (
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// openGroup is a group instance that may still receive segments.
type openGroup struct {
	node *tree.Node
	typ  *node.GroupType

	// pos is the index of the last member filled, -1 before the first.
	pos int
}

// placer assigns segments to group instances by walking each group's
// declared members forward. It never moves backwards within a group: a
// segment that matches an earlier member closes the group and is retried in
// the enclosing one.
type placer struct {
	stack []*openGroup
}

func newPlacer(root *tree.Node, t *node.GroupType) *placer {
	return &placer{stack: []*openGroup{{node: root, typ: t, pos: -1}}}
}

// place adds seg to the innermost group that can hold it. A segment that no
// open group can hold is appended to the innermost group and reported as a
// warning.
func (p *placer) place(ctx *node.Context, seg *tree.Node) error {
	name := seg.Tag()
	for depth := len(p.stack) - 1; depth >= 0; depth-- {
		saved := p.stack
		p.stack = p.stack[:depth+1]
		if p.fill(p.stack[depth], name, seg) {
			return nil
		}
		p.stack = saved
	}

	inner := p.stack[len(p.stack)-1]
	inner.node.AddChild(seg)
	e := ctx.Errorf(issue.KindUnexpectedSegment)
	e.Tag, e.Value = name, inner.typ.Name
	return ctx.Warn(e)
}

// fill places seg in g or in a new instance of one of g's nested groups.
func (p *placer) fill(g *openGroup, name string, seg *tree.Node) bool {
	if g.typ.Open {
		g.node.AddChild(seg)
		return true
	}
	for i := max(g.pos, 0); i < len(g.typ.Children); i++ {
		m := g.typ.Children[i]
		if i == g.pos && !m.Repeatable {
			continue
		}
		switch {
		case !m.IsGroup() && m.Name == name:
			g.node.AddChild(seg)
			g.pos = i
			return true
		case m.IsGroup() && m.Group.CanStart(name):
			inst := tree.New(node.NewGroup(m.Group))
			g.node.AddChild(inst)
			node.SetIndex(inst.Value(), g.node.Len())
			g.pos = i
			child := &openGroup{node: inst, typ: m.Group, pos: -1}
			p.stack = append(p.stack, child)
			return p.fill(child, name, seg)
		}
	}
	return false
}

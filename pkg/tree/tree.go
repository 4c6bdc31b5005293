// Package tree holds the ownership tree a parsed message is assembled into.
package tree

import (
	"errors"
	"runtime"
	"strings"

	"github.com/gofhir/hl7v2/pkg/node"
)

// ErrIndex is returned for child positions out of range.
var ErrIndex = errors.New("tree: child index out of range")

// DefaultSegmentDelimiter is the platform line break used by Render.
var DefaultSegmentDelimiter = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Node wraps one data node and owns its children. The parent pointer does
// not own; after Detach a node still answers Parent until it is reattached.
type Node struct {
	value    node.Node
	parent   *Node
	children []*Node

	segmentDelimiter string
}

// New creates a tree node holding value.
func New(value node.Node) *Node {
	return &Node{value: value}
}

// Value returns the data node.
func (n *Node) Value() node.Node {
	return n.value
}

// Tag returns the tag of the data node.
func (n *Node) Tag() string {
	if n.value == nil {
		return ""
	}
	return n.value.Tag()
}

// Kind returns the kind of the data node.
func (n *Node) Kind() node.Kind {
	return n.value.Kind()
}

// Parent returns the parent node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the top of the tree holding n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil && r.parent.indexOf(r) >= 0 {
		r = r.parent
	}
	return r
}

// Children returns the children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.children)
}

// Child returns the child at index i, or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node {
	return n.Child(len(n.children) - 1)
}

// AddChild appends child, detaching it from any previous parent.
func (n *Node) AddChild(child *Node) {
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// InsertChildAt inserts child at index i. When child is already held by n,
// i is counted after it has been removed from its old position.
func (n *Node) InsertChildAt(i int, child *Node) error {
	limit := len(n.children)
	if child.parent == n && n.indexOf(child) >= 0 {
		limit--
	}
	if i < 0 || i > limit {
		return ErrIndex
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	return nil
}

// RemoveChildAt removes and returns the child at index i. The removed node
// keeps its parent pointer.
func (n *Node) RemoveChildAt(i int) (*Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, ErrIndex
	}
	child := n.children[i]
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	return child, nil
}

// RemoveLast removes and returns the last child, or nil when there is none.
func (n *Node) RemoveLast() *Node {
	if len(n.children) == 0 {
		return nil
	}
	child, _ := n.RemoveChildAt(len(n.children) - 1)
	return child
}

// Detach removes n from its parent's children. Parent keeps returning the
// former parent so that recovery code can navigate upward.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	if i := n.parent.indexOf(n); i >= 0 {
		_, _ = n.parent.RemoveChildAt(i)
	}
}

// Attached reports whether n is held by its parent.
func (n *Node) Attached() bool {
	return n.parent != nil && n.parent.indexOf(n) >= 0
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// ReplaceValue swaps the data node, keeping position and children.
func (n *Node) ReplaceValue(value node.Node) node.Node {
	old := n.value
	n.value = value
	return old
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// FindByTag returns the first node with the tag, depth-first, or nil.
func (n *Node) FindByTag(tag string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Tag() == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAllByTag returns every node with the tag, depth-first.
func (n *Node) FindAllByTag(tag string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Tag() == tag {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Segments returns the segment-level data nodes in order.
func (n *Node) Segments() []node.Encodable {
	var out []node.Encodable
	n.Walk(func(c *Node) bool {
		if e, ok := c.value.(node.Encodable); ok {
			out = append(out, e)
			return false
		}
		return true
	})
	return out
}

// FlattenToSegments returns a new shallow tree whose root holds n's value and
// whose children are n's segment descendants, in order. The data nodes are
// shared with n.
func (n *Node) FlattenToSegments() *Node {
	flat := &Node{value: n.value, segmentDelimiter: n.segmentDelimiter}
	n.Walk(func(c *Node) bool {
		if c != n && c.value != nil && c.value.Kind().IsSegment() {
			flat.children = append(flat.children, &Node{value: c.value, parent: flat})
			return false
		}
		return true
	})
	return flat
}

// Copy returns a deep copy of the subtree rooted at n. Data nodes are
// cloned; the copy has no parent.
func (n *Node) Copy() *Node {
	cp := &Node{segmentDelimiter: n.segmentDelimiter}
	if n.value != nil {
		cp.value = n.value.Clone()
	}
	cp.children = make([]*Node, len(n.children))
	for i, c := range n.children {
		cc := c.Copy()
		cc.parent = cp
		cp.children[i] = cc
	}
	return cp
}

// Equal compares two subtrees value by value, ignoring node identity.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if (n.value == nil) != (other.value == nil) {
		return false
	}
	if n.value != nil && !n.value.Equal(other.value) {
		return false
	}
	if len(n.children) != len(other.children) {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

// SetSegmentDelimiter overrides the delimiter Render places between
// segments.
func (n *Node) SetSegmentDelimiter(d string) {
	n.segmentDelimiter = d
}

// SegmentDelimiter returns the delimiter Render uses, defaulting to the
// platform line break.
func (n *Node) SegmentDelimiter() string {
	if n.segmentDelimiter == "" {
		return DefaultSegmentDelimiter
	}
	return n.segmentDelimiter
}

// Render emits every segment with encode and joins them with the segment
// delimiter.
func (n *Node) Render(encode func(node.Encodable) (string, error)) (string, error) {
	var b strings.Builder
	sep := n.SegmentDelimiter()
	for i, seg := range n.Segments() {
		if i > 0 {
			b.WriteString(sep)
		}
		s, err := encode(seg)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

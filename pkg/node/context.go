package node

import (
	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pool"
)

// frame is one entry of the parse position stack.
type frame struct {
	tag   string
	index int
	rep   int
}

// Context is the state of one parse: configuration, active delimiters, the
// report gate, and the position stack used to render diagnostic locations.
// A Context must not be shared between concurrent parses.
type Context struct {
	Options *hl7v2.Options
	Delims  delim.Delimiters
	Gate    *issue.Gate

	// Line is the source line being decoded.
	Line string

	// LineNumber is the 1-based logical segment number of Line.
	LineNumber int

	stack []frame
}

// NewContext creates a parse context. A nil opts uses the defaults.
func NewContext(opts *hl7v2.Options, gate *issue.Gate) *Context {
	if opts == nil {
		opts = hl7v2.DefaultOptions()
	}
	if gate == nil {
		gate = issue.NewGate(opts.Silent, opts.Strict)
	}
	return &Context{
		Options: opts,
		Delims:  opts.Delimiters,
		Gate:    gate,
		stack:   make([]frame, 0, 8),
	}
}

// BeginSegment starts a new source line and clears the position stack.
func (c *Context) BeginSegment(line string, number int) {
	c.Line = line
	c.LineNumber = number
	c.stack = c.stack[:0]
}

// Push records that a node with the given declared tag and 1-based index
// started consuming tokens.
func (c *Context) Push(tag string, index int) {
	c.stack = append(c.stack, frame{tag: tag, index: index})
}

// PushRepetition is Push for one repetition of a field.
func (c *Context) PushRepetition(tag string, index, rep int) {
	c.stack = append(c.stack, frame{tag: tag, index: index, rep: rep})
}

// Pop removes the innermost position.
func (c *Context) Pop() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Depth returns the number of positions on the stack.
func (c *Context) Depth() int {
	return len(c.stack)
}

// Location renders the stack as "SEG.field.component", e.g. "PID.3.1".
func (c *Context) Location() string {
	if len(c.stack) == 0 {
		return ""
	}
	return pool.BuildPath(func(b *pool.PathBuilder) {
		b.WriteString(c.stack[0].tag)
		for _, f := range c.stack[1:] {
			b.AppendPosition(f.index)
			b.AppendRepetition(f.rep)
		}
	})
}

// Errorf creates a condition located at the innermost position.
func (c *Context) Errorf(kind issue.Kind) *issue.Error {
	e := issue.New(kind)
	e.Location = c.Location()
	e.Line = c.Line
	if n := len(c.stack); n > 0 {
		e.Tag = c.stack[n-1].tag
		e.Index = c.stack[n-1].index
	}
	return e
}

// Report passes a condition through the gate. A nil return means the
// condition was swallowed and the offending content must be left absent.
func (c *Context) Report(e *issue.Error) error {
	return c.Gate.Report(e)
}

// Warn passes a condition that is fatal only in strict mode.
func (c *Context) Warn(e *issue.Error) error {
	return c.Gate.Warn(e)
}

func (c *Context) ignoreExtra() bool {
	return c.Options != nil && c.Options.IgnoreExtra
}

func (c *Context) allowComplex() bool {
	return c.Options != nil && c.Options.AllowComplex
}

func (c *Context) laxUnderstanding() bool {
	return c.Options != nil && c.Options.LaxUnderstanding
}

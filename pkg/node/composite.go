package node

import (
	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
)

// Composite is a structured value with fixed-arity component slots.
type Composite struct {
	base
	typ        *CompositeType
	components []Value

	// width is the number of positional slots present in the source.
	width int
}

// NewComposite creates an empty composite of the given type.
func NewComposite(t *CompositeType) *Composite {
	c := &Composite{typ: t}
	if !t.Open {
		c.components = make([]Value, len(t.Components))
	}
	return c
}

// CompositeFactory returns a factory for the type.
func CompositeFactory(t *CompositeType) Factory {
	return func() Value { return NewComposite(t) }
}

// Tag returns the declared type name.
func (c *Composite) Tag() string { return c.typ.Name }

// Kind returns KindComposite.
func (c *Composite) Kind() Kind { return KindComposite }

// Type returns the declared type.
func (c *Composite) Type() *CompositeType { return c.typ }

// Len returns the number of component slots held.
func (c *Composite) Len() int { return len(c.components) }

// Width returns the number of positional slots that will be encoded.
func (c *Composite) Width() int {
	w := c.width
	for i := len(c.components) - 1; i >= w; i-- {
		if c.components[i] != nil {
			return i + 1
		}
	}
	return w
}

// Component returns the 1-based component, or nil when absent.
func (c *Composite) Component(n int) Value {
	if n < 1 || n > len(c.components) {
		return nil
	}
	return c.components[n-1]
}

// ComponentText returns the text of the 1-based component.
func (c *Composite) ComponentText(n int) string {
	if v := c.Component(n); v != nil {
		return v.Text()
	}
	return ""
}

// Text returns the text of the first component.
func (c *Composite) Text() string {
	return c.ComponentText(1)
}

// SetComponent sets the 1-based component. A nil value clears it.
func (c *Composite) SetComponent(n int, v Value) error {
	if n < 1 {
		return issue.New(issue.KindExtraContent)
	}
	if !c.typ.Open && n > len(c.components) {
		e := issue.New(issue.KindExtraContent)
		e.Tag, e.Index = c.typ.Name, n
		return e
	}
	for len(c.components) < n {
		c.components = append(c.components, nil)
	}
	c.null = false
	c.components[n-1] = v
	return nil
}

// NewComponent creates the value for the 1-based component from its declared
// slot, stores it and returns it. level is the level of the composite itself.
func (c *Composite) NewComponent(n int, level Level) (Value, error) {
	if n < 1 || (!c.typ.Open && n > len(c.typ.Components)) {
		e := issue.New(issue.KindExtraContent)
		e.Tag, e.Index = c.typ.Name, n
		return nil, e
	}
	v := c.slot(n, level).New()
	if err := c.SetComponent(n, v); err != nil {
		return nil, err
	}
	return v, nil
}

// slot returns the declared slot for the 1-based component.
func (c *Composite) slot(n int, level Level) Slot {
	if c.typ.Open {
		return variesSlot(level)
	}
	return c.typ.Components[n-1]
}

func (c *Composite) decode(ctx *Context, token string, level Level, index int) (bool, error) {
	c.bind(ctx, index)
	if delim.IsNull(token) {
		c.setNull()
		return true, nil
	}

	sep, ok := level.separator(ctx.Delims)
	if !ok {
		// Below subcomponents there is no delimiter left: the token fills the
		// first slot.
		return c.decodeChild(ctx, 1, token, level)
	}

	arity := c.typ.Arity()
	n, start := 0, 0
	for start <= len(token) {
		end := start
		for end < len(token) && token[end] != sep {
			end++
		}
		n++
		if arity >= 0 && n > arity {
			extra := token[max(start-1, 0):]
			if ctx.ignoreExtra() && ctx.Delims.OnlyDelimiters(extra) {
				n--
				break
			}
			e := ctx.Errorf(issue.KindExtraContent)
			e.Tag = c.typ.Name
			e.Value = extra
			if err := ctx.Report(e); err != nil {
				return false, err
			}
			n--
			break
		}
		if end > start {
			if _, err := c.decodeChild(ctx, n, token[start:end], level); err != nil {
				return false, err
			}
		}
		start = end + 1
	}
	if n > c.width {
		c.width = n
	}
	return true, nil
}

func (c *Composite) decodeChild(ctx *Context, n int, token string, level Level) (bool, error) {
	slot := c.slot(n, level)
	for len(c.components) < n {
		c.components = append(c.components, nil)
	}
	child := slot.New()
	ctx.Push(slot.Type, n)
	ok, err := child.decode(ctx, token, level+1, n)
	ctx.Pop()
	if err != nil {
		return false, err
	}
	if ok {
		c.components[n-1] = child
	}
	if n > c.width {
		c.width = n
	}
	return ok, nil
}

func (c *Composite) appendTo(buf []byte, d delim.Delimiters, level Level) []byte {
	if c.null {
		return append(buf, delim.Null...)
	}
	sep, ok := level.separator(d)
	if !ok {
		if v := c.Component(1); v != nil {
			return v.appendTo(buf, d, level+1)
		}
		return buf
	}
	w := c.Width()
	for i := 0; i < w; i++ {
		if i > 0 {
			buf = append(buf, sep)
		}
		if v := c.components[i]; v != nil {
			buf = v.appendTo(buf, d, level+1)
		}
	}
	return buf
}

// Clone returns a deep copy of the composite.
func (c *Composite) Clone() Node {
	cp := &Composite{base: c.base, typ: c.typ, width: c.width}
	cp.components = make([]Value, len(c.components))
	for i, v := range c.components {
		cp.components[i] = cloneValue(v)
	}
	return cp
}

// Equal compares type, null-ness and every component.
func (c *Composite) Equal(other Node) bool {
	o, ok := other.(*Composite)
	if !ok || o == nil {
		return false
	}
	if c.typ.Name != o.typ.Name || c.null != o.null {
		return false
	}
	n := max(len(c.components), len(o.components))
	for i := 1; i <= n; i++ {
		if !equalValues(c.Component(i), o.Component(i)) {
			return false
		}
	}
	return true
}

// variesType is the open composite used where the data type is only known at
// run time.
var variesType = &CompositeType{Name: "varies", Open: true}

// variesPrimitive keeps structural delimiters verbatim.
var variesPrimitive = &PrimitiveType{Name: "varies", Complex: true}

// Varies returns a value of the open varies type.
func Varies() Value {
	return NewComposite(variesType)
}

// variesSlot nests one varies composite per delimiter level down to a
// primitive.
func variesSlot(level Level) Slot {
	if level == LevelField {
		return Slot{Type: "varies", New: Varies}
	}
	return Slot{Type: "varies", New: PrimitiveFactory(variesPrimitive)}
}

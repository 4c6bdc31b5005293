package node

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
)

var errNotSequence = errors.New("not a non-negative integer")

// Primitive is a leaf value: decoded text plus a parsed scalar for numeric
// and temporal types.
type Primitive struct {
	base
	typ *PrimitiveType

	text string

	// raw text is emitted verbatim, without escaping.
	raw bool

	num       decimal.Decimal
	hasNum    bool
	when      time.Time
	precision Precision
}

// NewPrimitive creates an empty primitive of the given type.
func NewPrimitive(t *PrimitiveType) *Primitive {
	return &Primitive{typ: t}
}

// PrimitiveFactory returns a factory for the type.
func PrimitiveFactory(t *PrimitiveType) Factory {
	return func() Value { return NewPrimitive(t) }
}

// Tag returns the declared type name.
func (p *Primitive) Tag() string { return p.typ.Name }

// Kind returns KindPrimitive.
func (p *Primitive) Kind() Kind { return KindPrimitive }

// Type returns the declared type.
func (p *Primitive) Type() *PrimitiveType { return p.typ }

// Text returns the decoded text. It is empty for explicit null.
func (p *Primitive) Text() string { return p.text }

// Decimal returns the numeric value of NM and SI primitives.
func (p *Primitive) Decimal() (decimal.Decimal, bool) {
	return p.num, p.hasNum
}

// Time returns the value of DT, TM and DTM primitives with its precision.
func (p *Primitive) Time() (time.Time, Precision, bool) {
	return p.when, p.precision, p.precision != PrecisionNone
}

// SetText sets the text and re-derives the scalar. Text that does not parse
// for the declared type is rejected with an ErrInvalidValue error.
func (p *Primitive) SetText(text string) error {
	p.null = false
	p.raw = false
	p.text = text
	return p.parseScalar()
}

// SetDecimal sets a numeric value.
func (p *Primitive) SetDecimal(d decimal.Decimal) {
	p.null = false
	p.raw = false
	p.text = d.String()
	p.num, p.hasNum = d, true
}

// SetTime sets a temporal value rendered with the given precision.
func (p *Primitive) SetTime(t time.Time, prec Precision) {
	p.null = false
	p.raw = false
	if p.typ.Scalar == ScalarTime {
		p.text = FormatTime(t, prec)
	} else {
		p.text = FormatDateTime(t, prec)
	}
	p.when, p.precision = t, prec
}

// SetNull makes the primitive the explicit null value.
func (p *Primitive) SetNull() {
	*p = Primitive{typ: p.typ, base: p.base}
	p.null = true
}

// Assign sets already-unescaped text, such as XML character data, reporting
// values that do not parse for the declared type through the context's gate.
func (p *Primitive) Assign(ctx *Context, text string) (bool, error) {
	if delim.IsNull(text) {
		p.SetNull()
		return true, nil
	}
	p.text = text
	return p.checkScalar(ctx)
}

func (p *Primitive) decode(ctx *Context, token string, _ Level, index int) (bool, error) {
	p.bind(ctx, index)
	if delim.IsNull(token) {
		p.SetNull()
		return true, nil
	}

	d := ctx.Delims
	if i := d.IndexAny(token); i >= 0 {
		switch {
		case p.typ.Complex || ctx.allowComplex():
			p.text, p.raw = token, true
			return true, nil
		case ctx.ignoreExtra() && d.OnlyDelimiters(token[i:]):
			token = token[:i]
			if token == "" {
				return false, nil
			}
		default:
			e := ctx.Errorf(issue.KindUnexpectedDelimiter)
			e.Char = token[i]
			e.Value = token
			return false, ctx.Report(e)
		}
	}

	text, ok := delim.Unescape(token, d)
	if !ok {
		return false, nil
	}
	p.text = text
	return p.checkScalar(ctx)
}

// checkScalar parses the scalar and routes failures through the gate.
func (p *Primitive) checkScalar(ctx *Context) (bool, error) {
	err := p.parseScalar()
	if err == nil {
		return true, nil
	}
	e, _ := issue.As(err)
	if ctx == nil {
		return false, e
	}
	loc := ctx.Errorf(issue.KindInvalidValue)
	loc.Value, loc.Err = e.Value, e.Err
	if ctx.laxUnderstanding() {
		return false, ctx.Warn(loc)
	}
	return false, ctx.Report(loc)
}

func (p *Primitive) parseScalar() error {
	p.num, p.hasNum = decimal.Decimal{}, false
	p.when, p.precision = time.Time{}, PrecisionNone
	if p.text == "" {
		return nil
	}

	var err error
	switch p.typ.Scalar {
	case ScalarNumeric:
		p.num, err = decimal.NewFromString(p.text)
		p.hasNum = err == nil
	case ScalarSequence:
		p.num, err = decimal.NewFromString(p.text)
		if err == nil && (!p.num.IsInteger() || p.num.IsNegative()) {
			err = errNotSequence
		}
		p.hasNum = err == nil
	case ScalarDate:
		p.when, p.precision, err = ParseDate(p.text)
	case ScalarTime:
		p.when, p.precision, err = ParseTime(p.text)
	case ScalarDateTime:
		p.when, p.precision, err = ParseDateTime(p.text)
	}
	if err != nil {
		e := issue.New(issue.KindInvalidValue)
		e.Tag = p.typ.Name
		e.Value = p.text
		e.Err = err
		return e
	}
	return nil
}

func (p *Primitive) appendTo(buf []byte, d delim.Delimiters, _ Level) []byte {
	switch {
	case p.null:
		return append(buf, delim.Null...)
	case p.raw:
		return append(buf, p.text...)
	default:
		return append(buf, delim.Escape(p.text, d)...)
	}
}

// Clone returns a copy of the primitive.
func (p *Primitive) Clone() Node {
	c := *p
	return &c
}

// Equal compares type, null-ness and text.
func (p *Primitive) Equal(other Node) bool {
	o, ok := other.(*Primitive)
	if !ok || o == nil {
		return false
	}
	return p.typ.Name == o.typ.Name && p.null == o.null && p.text == o.text
}

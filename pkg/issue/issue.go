// Package issue defines the reportable conditions raised while decoding and
// encoding HL7 v2 messages, and the gate that decides whether they are fatal.
package issue

import (
	"errors"
	"sync"
)

// Severity represents the severity of a reported condition.
type Severity string

// Severity constants.
const (
	SeverityFatal       Severity = "fatal"
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// Kind identifies the type of a reportable condition.
type Kind string

// Kind constants.
const (
	KindMalformedHeader      Kind = "malformed-header"
	KindUnrecognizedTag      Kind = "unrecognized-tag"
	KindUnexpectedDelimiter  Kind = "unexpected-delimiter"
	KindUnexpectedRepetition Kind = "unexpected-repetition"
	KindExtraContent         Kind = "extra-content"
	KindAmbiguousType        Kind = "ambiguous-type"
	KindInvalidValue         Kind = "invalid-value"
	KindUnexpectedSegment    Kind = "unexpected-segment"
)

// Sentinel errors, one per Kind. Match them with errors.Is.
var (
	ErrMalformedHeader      = errors.New("hl7v2: malformed header")
	ErrUnrecognizedTag      = errors.New("hl7v2: unrecognized tag")
	ErrUnexpectedDelimiter  = errors.New("hl7v2: unexpected delimiter in primitive")
	ErrUnexpectedRepetition = errors.New("hl7v2: unexpected repetition")
	ErrExtraContent         = errors.New("hl7v2: extra unrecognized content")
	ErrAmbiguousType        = errors.New("hl7v2: ambiguous type resolution")
	ErrInvalidValue         = errors.New("hl7v2: invalid value")
	ErrUnexpectedSegment    = errors.New("hl7v2: unexpected segment")
)

var sentinels = map[Kind]error{
	KindMalformedHeader:      ErrMalformedHeader,
	KindUnrecognizedTag:      ErrUnrecognizedTag,
	KindUnexpectedDelimiter:  ErrUnexpectedDelimiter,
	KindUnexpectedRepetition: ErrUnexpectedRepetition,
	KindExtraContent:         ErrExtraContent,
	KindAmbiguousType:        ErrAmbiguousType,
	KindInvalidValue:         ErrInvalidValue,
	KindUnexpectedSegment:    ErrUnexpectedSegment,
}

// Sentinel returns the sentinel error for the kind.
func (k Kind) Sentinel() error {
	return sentinels[k]
}

// Error is a reportable condition with enough context to render a diagnostic.
type Error struct {
	Kind Kind

	// Location is the "Segment.Index" path of the node being decoded, e.g. "PID.3.1".
	Location string

	// Tag is the declared type name of the enclosing node.
	Tag string

	// Index is the 1-based position of the enclosing node within its parent.
	Index int

	// Char is the offending delimiter, zero when not applicable.
	Char byte

	// Value is the offending text, if any.
	Value string

	// Line is the full source line being processed.
	Line string

	// Err is the underlying cause.
	Err error
}

// Error renders the diagnostic for the condition.
func (e *Error) Error() string {
	msg := Format(e)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this condition's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

// New creates an Error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Condition is a condition that the gate did not raise.
type Condition struct {
	Severity Severity
	Err      *Error
}

// Gate is the single point every reportable condition passes through.
//
// When Silent is set the gate swallows conditions and the caller continues with
// an absent result. Otherwise Report returns the condition so it propagates.
// Warn is for conditions that are only fatal in Strict mode.
type Gate struct {
	Silent bool
	Strict bool

	mu         sync.Mutex
	conditions []Condition
}

// NewGate creates a gate.
func NewGate(silent, strict bool) *Gate {
	return &Gate{Silent: silent, Strict: strict}
}

// Report passes a condition through the gate. It returns nil when the
// condition was swallowed and the condition itself when it must propagate.
func (g *Gate) Report(e *Error) error {
	if e == nil {
		return nil
	}
	if g == nil {
		return e
	}
	if g.Silent {
		g.record(SeverityError, e)
		return nil
	}
	return e
}

// Warn reports a condition that is fatal only in strict mode.
func (g *Gate) Warn(e *Error) error {
	if e == nil {
		return nil
	}
	if g == nil {
		return nil
	}
	if g.Strict {
		return g.Report(e)
	}
	g.record(SeverityWarning, e)
	return nil
}

// Recovered records a raised condition that the caller handled locally.
func (g *Gate) Recovered(e *Error) {
	if g == nil || e == nil {
		return
	}
	g.record(SeverityWarning, e)
}

func (g *Gate) record(sev Severity, e *Error) {
	g.mu.Lock()
	g.conditions = append(g.conditions, Condition{Severity: sev, Err: e})
	g.mu.Unlock()
}

// Conditions returns the conditions recorded so far.
func (g *Gate) Conditions() []Condition {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Condition, len(g.conditions))
	copy(out, g.conditions)
	return out
}

// Reset clears recorded conditions.
func (g *Gate) Reset() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.conditions = g.conditions[:0]
	g.mu.Unlock()
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

package node

import (
	"strings"

	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pool"
)

// Segment is one named record. Each field slot is absent (nil), or holds one
// value, or holds the ordered repetitions of a repeatable field. Repetitions
// may contain nil entries for empty repetitions.
type Segment struct {
	base
	typ    *SegmentType
	fields [][]Value

	// width is the number of field positions present in the source.
	width int
}

// NewSegment creates an empty segment of the given type.
func NewSegment(t *SegmentType) *Segment {
	return &Segment{typ: t, fields: make([][]Value, len(t.Fields))}
}

// Tag returns the segment code.
func (s *Segment) Tag() string { return s.typ.Name }

// Kind returns KindSegment.
func (s *Segment) Kind() Kind { return KindSegment }

// Type returns the declared type.
func (s *Segment) Type() *SegmentType { return s.typ }

// Len returns the declared number of fields.
func (s *Segment) Len() int { return len(s.fields) }

// Width returns the number of field positions that will be encoded.
func (s *Segment) Width() int {
	w := s.width
	for i := len(s.fields) - 1; i >= w; i-- {
		if s.fields[i] != nil {
			return i + 1
		}
	}
	return w
}

// Repetitions returns every repetition of the 1-based field. It is nil when
// the field is absent.
func (s *Segment) Repetitions(n int) []Value {
	if n < 1 || n > len(s.fields) {
		return nil
	}
	return s.fields[n-1]
}

// Field returns the first repetition of the 1-based field.
func (s *Segment) Field(n int) Value {
	reps := s.Repetitions(n)
	if len(reps) == 0 {
		return nil
	}
	return reps[0]
}

// FieldText returns the text of the first repetition of the 1-based field.
func (s *Segment) FieldText(n int) string {
	if v := s.Field(n); v != nil {
		return v.Text()
	}
	return ""
}

// Component returns the text of component c of the first repetition of
// field n. Component 1 of a primitive field is the field's text.
func (s *Segment) Component(n, c int) string {
	switch v := s.Field(n).(type) {
	case *Composite:
		return v.ComponentText(c)
	case *Primitive:
		if c == 1 {
			return v.Text()
		}
	}
	return ""
}

// SetField sets the repetitions of the 1-based field. No values clears it.
func (s *Segment) SetField(n int, values ...Value) error {
	slot, ok := s.typ.Field(n)
	if !ok {
		e := issue.New(issue.KindExtraContent)
		e.Location = pool.Location(s.typ.Name, n)
		e.Tag, e.Index = s.typ.Name, n
		return e
	}
	if len(values) > 1 && !slot.Repeatable {
		e := issue.New(issue.KindUnexpectedRepetition)
		e.Location = pool.Location(s.typ.Name, n)
		e.Tag, e.Index = slot.Type, n
		return e
	}
	if len(values) == 0 {
		s.fields[n-1] = nil
		return nil
	}
	s.fields[n-1] = values
	return nil
}

// AddRepetition appends a repetition to the 1-based field.
func (s *Segment) AddRepetition(n int, v Value) error {
	return s.SetField(n, append(append([]Value(nil), s.Repetitions(n)...), v)...)
}

// SlotFactory returns the factory for the 1-based field, resolving dynamic
// types from the segment's current content.
func (s *Segment) SlotFactory(n int) (Slot, bool) {
	slot, ok := s.typ.Field(n)
	if !ok {
		return Slot{}, false
	}
	if slot.TypeFrom > 0 && s.typ.Resolve != nil {
		name := s.FieldText(slot.TypeFrom)
		if f, ok := s.typ.Resolve(name); ok && name != "" {
			slot.Type, slot.New = name, f
		}
	}
	if slot.New == nil {
		slot.New = Varies
	}
	return slot, true
}

// Decode reads a full segment line. Slots not present in the line are left
// unchanged, so decoding into a populated segment updates it.
func (s *Segment) Decode(ctx *Context, line string) error {
	line = strings.TrimRight(line, "\r\n")
	name := s.typ.Name
	s.bind(ctx, ctx.LineNumber)
	ctx.Push(name, ctx.LineNumber)
	defer ctx.Pop()

	if !strings.HasPrefix(line, name) {
		e := ctx.Errorf(issue.KindUnrecognizedTag)
		e.Tag, e.Value = name, line
		return ctx.Report(e)
	}
	rest := line[len(name):]
	if rest == "" {
		return nil
	}
	fsep := ctx.Delims.Field
	if rest[0] != fsep {
		e := ctx.Errorf(issue.KindExtraContent)
		e.Value = rest
		return ctx.Report(e)
	}
	rest = rest[1:]

	n := 1
	if s.typ.Header {
		// The separator itself is field 1; field 2 is the encoding characters,
		// which are never split or unescaped.
		s.setHeaderFields(ctx.Delims, rest)
		i := strings.IndexByte(rest, fsep)
		if i < 0 {
			return nil
		}
		rest, n = rest[i+1:], 3
	}

	start := 0
	for start <= len(rest) {
		end := start
		for end < len(rest) && rest[end] != fsep {
			end++
		}
		if n > len(s.fields) {
			extra := rest[max(start-1, 0):]
			if ctx.ignoreExtra() && ctx.Delims.OnlyDelimiters(extra) {
				break
			}
			e := ctx.Errorf(issue.KindExtraContent)
			e.Tag = name
			e.Value = extra
			if err := ctx.Report(e); err != nil {
				return err
			}
			break
		}
		if n > s.width {
			s.width = n
		}
		if end > start {
			if err := s.decodeField(ctx, n, rest[start:end]); err != nil {
				return err
			}
		}
		start = end + 1
		n++
	}
	return nil
}

// SetHeaderFields sets field 1 to the field separator and field 2 to the
// encoding characters, both kept verbatim.
func (s *Segment) SetHeaderFields(fieldSep byte, encodingChars string) {
	d := delim.Default()
	d.Field = fieldSep
	s.setHeaderFields(d, encodingChars)
}

func (s *Segment) setHeaderFields(d delim.Delimiters, rest string) {
	enc := rest
	if i := strings.IndexByte(rest, d.Field); i >= 0 {
		enc = rest[:i]
	}
	sep := NewPrimitive(headerPrimitive)
	sep.text, sep.raw = string(d.Field), true
	chars := NewPrimitive(headerPrimitive)
	chars.text, chars.raw = enc, true
	if len(s.fields) > 0 {
		s.fields[0] = []Value{sep}
	}
	if len(s.fields) > 1 {
		s.fields[1] = []Value{chars}
	}
	s.width = max(s.width, 2)
}

// headerPrimitive types MSH-1 and MSH-2.
var headerPrimitive = &PrimitiveType{Name: "ST", Complex: true}

func (s *Segment) decodeField(ctx *Context, n int, token string) error {
	slot, _ := s.SlotFactory(n)
	d := ctx.Delims

	if !slot.Repeatable {
		if i := strings.IndexByte(token, d.Repetition); i >= 0 && !delim.IsNull(token) {
			extra := token[i:]
			if ctx.ignoreExtra() && d.OnlyDelimiters(extra) {
				token = token[:i]
			} else {
				ctx.Push(slot.Type, n)
				e := ctx.Errorf(issue.KindUnexpectedRepetition)
				e.Value = token
				ctx.Pop()
				return ctx.Report(e)
			}
			if token == "" {
				return nil
			}
		}
	}

	reps := pool.Split(token, d.Repetition)
	defer pool.ReleaseStringSlice(reps)

	values := make([]Value, len(*reps))
	present := false
	for r, chunk := range *reps {
		if chunk == "" {
			continue
		}
		v := slot.New()
		ctx.PushRepetition(slot.Type, n, r+1)
		ok, err := v.decode(ctx, chunk, LevelField, n)
		ctx.Pop()
		if err != nil {
			return err
		}
		if ok {
			values[r] = v
			present = true
		}
	}
	if present || len(values) > 1 {
		s.fields[n-1] = values
	}
	return nil
}

// Encode renders the segment line without a terminator.
func (s *Segment) Encode(d delim.Delimiters) string {
	bp := pool.AcquireByteSlice()
	defer pool.ReleaseByteSlice(bp)

	buf := append(*bp, s.typ.Name...)
	w := s.Width()
	n := 1
	if s.typ.Header {
		buf = append(buf, d.Field)
		buf = append(buf, s.encodingCharacters(d)...)
		n = 3
	}
	for ; n <= w; n++ {
		buf = append(buf, d.Field)
		for r, v := range s.fields[n-1] {
			if r > 0 {
				buf = append(buf, d.Repetition)
			}
			if v != nil {
				buf = v.appendTo(buf, d, LevelField)
			}
		}
	}
	*bp = buf
	return string(buf)
}

// encodingCharacters keeps the decoded MSH-2 when it is consistent with d,
// which preserves any characters beyond the standard four.
func (s *Segment) encodingCharacters(d delim.Delimiters) string {
	want := d.EncodingCharacters()
	if got := s.FieldText(2); strings.HasPrefix(got, want) {
		return got
	}
	return want
}

// Apply merges update into s: absent fields leave s unchanged, explicit null
// clears the field, any other value replaces it.
func (s *Segment) Apply(update *Segment) error {
	if update.typ.Name != s.typ.Name {
		e := issue.New(issue.KindUnrecognizedTag)
		e.Tag, e.Value = update.typ.Name, s.typ.Name
		return e
	}
	for i, reps := range update.fields {
		if reps == nil || i >= len(s.fields) {
			continue
		}
		if len(reps) == 1 && reps[0] != nil && reps[0].IsNull() {
			s.fields[i] = nil
			continue
		}
		cp := make([]Value, len(reps))
		for r, v := range reps {
			cp[r] = cloneValue(v)
		}
		s.fields[i] = cp
		s.width = max(s.width, i+1)
	}
	return nil
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() Node {
	cp := &Segment{base: s.base, typ: s.typ, width: s.width}
	cp.fields = make([][]Value, len(s.fields))
	for i, reps := range s.fields {
		if reps == nil {
			continue
		}
		cp.fields[i] = make([]Value, len(reps))
		for r, v := range reps {
			cp.fields[i][r] = cloneValue(v)
		}
	}
	return cp
}

// Equal compares the segment code and every field repetition.
func (s *Segment) Equal(other Node) bool {
	o, ok := other.(*Segment)
	if !ok || o == nil || s.typ.Name != o.typ.Name {
		return false
	}
	n := max(len(s.fields), len(o.fields))
	for i := 1; i <= n; i++ {
		a, b := s.Repetitions(i), o.Repetitions(i)
		if len(a) != len(b) {
			return false
		}
		for r := range a {
			if !equalValues(a[r], b[r]) {
				return false
			}
		}
	}
	return true
}

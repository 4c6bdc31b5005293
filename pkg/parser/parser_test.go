package parser

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/tree"
)

const adt23 = "MSH|^~\\&|APP|FAC|||20230101120000||ADT^A01|MSG001|P|2.3\rPID|1||12345^^^MRN"

const oru25 = "MSH|^~\\&|LAB|HOSP|||20240315083000||ORU^R01^ORU_R01|LAB42|P|2.5\r" +
	"PID|1||555^^^MRN||DOE^JANE\r" +
	"PV1|1|O\r" +
	"OBR|1||ORD1|CBC\r" +
	"OBX|1|NM|WBC||7.2|10*3/uL\r" +
	"OBX|2|CE|ABO||A^Type A^LN\r" +
	"OBR|2||ORD2|BMP\r" +
	"OBX|1|TX|NOTE||free text"

func segment(t *testing.T, doc *Document, name string) *node.Segment {
	t.Helper()
	s := doc.Segment(name)
	if s == nil {
		t.Fatalf("segment %s not found", name)
	}
	return s
}

func TestParseEndToEnd(t *testing.T) {
	p := New(hl7v2.LaxPreset()...)
	doc, err := p.ParseString(adt23)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	msh := segment(t, doc, "MSH")
	fields := []struct {
		n    int
		want string
	}{
		{3, "APP"},
		{4, "FAC"},
		{10, "MSG001"},
		{11, "P"},
		{12, "2.3"},
	}
	for _, f := range fields {
		if got := msh.FieldText(f.n); got != f.want {
			t.Errorf("MSH-%d = %q; want %q", f.n, got, f.want)
		}
	}

	ts, prec, ok := doc.Timestamp()
	if !ok || !ts.Equal(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)) || prec != node.PrecisionSecond {
		t.Errorf("Timestamp() = %v, %v, %v; want 2023-01-01T12:00:00Z at second precision", ts, prec, ok)
	}

	msgType, isComposite := msh.Field(9).(*node.Composite)
	if !isComposite {
		t.Fatalf("MSH-9 = %T; want *node.Composite", msh.Field(9))
	}
	if msgType.Len() != 2 {
		t.Errorf("MSH-9 slots = %d; want 2", msgType.Len())
	}
	if doc.MessageType() != "ADT^A01" {
		t.Errorf("MessageType() = %q; want ADT^A01", doc.MessageType())
	}

	pid := segment(t, doc, "PID")
	cx, isComposite := pid.Field(3).(*node.Composite)
	if !isComposite {
		t.Fatalf("PID-3 = %T; want *node.Composite", pid.Field(3))
	}
	want := []string{"12345", "", "", "MRN"}
	if cx.Width() != len(want) {
		t.Errorf("PID-3 width = %d; want %d", cx.Width(), len(want))
	}
	for i, w := range want {
		if got := cx.ComponentText(i + 1); got != w {
			t.Errorf("PID-3.%d = %q; want %q", i+1, got, w)
		}
	}

	if doc.Version() != "2.3" || doc.Result.Structure != "ADT_A01" {
		t.Errorf("version, structure = %q, %q; want 2.3, ADT_A01", doc.Version(), doc.Result.Structure)
	}

	out, err := p.Encode(doc.Tree)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if out != adt23+"\r" {
		t.Errorf("Encode() = %q; want %q", out, adt23+"\r")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"adt 2.3", adt23},
		{"oru 2.5", oru25},
		{"trailing empty fields", "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5|||\rPID|1||X^^^MRN^^||||||"},
		{"repetitions", "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rPID|1||A~B^^^MRN~~C"},
		{"escapes", "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rNTE|1||x\\F\\y\\S\\z\\T\\w\\R\\v\\E\\u"},
		{"explicit null", "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rPID|1||\"\"|\"\""},
		{"z segment", "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rZPI|anything^goes|x~y"},
		{"custom delimiters", "MSH#*!%$#A#B#####ADT*A01#1#P#2.5\rPID#1##X!Y***MRN"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := p.ParseString(tt.msg)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}
			out, err := p.Encode(doc.Tree)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if out != tt.msg+"\r" {
				t.Errorf("Encode() = %q; want %q", out, tt.msg+"\r")
			}
		})
	}
}

func TestDelimiterEscapes(t *testing.T) {
	p := New()
	doc, err := p.ParseString("MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rNTE|1||a\\F\\b\\S\\c\\T\\d\\R\\e\\E\\f")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	nte := segment(t, doc, "NTE")
	if got, want := nte.FieldText(3), "a|b^c&d~e\\f"; got != want {
		t.Errorf("NTE-3 = %q; want %q", got, want)
	}
	if got, want := p.EncodeSegment(nte), "NTE|1||a\\F\\b\\S\\c\\T\\d\\R\\e\\E\\f"; got != want {
		t.Errorf("EncodeSegment() = %q; want %q", got, want)
	}
}

func TestNullVersusAbsent(t *testing.T) {
	doc, err := New().ParseString("MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rPID|1||\"\"||X")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	pid := segment(t, doc, "PID")
	if v := pid.Field(3); v == nil || !v.IsNull() {
		t.Errorf("PID-3 = %v; want explicit null", v)
	}
	if v := pid.Field(4); v != nil {
		t.Errorf("PID-4 = %v; want absent", v)
	}

	// Applying the parsed segment as an update clears PID-3 and keeps PID-2.
	target := pid.Clone().(*node.Segment)
	if err := target.SetField(2, pid.Field(5)); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if err := target.Apply(pid); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if target.Field(3) != nil {
		t.Errorf("PID-3 after Apply = %v; want cleared", target.Field(3))
	}
	if target.FieldText(2) != "X" {
		t.Errorf("PID-2 after Apply = %q; want X", target.FieldText(2))
	}
}

func TestLenientRecovery(t *testing.T) {
	msg := "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rZZZ|raw^data|x\rPID|1"

	t.Run("lenient", func(t *testing.T) {
		p := New(hl7v2.LaxPreset()...)
		doc, err := p.ParseString(msg)
		if err != nil {
			t.Fatalf("ParseString() error = %v", err)
		}
		n := doc.Tree.FindByTag("ZZZ")
		if n == nil {
			t.Fatal("ZZZ not found")
		}
		u, ok := n.Value().(*node.Unrecognized)
		if !ok {
			t.Fatalf("ZZZ = %T; want *node.Unrecognized", n.Value())
		}
		if got := p.EncodeSegment(u); got != "ZZZ|raw^data|x" {
			t.Errorf("EncodeSegment() = %q; want verbatim line", got)
		}
	})

	t.Run("strict", func(t *testing.T) {
		_, err := New(hl7v2.StrictPreset()...).ParseString(msg)
		if !errors.Is(err, issue.ErrUnrecognizedTag) {
			t.Fatalf("ParseString() error = %v; want ErrUnrecognizedTag", err)
		}
		e, ok := issue.As(err)
		if !ok || e.Tag != "ZZZ" {
			t.Errorf("error = %+v; want tag ZZZ", e)
		}
	})
}

func TestDecodeFailure(t *testing.T) {
	msg := "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rPID|1^2|X\rPV1|1"

	t.Run("recovered", func(t *testing.T) {
		p := New()
		doc, err := p.ParseString(msg)
		if err != nil {
			t.Fatalf("ParseString() error = %v", err)
		}
		n := doc.Tree.FindByTag("PID")
		if n == nil || n.Kind() != node.KindUnrecognized {
			t.Fatalf("PID = %v; want catch-all", n)
		}
		u := n.Value().(*node.Unrecognized)
		if !errors.Is(u.Cause, issue.ErrUnexpectedDelimiter) {
			t.Errorf("Cause = %v; want ErrUnexpectedDelimiter", u.Cause)
		}
		if doc.Result.Recovered != 1 {
			t.Errorf("Recovered = %d; want 1", doc.Result.Recovered)
		}
		warnings := doc.Result.Warnings()
		if len(warnings) != 1 || warnings[0].Location != "PID.1" {
			t.Errorf("warnings = %+v; want one at PID.1", warnings)
		}
		out, _ := p.Encode(doc.Tree)
		if out != msg+"\r" {
			t.Errorf("Encode() = %q; want %q", out, msg+"\r")
		}
	})

	t.Run("silent", func(t *testing.T) {
		doc, err := New(hl7v2.WithSilent(true)).ParseString(msg)
		if err != nil {
			t.Fatalf("ParseString() error = %v", err)
		}
		pid := segment(t, doc, "PID")
		if pid.Field(1) != nil {
			t.Errorf("PID-1 = %v; want absent", pid.Field(1))
		}
		if pid.FieldText(2) != "X" {
			t.Errorf("PID-2 = %q; want X", pid.FieldText(2))
		}
		if doc.Result.Valid || doc.Result.ErrorCount() != 1 {
			t.Errorf("Valid, errors = %v, %d; want false, 1", doc.Result.Valid, doc.Result.ErrorCount())
		}
	})

	t.Run("strict", func(t *testing.T) {
		_, err := New(hl7v2.StrictPreset()...).ParseString(msg)
		if !errors.Is(err, issue.ErrUnexpectedDelimiter) {
			t.Fatalf("ParseString() error = %v; want ErrUnexpectedDelimiter", err)
		}
	})

	t.Run("no recover", func(t *testing.T) {
		_, err := New(hl7v2.WithRecover(false)).ParseString(msg)
		if !errors.Is(err, issue.ErrUnexpectedDelimiter) {
			t.Fatalf("ParseString() error = %v; want ErrUnexpectedDelimiter", err)
		}
	})
}

func tags(nodes []*tree.Node) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Tag()
	}
	return strings.Join(out, ",")
}

func TestGroupPlacement(t *testing.T) {
	doc, err := New().ParseString(oru25)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	root := doc.Tree
	if got := tags(root.Children()); got != "MSH,ORU_R01.PATIENT_RESULT" {
		t.Fatalf("root children = %s", got)
	}
	pr := root.Child(1)
	if got := tags(pr.Children()); got != "ORU_R01.PATIENT,ORU_R01.ORDER_OBSERVATION,ORU_R01.ORDER_OBSERVATION" {
		t.Errorf("PATIENT_RESULT children = %s", got)
	}
	if got := tags(pr.Child(0).Children()); got != "PID,ORU_R01.VISIT" {
		t.Errorf("PATIENT children = %s", got)
	}
	if got := tags(pr.Child(1).Children()); got != "OBR,ORU_R01.OBSERVATION,ORU_R01.OBSERVATION" {
		t.Errorf("first ORDER_OBSERVATION children = %s", got)
	}
	if got := tags(pr.Child(2).Children()); got != "OBR,ORU_R01.OBSERVATION" {
		t.Errorf("second ORDER_OBSERVATION children = %s", got)
	}
	if len(doc.Result.Issues) != 0 {
		t.Errorf("issues = %v; want none", doc.Result.Issues)
	}

	flat := root.FlattenToSegments()
	if got := tags(flat.Children()); got != "MSH,PID,PV1,OBR,OBX,OBX,OBR,OBX" {
		t.Errorf("flattened = %s", got)
	}
}

func TestUnexpectedSegment(t *testing.T) {
	msg := "MSH|^~\\&|A|B|||||ACK|1|P|2.5\rMSA|AA|1\rPID|1"

	doc, err := New(hl7v2.LaxPreset()...).ParseString(msg)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := tags(doc.Tree.Children()); got != "MSH,MSA,PID" {
		t.Errorf("children = %s; want MSH,MSA,PID", got)
	}
	warnings := doc.Result.Warnings()
	if len(warnings) != 1 || warnings[0].Code != issue.KindUnexpectedSegment {
		t.Errorf("warnings = %+v; want one unexpected segment", warnings)
	}

	_, err = New(hl7v2.StrictPreset()...).ParseString(msg)
	if !errors.Is(err, issue.ErrUnexpectedSegment) {
		t.Errorf("strict ParseString() error = %v; want ErrUnexpectedSegment", err)
	}
}

func TestObservationValueTyping(t *testing.T) {
	doc, err := New().ParseString(oru25)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	obx := doc.Tree.FindAllByTag("OBX")
	if len(obx) != 3 {
		t.Fatalf("OBX count = %d; want 3", len(obx))
	}

	nm := obx[0].Value().(*node.Segment).Field(5)
	if p, ok := nm.(*node.Primitive); !ok || p.Tag() != "NM" {
		t.Fatalf("OBX-5 = %T %v; want NM primitive", nm, nm)
	}
	if d, ok := nm.(*node.Primitive).Decimal(); !ok || d.String() != "7.2" {
		t.Errorf("OBX-5 decimal = %v, %v; want 7.2", d, ok)
	}

	ce := obx[1].Value().(*node.Segment)
	if got := ce.Component(5, 2); got != "Type A" {
		t.Errorf("OBX-5.2 = %q; want Type A", got)
	}
	if ce.Field(5).Tag() != "CE" {
		t.Errorf("OBX-5 tag = %q; want CE", ce.Field(5).Tag())
	}
}

func TestContinuationAndFilter(t *testing.T) {
	msg := "MSH|^~\\&|A|B|||||ORU^R01|1|P|2.5\nPID|1\nOBX|1|TX|NOTE||\nADD|abc\nNTE|1||n"

	doc, err := New().ParseString(msg)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := segment(t, doc, "OBX").FieldText(5); got != "abc" {
		t.Errorf("OBX-5 = %q; want abc", got)
	}

	doc, err = New(hl7v2.WithSegmentFilter("OBX")).ParseString(msg)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := tags(doc.Tree.FlattenToSegments().Children()); got != "MSH,OBX" {
		t.Errorf("filtered = %s; want MSH,OBX", got)
	}
}

func TestVersionSelection(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		composite string
		slots     int
	}{
		{"2.3 message type", "2.3", "CM_MSG", 2},
		{"2.5 message type", "2.5", "MSG", 3},
		{"unknown falls back", "9.9", "MSG", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().ParseString("MSH|^~\\&|A|B|||||ADT^A01|1|P|" + tt.version)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}
			c, ok := segment(t, doc, "MSH").Field(9).(*node.Composite)
			if !ok {
				t.Fatal("MSH-9 is not a composite")
			}
			if c.Tag() != tt.composite || c.Len() != tt.slots {
				t.Errorf("MSH-9 = %s/%d; want %s/%d", c.Tag(), c.Len(), tt.composite, tt.slots)
			}
		})
	}
}

func TestVersionWithCustomDelimiters(t *testing.T) {
	doc, err := New().ParseString("MSH#*!%$#A#B#####ADT*A01#1#P#2.3*USA")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := doc.Version(); got != "2.3" {
		t.Errorf("Version() = %q; want 2.3", got)
	}
	if got := segment(t, doc, "MSH").Field(9).Tag(); got != "CM_MSG" {
		t.Errorf("MSH-9 type = %s; want CM_MSG", got)
	}
}

func TestEncodeAndRender(t *testing.T) {
	doc, err := New().ParseString(adt23)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	lines := strings.Split(adt23, "\r")

	out, err := New(hl7v2.WithSegmentTerminator("\r\n")).Encode(doc.Tree)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := strings.Join(lines, "\r\n") + "\r\n"; out != want {
		t.Errorf("Encode() = %q; want %q", out, want)
	}

	doc.Tree.SetSegmentDelimiter("\n")
	out, err = New().Render(doc.Tree)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := strings.Join(lines, "\n"); out != want {
		t.Errorf("Render() = %q; want %q", out, want)
	}

	if _, err := New().Encode(nil); !errors.Is(err, ErrNilTree) {
		t.Errorf("Encode(nil) error = %v; want ErrNilTree", err)
	}
}

func TestReclassify(t *testing.T) {
	msg := "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\rPID|1^2|X"
	doc, err := New().ParseString(msg)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if doc.Tree.FindByTag("PID").Kind() != node.KindUnrecognized {
		t.Fatal("PID was not recovered")
	}

	n, err := New(hl7v2.WithAllowComplex(true)).Reclassify(doc.Tree)
	if err != nil {
		t.Fatalf("Reclassify() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Reclassify() = %d; want 1", n)
	}
	pid := segment(t, doc, "PID")
	if pid.FieldText(1) != "1^2" || pid.FieldText(2) != "X" {
		t.Errorf("PID = %q, %q; want 1^2, X", pid.FieldText(1), pid.FieldText(2))
	}

	// Still undecodable with the original options: left alone.
	doc, _ = New().ParseString(msg)
	if n, err := New().Reclassify(doc.Tree); err != nil || n != 0 {
		t.Errorf("Reclassify() = %d, %v; want 0, nil", n, err)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, in := range []string{"", "\r\n\r\n", "   "} {
		if _, err := New().ParseString(in); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("ParseString(%q) error = %v; want ErrEmptyMessage", in, err)
		}
	}
}

func TestMalformedHeader(t *testing.T) {
	_, err := New().ParseString("MSH|^^\rPID|1")
	if !errors.Is(err, issue.ErrMalformedHeader) {
		t.Errorf("ParseString() error = %v; want ErrMalformedHeader", err)
	}

	doc, err := New(hl7v2.WithSilent(true)).ParseString("MSH|^^\rPID|1")
	if err != nil {
		t.Fatalf("silent ParseString() error = %v", err)
	}
	if doc.Result.Valid {
		t.Error("Valid = true; want false")
	}
}

func TestMetrics(t *testing.T) {
	m := hl7v2.NewMetrics()
	p := New().WithMetrics(m)

	if _, err := p.ParseString(oru25); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if _, err := p.ParseString(""); err == nil {
		t.Fatal("ParseString(\"\") error = nil")
	}

	if m.ParsesTotal() != 2 || m.ParsesFailed() != 1 {
		t.Errorf("parses = %d/%d failed; want 2/1", m.ParsesTotal(), m.ParsesFailed())
	}
	if m.SegmentsTotal() != 8 {
		t.Errorf("SegmentsTotal() = %d; want 8", m.SegmentsTotal())
	}
}

func TestConcurrentParse(t *testing.T) {
	p := New(hl7v2.LaxPreset()...)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := p.ParseString(oru25)
			if err != nil {
				errs <- err
				return
			}
			out, err := p.Encode(doc.Tree)
			if err != nil {
				errs <- err
				return
			}
			if out != oru25+"\r" {
				errs <- errors.New("round trip mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkParse(b *testing.B) {
	p := New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := p.ParseString(oru25); err != nil {
			b.Fatal(err)
		}
	}
}

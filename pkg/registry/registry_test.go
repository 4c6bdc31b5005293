package registry

import (
	"errors"
	"testing"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/issue"
	"github.com/gofhir/hl7v2/pkg/node"
)

func TestLookup(t *testing.T) {
	r := New("2.5", Standard())

	tests := []struct {
		tag  string
		kind node.Kind
	}{
		{"PID", node.KindSegment},
		{"CX", node.KindComposite},
		{"NM", node.KindPrimitive},
		{"ORU_R01", node.KindMessage},
		{"ORU_R01.PATIENT_RESULT", node.KindGroup},
		{"ORU_R01.OBSERVATION", node.KindGroup},
	}

	for _, tt := range tests {
		e, ok := r.Lookup(tt.tag)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.tag)
			continue
		}
		if e.Kind != tt.kind || e.Name != tt.tag {
			t.Errorf("Lookup(%q) = %s %q; want %s", tt.tag, e.Kind, e.Name, tt.kind)
		}
	}

	if _, ok := r.Lookup("ZZZ"); ok {
		t.Error("Lookup(ZZZ) should not be found")
	}
}

func TestResolve(t *testing.T) {
	r := New("2.5", Standard())

	tests := []struct {
		name      string
		opts      []hl7v2.Option
		tag       string
		wantFound bool
		wantCatch bool
		wantErr   error
	}{
		{"known", nil, "PID", true, false, nil},
		{"lenient catch-all", nil, "ZPI", true, true, nil},
		{"lenient ambiguous", nil, "ADT_A99.FOO", false, false, issue.ErrAmbiguousType},
		{"strict unrecognized", []hl7v2.Option{hl7v2.WithStrict(true)}, "ZPI", false, false, issue.ErrUnrecognizedTag},
		{"strict silent", []hl7v2.Option{hl7v2.WithStrict(true), hl7v2.WithSilent(true)}, "ZPI", false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := node.NewContext(hl7v2.NewOptions(tt.opts...), nil)
			e, err := r.Resolve(ctx, tt.tag)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("Resolve(%q) error = %v; want %v", tt.tag, err, tt.wantErr)
			}
			if e.Found() != tt.wantFound || e.CatchAll() != tt.wantCatch {
				t.Errorf("Resolve(%q) = found %v catch-all %v; want %v, %v",
					tt.tag, e.Found(), e.CatchAll(), tt.wantFound, tt.wantCatch)
			}
		})
	}
}

func TestVersionedMessageType(t *testing.T) {
	tests := []struct {
		version string
		msh9    string
		arity   int
		msh7    string
	}{
		{"2.3", "CM_MSG", 2, "TS"},
		{"2.5", "MSG", 3, "TS"},
		{"2.7", "MSG", 3, "DTM"},
	}

	for _, tt := range tests {
		r := New(tt.version, Standard())
		msh, ok := r.Segment("MSH")
		if !ok {
			t.Fatalf("%s: MSH not registered", tt.version)
		}
		slot, _ := msh.Field(9)
		if slot.Type != tt.msh9 {
			t.Errorf("%s: MSH-9 type = %q; want %q", tt.version, slot.Type, tt.msh9)
		}
		c, ok := slot.New().(*node.Composite)
		if !ok {
			t.Fatalf("%s: MSH-9 is %T; want *node.Composite", tt.version, slot.New())
		}
		if c.Len() != tt.arity {
			t.Errorf("%s: MSH-9 arity = %d; want %d", tt.version, c.Len(), tt.arity)
		}
		ts, _ := msh.Field(7)
		if ts.Type != tt.msh7 {
			t.Errorf("%s: MSH-7 type = %q; want %q", tt.version, ts.Type, tt.msh7)
		}
		if !msh.Header {
			t.Errorf("%s: MSH must be a header segment", tt.version)
		}
	}
}

func TestVersionedERR(t *testing.T) {
	old, _ := New("2.4", Standard()).Segment("ERR")
	cur, _ := New("2.5", Standard()).Segment("ERR")
	if len(old.Fields) != 1 || len(cur.Fields) != 12 {
		t.Errorf("ERR fields = %d, %d; want 1, 12", len(old.Fields), len(cur.Fields))
	}
}

func TestStructure(t *testing.T) {
	r := New("2.5", Standard())

	tests := []struct {
		msgType, trigger, structure string
		want                        string
		open                        bool
	}{
		{"ADT", "A01", "ADT_A01", "ADT_A01", false},
		{"ADT", "A04", "", "ADT_A01", false},
		{"ORU", "R01", "", "ORU_R01", false},
		{"ACK", "A01", "", "ACK", false},
		{"ADT", "A04", "ORU_R01", "ORU_R01", false},
		{"ZZZ", "Z01", "", "ZZZ_Z01", true},
		{"", "", "", "UNKNOWN", true},
	}

	for _, tt := range tests {
		g := r.Structure(tt.msgType, tt.trigger, tt.structure)
		if g.Name != tt.want || g.Open != tt.open {
			t.Errorf("Structure(%q, %q, %q) = %q open=%v; want %q open=%v",
				tt.msgType, tt.trigger, tt.structure, g.Name, g.Open, tt.want, tt.open)
		}
	}
}

func TestOBXResolvesValueType(t *testing.T) {
	r := New("2.5", Standard())
	obx, _ := r.Segment("OBX")
	slot, _ := obx.Field(5)
	if slot.TypeFrom != 2 || obx.Resolve == nil {
		t.Fatal("OBX-5 should take its type from OBX-2")
	}
	f, ok := obx.Resolve("CE")
	if !ok {
		t.Fatal("Resolve(CE) not found")
	}
	if f().Tag() != "CE" {
		t.Errorf("Resolve(CE) tag = %q", f().Tag())
	}
}

func TestDefinitionsAdd(t *testing.T) {
	defs := Standard()
	defs.AddComposite("ZCX", F("Code", "ST"), F("Weight", "NM"))
	defs.AddSegment("ZPI", F("Set ID", "SI"), R("Code", "ZCX"))
	defs.AddStructure("ZPI_Z01", []MemberDef{Seg("MSH"), Rep("ZPI")}, "ZPI^Z02")

	r := New("2.5", defs)
	seg, ok := r.Segment("ZPI")
	if !ok {
		t.Fatal("ZPI not registered")
	}
	slot, _ := seg.Field(2)
	if !slot.Repeatable || slot.New().Tag() != "ZCX" {
		t.Errorf("ZPI-2 = %+v", slot)
	}
	if g := r.Structure("ZPI", "Z02", ""); g.Name != "ZPI_Z01" {
		t.Errorf("alias resolved to %q; want ZPI_Z01", g.Name)
	}

	if _, ok := New("2.5", Standard()).Segment("ZPI"); ok {
		t.Error("Standard() must return an independent copy")
	}
}

func TestZeroFieldDefinitions(t *testing.T) {
	defs := Standard()
	defs.AddSegment("ZZP")
	defs.AddComposite("ZEM")
	r := New("2.5", defs)

	seg, ok := r.Segment("ZZP")
	if !ok {
		t.Fatal("ZZP not registered")
	}

	tests := []struct {
		name    string
		line    string
		opts    []hl7v2.Option
		wantErr error
	}{
		{"no fields", "ZZP", nil, nil},
		{"content reported", "ZZP|a", nil, issue.ErrExtraContent},
		{"padding ignored", "ZZP|||", []hl7v2.Option{hl7v2.WithIgnoreExtra(true)}, nil},
		{"silent discards", "ZZP|a", []hl7v2.Option{hl7v2.WithSilent(true)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := node.NewContext(hl7v2.NewOptions(tt.opts...), nil)
			ctx.BeginSegment(tt.line, 2)
			err := node.NewSegment(seg).Decode(ctx, tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%q) error = %v; want %v", tt.line, err, tt.wantErr)
			}
		})
	}

	e, ok := r.Lookup("ZEM")
	if !ok {
		t.Fatal("ZEM not registered")
	}
	f, _ := e.Factory()
	ctx := node.NewContext(hl7v2.NewOptions(), nil)
	if _, err := node.Decode(ctx, f(), "x^y", node.LevelField); !errors.Is(err, issue.ErrExtraContent) {
		t.Errorf("Decode() of zero-component composite error = %v; want ErrExtraContent", err)
	}
}

func TestForVersionFreezes(t *testing.T) {
	r1 := ForVersion("2.5.1")
	r2 := ForVersion("2.5.1")
	if r1 != r2 {
		t.Error("ForVersion() must return the same registry")
	}
	if ForVersion("bogus").Version() != "2.5" {
		t.Error("unknown versions should use the 2.5 tables")
	}
	if err := RegisterSegment("ZZ1", F("Set ID", "SI")); !errors.Is(err, ErrFrozen) {
		t.Errorf("RegisterSegment() after first use = %v; want ErrFrozen", err)
	}
}

func TestSegmentNames(t *testing.T) {
	names := New("2.5", Standard()).SegmentNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("SegmentNames() not sorted at %q", names[i])
		}
	}
	if len(names) < 20 {
		t.Errorf("SegmentNames() = %d names; want at least 20", len(names))
	}
}

func BenchmarkNew(b *testing.B) {
	defs := Standard()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = New("2.5", defs)
	}
}

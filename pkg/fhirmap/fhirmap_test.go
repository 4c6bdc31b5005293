package fhirmap

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/parser"
)

const oru = "MSH|^~\\&|LAB|HOSP|||20240102030405||ORU^R01|MSG1|P|2.5\r" +
	"PID|1||12345^^^HOSP&1.2.3&ISO^MR~999^^^^SS||Doe^John^Q||19800115|M|||1 Main St^^Springfield^IL^62701^USA||555-1234\r" +
	"OBR|1\r" +
	"OBX|1|NM|8867-4^Heart rate^LN||72|/min^per minute^UCUM|60-100|N|||F\r" +
	"OBX|2|CE|30954-2^Findings^LN||N^Normal^HL70078||||||F\r" +
	"OBX|3|ST|X^Y||free text||||||P\r"

func parse(t *testing.T, msg string) *parser.Document {
	t.Helper()
	doc, err := parser.New(hl7v2.LaxPreset()...).ParseString(msg)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

// roundTrip re-reads a resource through JSON so assertions see the shapes
// FHIRPath evaluation sees.
func roundTrip(t *testing.T, r Resource) map[string]any {
	t.Helper()
	b, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return out
}

func path(v any, keys ...any) any {
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			s, ok := v.([]any)
			if !ok || key >= len(s) {
				return nil
			}
			v = s[key]
		}
	}
	return v
}

func TestCodeSystemURI(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"LN", "http://loinc.org"},
		{"sct", "http://snomed.info/sct"},
		{"HL70078", "http://terminology.hl7.org/CodeSystem/v2-0078"},
		{"LOCAL", "LOCAL"},
		{" ", ""},
	}
	for _, tt := range tests {
		if got := CodeSystemURI(tt.name); got != tt.want {
			t.Errorf("CodeSystemURI(%q) = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestSystem(t *testing.T) {
	doc := parse(t, "MSH|^~\\&|A|B|||||ADT^A01|1|P|2.5\r"+
		"PID|1||a^^^NS~b^^^NS&2.16.840&ISO~c^^^&ABC-DEF&UUID~d^^^&http://x.org/ids&URI")
	pid := doc.Segment("PID")
	want := []string{"NS", "urn:oid:2.16.840", "urn:uuid:abc-def", "http://x.org/ids"}
	reps := pid.Repetitions(3)
	if len(reps) != len(want) {
		t.Fatalf("PID-3 repetitions = %d; want %d", len(reps), len(want))
	}
	for i, cx := range reps {
		if got := System(component(cx, 4)); got != want[i] {
			t.Errorf("System(rep %d) = %q; want %q", i, got, want[i])
		}
	}
	if System(nil) != "" {
		t.Error("System(nil) should be empty")
	}
}

func TestCodeableConcept(t *testing.T) {
	doc := parse(t, "MSH|^~\\&|A|B|||||ORU^R01|1|P|2.5\r"+
		"OBX|1|ST|1234-5^Glucose^LN^GLU^Glucose local^99LAB||x")
	cc := CodeableConcept(doc.Segment("OBX").Field(3))
	if cc == nil || len(cc.Coding) != 2 {
		t.Fatalf("CodeableConcept() = %+v; want two codings", cc)
	}
	if *cc.Coding[0].System != "http://loinc.org" || *cc.Coding[0].Code != "1234-5" {
		t.Errorf("primary coding = %s|%s", *cc.Coding[0].System, *cc.Coding[0].Code)
	}
	if *cc.Coding[1].System != "99LAB" || *cc.Coding[1].Code != "GLU" {
		t.Errorf("alternate coding = %s|%s", *cc.Coding[1].System, *cc.Coding[1].Code)
	}
	if cc.Text == nil || *cc.Text != "Glucose" {
		t.Errorf("Text = %v; want Glucose", cc.Text)
	}
	if CodeableConcept(nil) != nil {
		t.Error("CodeableConcept(nil) should be nil")
	}
}

func TestFormatDateTime(t *testing.T) {
	when := time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)
	tests := []struct {
		prec node.Precision
		want string
	}{
		{node.PrecisionYear, "2024"},
		{node.PrecisionMonth, "2024-03"},
		{node.PrecisionDay, "2024-03-05"},
		{node.PrecisionMinute, "2024-03-05T14:30:00Z"},
		{node.PrecisionSecond, "2024-03-05T14:30:15Z"},
	}
	for _, tt := range tests {
		if got := formatDateTime(when, tt.prec); got != tt.want {
			t.Errorf("formatDateTime(%d) = %q; want %q", tt.prec, got, tt.want)
		}
	}
}

func TestPatient(t *testing.T) {
	doc := parse(t, oru)
	p := roundTrip(t, Patient(doc.Segment("PID")))

	checks := []struct {
		keys []any
		want any
	}{
		{[]any{"resourceType"}, "Patient"},
		{[]any{"id"}, "12345"},
		{[]any{"identifier", 0, "value"}, "12345"},
		{[]any{"identifier", 0, "system"}, "urn:oid:1.2.3"},
		{[]any{"identifier", 0, "type", "coding", 0, "code"}, "MR"},
		{[]any{"identifier", 1, "value"}, "999"},
		{[]any{"identifier", 1, "type", "coding", 0, "code"}, "SS"},
		{[]any{"name", 0, "family"}, "Doe"},
		{[]any{"name", 0, "given", 1}, "Q"},
		{[]any{"birthDate"}, "1980-01-15"},
		{[]any{"gender"}, "male"},
		{[]any{"address", 0, "line", 0}, "1 Main St"},
		{[]any{"address", 0, "city"}, "Springfield"},
		{[]any{"address", 0, "postalCode"}, "62701"},
		{[]any{"telecom", 0, "value"}, "555-1234"},
		{[]any{"telecom", 0, "use"}, "home"},
	}
	for _, c := range checks {
		if got := path(p, c.keys...); got != c.want {
			t.Errorf("Patient%v = %v; want %v", c.keys, got, c.want)
		}
	}
	if _, ok := p["identifier"].([]any)[1].(map[string]any)["system"]; ok {
		t.Error("identifier without assigning authority should have no system")
	}
}

func TestObservation(t *testing.T) {
	doc := parse(t, oru)
	obx := doc.Tree.FindAllByTag("OBX")
	if len(obx) != 3 {
		t.Fatalf("OBX count = %d; want 3", len(obx))
	}

	nm := roundTrip(t, Observation(segment(obx[0])))
	for _, c := range []struct {
		keys []any
		want any
	}{
		{[]any{"status"}, "final"},
		{[]any{"code", "coding", 0, "system"}, "http://loinc.org"},
		{[]any{"code", "coding", 0, "code"}, "8867-4"},
		{[]any{"valueQuantity", "value"}, 72.0},
		{[]any{"valueQuantity", "unit"}, "per minute"},
		{[]any{"valueQuantity", "code"}, "/min"},
		{[]any{"valueQuantity", "system"}, "http://unitsofmeasure.org"},
		{[]any{"interpretation", 0, "coding", 0, "code"}, "N"},
		{[]any{"referenceRange", 0, "text"}, "60-100"},
	} {
		if got := path(nm, c.keys...); got != c.want {
			t.Errorf("Observation%v = %v; want %v", c.keys, got, c.want)
		}
	}

	ce := roundTrip(t, Observation(segment(obx[1])))
	if got := path(ce, "valueCodeableConcept", "coding", 0, "system"); got != V2TablePrefix+"0078" {
		t.Errorf("valueCodeableConcept system = %v", got)
	}

	st := roundTrip(t, Observation(segment(obx[2])))
	if st["valueString"] != "free text" || st["status"] != "preliminary" {
		t.Errorf("ST observation = %v", st)
	}
}

func TestBundle(t *testing.T) {
	doc := parse(t, oru)
	b := roundTrip(t, Bundle(doc.Tree))

	if path(b, "identifier", "value") != "MSG1" {
		t.Errorf("identifier = %v; want MSG1", b["identifier"])
	}
	entries, _ := b["entry"].([]any)
	if len(entries) != 4 {
		t.Fatalf("entries = %d; want 4", len(entries))
	}
	if got := path(b, "entry", 0, "fullUrl"); got != "Patient/12345" {
		t.Errorf("fullUrl = %v; want Patient/12345", got)
	}
	if got := path(b, "entry", 3, "resource", "id"); got != "obx-3" {
		t.Errorf("last observation id = %v; want obx-3", got)
	}

	if empty := Bundle(nil); empty["entry"] != nil {
		t.Errorf("Bundle(nil) = %v; want no entries", empty)
	}
}

func TestMarshal(t *testing.T) {
	b, err := Marshal(Patient(nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(b), `"resourceType":"Patient"`) {
		t.Errorf("Marshal() = %s", b)
	}
}

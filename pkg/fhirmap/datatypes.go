// Package fhirmap maps decoded HL7 v2 values onto FHIR R4 datatypes and
// assembles simple R4 resources (Patient, Observation, Bundle) as JSON-ready
// maps for FHIRPath evaluation.
package fhirmap

import (
	"strings"
	"time"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/hl7v2/pkg/node"
)

// Code systems for the HL7 v2 coding system names (table 0396) seen most
// often in CE/CWE components.
var codeSystems = map[string]string{
	"LN":      "http://loinc.org",
	"SCT":     "http://snomed.info/sct",
	"SNM":     "http://snomed.info/sct",
	"I9":      "http://hl7.org/fhir/sid/icd-9-cm",
	"I9C":     "http://hl7.org/fhir/sid/icd-9-cm",
	"I10":     "http://hl7.org/fhir/sid/icd-10",
	"I10C":    "http://hl7.org/fhir/sid/icd-10-cm",
	"UCUM":    "http://unitsofmeasure.org",
	"CPT":     "http://www.ama-assn.org/go/cpt",
	"RXN":     "http://www.nlm.nih.gov/research/umls/rxnorm",
	"NDC":     "http://hl7.org/fhir/sid/ndc",
	"CVX":     "http://hl7.org/fhir/sid/cvx",
	"ISO+":    "urn:iso:std:iso:11073:10101",
	"ISO3166": "urn:iso:std:iso:3166",
}

// V2TablePrefix is the base URI of the HL7-published v2 tables.
const V2TablePrefix = "http://terminology.hl7.org/CodeSystem/v2-"

// CodeSystemURI maps a v2 coding system name to a URI. HL7 tables written as
// "HL7nnnn" map to the terminology.hl7.org v2 code systems; unknown names
// are returned unchanged.
func CodeSystemURI(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if uri, ok := codeSystems[strings.ToUpper(name)]; ok {
		return uri
	}
	upper := strings.ToUpper(name)
	if strings.HasPrefix(upper, "HL7") && len(upper) == 7 {
		return V2TablePrefix + upper[3:]
	}
	return name
}

// text returns the leaf text of v, descending into first components.
func text(v node.Value) string {
	if v == nil || v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// component returns component n of a composite value. A primitive value
// stands for its own first component.
func component(v node.Value, n int) node.Value {
	switch c := v.(type) {
	case *node.Composite:
		return c.Component(n)
	case *node.Primitive:
		if n == 1 {
			return c
		}
	}
	return nil
}

func str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// System returns the URI an HD (hierarchic designator) names: the universal
// ID qualified by its type, or the namespace ID when there is none.
func System(hd node.Value) string {
	if hd == nil {
		return ""
	}
	universal := text(component(hd, 2))
	if universal == "" {
		return text(component(hd, 1))
	}
	switch strings.ToUpper(text(component(hd, 3))) {
	case "ISO":
		return "urn:oid:" + universal
	case "UUID", "GUID":
		return "urn:uuid:" + strings.ToLower(universal)
	default:
		return universal
	}
}

// Identifier maps a CX value. The assigning authority (CX-4) becomes the
// system. It returns nil when there is no ID.
func Identifier(cx node.Value) *r4.Identifier {
	value := text(component(cx, 1))
	if value == "" {
		return nil
	}
	return &r4.Identifier{
		Value:  str(value),
		System: str(System(component(cx, 4))),
	}
}

// IdentifierType returns the identifier type code (CX-5), e.g. "MRN".
func IdentifierType(cx node.Value) string {
	return text(component(cx, 5))
}

// Coding maps the primary triplet of a CE/CWE value (components 1-3), with
// the coding system version from CWE-7 when present.
func Coding(ce node.Value) *r4.Coding {
	return coding(ce, 1, 7)
}

// AlternateCoding maps the alternate triplet (components 4-6).
func AlternateCoding(ce node.Value) *r4.Coding {
	return coding(ce, 4, 8)
}

func coding(ce node.Value, first, version int) *r4.Coding {
	code := text(component(ce, first))
	display := text(component(ce, first+1))
	if code == "" && display == "" {
		return nil
	}
	return &r4.Coding{
		Code:    str(code),
		Display: str(display),
		System:  str(CodeSystemURI(text(component(ce, first+2)))),
		Version: str(text(component(ce, version))),
	}
}

// CodeableConcept maps a CE/CWE value. Text is the original text (CWE-9)
// or, failing that, the primary display text.
func CodeableConcept(ce node.Value) *r4.CodeableConcept {
	cc := &r4.CodeableConcept{}
	for _, c := range []*r4.Coding{Coding(ce), AlternateCoding(ce)} {
		if c != nil && c.Code != nil {
			cc.Coding = append(cc.Coding, *c)
		}
	}
	t := text(component(ce, 9))
	if t == "" {
		t = text(component(ce, 2))
	}
	cc.Text = str(t)
	if len(cc.Coding) == 0 && cc.Text == nil {
		return nil
	}
	return cc
}

// CodedValue maps a coded value of a simple type (ID/IS) drawn from HL7
// table n to a CodeableConcept.
func CodedValue(v node.Value, table string) *r4.CodeableConcept {
	code := text(v)
	if code == "" {
		return nil
	}
	return &r4.CodeableConcept{Coding: []r4.Coding{{
		System: str(V2TablePrefix + table),
		Code:   str(code),
	}}}
}

// DateTime maps a TS/DTM/DT value to a FHIR date, dateTime or instant
// string, truncated to the precision of the source.
func DateTime(v node.Value) string {
	var p *node.Primitive
	switch c := v.(type) {
	case *node.Primitive:
		p = c
	case *node.Composite:
		p, _ = c.Component(1).(*node.Primitive)
	}
	if p == nil {
		return ""
	}
	t, prec, ok := p.Time()
	if !ok {
		return ""
	}
	return formatDateTime(t, prec)
}

func formatDateTime(t time.Time, prec node.Precision) string {
	switch {
	case prec <= node.PrecisionYear:
		return t.Format("2006")
	case prec == node.PrecisionMonth:
		return t.Format("2006-01")
	case prec == node.PrecisionDay:
		return t.Format("2006-01-02")
	case prec < node.PrecisionSecond:
		// FHIR dateTime needs seconds once a time is given.
		return t.Format("2006-01-02T15:04:00Z07:00")
	case prec == node.PrecisionSecond:
		return t.Format("2006-01-02T15:04:05Z07:00")
	default:
		return t.Format(time.RFC3339Nano)
	}
}

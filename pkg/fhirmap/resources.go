package fhirmap

import (
	"encoding/json"
	"strconv"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/hl7v2/pkg/node"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// Resource is a FHIR resource in its JSON object form.
type Resource = map[string]any

// genders maps HL7 table 0001 to FHIR administrative-gender.
var genders = map[string]string{
	"M": "male",
	"F": "female",
	"O": "other",
	"A": "other",
	"N": "other",
	"U": "unknown",
}

// observationStatus maps HL7 table 0085 to FHIR observation-status.
var observationStatus = map[string]string{
	"F": "final",
	"C": "corrected",
	"P": "preliminary",
	"R": "registered",
	"I": "registered",
	"S": "preliminary",
	"X": "cancelled",
	"D": "entered-in-error",
	"W": "entered-in-error",
	"A": "amended",
}

// Patient maps a PID segment.
func Patient(pid *node.Segment) Resource {
	res := Resource{"resourceType": "Patient"}
	if pid == nil {
		return res
	}

	var ids []any
	for _, n := range []int{2, 3} {
		for _, cx := range pid.Repetitions(n) {
			if m := identifierToMap(Identifier(cx), IdentifierType(cx)); m != nil {
				ids = append(ids, m)
			}
		}
	}
	if len(ids) > 0 {
		res["identifier"] = ids
		if id, ok := ids[0].(map[string]any)["value"].(string); ok {
			res["id"] = id
		}
	}

	var names []any
	for _, xpn := range pid.Repetitions(5) {
		if m := humanName(xpn); m != nil {
			names = append(names, m)
		}
	}
	if len(names) > 0 {
		res["name"] = names
	}

	if birth := DateTime(pid.Field(7)); birth != "" {
		if len(birth) > len("2006-01-02") {
			birth = birth[:len("2006-01-02")]
		}
		res["birthDate"] = birth
	}
	if g, ok := genders[text(pid.Field(8))]; ok {
		res["gender"] = g
	}

	var addrs []any
	for _, xad := range pid.Repetitions(11) {
		if m := address(xad); m != nil {
			addrs = append(addrs, m)
		}
	}
	if len(addrs) > 0 {
		res["address"] = addrs
	}

	var telecom []any
	for _, n := range []int{13, 14} {
		use := "home"
		if n == 14 {
			use = "work"
		}
		for _, xtn := range pid.Repetitions(n) {
			if v := text(component(xtn, 1)); v != "" {
				telecom = append(telecom, map[string]any{"system": "phone", "value": v, "use": use})
			}
		}
	}
	if len(telecom) > 0 {
		res["telecom"] = telecom
	}

	if ms := codeableConceptToMap(CodeableConcept(pid.Field(16))); ms != nil {
		res["maritalStatus"] = ms
	}
	if death := DateTime(pid.Field(29)); death != "" {
		res["deceasedDateTime"] = death
	} else if text(pid.Field(30)) == "Y" {
		res["deceasedBoolean"] = true
	}
	return res
}

func humanName(xpn node.Value) map[string]any {
	result := make(map[string]any)
	if family := text(component(xpn, 1)); family != "" {
		result["family"] = family
	}
	var given []any
	for _, n := range []int{2, 3} {
		if g := text(component(xpn, n)); g != "" {
			given = append(given, g)
		}
	}
	if len(given) > 0 {
		result["given"] = given
	}
	if s := text(component(xpn, 4)); s != "" {
		result["suffix"] = []any{s}
	}
	if p := text(component(xpn, 5)); p != "" {
		result["prefix"] = []any{p}
	}
	switch text(component(xpn, 7)) {
	case "L":
		result["use"] = "official"
	case "D":
		result["use"] = "usual"
	case "M":
		result["use"] = "maiden"
	case "A":
		result["use"] = "nickname"
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func address(xad node.Value) map[string]any {
	result := make(map[string]any)
	var lines []any
	for _, n := range []int{1, 2} {
		if l := text(component(xad, n)); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 0 {
		result["line"] = lines
	}
	for key, n := range map[string]int{"city": 3, "state": 4, "postalCode": 5, "country": 6} {
		if v := text(component(xad, n)); v != "" {
			result[key] = v
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Observation maps an OBX segment. The value is typed by OBX-2.
func Observation(obx *node.Segment) Resource {
	res := Resource{"resourceType": "Observation"}
	if obx == nil {
		return res
	}
	if id := obx.FieldText(1); id != "" {
		res["id"] = "obx-" + id
	}
	if code := codeableConceptToMap(CodeableConcept(obx.Field(3))); code != nil {
		res["code"] = code
	}
	status, ok := observationStatus[obx.FieldText(11)]
	if !ok {
		status = "unknown"
	}
	res["status"] = status

	if key, v := observationValue(obx); v != nil {
		res[key] = v
	}
	if when := DateTime(obx.Field(14)); when != "" {
		res["effectiveDateTime"] = when
	}
	var interp []any
	for _, flag := range obx.Repetitions(8) {
		if cc := codeableConceptToMap(CodedValue(flag, "0078")); cc != nil {
			interp = append(interp, cc)
		}
	}
	if len(interp) > 0 {
		res["interpretation"] = interp
	}
	if rng := obx.FieldText(7); rng != "" {
		res["referenceRange"] = []any{map[string]any{"text": rng}}
	}
	return res
}

func observationValue(obx *node.Segment) (string, any) {
	v := obx.Field(5)
	if v == nil || v.IsNull() {
		return "", nil
	}
	switch obx.FieldText(2) {
	case "NM", "SN":
		p, ok := v.(*node.Primitive)
		if !ok {
			break
		}
		d, ok := p.Decimal()
		if !ok {
			break
		}
		q := map[string]any{"value": d.InexactFloat64()}
		if unit := Coding(obx.Field(6)); unit != nil {
			if unit.Code != nil {
				q["code"] = *unit.Code
				q["unit"] = *unit.Code
			}
			if unit.System != nil {
				q["system"] = *unit.System
			}
			if unit.Display != nil {
				q["unit"] = *unit.Display
			}
		}
		return "valueQuantity", q
	case "CE", "CWE", "CNE":
		return "valueCodeableConcept", codeableConceptToMap(CodeableConcept(v))
	case "TS", "DTM", "DT":
		if s := DateTime(v); s != "" {
			return "valueDateTime", s
		}
	}
	if s := v.Text(); s != "" {
		return "valueString", s
	}
	return "", nil
}

// Bundle maps a parsed message to a collection Bundle holding the patient
// and every observation. The bundle identifier is MSH-10.
func Bundle(root *tree.Node) Resource {
	res := Resource{"resourceType": "Bundle", "type": "collection"}
	if root == nil {
		return res
	}
	if msh := segment(root.FindByTag("MSH")); msh != nil {
		if id := msh.FieldText(10); id != "" {
			res["identifier"] = map[string]any{"value": id}
		}
		if ts := DateTime(msh.Field(7)); ts != "" {
			res["timestamp"] = ts
		}
	}

	var entries []any
	if pid := segment(root.FindByTag("PID")); pid != nil {
		entries = append(entries, entry(Patient(pid)))
	}
	for i, n := range root.FindAllByTag("OBX") {
		if obx := segment(n); obx != nil {
			o := Observation(obx)
			if _, ok := o["id"]; !ok {
				o["id"] = "obx-" + strconv.Itoa(i+1)
			}
			entries = append(entries, entry(o))
		}
	}
	if len(entries) > 0 {
		res["entry"] = entries
	}
	return res
}

func entry(r Resource) map[string]any {
	e := map[string]any{"resource": r}
	if id, ok := r["id"].(string); ok {
		e["fullUrl"] = r["resourceType"].(string) + "/" + id
	}
	return e
}

func segment(n *tree.Node) *node.Segment {
	if n == nil {
		return nil
	}
	s, _ := n.Value().(*node.Segment)
	return s
}

// Marshal encodes a resource as JSON.
func Marshal(r Resource) ([]byte, error) {
	return json.Marshal(r)
}

// Helper functions to convert FHIR types to maps

func codingToMap(coding *r4.Coding) map[string]any {
	if coding == nil {
		return nil
	}
	result := make(map[string]any)
	if coding.System != nil {
		result["system"] = *coding.System
	}
	if coding.Version != nil {
		result["version"] = *coding.Version
	}
	if coding.Code != nil {
		result["code"] = *coding.Code
	}
	if coding.Display != nil {
		result["display"] = *coding.Display
	}
	return result
}

func codeableConceptToMap(cc *r4.CodeableConcept) map[string]any {
	if cc == nil {
		return nil
	}
	result := make(map[string]any)
	if len(cc.Coding) > 0 {
		codings := make([]any, 0, len(cc.Coding))
		for i := range cc.Coding {
			codings = append(codings, codingToMap(&cc.Coding[i]))
		}
		result["coding"] = codings
	}
	if cc.Text != nil {
		result["text"] = *cc.Text
	}
	return result
}

// identifierToMap converts an identifier; typeCode, when set, becomes a
// v2-0203 identifier type.
func identifierToMap(id *r4.Identifier, typeCode string) map[string]any {
	if id == nil {
		return nil
	}
	result := make(map[string]any)
	if id.System != nil {
		result["system"] = *id.System
	}
	if id.Value != nil {
		result["value"] = *id.Value
	}
	if typeCode != "" {
		result["type"] = map[string]any{"coding": []any{map[string]any{
			"system": V2TablePrefix + "0203",
			"code":   typeCode,
		}}}
	}
	return result
}

package registry

import "github.com/gofhir/hl7v2/pkg/node"

var primitiveDefs = map[string]node.ScalarKind{
	"ST":     node.ScalarText,
	"TX":     node.ScalarText,
	"FT":     node.ScalarText,
	"ID":     node.ScalarText,
	"IS":     node.ScalarText,
	"GTS":    node.ScalarText,
	"TN":     node.ScalarText,
	"SI":     node.ScalarSequence,
	"NM":     node.ScalarNumeric,
	"DT":     node.ScalarDate,
	"TM":     node.ScalarTime,
	"DTM":    node.ScalarDateTime,
	"varies": node.ScalarText,
}

var ceComponents = []FieldDef{
	F("Identifier", "ST"),
	F("Text", "ST"),
	F("Name of Coding System", "ID"),
	F("Alternate Identifier", "ST"),
	F("Alternate Text", "ST"),
	F("Name of Alternate Coding System", "ID"),
}

var cweComponents = append(append([]FieldDef(nil), ceComponents...),
	F("Coding System Version ID", "ST"),
	F("Alternate Coding System Version ID", "ST"),
	F("Original Text", "ST"),
)

var compositeDefs = map[string][]FieldDef{
	"HD": {
		F("Namespace ID", "IS"),
		F("Universal ID", "ST"),
		F("Universal ID Type", "ID"),
	},
	"MSG": {
		F("Message Code", "ID"),
		F("Trigger Event", "ID"),
		F("Message Structure", "ID"),
	},
	"CM_MSG": {
		F("Message Type", "ID"),
		F("Trigger Event", "ID"),
	},
	"PT": {
		F("Processing ID", "ID"),
		F("Processing Mode", "ID"),
	},
	"VID": {
		F("Version ID", "ID"),
		F("Internationalization Code", "CE"),
		F("International Version ID", "CE"),
	},
	"TS": {
		F("Time", "DTM"),
		F("Degree of Precision", "ID"),
	},
	"DR": {
		F("Range Start Date/Time", "TS"),
		F("Range End Date/Time", "TS"),
	},
	"CE":  ceComponents,
	"CWE": cweComponents,
	"CNE": cweComponents,
	"CX": {
		F("ID Number", "ST"),
		F("Check Digit", "ST"),
		F("Check Digit Scheme", "ID"),
		F("Assigning Authority", "HD"),
		F("Identifier Type Code", "ID"),
		F("Assigning Facility", "HD"),
		F("Effective Date", "DT"),
		F("Expiration Date", "DT"),
		F("Assigning Jurisdiction", "CWE"),
		F("Assigning Agency or Department", "CWE"),
	},
	"FN": {
		F("Surname", "ST"),
		F("Own Surname Prefix", "ST"),
		F("Own Surname", "ST"),
		F("Surname Prefix From Partner/Spouse", "ST"),
		F("Surname From Partner/Spouse", "ST"),
	},
	"XPN": {
		F("Family Name", "FN"),
		F("Given Name", "ST"),
		F("Second and Further Given Names or Initials Thereof", "ST"),
		F("Suffix", "ST"),
		F("Prefix", "ST"),
		F("Degree", "IS"),
		F("Name Type Code", "ID"),
		F("Name Representation Code", "ID"),
		F("Name Context", "CE"),
		F("Name Validity Range", "DR"),
		F("Name Assembly Order", "ID"),
		F("Effective Date", "TS"),
		F("Expiration Date", "TS"),
		F("Professional Suffix", "ST"),
	},
	"SAD": {
		F("Street or Mailing Address", "ST"),
		F("Street Name", "ST"),
		F("Dwelling Number", "ST"),
	},
	"XAD": {
		F("Street Address", "SAD"),
		F("Other Designation", "ST"),
		F("City", "ST"),
		F("State or Province", "ST"),
		F("Zip or Postal Code", "ST"),
		F("Country", "ID"),
		F("Address Type", "ID"),
		F("Other Geographic Designation", "ST"),
		F("County/Parish Code", "IS"),
		F("Census Tract", "IS"),
		F("Address Representation Code", "ID"),
		F("Address Validity Range", "DR"),
		F("Effective Date", "TS"),
		F("Expiration Date", "TS"),
	},
	"XTN": {
		F("Telephone Number", "ST"),
		F("Telecommunication Use Code", "ID"),
		F("Telecommunication Equipment Type", "ID"),
		F("Email Address", "ST"),
		F("Country Code", "NM"),
		F("Area/City Code", "NM"),
		F("Local Number", "NM"),
		F("Extension", "NM"),
		F("Any Text", "ST"),
		F("Extension Prefix", "ST"),
		F("Speed Dial Code", "ST"),
		F("Unformatted Telephone Number", "ST"),
	},
	"XCN": {
		F("ID Number", "ST"),
		F("Family Name", "FN"),
		F("Given Name", "ST"),
		F("Second and Further Given Names or Initials Thereof", "ST"),
		F("Suffix", "ST"),
		F("Prefix", "ST"),
		F("Degree", "IS"),
		F("Source Table", "IS"),
		F("Assigning Authority", "HD"),
		F("Name Type Code", "ID"),
		F("Identifier Check Digit", "ST"),
		F("Check Digit Scheme", "ID"),
		F("Identifier Type Code", "ID"),
		F("Assigning Facility", "HD"),
		F("Name Representation Code", "ID"),
		F("Name Context", "CE"),
		F("Name Validity Range", "DR"),
		F("Name Assembly Order", "ID"),
		F("Effective Date", "TS"),
		F("Expiration Date", "TS"),
		F("Professional Suffix", "ST"),
		F("Assigning Jurisdiction", "CWE"),
		F("Assigning Agency or Department", "CWE"),
	},
	"XON": {
		F("Organization Name", "ST"),
		F("Organization Name Type Code", "IS"),
		F("ID Number", "NM"),
		F("Check Digit", "NM"),
		F("Check Digit Scheme", "ID"),
		F("Assigning Authority", "HD"),
		F("Identifier Type Code", "ID"),
		F("Assigning Facility", "HD"),
		F("Name Representation Code", "ID"),
		F("Organization Identifier", "ST"),
	},
	"EI": {
		F("Entity Identifier", "ST"),
		F("Namespace ID", "IS"),
		F("Universal ID", "ST"),
		F("Universal ID Type", "ID"),
	},
	"EIP": {
		F("Placer Assigned Identifier", "EI"),
		F("Filler Assigned Identifier", "EI"),
	},
	"PL": {
		F("Point of Care", "IS"),
		F("Room", "IS"),
		F("Bed", "IS"),
		F("Facility", "HD"),
		F("Location Status", "IS"),
		F("Person Location Type", "IS"),
		F("Building", "IS"),
		F("Floor", "IS"),
		F("Location Description", "ST"),
		F("Comprehensive Location Identifier", "EI"),
		F("Assigning Authority for Location", "HD"),
	},
	"CQ": {
		F("Quantity", "NM"),
		F("Units", "CE"),
	},
	"MO": {
		F("Quantity", "NM"),
		F("Denomination", "ID"),
	},
	"CP": {
		F("Price", "MO"),
		F("Price Type", "ID"),
		F("From Value", "NM"),
		F("To Value", "NM"),
		F("Range Units", "CE"),
		F("Range Type", "ID"),
	},
	"SN": {
		F("Comparator", "ST"),
		F("Num1", "NM"),
		F("Separator/Suffix", "ST"),
		F("Num2", "NM"),
	},
	"ELD": {
		F("Segment ID", "ST"),
		F("Segment Sequence", "NM"),
		F("Field Position", "NM"),
		F("Code Identifying Error", "CE"),
	},
	"ERL": {
		F("Segment ID", "ST"),
		F("Segment Sequence", "NM"),
		F("Field Position", "NM"),
		F("Field Repetition", "NM"),
		F("Component Number", "NM"),
		F("Sub-Component Number", "NM"),
	},
	"DLN": {
		F("License Number", "ST"),
		F("Issuing State, Province, Country", "IS"),
		F("Expiration Date", "DT"),
	},
	"DLD": {
		F("Discharge Location", "IS"),
		F("Effective Date", "TS"),
	},
	"FC": {
		F("Financial Class Code", "IS"),
		F("Effective Date", "TS"),
	},
	"TQ": {
		F("Quantity", "CQ"),
		F("Interval", "ST"),
		F("Duration", "ST"),
		F("Start Date/Time", "TS"),
		F("End Date/Time", "TS"),
		F("Priority", "ST"),
		F("Condition", "ST"),
		F("Text", "TX"),
		F("Conjunction", "ID"),
		F("Order Sequencing", "ST"),
		F("Occurrence Duration", "CE"),
		F("Total Occurrences", "NM"),
	},
	"PRL": {
		F("Parent Observation Identifier", "CE"),
		F("Parent Observation Sub-identifier", "ST"),
		F("Parent Observation Value Descriptor", "TX"),
	},
	"SPS": {
		F("Specimen Source Name or Code", "CWE"),
		F("Additives", "CWE"),
		F("Specimen Collection Method", "TX"),
		F("Body Site", "CWE"),
		F("Site Modifier", "CWE"),
		F("Collection Method Modifier Code", "CWE"),
		F("Specimen Role", "CWE"),
	},
}

package registry

import "github.com/gofhir/hl7v2"

func headerFields(kind string) []FieldDef {
	return []FieldDef{
		F(kind+" Field Separator", "ST"),
		F(kind+" Encoding Characters", "ST"),
		F(kind+" Sending Application", "HD"),
		F(kind+" Sending Facility", "HD"),
		F(kind+" Receiving Application", "HD"),
		F(kind+" Receiving Facility", "HD"),
		F(kind+" Creation Date/Time", "TS"),
		F(kind+" Security", "ST"),
		F(kind+" Name/ID/Type", "ST"),
		F(kind+" Header Comment", "ST"),
		F(kind+" Control ID", "ST"),
		F("Reference "+kind+" Control ID", "ST"),
	}
}

var segmentDefs = map[string][]FieldDef{
	"MSH": {
		F("Field Separator", "ST"),
		F("Encoding Characters", "ST"),
		F("Sending Application", "HD"),
		F("Sending Facility", "HD"),
		F("Receiving Application", "HD"),
		F("Receiving Facility", "HD"),
		F("Date/Time Of Message", "TS"),
		F("Security", "ST"),
		F("Message Type", "MSG"),
		F("Message Control ID", "ST"),
		F("Processing ID", "PT"),
		F("Version ID", "VID"),
		F("Sequence Number", "NM"),
		F("Continuation Pointer", "ST"),
		F("Accept Acknowledgment Type", "ID"),
		F("Application Acknowledgment Type", "ID"),
		F("Country Code", "ID"),
		R("Character Set", "ID"),
		F("Principal Language Of Message", "CE"),
		F("Alternate Character Set Handling Scheme", "ID"),
		R("Message Profile Identifier", "EI"),
	},
	"FHS": headerFields("File"),
	"BHS": headerFields("Batch"),
	"BTS": {
		F("Batch Message Count", "ST"),
		F("Batch Comment", "ST"),
		R("Batch Totals", "NM"),
	},
	"FTS": {
		F("File Batch Count", "NM"),
		F("File Trailer Comment", "ST"),
	},
	"SFT": {
		F("Software Vendor Organization", "XON"),
		F("Software Certified Version or Release Number", "ST"),
		F("Software Product Name", "ST"),
		F("Software Binary ID", "ST"),
		F("Software Product Information", "TX"),
		F("Software Install Date", "TS"),
	},
	"EVN": {
		F("Event Type Code", "ID"),
		F("Recorded Date/Time", "TS"),
		F("Date/Time Planned Event", "TS"),
		F("Event Reason Code", "IS"),
		R("Operator ID", "XCN"),
		F("Event Occurred", "TS"),
		F("Event Facility", "HD"),
	},
	"PID": {
		F("Set ID - PID", "SI"),
		F("Patient ID", "CX"),
		R("Patient Identifier List", "CX"),
		R("Alternate Patient ID - PID", "CX"),
		R("Patient Name", "XPN"),
		R("Mother's Maiden Name", "XPN"),
		F("Date/Time of Birth", "TS"),
		F("Administrative Sex", "IS"),
		R("Patient Alias", "XPN"),
		R("Race", "CE"),
		R("Patient Address", "XAD"),
		F("County Code", "IS"),
		R("Phone Number - Home", "XTN"),
		R("Phone Number - Business", "XTN"),
		F("Primary Language", "CE"),
		F("Marital Status", "CE"),
		F("Religion", "CE"),
		F("Patient Account Number", "CX"),
		F("SSN Number - Patient", "ST"),
		F("Driver's License Number - Patient", "DLN"),
		R("Mother's Identifier", "CX"),
		R("Ethnic Group", "CE"),
		F("Birth Place", "ST"),
		F("Multiple Birth Indicator", "ID"),
		F("Birth Order", "NM"),
		R("Citizenship", "CE"),
		F("Veterans Military Status", "CE"),
		F("Nationality", "CE"),
		F("Patient Death Date and Time", "TS"),
		F("Patient Death Indicator", "ID"),
		F("Identity Unknown Indicator", "ID"),
		R("Identity Reliability Code", "IS"),
		F("Last Update Date/Time", "TS"),
		F("Last Update Facility", "HD"),
		F("Species Code", "CE"),
		F("Breed Code", "CE"),
		F("Strain", "ST"),
		F("Production Class Code", "CE"),
		R("Tribal Citizenship", "CWE"),
	},
	"PD1": {
		R("Living Dependency", "IS"),
		F("Living Arrangement", "IS"),
		R("Patient Primary Facility", "XON"),
		R("Patient Primary Care Provider Name & ID No.", "XCN"),
		F("Student Indicator", "IS"),
		F("Handicap", "IS"),
		F("Living Will Code", "IS"),
		F("Organ Donor Code", "IS"),
		F("Separate Bill", "ID"),
		R("Duplicate Patient", "CX"),
		F("Publicity Code", "CE"),
		F("Protection Indicator", "ID"),
		F("Protection Indicator Effective Date", "DT"),
		R("Place of Worship", "XON"),
		R("Advance Directive Code", "CE"),
		F("Immunization Registry Status", "IS"),
		F("Immunization Registry Status Effective Date", "DT"),
		F("Publicity Code Effective Date", "DT"),
		F("Military Branch", "IS"),
		F("Military Rank/Grade", "IS"),
		F("Military Status", "IS"),
	},
	"NK1": {
		F("Set ID - NK1", "SI"),
		R("Name", "XPN"),
		F("Relationship", "CE"),
		R("Address", "XAD"),
		R("Phone Number", "XTN"),
		R("Business Phone Number", "XTN"),
		F("Contact Role", "CE"),
		F("Start Date", "DT"),
		F("End Date", "DT"),
		F("Next of Kin / Associated Parties Job Title", "ST"),
		F("Next of Kin / Associated Parties Job Code/Class", "ST"),
		F("Next of Kin / Associated Parties Employee Number", "CX"),
		R("Organization Name - NK1", "XON"),
		F("Marital Status", "CE"),
		F("Administrative Sex", "IS"),
		F("Date/Time of Birth", "TS"),
		R("Living Dependency", "IS"),
		R("Ambulatory Status", "IS"),
		R("Citizenship", "CE"),
		F("Primary Language", "CE"),
		F("Living Arrangement", "IS"),
		F("Publicity Code", "CE"),
		F("Protection Indicator", "ID"),
		F("Student Indicator", "IS"),
		F("Religion", "CE"),
		R("Mother's Maiden Name", "XPN"),
		F("Nationality", "CE"),
		R("Ethnic Group", "CE"),
		R("Contact Reason", "CE"),
		R("Contact Person's Name", "XPN"),
		R("Contact Person's Telephone Number", "XTN"),
		R("Contact Person's Address", "XAD"),
		R("Next of Kin/Associated Party's Identifiers", "CX"),
		F("Job Status", "IS"),
		R("Race", "CE"),
		F("Handicap", "IS"),
		F("Contact Person Social Security Number", "ST"),
		F("Next of Kin Birth Place", "ST"),
		F("VIP Indicator", "IS"),
	},
	"PV1": {
		F("Set ID - PV1", "SI"),
		F("Patient Class", "IS"),
		F("Assigned Patient Location", "PL"),
		F("Admission Type", "IS"),
		F("Preadmit Number", "CX"),
		F("Prior Patient Location", "PL"),
		R("Attending Doctor", "XCN"),
		R("Referring Doctor", "XCN"),
		R("Consulting Doctor", "XCN"),
		F("Hospital Service", "IS"),
		F("Temporary Location", "PL"),
		F("Preadmit Test Indicator", "IS"),
		F("Re-admission Indicator", "IS"),
		F("Admit Source", "IS"),
		R("Ambulatory Status", "IS"),
		F("VIP Indicator", "IS"),
		R("Admitting Doctor", "XCN"),
		F("Patient Type", "IS"),
		F("Visit Number", "CX"),
		R("Financial Class", "FC"),
		F("Charge Price Indicator", "IS"),
		F("Courtesy Code", "IS"),
		F("Credit Rating", "IS"),
		R("Contract Code", "IS"),
		R("Contract Effective Date", "DT"),
		R("Contract Amount", "NM"),
		R("Contract Period", "NM"),
		F("Interest Code", "IS"),
		F("Transfer to Bad Debt Code", "IS"),
		F("Transfer to Bad Debt Date", "DT"),
		F("Bad Debt Agency Code", "IS"),
		F("Bad Debt Transfer Amount", "NM"),
		F("Bad Debt Recovery Amount", "NM"),
		F("Delete Account Indicator", "IS"),
		F("Delete Account Date", "DT"),
		F("Discharge Disposition", "IS"),
		F("Discharged to Location", "DLD"),
		F("Diet Type", "CE"),
		F("Servicing Facility", "IS"),
		F("Bed Status", "IS"),
		F("Account Status", "IS"),
		F("Pending Location", "PL"),
		F("Prior Temporary Location", "PL"),
		F("Admit Date/Time", "TS"),
		R("Discharge Date/Time", "TS"),
		F("Current Patient Balance", "NM"),
		F("Total Charges", "NM"),
		F("Total Adjustments", "NM"),
		F("Total Payments", "NM"),
		F("Alternate Visit ID", "CX"),
		F("Visit Indicator", "IS"),
		R("Other Healthcare Provider", "XCN"),
	},
	"PV2": {
		F("Prior Pending Location", "PL"),
		F("Accommodation Code", "CE"),
		F("Admit Reason", "CE"),
		F("Transfer Reason", "CE"),
		R("Patient Valuables", "ST"),
		F("Patient Valuables Location", "ST"),
		R("Visit User Code", "IS"),
		F("Expected Admit Date/Time", "TS"),
		F("Expected Discharge Date/Time", "TS"),
		F("Estimated Length of Inpatient Stay", "NM"),
		F("Actual Length of Inpatient Stay", "NM"),
		F("Visit Description", "ST"),
		R("Referral Source Code", "XCN"),
		F("Previous Service Date", "DT"),
		F("Employment Illness Related Indicator", "ID"),
		F("Purge Status Code", "IS"),
		F("Purge Status Date", "DT"),
		F("Special Program Code", "IS"),
		F("Retention Indicator", "ID"),
		F("Expected Number of Insurance Plans", "NM"),
		F("Visit Publicity Code", "IS"),
		F("Visit Protection Indicator", "ID"),
		R("Clinic Organization Name", "XON"),
		F("Patient Status Code", "IS"),
		F("Visit Priority Code", "IS"),
		F("Previous Treatment Date", "DT"),
		F("Expected Discharge Disposition", "IS"),
		F("Signature on File Date", "DT"),
		F("First Similar Illness Date", "DT"),
		F("Patient Charge Adjustment Code", "CE"),
		F("Recurring Service Code", "IS"),
		F("Billing Media Code", "ID"),
		F("Expected Surgery Date and Time", "TS"),
		F("Military Partnership Code", "ID"),
		F("Military Non-Availability Code", "ID"),
		F("Newborn Baby Indicator", "ID"),
		F("Baby Detained Indicator", "ID"),
		F("Mode of Arrival Code", "CE"),
		R("Recreational Drug Use Code", "CE"),
		F("Admission Level of Care Code", "CE"),
		R("Precaution Code", "CE"),
		F("Patient Condition Code", "CE"),
		F("Living Will Code", "IS"),
		F("Organ Donor Code", "IS"),
		R("Advance Directive Code", "CE"),
		F("Patient Status Effective Date", "DT"),
		F("Expected LOA Return Date/Time", "TS"),
		F("Expected Pre-admission Testing Date/Time", "TS"),
		R("Notify Clergy Code", "IS"),
	},
	"ORC": {
		F("Order Control", "ID"),
		F("Placer Order Number", "EI"),
		F("Filler Order Number", "EI"),
		F("Placer Group Number", "EI"),
		F("Order Status", "ID"),
		F("Response Flag", "ID"),
		R("Quantity/Timing", "TQ"),
		F("Parent", "EIP"),
		F("Date/Time of Transaction", "TS"),
		R("Entered By", "XCN"),
		R("Verified By", "XCN"),
		R("Ordering Provider", "XCN"),
		F("Enterer's Location", "PL"),
		R("Call Back Phone Number", "XTN"),
		F("Order Effective Date/Time", "TS"),
		F("Order Control Code Reason", "CE"),
		F("Entering Organization", "CE"),
		F("Entering Device", "CE"),
		R("Action By", "XCN"),
		F("Advanced Beneficiary Notice Code", "CE"),
		R("Ordering Facility Name", "XON"),
		R("Ordering Facility Address", "XAD"),
		R("Ordering Facility Phone Number", "XTN"),
		R("Ordering Provider Address", "XAD"),
		F("Order Status Modifier", "CWE"),
		F("Advanced Beneficiary Notice Override Reason", "CWE"),
		F("Filler's Expected Availability Date/Time", "TS"),
		F("Confidentiality Code", "CWE"),
		F("Order Type", "CWE"),
		F("Enterer Authorization Mode", "CNE"),
		F("Parent Universal Service Identifier", "CWE"),
	},
	"OBR": {
		F("Set ID - OBR", "SI"),
		F("Placer Order Number", "EI"),
		F("Filler Order Number", "EI"),
		F("Universal Service Identifier", "CE"),
		F("Priority - OBR", "ID"),
		F("Requested Date/Time", "TS"),
		F("Observation Date/Time", "TS"),
		F("Observation End Date/Time", "TS"),
		F("Collection Volume", "CQ"),
		R("Collector Identifier", "XCN"),
		F("Specimen Action Code", "ID"),
		F("Danger Code", "CE"),
		F("Relevant Clinical Information", "ST"),
		F("Specimen Received Date/Time", "TS"),
		F("Specimen Source", "SPS"),
		R("Ordering Provider", "XCN"),
		R("Order Callback Phone Number", "XTN"),
		F("Placer Field 1", "ST"),
		F("Placer Field 2", "ST"),
		F("Filler Field 1", "ST"),
		F("Filler Field 2", "ST"),
		F("Results Rpt/Status Chng - Date/Time", "TS"),
		F("Charge to Practice", "ST"),
		F("Diagnostic Serv Sect ID", "ID"),
		F("Result Status", "ID"),
		F("Parent Result", "PRL"),
		R("Quantity/Timing", "TQ"),
		R("Result Copies To", "XCN"),
		F("Parent", "EIP"),
		F("Transportation Mode", "ID"),
		R("Reason for Study", "CE"),
		F("Principal Result Interpreter", "ST"),
		R("Assistant Result Interpreter", "ST"),
		R("Technician", "ST"),
		R("Transcriptionist", "ST"),
		F("Scheduled Date/Time", "TS"),
		F("Number of Sample Containers", "NM"),
		R("Transport Logistics of Collected Sample", "CE"),
		R("Collector's Comment", "CE"),
		F("Transport Arrangement Responsibility", "CE"),
		F("Transport Arranged", "ID"),
		F("Escort Required", "ID"),
		R("Planned Patient Transport Comment", "CE"),
		F("Procedure Code", "CE"),
		R("Procedure Code Modifier", "CE"),
		R("Placer Supplemental Service Information", "CE"),
		R("Filler Supplemental Service Information", "CE"),
		F("Medically Necessary Duplicate Procedure Reason", "CWE"),
		F("Result Handling", "IS"),
		F("Parent Universal Service Identifier", "CWE"),
	},
	"OBX": {
		F("Set ID - OBX", "SI"),
		F("Value Type", "ID"),
		F("Observation Identifier", "CE"),
		F("Observation Sub-ID", "ST"),
		{Name: "Observation Value", Type: "varies", Repeatable: true, TypeFrom: 2},
		F("Units", "CE"),
		F("References Range", "ST"),
		R("Abnormal Flags", "IS"),
		F("Probability", "NM"),
		R("Nature of Abnormal Test", "ID"),
		F("Observation Result Status", "ID"),
		F("Effective Date of Reference Range", "TS"),
		F("User Defined Access Checks", "ST"),
		F("Date/Time of the Observation", "TS"),
		F("Producer's ID", "CE"),
		R("Responsible Observer", "XCN"),
		R("Observation Method", "CE"),
		R("Equipment Instance Identifier", "EI"),
		F("Date/Time of the Analysis", "TS"),
	},
	"NTE": {
		F("Set ID - NTE", "SI"),
		F("Source of Comment", "ID"),
		R("Comment", "FT"),
		F("Comment Type", "CE"),
	},
	"MSA": {
		F("Acknowledgment Code", "ID"),
		F("Message Control ID", "ST"),
		F("Text Message", "ST"),
		F("Expected Sequence Number", "NM"),
		F("Delayed Acknowledgment Type", "ID"),
		F("Error Condition", "CE"),
	},
	"ERR": {
		R("Error Code and Location", "ELD"),
		R("Error Location", "ERL"),
		F("HL7 Error Code", "CWE"),
		F("Severity", "ID"),
		F("Application Error Code", "CWE"),
		R("Application Error Parameter", "ST"),
		F("Diagnostic Information", "TX"),
		F("User Message", "TX"),
		R("Inform Person Indicator", "IS"),
		F("Override Type", "CWE"),
		R("Override Reason Code", "CWE"),
		R("Help Desk Contact Point", "XTN"),
	},
	"AL1": {
		F("Set ID - AL1", "SI"),
		F("Allergen Type Code", "CE"),
		F("Allergen Code/Mnemonic/Description", "CE"),
		F("Allergy Severity Code", "CE"),
		R("Allergy Reaction Code", "ST"),
		F("Identification Date", "DT"),
	},
	"DG1": {
		F("Set ID - DG1", "SI"),
		F("Diagnosis Coding Method", "ID"),
		F("Diagnosis Code - DG1", "CE"),
		F("Diagnosis Description", "ST"),
		F("Diagnosis Date/Time", "TS"),
		F("Diagnosis Type", "IS"),
		F("Major Diagnostic Category", "CE"),
		F("Diagnostic Related Group", "CE"),
		F("DRG Approval Indicator", "ID"),
		F("DRG Grouper Review Code", "IS"),
		F("Outlier Type", "CE"),
		F("Outlier Days", "NM"),
		F("Outlier Cost", "CP"),
		F("Grouper Version And Type", "ST"),
		F("Diagnosis Priority", "ID"),
		R("Diagnosing Clinician", "XCN"),
		F("Diagnosis Classification", "IS"),
		F("Confidential Indicator", "ID"),
		F("Attestation Date/Time", "TS"),
		F("Diagnosis Identifier", "EI"),
		F("Diagnosis Action Code", "ID"),
	},
	"DSC": {
		F("Continuation Pointer", "ST"),
		F("Continuation Style", "ID"),
	},
}

// versionFields applies per-version differences to a segment definition.
func versionFields(v hl7v2.Version, name string, fields []FieldDef) []FieldDef {
	switch {
	case name == "ERR" && v.Before(hl7v2.V25):
		// Before 2.5 ERR carries only the error code and location.
		return fields[:1]
	case name == "MSH" && v.Before(hl7v2.V24):
		// The message profile identifier was added in 2.4.
		return fields[:20]
	}
	return fields
}

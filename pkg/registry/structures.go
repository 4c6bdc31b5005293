package registry

var structureDefs = map[string][]MemberDef{
	"ADT_A01": {
		Seg("MSH"),
		OptRep("SFT"),
		Seg("EVN"),
		Seg("PID"),
		Opt("PD1"),
		OptRep("ROL"),
		OptRep("NK1"),
		Seg("PV1"),
		Opt("PV2"),
		OptRep("ROL"),
		OptRep("DB1"),
		OptRep("OBX"),
		OptRep("AL1"),
		OptRep("DG1"),
		Opt("DRG"),
		Grp("PROCEDURE", true, true,
			Seg("PR1"),
			OptRep("ROL"),
		),
		OptRep("GT1"),
		Grp("INSURANCE", true, true,
			Seg("IN1"),
			Opt("IN2"),
			OptRep("IN3"),
			OptRep("ROL"),
		),
		Opt("ACC"),
		Opt("UB1"),
		Opt("UB2"),
		Opt("PDA"),
	},
	"ORU_R01": {
		Seg("MSH"),
		OptRep("SFT"),
		Grp("PATIENT_RESULT", false, true,
			Grp("PATIENT", true, false,
				Seg("PID"),
				Opt("PD1"),
				OptRep("NTE"),
				OptRep("NK1"),
				Grp("VISIT", true, false,
					Seg("PV1"),
					Opt("PV2"),
				),
			),
			Grp("ORDER_OBSERVATION", false, true,
				Opt("ORC"),
				Seg("OBR"),
				OptRep("NTE"),
				Grp("TIMING_QTY", true, true,
					Seg("TQ1"),
					OptRep("TQ2"),
				),
				Opt("CTD"),
				Grp("OBSERVATION", true, true,
					Seg("OBX"),
					OptRep("NTE"),
				),
				OptRep("FT1"),
				OptRep("CTI"),
				Grp("SPECIMEN", true, true,
					Seg("SPM"),
					OptRep("OBX"),
				),
			),
		),
		Opt("DSC"),
	},
	"ORM_O01": {
		Seg("MSH"),
		OptRep("NTE"),
		Grp("PATIENT", true, false,
			Seg("PID"),
			Opt("PD1"),
			OptRep("NTE"),
			Grp("PATIENT_VISIT", true, false,
				Seg("PV1"),
				Opt("PV2"),
			),
			Grp("INSURANCE", true, true,
				Seg("IN1"),
				Opt("IN2"),
				Opt("IN3"),
			),
			Opt("GT1"),
			OptRep("AL1"),
		),
		Grp("ORDER", false, true,
			Seg("ORC"),
			Grp("ORDER_DETAIL", true, false,
				Seg("OBR"),
				OptRep("NTE"),
				OptRep("DG1"),
				Grp("OBSERVATION", true, true,
					Seg("OBX"),
					OptRep("NTE"),
				),
			),
			OptRep("FT1"),
			OptRep("CTI"),
			Opt("BLG"),
		),
	},
	"ACK": {
		Seg("MSH"),
		OptRep("SFT"),
		Seg("MSA"),
		OptRep("ERR"),
	},
}

// aliasDefs maps message types and events to the structure they share.
var aliasDefs = map[string]string{
	"ADT^A04": "ADT_A01",
	"ADT^A08": "ADT_A01",
	"ADT^A13": "ADT_A01",
	"ORU^R30": "ORU_R01",
	"ORU^R31": "ORU_R01",
	"ORU^R32": "ORU_R01",
	"ACK":     "ACK",
}

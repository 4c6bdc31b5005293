// Package hl7v2 decodes and encodes HL7 v2 messages.
//
// The root package holds the configuration shared by every component
// (functional options and the strict/lax presets), the supported versions,
// the issues recorded while parsing, and parse metrics. The engine itself
// lives under pkg/:
//
//   - pkg/delim: delimiter set and escape sequences
//   - pkg/node: data nodes (primitive, composite, segment, group, message)
//     and their recursive decode/encode
//   - pkg/registry: tag name to type tables, per HL7 version
//   - pkg/tree: the ownership tree a parsed message is assembled into
//   - pkg/reader: line-oriented segment tokenizer
//   - pkg/parser: the orchestrator, for piped text and XML events
//
// Around it:
//
//   - stream: multi-message inputs and FHS/BHS batch envelopes
//   - worker: a parse worker pool and parallel batch parsing
//   - pkg/fhirmap and pkg/query: FHIR R4 mapping and FHIRPath queries
//   - pkg/config: TOML configuration for cmd/hl7v2 and cmd/hl7v2d
//   - api: the HTTP API served by cmd/hl7v2d
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/hl7v2"
//	    "github.com/gofhir/hl7v2/pkg/parser"
//	)
//
//	p := parser.New(hl7v2.LaxPreset()...)
//	doc, err := p.ParseString(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	msh := doc.Tree.FindByTag("MSH")
//	text, _ := p.Encode(doc.Tree)
//
// # Strict and Lax
//
// Every reportable condition goes through a single gate. In silent mode the
// gate swallows the condition, the offending content is left absent and the
// condition is recorded in the document's Result. Otherwise it is returned as
// an *issue.Error that matches one of the issue.Err* sentinels with errors.Is.
//
// Segments that fail to decode are replaced by a catch-all segment holding
// the raw line unless Strict is set, so one malformed segment does not abort
// the rest of the message.
package hl7v2

package hl7v2

import (
	"strings"

	"github.com/gofhir/hl7v2/pkg/delim"
)

// Version represents an HL7 v2 version identifier (MSH-12).
type Version string

// Supported HL7 v2 versions.
const (
	V21  Version = "2.1"
	V22  Version = "2.2"
	V23  Version = "2.3"
	V231 Version = "2.3.1"
	V24  Version = "2.4"
	V25  Version = "2.5"
	V251 Version = "2.5.1"
	V26  Version = "2.6"
	V27  Version = "2.7"
	V271 Version = "2.7.1"
	V28  Version = "2.8"
)

// String returns the version string.
func (v Version) String() string {
	return string(v)
}

// IsValid returns true if this is a supported version.
func (v Version) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// versionConfig holds version-specific structure choices.
type versionConfig struct {
	// Ordinal orders versions for comparisons.
	Ordinal int

	// MessageTypeComposite is the type of MSH-9.
	MessageTypeComposite string

	// TimestampComposite is the type used for MSH-7 and other timestamps.
	TimestampComposite string
}

// versionConfigs maps versions to their configurations.
var versionConfigs = map[Version]versionConfig{
	V21:  {Ordinal: 1, MessageTypeComposite: "CM_MSG", TimestampComposite: "TS"},
	V22:  {Ordinal: 2, MessageTypeComposite: "CM_MSG", TimestampComposite: "TS"},
	V23:  {Ordinal: 3, MessageTypeComposite: "CM_MSG", TimestampComposite: "TS"},
	V231: {Ordinal: 4, MessageTypeComposite: "MSG", TimestampComposite: "TS"},
	V24:  {Ordinal: 5, MessageTypeComposite: "MSG", TimestampComposite: "TS"},
	V25:  {Ordinal: 6, MessageTypeComposite: "MSG", TimestampComposite: "TS"},
	V251: {Ordinal: 7, MessageTypeComposite: "MSG", TimestampComposite: "TS"},
	V26:  {Ordinal: 8, MessageTypeComposite: "MSG", TimestampComposite: "TS"},
	V27:  {Ordinal: 9, MessageTypeComposite: "MSG", TimestampComposite: "DTM"},
	V271: {Ordinal: 10, MessageTypeComposite: "MSG", TimestampComposite: "DTM"},
	V28:  {Ordinal: 11, MessageTypeComposite: "MSG", TimestampComposite: "DTM"},
}

// ParseVersion normalizes a raw MSH-12 value ("2.5.1^..." or " 2.3 ") into a
// supported version. The second result is false when it is not supported.
func ParseVersion(raw string) (Version, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "^&~"); i >= 0 {
		raw = raw[:i]
	}
	v := Version(raw)
	return v, v.IsValid()
}

// ParseVersionField is ParseVersion for a raw MSH-12 field split with the
// message's own delimiters, so "2.5*X" reads as 2.5 when '*' is the
// component separator.
func ParseVersionField(field string, d delim.Delimiters) (Version, bool) {
	if i := strings.IndexFunc(field, func(r rune) bool {
		return r < 0x80 && d.IsDelimiter(byte(r))
	}); i >= 0 {
		field = field[:i]
	}
	return ParseVersion(field)
}

// Before reports whether v is older than other. Unknown versions sort first.
func (v Version) Before(other Version) bool {
	return versionConfigs[v].Ordinal < versionConfigs[other].Ordinal
}

// MessageTypeComposite returns the composite type of MSH-9 for the version.
func (v Version) MessageTypeComposite() string {
	if cfg, ok := versionConfigs[v]; ok {
		return cfg.MessageTypeComposite
	}
	return "MSG"
}

// TimestampComposite returns the timestamp type used by the version.
func (v Version) TimestampComposite() string {
	if cfg, ok := versionConfigs[v]; ok {
		return cfg.TimestampComposite
	}
	return "TS"
}

// Versions returns every supported version, oldest first.
func Versions() []Version {
	return []Version{V21, V22, V23, V231, V24, V25, V251, V26, V27, V271, V28}
}

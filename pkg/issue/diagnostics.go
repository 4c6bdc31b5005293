package issue

import (
	"fmt"
	"strconv"
	"strings"
)

// DiagnosticTemplate defines the structure for a diagnostic message.
type DiagnosticTemplate struct {
	Kind     Kind
	Severity Severity
	Template string
}

// diagnosticTemplates maps condition kinds to their templates.
// Templates use {placeholder} syntax for variable substitution.
var diagnosticTemplates = map[Kind]DiagnosticTemplate{
	KindMalformedHeader: {
		Severity: SeverityFatal,
		Template: "Malformed header segment '{line}'",
	},
	KindUnrecognizedTag: {
		Severity: SeverityError,
		Template: "No type is registered for tag '{tag}'",
	},
	KindUnexpectedDelimiter: {
		Severity: SeverityError,
		Template: "Unexpected delimiter '{char}' in primitive {tag} at {location}",
	},
	KindUnexpectedRepetition: {
		Severity: SeverityError,
		Template: "Field {location} ({tag}) is not repeatable but contains repetitions",
	},
	KindExtraContent: {
		Severity: SeverityError,
		Template: "Extra content '{value}' after {tag} at {location}",
	},
	KindAmbiguousType: {
		Severity: SeverityError,
		Template: "Cannot resolve the type of tag '{tag}'",
	},
	KindInvalidValue: {
		Severity: SeverityError,
		Template: "Value '{value}' is not a valid {tag} at {location}",
	},
	KindUnexpectedSegment: {
		Severity: SeverityWarning,
		Template: "Segment {tag} does not fit message structure {value}",
	},
}

// GetDiagnosticTemplate returns the template for a kind.
func GetDiagnosticTemplate(kind Kind) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[kind]
	if ok {
		tmpl.Kind = kind
	}
	return tmpl, ok
}

// Params returns the placeholder values of the condition.
func (e *Error) Params() map[string]any {
	location := e.Location
	if location == "" && e.Tag != "" && e.Index > 0 {
		location = e.Tag + "." + strconv.Itoa(e.Index)
	}
	params := map[string]any{
		"tag":      e.Tag,
		"index":    e.Index,
		"location": location,
		"value":    e.Value,
		"line":     e.Line,
	}
	if e.Char != 0 {
		params["char"] = string(e.Char)
	} else {
		params["char"] = ""
	}
	return params
}

// Format renders the diagnostic message for a condition.
func Format(e *Error) string {
	tmpl, ok := diagnosticTemplates[e.Kind]
	if !ok {
		return string(e.Kind)
	}
	return formatTemplate(tmpl.Template, e.Params())
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}

package hl7v2

import (
	"strconv"

	"github.com/gofhir/hl7v2/pkg/issue"
)

// IssueSeverity is the severity of a parse issue.
type IssueSeverity = issue.Severity

// IssueType is the kind of condition behind a parse issue.
type IssueType = issue.Kind

// Severity constants, re-exported for callers of the root package.
const (
	SeverityFatal       = issue.SeverityFatal
	SeverityError       = issue.SeverityError
	SeverityWarning     = issue.SeverityWarning
	SeverityInformation = issue.SeverityInformation
)

// Issue is a condition that was recorded rather than raised: a swallowed
// error in silent mode, a recovered segment, or a warning.
type Issue struct {
	// Severity of the issue (error, warning, information)
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Diagnostics contains human-readable details about the issue
	Diagnostics string `json:"diagnostics,omitempty"`

	// Location is the "Segment.Index" path, e.g. "PID.3.1"
	Location string `json:"location,omitempty"`

	// Segment is the raw source line the issue was raised on
	Segment string `json:"segment,omitempty"`

	// Line is the 1-based segment number within the message
	Line int `json:"line,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if i.Location != "" {
		s += " at " + i.Location
	}
	if i.Line > 0 {
		s += " (segment " + strconv.Itoa(i.Line) + ")"
	}
	return s
}

// IssueFromError converts a recorded condition into an Issue.
func IssueFromError(sev IssueSeverity, e *issue.Error) Issue {
	return Issue{
		Severity:    sev,
		Code:        e.Kind,
		Diagnostics: e.Error(),
		Location:    e.Location,
		Segment:     e.Line,
	}
}

package hl7v2

import (
	"testing"

	"github.com/gofhir/hl7v2/pkg/issue"
)

func TestIssue_IsError(t *testing.T) {
	tests := []struct {
		severity IssueSeverity
		want     bool
	}{
		{SeverityFatal, true},
		{SeverityError, true},
		{SeverityWarning, false},
		{SeverityInformation, false},
	}

	for _, tt := range tests {
		i := Issue{Severity: tt.severity}
		if got := i.IsError(); got != tt.want {
			t.Errorf("Issue{Severity: %s}.IsError() = %v; want %v", tt.severity, got, tt.want)
		}
		if got := i.IsWarning(); got != (tt.severity == SeverityWarning) {
			t.Errorf("Issue{Severity: %s}.IsWarning() = %v", tt.severity, got)
		}
	}
}

func TestIssue_String(t *testing.T) {
	tests := []struct {
		issue Issue
		want  string
	}{
		{
			issue: Issue{Severity: SeverityError, Diagnostics: "Invalid value"},
			want:  "error: Invalid value",
		},
		{
			issue: Issue{Severity: SeverityWarning, Diagnostics: "Extra content", Location: "PID.3", Line: 2},
			want:  "warning: Extra content at PID.3 (segment 2)",
		},
	}

	for _, tt := range tests {
		if got := tt.issue.String(); got != tt.want {
			t.Errorf("String() = %q; want %q", got, tt.want)
		}
	}
}

func TestIssueFromError(t *testing.T) {
	e := &issue.Error{
		Kind:     issue.KindUnexpectedRepetition,
		Tag:      "ST",
		Location: "PID.2",
		Line:     "PID|1|a~b",
	}
	got := IssueFromError(SeverityWarning, e)
	if got.Code != issue.KindUnexpectedRepetition {
		t.Errorf("Code = %q; want %q", got.Code, issue.KindUnexpectedRepetition)
	}
	if got.Location != "PID.2" || got.Segment != "PID|1|a~b" {
		t.Errorf("IssueFromError() = %+v", got)
	}
	if got.Diagnostics != e.Error() {
		t.Errorf("Diagnostics = %q; want %q", got.Diagnostics, e.Error())
	}
}

package hl7v2

import (
	"sync"
)

// Result collects the issues recorded while parsing one message.
type Result struct {
	// Valid is true if no errors were recorded (warnings are allowed)
	Valid bool `json:"valid"`

	// Issues contains all recorded issues
	Issues []Issue `json:"issues,omitempty"`

	// Structure is the message structure the message was parsed as
	Structure string `json:"structure,omitempty"`

	// Version is the HL7 version the message was parsed with
	Version string `json:"version,omitempty"`

	// Segments is the number of segments read
	Segments int `json:"segments"`

	// Recovered is the number of segments replaced by a catch-all
	Recovered int `json:"recovered"`

	// mu protects concurrent access to Issues
	mu sync.Mutex
}

// NewResult creates a new, valid result.
func NewResult() *Result {
	return &Result{
		Valid:  true,
		Issues: make([]Issue, 0, 8),
	}
}

// AddIssue adds an issue to the result.
// This method is thread-safe.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Issues = append(r.Issues, issue)
	if issue.IsError() {
		r.Valid = false
	}
}

// AddWarning is a convenience method to add a warning issue.
func (r *Result) AddWarning(code IssueType, diagnostics, location string) {
	r.AddIssue(Issue{
		Severity:    SeverityWarning,
		Code:        code,
		Diagnostics: diagnostics,
		Location:    location,
	})
}

// HasErrors returns true if there are any error or fatal issues.
func (r *Result) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, issue := range r.Issues {
		if issue.IsError() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, issue := range r.Issues {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning issues.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			count++
		}
	}
	return count
}

// Errors returns all error and fatal issues.
func (r *Result) Errors() []Issue {
	return r.filter(Issue.IsError)
}

// Warnings returns all warning issues.
func (r *Result) Warnings() []Issue {
	return r.filter(Issue.IsWarning)
}

func (r *Result) filter(keep func(Issue) bool) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issue
	for _, issue := range r.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Merge combines another result into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	segments, recovered := other.Segments, other.Recovered
	other.mu.Unlock()

	for _, issue := range issues {
		r.AddIssue(issue)
	}
	r.mu.Lock()
	r.Segments += segments
	r.Recovered += recovered
	r.mu.Unlock()
}

package worker

import (
	"time"

	"github.com/gofhir/hl7v2/pkg/parser"
)

// Job is one message to parse.
type Job struct {
	// ID identifies the job in its result.
	ID string

	// Index is the position of the message in its input.
	Index int

	// Line is the source line the message starts at, 0 when unknown.
	Line int

	// Message is the raw message text.
	Message []byte
}

// JobResult is the outcome of one job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Index and Line are copied from the job.
	Index int
	Line  int

	// Document is the parsed message, possibly partial when Error is set.
	Document *parser.Document

	// Error is the parse error, if any.
	Error error

	// Duration is the time spent parsing.
	Duration time.Duration
}

// BatchResult aggregates the results of many jobs.
type BatchResult struct {
	Results []*JobResult

	TotalJobs     int
	CompletedJobs int
	FailedJobs    int

	// TotalDuration is the sum of the job durations.
	TotalDuration time.Duration
}

// HasErrors reports whether any job failed or recorded an error issue.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r == nil {
			continue
		}
		if r.Error != nil {
			return true
		}
		if r.Document != nil && r.Document.Result.HasErrors() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error issues across all documents.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Document != nil {
			count += r.Document.Result.ErrorCount()
		}
	}
	return count
}

// Documents returns the parsed documents of successful jobs, in result order.
func (br *BatchResult) Documents() []*parser.Document {
	docs := make([]*parser.Document, 0, len(br.Results))
	for _, r := range br.Results {
		if r != nil && r.Error == nil && r.Document != nil {
			docs = append(docs, r.Document)
		}
	}
	return docs
}

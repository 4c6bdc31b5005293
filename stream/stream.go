package stream

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/parser"
	"github.com/gofhir/hl7v2/pkg/reader"
	"github.com/gofhir/hl7v2/worker"
)

// MessageResult is the outcome of parsing one message from a stream.
type MessageResult struct {
	// Index is the position of the message in the stream, -1 for
	// stream-level errors
	Index int

	// Segment is the stream-wide segment number the message starts at
	Segment int

	// ControlID is MSH-10 of the parsed message
	ControlID string

	// MessageType is MSH-9 as "TYPE^TRIGGER"
	MessageType string

	// Document is the parsed message
	Document *parser.Document

	// Error is set if the message could not be parsed
	Error error
}

// MessageParser parses multi-message streams.
type MessageParser struct {
	// parse turns one message's text into a document
	parse func(text []byte) (*parser.Document, error)

	// cfg configures the splitter
	cfg reader.Config

	// bufferSize is the channel buffer size
	bufferSize int

	// workerCount is the number of parallel workers
	workerCount int
}

// NewMessageParser creates a stream parser backed by p. Continuation and
// delimiter settings for splitting come from p's options.
func NewMessageParser(p *parser.Parser) *MessageParser {
	o := p.Options()
	return &MessageParser{
		parse: p.ParseBytes,
		cfg: reader.Config{
			Delimiters:         o.Delimiters,
			ContinuationMarker: o.ContinuationMarker,
		},
		bufferSize:  100,
		workerCount: 4,
	}
}

// WithBufferSize sets the channel buffer size.
func (v *MessageParser) WithBufferSize(size int) *MessageParser {
	if size > 0 {
		v.bufferSize = size
	}
	return v
}

// WithWorkerCount sets the number of parallel workers.
func (v *MessageParser) WithWorkerCount(count int) *MessageParser {
	if count > 0 {
		v.workerCount = count
	}
	return v
}

// ParseStream parses messages from r one at a time, emitting results in
// stream order. Trailer count mismatches are emitted last as a stream-level
// error.
func (v *MessageParser) ParseStream(ctx context.Context, r io.Reader) <-chan *MessageResult {
	results := make(chan *MessageResult, v.bufferSize)

	go func() {
		defer close(results)

		sp := NewSplitter(r, v.cfg)
		for {
			if err := ctx.Err(); err != nil {
				results <- &MessageResult{Index: -1, Error: err}
				return
			}

			m, err := sp.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				results <- &MessageResult{Index: -1, Error: fmt.Errorf("failed to read stream: %w", err)}
				return
			}
			results <- v.process(m)
		}

		if err := sp.Envelope().Validate(); err != nil {
			results <- &MessageResult{Index: -1, Error: err}
		}
	}()

	return results
}

// process parses a single message.
func (v *MessageParser) process(m Message) *MessageResult {
	doc, err := v.parse([]byte(m.Text))
	return messageResult(&worker.JobResult{Index: m.Index, Line: m.Segment, Document: doc, Error: err})
}

// ParseStreamParallel parses messages on a worker.Pool while preserving
// stream order in the output.
func (v *MessageParser) ParseStreamParallel(ctx context.Context, r io.Reader) <-chan *MessageResult {
	results := make(chan *MessageResult, v.bufferSize)

	go func() {
		defer close(results)

		pool := worker.NewPoolContext(ctx, parseFunc(v.parse), v.workerCount)
		defer pool.Close()

		// Split into the pool; stream-level errors are kept for the end
		var tail []*MessageResult
		go func() {
			defer pool.Finish()

			sp := NewSplitter(r, v.cfg)
			for {
				if err := ctx.Err(); err != nil {
					tail = append(tail, &MessageResult{Index: -1, Error: err})
					return
				}
				m, err := sp.Next()
				if err == io.EOF {
					if err := sp.Envelope().Validate(); err != nil {
						tail = append(tail, &MessageResult{Index: -1, Error: err})
					}
					return
				}
				if err != nil {
					tail = append(tail, &MessageResult{Index: -1, Error: fmt.Errorf("failed to read stream: %w", err)})
					return
				}
				job := worker.Job{ID: strconv.Itoa(m.Index), Index: m.Index, Line: m.Segment, Message: []byte(m.Text)}
				if !pool.Submit(job) {
					tail = append(tail, &MessageResult{Index: -1, Error: ctx.Err()})
					return
				}
			}
		}()

		// Collect results and reorder
		pending := make(map[int]*MessageResult)
		nextIndex := 0
		for jr := range pool.Results() {
			pending[jr.Index] = messageResult(jr)
			for {
				r, ok := pending[nextIndex]
				if !ok {
					break
				}
				results <- r
				delete(pending, nextIndex)
				nextIndex++
			}
		}

		// Anything left follows a gap; emit it in index order
		indexes := make([]int, 0, len(pending))
		for i := range pending {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		for _, i := range indexes {
			results <- pending[i]
		}

		for _, r := range tail {
			results <- r
		}
	}()

	return results
}

// parseFunc adapts a parse function to worker.Parser.
type parseFunc func(text []byte) (*parser.Document, error)

func (f parseFunc) ParseBytes(b []byte) (*parser.Document, error) {
	return f(b)
}

// messageResult converts a pool result into a stream result.
func messageResult(jr *worker.JobResult) *MessageResult {
	result := &MessageResult{
		Index:   jr.Index,
		Segment: jr.Line,
	}
	if jr.Error != nil {
		result.Error = fmt.Errorf("message %d (segment %d): %w", jr.Index, jr.Line, jr.Error)
		return result
	}
	result.Document = jr.Document
	result.ControlID = jr.Document.ControlID()
	result.MessageType = jr.Document.MessageType()
	return result
}

// StreamResult aggregates results from a stream parse.
type StreamResult struct {
	// TotalMessages is the number of messages parsed
	TotalMessages int

	// MessagesWithErrors is the count of messages whose result has errors
	MessagesWithErrors int

	// MessagesWithWarnings is the count of messages with warnings (but no errors)
	MessagesWithWarnings int

	// TotalIssues is the total number of issues recorded
	TotalIssues int

	// ProcessingErrors are messages that failed to parse and stream-level errors
	ProcessingErrors []error

	// Issues holds the recorded issues, indexed by message
	Issues map[int][]hl7v2.Issue

	// Documents are the parsed messages in stream order
	Documents []*parser.Document
}

// Aggregate collects all results from a stream parse.
func Aggregate(results <-chan *MessageResult) *StreamResult {
	agg := &StreamResult{
		Issues: make(map[int][]hl7v2.Issue),
	}

	for result := range results {
		if result.Error != nil {
			agg.ProcessingErrors = append(agg.ProcessingErrors, result.Error)
			continue
		}

		if result.Index < 0 {
			continue
		}

		agg.TotalMessages++

		if result.Document == nil {
			continue
		}
		agg.Documents = append(agg.Documents, result.Document)

		res := result.Document.Result
		if res == nil || len(res.Issues) == 0 {
			continue
		}
		agg.Issues[result.Index] = res.Issues
		agg.TotalIssues += len(res.Issues)

		if res.HasErrors() {
			agg.MessagesWithErrors++
		} else if res.WarningCount() > 0 {
			agg.MessagesWithWarnings++
		}
	}

	return agg
}

// HasErrors returns true if any message had errors or failed to parse.
func (r *StreamResult) HasErrors() bool {
	return r.MessagesWithErrors > 0 || len(r.ProcessingErrors) > 0
}

// Summary returns a human-readable summary of the stream parse.
func (r *StreamResult) Summary() string {
	return fmt.Sprintf(
		"Parsed %d messages: %d with errors, %d with warnings, %d total issues",
		r.TotalMessages,
		r.MessagesWithErrors,
		r.MessagesWithWarnings,
		r.TotalIssues,
	)
}

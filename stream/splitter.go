// Package stream splits and parses inputs that carry more than one HL7 v2
// message, such as batch files wrapped in FHS/BHS ... BTS/FTS envelopes or
// plain MSH-separated dumps.
package stream

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofhir/hl7v2/pkg/reader"
)

// ErrCountMismatch is returned by Envelope.Validate when a trailer's declared
// count disagrees with what was read.
var ErrCountMismatch = errors.New("batch trailer count mismatch")

// Message is one message cut from a stream.
type Message struct {
	// Index is the 0-based position of the message in the stream
	Index int

	// Segment is the stream-wide segment number of the MSH line
	Segment int

	// Text is the message source, each segment terminated by a carriage return
	Text string

	// Segments is the number of segments in Text
	Segments int
}

// Batch is one BHS ... BTS block.
type Batch struct {
	// Header is the raw BHS line
	Header string

	// Trailer is the raw BTS line, empty when the batch was never closed
	Trailer string

	// Messages is the number of messages read inside the batch
	Messages int

	fieldSep byte
}

// DeclaredCount returns BTS-1, the batch message count, when the trailer
// carries one.
func (b Batch) DeclaredCount() (int, bool) {
	return declared(b.Trailer, b.fieldSep)
}

// Envelope holds the batch structure seen around the messages.
type Envelope struct {
	// FileHeader is the raw FHS line
	FileHeader string

	// FileTrailer is the raw FTS line
	FileTrailer string

	// Batches are the BHS ... BTS blocks in input order
	Batches []Batch

	// Messages is the total number of messages read
	Messages int

	fieldSep byte
}

// DeclaredBatches returns FTS-1, the file batch count, when present.
func (e *Envelope) DeclaredBatches() (int, bool) {
	return declared(e.FileTrailer, e.fieldSep)
}

// Validate checks the trailer counts against the messages and batches read.
func (e *Envelope) Validate() error {
	var errs []error
	for i, b := range e.Batches {
		if n, ok := b.DeclaredCount(); ok && n != b.Messages {
			errs = append(errs, fmt.Errorf("%w: batch %d declares %d messages, read %d", ErrCountMismatch, i+1, n, b.Messages))
		}
	}
	if n, ok := e.DeclaredBatches(); ok && n != len(e.Batches) {
		errs = append(errs, fmt.Errorf("%w: file declares %d batches, read %d", ErrCountMismatch, n, len(e.Batches)))
	}
	return errors.Join(errs...)
}

func declared(line string, sep byte) (int, bool) {
	if line == "" {
		return 0, false
	}
	fields := strings.Split(line, string(sep))
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Splitter cuts a stream into messages. Every MSH line starts a new message;
// envelope segments close the current one. Data segments before the first
// MSH are skipped and counted.
// A Splitter is not safe for concurrent use.
type Splitter struct {
	r        *reader.Reader
	envelope Envelope
	skipped  int
	index    int

	cur      strings.Builder
	curStart int
	curCount int
	open     bool
	inBatch  bool
}

// NewSplitter creates a Splitter over r. Continuation lines are merged using
// the marker in cfg; cfg.Allow is ignored so each message keeps every
// segment for the parser to filter.
func NewSplitter(r io.Reader, cfg reader.Config) *Splitter {
	cfg.Allow = nil
	return &Splitter{r: reader.New(r, cfg)}
}

// Envelope returns the batch structure read so far.
func (s *Splitter) Envelope() *Envelope {
	return &s.envelope
}

// Skipped returns the number of data segments found outside any message.
func (s *Splitter) Skipped() int {
	return s.skipped
}

// Next returns the next message, or io.EOF when the stream is exhausted.
func (s *Splitter) Next() (Message, error) {
	for {
		seg, err := s.r.Next()
		if err == io.EOF {
			if s.open {
				return s.finish(), nil
			}
			return Message{}, io.EOF
		}
		if err != nil {
			return Message{}, err
		}

		switch seg.Name {
		case "MSH":
			var prev Message
			had := s.open
			if had {
				prev = s.finish()
			}
			s.start(seg)
			if had {
				return prev, nil
			}
		case "FHS", "FTS", "BHS", "BTS":
			s.envelopeSegment(seg)
			if s.open {
				return s.finish(), nil
			}
		default:
			if !s.open {
				s.skipped++
				continue
			}
			s.add(seg)
		}
	}
}

func (s *Splitter) start(seg reader.Segment) {
	s.open = true
	s.curStart = seg.Number
	s.curCount = 0
	s.cur.Reset()
	s.add(seg)

	s.envelope.Messages++
	if s.inBatch {
		s.envelope.Batches[len(s.envelope.Batches)-1].Messages++
	}
}

func (s *Splitter) add(seg reader.Segment) {
	s.cur.WriteString(seg.Line)
	s.cur.WriteByte('\r')
	s.curCount++
}

func (s *Splitter) finish() Message {
	m := Message{
		Index:    s.index,
		Segment:  s.curStart,
		Text:     s.cur.String(),
		Segments: s.curCount,
	}
	s.index++
	s.open = false
	s.cur.Reset()
	return m
}

func (s *Splitter) envelopeSegment(seg reader.Segment) {
	sep := seg.Delimiters.Field
	switch seg.Name {
	case "FHS":
		s.envelope.FileHeader = seg.Line
		s.envelope.fieldSep = sep
	case "FTS":
		s.envelope.FileTrailer = seg.Line
		if s.envelope.fieldSep == 0 {
			s.envelope.fieldSep = sep
		}
		s.inBatch = false
	case "BHS":
		s.envelope.Batches = append(s.envelope.Batches, Batch{Header: seg.Line, fieldSep: sep})
		s.inBatch = true
	case "BTS":
		if !s.inBatch {
			// A trailer without a header closes an implicit batch.
			s.envelope.Batches = append(s.envelope.Batches, Batch{fieldSep: sep})
		}
		b := &s.envelope.Batches[len(s.envelope.Batches)-1]
		b.Trailer = seg.Line
		b.fieldSep = sep
		s.inBatch = false
	}
}

// Split reads every message from r.
func Split(r io.Reader, cfg reader.Config) ([]Message, *Envelope, error) {
	s := NewSplitter(r, cfg)
	var out []Message
	for {
		m, err := s.Next()
		if err == io.EOF {
			return out, s.Envelope(), nil
		}
		if err != nil {
			return out, s.Envelope(), err
		}
		out = append(out, m)
	}
}

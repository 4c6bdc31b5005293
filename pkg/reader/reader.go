// Package reader groups raw input lines into logical HL7 v2 segments.
package reader

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/gofhir/hl7v2/pkg/delim"
)

// Segment is one logical segment: a header or data line with any
// continuation lines merged in.
type Segment struct {
	// Name is the segment code.
	Name string

	// Line is the merged source text, without terminator.
	Line string

	// Number is the 1-based logical segment number.
	Number int

	// Header is true for MSH, FHS and BHS.
	Header bool

	// Delimiters are the delimiters active for this segment.
	Delimiters delim.Delimiters

	// Err is set when a header line carried an unusable delimiter prefix.
	// The previous delimiters stay active.
	Err error
}

// Config configures a Reader.
type Config struct {
	// Delimiters are used until the first header line is read.
	Delimiters delim.Delimiters

	// ContinuationMarker starts a continuation line when followed by the
	// field separator. Empty disables continuation.
	ContinuationMarker string

	// Allow lists the segment codes to emit. Header segments are always
	// emitted. Empty emits everything.
	Allow []string
}

// Reader is a state machine over raw lines:
// awaiting a line, holding a candidate, merging continuations, emitting.
// A Reader is not safe for concurrent use.
type Reader struct {
	scanner *bufio.Scanner
	cfg     Config
	delims  delim.Delimiters
	allow   map[string]bool

	pending  string
	pendErr  error
	havePend bool
	number   int
	lines    int
	err      error
}

// New creates a Reader over r.
func New(r io.Reader, cfg Config) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	s.Split(scanLines)

	rd := &Reader{scanner: s, cfg: cfg, delims: cfg.Delimiters}
	if rd.delims == (delim.Delimiters{}) {
		rd.delims = delim.Default()
	}
	if len(cfg.Allow) > 0 {
		rd.allow = make(map[string]bool, len(cfg.Allow))
		for _, name := range cfg.Allow {
			rd.allow[name] = true
		}
	}
	return rd
}

// NewString creates a Reader over a string.
func NewString(s string, cfg Config) *Reader {
	return New(strings.NewReader(s), cfg)
}

// scanLines splits on CR, LF or CRLF.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// Need one more byte to tell CR from CRLF.
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Delimiters returns the active delimiter set.
func (r *Reader) Delimiters() delim.Delimiters {
	return r.delims
}

// LineNumber returns the number of physical lines read so far.
func (r *Reader) LineNumber() int {
	return r.lines
}

// Next returns the next logical segment, or io.EOF when the input is
// exhausted. A malformed header is reported in Segment.Err, not here.
func (r *Reader) Next() (Segment, error) {
	for {
		seg, ok, err := r.nextCandidate()
		if err != nil || !ok {
			if err == nil {
				err = io.EOF
			}
			return Segment{}, err
		}
		if r.allow != nil && !seg.Header && !r.allow[seg.Name] {
			continue
		}
		return seg, nil
	}
}

// nextCandidate reads lines until a full logical segment is available.
func (r *Reader) nextCandidate() (Segment, bool, error) {
	for {
		line, ok := r.readLine()
		if !ok {
			if r.havePend {
				return r.emit(), true, nil
			}
			return Segment{}, false, r.err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if r.isContinuation(line) {
			if r.havePend {
				r.pending += line[len(r.cfg.ContinuationMarker)+1:]
				continue
			}
			// A continuation with nothing to continue is an ordinary line.
		}
		if r.havePend {
			seg := r.emit()
			r.hold(line)
			return seg, true, nil
		}
		r.hold(line)
	}
}

func (r *Reader) readLine() (string, bool) {
	if !r.scanner.Scan() {
		r.err = r.scanner.Err()
		return "", false
	}
	r.lines++
	return r.scanner.Text(), true
}

func (r *Reader) isContinuation(line string) bool {
	m := r.cfg.ContinuationMarker
	return m != "" && len(line) > len(m) && strings.HasPrefix(line, m) && line[len(m)] == r.delims.Field
}

// hold makes line the pending candidate. Header lines re-derive the
// delimiters for the message they start.
func (r *Reader) hold(line string) {
	r.pendErr = nil
	if delim.IsHeader(line) {
		if d, err := delim.Extract(line); err != nil {
			r.pendErr = err
		} else {
			r.delims = d
		}
	}
	r.pending = line
	r.havePend = true
}

func (r *Reader) emit() Segment {
	r.number++
	line, err := r.pending, r.pendErr
	r.pending, r.pendErr, r.havePend = "", nil, false
	name := line
	if i := strings.IndexByte(line, r.delims.Field); i >= 0 {
		name = line[:i]
	}
	return Segment{
		Name:       name,
		Line:       line,
		Number:     r.number,
		Header:     delim.IsHeader(line),
		Delimiters: r.delims,
		Err:        err,
	}
}

// ReadAll returns every remaining segment.
func (r *Reader) ReadAll() ([]Segment, error) {
	var out []Segment
	for {
		seg, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, seg)
	}
}

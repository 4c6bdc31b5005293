// Package delim holds the HL7 v2 delimiter set and the escaper that encodes and
// decodes in-band escape sequences.
package delim

import (
	"fmt"
	"strings"

	"github.com/gofhir/hl7v2/pkg/issue"
)

// Null is the explicit-null field value: "clear this field".
const Null = `""`

// HeaderLength is the minimum length of a header line: tag, field separator
// and the four encoding characters.
const HeaderLength = 8

// Header tags whose fourth byte is the field separator.
var headerTags = []string{"MSH", "FHS", "BHS"}

// Delimiters is the set of five configurable delimiter characters.
type Delimiters struct {
	Field        byte
	Component    byte
	Subcomponent byte
	Repetition   byte
	Escape       byte
}

// Default returns the standard delimiter set |^&~\.
func Default() Delimiters {
	return Delimiters{
		Field:        '|',
		Component:    '^',
		Subcomponent: '&',
		Repetition:   '~',
		Escape:       '\\',
	}
}

// EncodingCharacters returns the header encoding field: component, repetition,
// escape and subcomponent, in that order.
func (d Delimiters) EncodingCharacters() string {
	return string([]byte{d.Component, d.Repetition, d.Escape, d.Subcomponent})
}

// Validate checks that all five characters are set and pairwise distinct and
// that none of them is a line break or the explicit-null quote.
func (d Delimiters) Validate() error {
	chars := []byte{d.Field, d.Component, d.Subcomponent, d.Repetition, d.Escape}
	for i, c := range chars {
		switch c {
		case 0, '\r', '\n', '"':
			return fmt.Errorf("invalid delimiter %q", c)
		}
		for _, other := range chars[i+1:] {
			if c == other {
				return fmt.Errorf("delimiter %q is used twice", c)
			}
		}
	}
	return nil
}

// IsDelimiter reports whether c is one of the four structural delimiters.
func (d Delimiters) IsDelimiter(c byte) bool {
	return c == d.Field || c == d.Component || c == d.Subcomponent || c == d.Repetition
}

// OnlyDelimiters reports whether s consists solely of structural delimiters.
func (d Delimiters) OnlyDelimiters(s string) bool {
	for i := 0; i < len(s); i++ {
		if !d.IsDelimiter(s[i]) {
			return false
		}
	}
	return true
}

// IndexAny returns the index of the first structural delimiter in s, or -1.
func (d Delimiters) IndexAny(s string) int {
	for i := 0; i < len(s); i++ {
		if d.IsDelimiter(s[i]) {
			return i
		}
	}
	return -1
}

// IsHeader reports whether line starts with a header tag (MSH, FHS, BHS).
func IsHeader(line string) bool {
	if len(line) < 4 {
		return false
	}
	for _, tag := range headerTags {
		if strings.HasPrefix(line, tag) {
			return true
		}
	}
	return false
}

// Extract reads the delimiter set from the fixed prefix of a header line.
func Extract(line string) (Delimiters, error) {
	if len(line) < HeaderLength || !IsHeader(line) {
		return Delimiters{}, &issue.Error{Kind: issue.KindMalformedHeader, Tag: tagOf(line), Line: line}
	}
	d := Delimiters{
		Field:        line[3],
		Component:    line[4],
		Repetition:   line[5],
		Escape:       line[6],
		Subcomponent: line[7],
	}
	if err := d.Validate(); err != nil {
		return Delimiters{}, &issue.Error{Kind: issue.KindMalformedHeader, Tag: tagOf(line), Line: line, Err: err}
	}
	return d, nil
}

func tagOf(line string) string {
	if len(line) < 3 {
		return line
	}
	return line[:3]
}

// IsNull reports whether token is the explicit-null marker.
func IsNull(token string) bool {
	return token == Null
}

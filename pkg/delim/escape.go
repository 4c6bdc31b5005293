package delim

import (
	"encoding/hex"
	"strings"
)

// Escape sequence codes between two escape characters.
const (
	seqField        = "F"
	seqComponent    = "S"
	seqSubcomponent = "T"
	seqRepetition   = "R"
	seqEscape       = "E"
	seqLineBreak    = ".br"
	seqHex          = "X"
)

// Unescape decodes the escape sequences in token. It returns false for an
// empty token, which means "absent". The explicit-null marker is not
// interpreted here; callers check IsNull first.
//
// Formatting sequences other than \.br\ are kept verbatim.
func Unescape(token string, d Delimiters) (string, bool) {
	if token == "" {
		return "", false
	}
	if strings.IndexByte(token, d.Escape) < 0 {
		return token, true
	}

	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c != d.Escape {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(token[i+1:], d.Escape)
		if end < 0 {
			// unterminated sequence, keep the rest as-is
			b.WriteString(token[i:])
			break
		}
		seq := token[i+1 : i+1+end]
		if decoded, ok := decodeSequence(seq, d); ok {
			b.WriteString(decoded)
		} else {
			b.WriteByte(d.Escape)
			b.WriteString(seq)
			b.WriteByte(d.Escape)
		}
		i += end + 1
	}
	return b.String(), true
}

func decodeSequence(seq string, d Delimiters) (string, bool) {
	switch seq {
	case seqField:
		return string(d.Field), true
	case seqComponent:
		return string(d.Component), true
	case seqSubcomponent:
		return string(d.Subcomponent), true
	case seqRepetition:
		return string(d.Repetition), true
	case seqEscape:
		return string(d.Escape), true
	case seqLineBreak:
		return "\n", true
	}
	if len(seq) > 1 && strings.HasPrefix(seq, seqHex) {
		raw, err := hex.DecodeString(seq[1:])
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

// Escape encodes text so that it can be emitted between delimiters. The four
// structural delimiters and the escape character are always escaped.
func Escape(text string, d Delimiters) string {
	if text == "" {
		return ""
	}
	if text == Null {
		// Literal quotes would read back as the explicit-null marker.
		return string(d.Escape) + seqHex + "22" + string(d.Escape) + `"`
	}
	if !needsEscape(text, d) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		c := text[i]
		var seq string
		switch c {
		case d.Field:
			seq = seqField
		case d.Component:
			seq = seqComponent
		case d.Subcomponent:
			seq = seqSubcomponent
		case d.Repetition:
			seq = seqRepetition
		case d.Escape:
			seq = seqEscape
		case '\n':
			seq = seqLineBreak
		case '\r':
			seq = seqHex + "0D"
		default:
			b.WriteByte(c)
			continue
		}
		b.WriteByte(d.Escape)
		b.WriteString(seq)
		b.WriteByte(d.Escape)
	}
	return b.String()
}

func needsEscape(text string, d Delimiters) bool {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if d.IsDelimiter(c) || c == d.Escape || c == '\n' || c == '\r' {
			return true
		}
	}
	return false
}

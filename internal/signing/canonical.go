package signing

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

// ErrNilResults is returned when there are no results to serialize.
var ErrNilResults = errors.New("results are nil")

const upperHex = "0123456789ABCDEF"

// CanonicalResults returns the byte form of results that signatures are computed over.
//
// The encoding is compact JSON in UTF-8. Only the quote, the backslash and C0 control
// characters are escaped; every other character, including non-ASCII and HTML-sensitive
// ones, is written literally. Invalid UTF-8 is replaced with U+FFFD.
// Signing and verification must both go through this function.
func CanonicalResults(results [][]string) ([]byte, error) {
	if results == nil {
		return nil, ErrNilResults
	}

	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, group := range results {
		if i > 0 {
			buf.WriteByte(',')
		}

		if group == nil {
			buf.WriteString("null")
			continue
		}

		buf.WriteByte('[')
		for j, s := range group {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeString(&buf, s)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte(']')

	return buf.Bytes(), nil
}

// writeString writes s as a quoted JSON string.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')

	for i := 0; i < len(s); {
		c := s[i]

		if c < utf8.RuneSelf {
			switch {
			case c == '"':
				buf.WriteString(`\"`)
			case c == '\\':
				buf.WriteString(`\\`)
			case c == '\b':
				buf.WriteString(`\b`)
			case c == '\f':
				buf.WriteString(`\f`)
			case c == '\n':
				buf.WriteString(`\n`)
			case c == '\r':
				buf.WriteString(`\r`)
			case c == '\t':
				buf.WriteString(`\t`)
			case c < 0x20:
				buf.WriteString(`\u00`)
				buf.WriteByte(upperHex[c>>4])
				buf.WriteByte(upperHex[c&0xF])
			default:
				buf.WriteByte(c)
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}

	buf.WriteByte('"')
}

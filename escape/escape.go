// Package escape implements the reversible character escaping used by coil
// table bodies and metadata.
//
// Each reserved character is prefixed with the escape marker. Body fields
// reserve the marker itself, the field separator, the record separator and
// the value-map pair separator. Metadata additionally reserves the value-map
// entry separator and the metadata group separator.
//
// Unescape is shared by both sets: a marker consumes exactly the next byte.
// A trailing unmatched marker is kept as a literal character; Validate can
// be used to reject such input instead.
package escape

import (
	"strings"

	"github.com/arloliu/coil/errs"
)

const (
	Marker      = '\\' // Marker is the escape marker.
	FieldSep    = ','  // FieldSep separates fields within a row and column keys.
	RecordSep   = '|'  // RecordSep separates rows in a body.
	PairSep     = ':'  // PairSep separates a value-map token from its value.
	EntrySep    = ';'  // EntrySep separates value-map entries in metadata.
	GroupSep    = '&'  // GroupSep separates metadata fields.
	bodyReserve = `\,|:`
	metaReserve = `\,|:;&`
)

// Escape escapes s for use as a body field.
func Escape(s string) string {
	return escapeSet(s, bodyReserve)
}

// EscapeMeta escapes s for use inside a metadata string.
func EscapeMeta(s string) string {
	return escapeSet(s, metaReserve)
}

func escapeSet(s, reserved string) string {
	if !strings.ContainsAny(s, reserved) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(reserved, c) >= 0 {
			b.WriteByte(Marker)
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Unescape reverses Escape and EscapeMeta.
//
// Scanning left to right, a marker causes the following byte to be copied
// literally. A marker in the final position has nothing to consume and is
// copied as-is.
func Unescape(s string) string {
	idx := strings.IndexByte(s, Marker)
	if idx < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:idx])
	for i := idx; i < len(s); i++ {
		c := s[i]
		if c == Marker && i+1 < len(s) {
			i++
			c = s[i]
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Validate reports ErrMalformedEscape when s ends with an unmatched marker.
func Validate(s string) error {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == Marker; i-- {
		n++
	}
	if n%2 == 1 {
		return errs.ErrMalformedEscape
	}

	return nil
}

// Split splits s on sep, skipping separators that are escaped.
//
// The returned parts are still escaped. Split always returns at least one
// element, so an empty s yields a single empty part.
func Split(s string, sep byte) []string {
	parts := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case Marker:
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

// Cut slices s around the first unescaped sep.
func Cut(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case Marker:
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}

	return s, "", false
}

// JoinMeta escapes each element with EscapeMeta and joins them with FieldSep.
func JoinMeta(elems []string) string {
	var b strings.Builder
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(FieldSep)
		}
		b.WriteString(EscapeMeta(e))
	}

	return b.String()
}

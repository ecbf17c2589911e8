// Package table converts a homogeneous array of flat records into the
// compact meta/body string pair and back.
//
// # Layout
//
// Metadata:
//
//	META&ORDER=<col>,<col>&tid=<table id>[&vmap=V1:<value>;V2:<value>]
//
// Body:
//
//	BODY|table[<rows>]{<col>,<col>}|<row>|<row>...
//
// Each row holds one field per column, separated by commas. A field is one
// of:
//
//	(empty)        the record has no such key
//	\~             null
//	\=<text>       literal text that must not be read as a token
//	\i \f \b \s    a literal of another type than the column's registered type
//	V<n>           a value-map token
//	<text>         an escaped literal of the column's registered type
//
// Escaping never emits a marker followed by an unreserved character, so the
// marker forms above cannot collide with escaped literals.
package table

import (
	"strconv"
	"strings"

	"github.com/arloliu/coil/escape"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/tree"
)

const (
	// MetaPrefix starts every metadata string.
	MetaPrefix = "META&"
	// BodyPrefix starts every body string.
	BodyPrefix = "BODY|"
	// MetaField and BodyField are the keys of an encoded table object.
	MetaField = "meta"
	BodyField = "body"

	headerPrefix = "table["
	idPrefix     = "tbl_"

	metaOrder = "ORDER"
	metaID    = "tid"
	metaVMap  = "vmap"
)

// cell markers, written after escape.Marker
const (
	markNull    = '~'
	markLiteral = '='
)

// ID returns the identifier of the n-th table (1-based) of one encode call.
func ID(n int) string {
	return idPrefix + strconv.Itoa(n)
}

// Encoded is the wire form of an accepted table.
type Encoded struct {
	Meta string
	Body string
}

// Object returns the two-field tree object that replaces the table.
func (e Encoded) Object() *tree.Object {
	obj := tree.NewObject(2)
	obj.Set(MetaField, e.Meta)
	obj.Set(BodyField, e.Body)

	return obj
}

// Text returns the table as a reader sees it: the metadata followed by the
// body records, joined by the record separator. The body prefix is left out
// because it only marks the field and is not priced.
func (e Encoded) Text() string {
	return e.Meta + string(escape.RecordSep) + strings.TrimPrefix(e.Body, BodyPrefix)
}

// AsEncoded reports whether v is an encoded table object: exactly the two
// string fields meta and body, carrying the metadata and body prefixes.
//
// An ordinary object that happens to match this shape is indistinguishable
// from an encoded table.
func AsEncoded(v any) (Encoded, bool) {
	var meta, body any
	switch x := v.(type) {
	case *tree.Object:
		if x == nil || x.Len() != 2 {
			return Encoded{}, false
		}
		meta, _ = x.Get(MetaField)
		body, _ = x.Get(BodyField)
	case map[string]any:
		if len(x) != 2 {
			return Encoded{}, false
		}
		meta, body = x[MetaField], x[BodyField]
	default:
		return Encoded{}, false
	}

	m, ok := meta.(string)
	if !ok || !strings.HasPrefix(m, MetaPrefix) {
		return Encoded{}, false
	}
	b, ok := body.(string)
	if !ok || !strings.HasPrefix(b, BodyPrefix) {
		return Encoded{}, false
	}

	return Encoded{Meta: m, Body: b}, true
}

// overrideMark returns the marker byte for a per-cell type override.
func overrideMark(tag format.TypeTag) byte {
	switch tag {
	case format.TypeInt:
		return 'i'
	case format.TypeFloat:
		return 'f'
	case format.TypeBool:
		return 'b'
	default:
		return 's'
	}
}

// overrideTag is the inverse of overrideMark.
func overrideTag(mark byte) (format.TypeTag, bool) {
	switch mark {
	case 'i':
		return format.TypeInt, true
	case 'f':
		return format.TypeFloat, true
	case 'b':
		return format.TypeBool, true
	case 's':
		return format.TypeStr, true
	default:
		return 0, false
	}
}

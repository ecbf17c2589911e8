package table

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/escape"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/internal/pool"
	"github.com/arloliu/coil/tree"
	"github.com/arloliu/coil/valuemap"
)

// Candidate is the compact form of one table together with the column
// types that must be registered if the candidate is accepted.
type Candidate struct {
	Encoded

	TableID  string
	Columns  []string
	Types    map[string]format.TypeTag
	ValueMap *valuemap.Map
}

// cell is one normalized record value.
type cell struct {
	present bool
	tag     format.TypeTag
	text    string
}

// Records converts a tree sequence into records when every element is an
// object. It returns false otherwise.
func Records(seq []any) ([]*tree.Object, bool) {
	records := make([]*tree.Object, len(seq))
	for i, e := range seq {
		obj, ok := tree.AsObject(e)
		if !ok {
			return nil, false
		}
		records[i] = obj
	}

	return records, true
}

// Eligible reports whether records can be encoded: at least one key in
// total and scalar values only.
func Eligible(records []*tree.Object) bool {
	keys := 0
	for _, r := range records {
		keys += r.Len()
		for _, v := range r.All() {
			if !tree.IsScalar(v) {
				return false
			}
		}
	}

	return keys > 0
}

// Columns returns the sorted union of the record keys.
func Columns(records []*tree.Object) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, k := range r.Keys() {
			seen[k] = struct{}{}
		}
	}

	return tree.SortedKeys(seen)
}

// Encode builds the compact candidate for records under tableID.
//
// Values repeated at least minFrequency times among the cells of their
// column's type are replaced by value-map tokens. The column type is the type of the first record holding the key;
// cells of a different type carry an inline type marker.
func Encode(tableID string, records []*tree.Object, minFrequency int) (*Candidate, error) {
	if !Eligible(records) {
		return nil, errors.Wrapf(errs.ErrUnsupportedValue, "table %s: records must be flat and non-empty", tableID)
	}

	columns := Columns(records)
	types := make(map[string]format.TypeTag, len(columns))
	cells := make([][]cell, len(records))
	values := make([]string, 0, len(records)*len(columns))

	for i, r := range records {
		row := make([]cell, len(columns))
		for j, col := range columns {
			v, ok := r.Get(col)
			if !ok {
				continue
			}
			c, err := newCell(v)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s column %q", tableID, col)
			}
			row[j] = c
			if _, seen := types[col]; !seen {
				types[col] = c.tag
			}
			// override cells are written literally and never take a token
			if c.tag != format.TypeNull && c.tag == types[col] {
				values = append(values, c.text)
			}
		}
		cells[i] = row
	}

	vm := valuemap.Propose(values, minFrequency)

	return &Candidate{
		Encoded: Encoded{
			Meta: buildMeta(tableID, columns, vm),
			Body: buildBody(columns, types, cells, vm),
		},
		TableID:  tableID,
		Columns:  columns,
		Types:    types,
		ValueMap: vm,
	}, nil
}

func newCell(v any) (cell, error) {
	tag, ok := format.TagOf(v)
	if !ok {
		return cell{}, errors.Wrapf(errs.ErrUnsupportedValue, "type %T", v)
	}
	s, _ := tree.Normalize(v)

	c := cell{present: true, tag: tag}
	switch x := s.(type) {
	case bool:
		c.text = strconv.FormatBool(x)
	case int64:
		c.text = strconv.FormatInt(x, 10)
	case float64:
		c.text = tree.FormatFloat(x)
	case string:
		c.text = x
	}

	return c, nil
}

func buildMeta(tableID string, columns []string, vm *valuemap.Map) string {
	bb := pool.GetBuffer()
	defer pool.PutBuffer(bb)

	bb.WriteString(MetaPrefix)
	bb.WriteString(metaOrder)
	bb.WriteByte('=')
	bb.WriteString(escape.JoinMeta(columns))
	bb.WriteByte(escape.GroupSep)
	bb.WriteString(metaID)
	bb.WriteByte('=')
	bb.WriteString(tableID)

	if vm.Len() > 0 {
		bb.WriteByte(escape.GroupSep)
		bb.WriteString(metaVMap)
		bb.WriteByte('=')
		for i, e := range vm.Entries() {
			if i > 0 {
				bb.WriteByte(escape.EntrySep)
			}
			bb.WriteString(e.Token)
			bb.WriteByte(escape.PairSep)
			bb.WriteString(escape.EscapeMeta(e.Value))
		}
	}

	return bb.String()
}

func buildBody(columns []string, types map[string]format.TypeTag, cells [][]cell, vm *valuemap.Map) string {
	bb := pool.GetBuffer()
	defer pool.PutBuffer(bb)

	bb.WriteString(BodyPrefix)
	bb.WriteString(headerPrefix)
	bb.B = strconv.AppendInt(bb.B, int64(len(cells)), 10)
	bb.WriteString("]{")
	bb.WriteString(escape.JoinMeta(columns))
	bb.WriteByte('}')

	colTypes := make([]format.TypeTag, len(columns))
	for j, col := range columns {
		colTypes[j] = types[col]
	}

	for _, row := range cells {
		bb.WriteByte(escape.RecordSep)
		for j, c := range row {
			if j > 0 {
				bb.WriteByte(escape.FieldSep)
			}
			writeField(bb, c, colTypes[j], vm)
		}
	}

	return bb.String()
}

func writeField(bb *pool.ByteBuffer, c cell, colType format.TypeTag, vm *valuemap.Map) {
	switch {
	case !c.present:
		return
	case c.tag == format.TypeNull:
		bb.WriteByte(escape.Marker)
		bb.WriteByte(markNull)
		return
	case c.tag != colType:
		bb.WriteByte(escape.Marker)
		bb.WriteByte(overrideMark(c.tag))
		bb.WriteString(escape.Escape(c.text))
		return
	}

	if token, ok := vm.TokenFor(c.text); ok {
		bb.WriteString(token)
		return
	}

	lit := escape.Escape(c.text)
	if lit == "" || vm.HasToken(lit) {
		bb.WriteByte(escape.Marker)
		bb.WriteByte(markLiteral)
	}
	bb.WriteString(lit)
}

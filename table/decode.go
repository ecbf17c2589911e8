package table

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/escape"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/tree"
	"github.com/arloliu/coil/valuemap"
)

// Meta is a parsed metadata string.
type Meta struct {
	Columns  []string
	TableID  string
	ValueMap *valuemap.Map
}

// TypeSource resolves the registered type of a column.
type TypeSource interface {
	ColumnType(tableID, column string) (format.TypeTag, error)
}

// ParseMeta parses an encoded table's metadata string.
func ParseMeta(meta string) (*Meta, error) {
	rest, ok := strings.CutPrefix(meta, MetaPrefix)
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidMeta, "missing %q prefix", MetaPrefix)
	}

	fields := make(map[string]string, 3)
	for _, group := range escape.Split(rest, escape.GroupSep) {
		key, value, found := strings.Cut(group, "=")
		if !found {
			continue
		}
		fields[key] = value
	}

	order, ok := fields[metaOrder]
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidMeta, "missing %s field", metaOrder)
	}
	tableID, ok := fields[metaID]
	if !ok || tableID == "" {
		return nil, errors.Wrapf(errs.ErrInvalidMeta, "missing %s field", metaID)
	}

	columns := escape.Split(order, escape.FieldSep)
	for i, col := range columns {
		if err := escape.Validate(col); err != nil {
			return nil, errors.Wrapf(errs.ErrInvalidMeta, "table %s column %q: %v", tableID, col, err)
		}
		columns[i] = escape.Unescape(col)
	}

	vm, err := parseValueMap(fields[metaVMap])
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", tableID)
	}

	return &Meta{Columns: columns, TableID: tableID, ValueMap: vm}, nil
}

func parseValueMap(s string) (*valuemap.Map, error) {
	if s == "" {
		return valuemap.New(nil), nil
	}

	parts := escape.Split(s, escape.EntrySep)
	entries := make([]valuemap.Entry, 0, len(parts))
	for _, part := range parts {
		token, value, found := escape.Cut(part, escape.PairSep)
		if !found || !valuemap.IsToken(token) {
			return nil, errors.Wrapf(errs.ErrInvalidMeta, "value-map entry %q", part)
		}
		if err := escape.Validate(value); err != nil {
			return nil, errors.Wrapf(errs.ErrInvalidMeta, "value-map entry %q: %v", part, err)
		}
		entries = append(entries, valuemap.Entry{Token: token, Value: escape.Unescape(value)})
	}

	return valuemap.New(entries), nil
}

// ParseBody splits a body string into its rows and checks the header count.
func ParseBody(body string) ([]string, error) {
	rest, ok := strings.CutPrefix(body, BodyPrefix)
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidBody, "missing %q prefix", BodyPrefix)
	}

	parts := escape.Split(rest, escape.RecordSep)
	header, rows := parts[0], parts[1:]

	countText, ok := strings.CutPrefix(header, headerPrefix)
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidBody, "header %q", header)
	}
	end := strings.IndexByte(countText, ']')
	if end < 0 {
		return nil, errors.Wrapf(errs.ErrInvalidBody, "header %q", header)
	}
	count, err := strconv.Atoi(countText[:end])
	if err != nil {
		return nil, errors.Wrapf(errs.ErrInvalidBody, "header %q: %v", header, err)
	}
	if count != len(rows) {
		return nil, errors.Wrapf(errs.ErrStructureMismatch, "header declares %d rows, body has %d", count, len(rows))
	}

	return rows, nil
}

// Decode rebuilds the records of an encoded table.
//
// Column types come from types; every failure to apply them is returned as
// an *errs.FieldError.
func Decode(meta, body string, types TypeSource) ([]any, error) {
	m, err := ParseMeta(meta)
	if err != nil {
		return nil, err
	}
	rows, err := ParseBody(body)
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", m.TableID)
	}

	colTypes := make([]format.TypeTag, len(m.Columns))
	for j, col := range m.Columns {
		colTypes[j], err = types.ColumnType(m.TableID, col)
		if err != nil {
			return nil, errs.NewFieldError(m.TableID, col, -1, "", err)
		}
	}

	records := make([]any, len(rows))
	for i, row := range rows {
		fields := escape.Split(row, escape.FieldSep)
		if len(fields) != len(m.Columns) {
			return nil, errs.NewFieldError(m.TableID, "", i, row,
				errors.Wrapf(errs.ErrStructureMismatch, "%d fields for %d columns", len(fields), len(m.Columns)))
		}

		rec := tree.NewObject(len(m.Columns))
		for j, raw := range fields {
			v, present, err := decodeField(raw, colTypes[j], m.ValueMap)
			if err != nil {
				return nil, errs.NewFieldError(m.TableID, m.Columns[j], i, raw, err)
			}
			if present {
				rec.Set(m.Columns[j], v)
			}
		}
		records[i] = rec
	}

	return records, nil
}

// decodeField resolves one raw field. present is false for an absent key.
func decodeField(raw string, colType format.TypeTag, vm *valuemap.Map) (any, bool, error) {
	if raw == "" {
		return nil, false, nil
	}
	if err := escape.Validate(raw); err != nil {
		return nil, false, err
	}

	if raw[0] == escape.Marker {
		switch mark := raw[1]; mark {
		case markNull:
			if len(raw) != 2 {
				return nil, false, errors.Wrap(errs.ErrInvalidBody, "null marker with trailing text")
			}

			return nil, true, nil
		case markLiteral:
			v, err := Convert(escape.Unescape(raw[2:]), colType)
			return v, true, err
		default:
			if tag, ok := overrideTag(mark); ok {
				v, err := Convert(escape.Unescape(raw[2:]), tag)
				return v, true, err
			}
		}
	}

	text, ok := vm.ValueOf(raw)
	if !ok {
		text = escape.Unescape(raw)
	}
	v, err := Convert(text, colType)

	return v, true, err
}

// Convert parses text as a value of the given type.
//
// Booleans compare case-insensitively against "true"; the null type yields
// nil whatever the text.
func Convert(text string, tag format.TypeTag) (any, error) {
	switch tag {
	case format.TypeInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTypeCoercion, "%q is not an int", text)
		}

		return i, nil
	case format.TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTypeCoercion, "%q is not a float", text)
		}

		return f, nil
	case format.TypeBool:
		return strings.EqualFold(text, "true"), nil
	case format.TypeNull:
		return nil, nil
	default:
		return text, nil
	}
}

package tree

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/internal/pool"
)

// Parse decodes JSON text into a tree value.
//
// Objects become *Object with document key order, integral numbers that fit
// in an int64 become int64 and every other number becomes float64.
func Parse(data []byte) (any, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse json")
	}

	return parseValue(dataType, value)
}

func parseValue(dataType jsonparser.ValueType, data []byte) (any, error) {
	switch dataType {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(data)
	case jsonparser.Number:
		i, err := jsonparser.ParseInt(data)
		if err == nil {
			return i, nil
		}
		// not integral or outside the int64 range
		f, err := jsonparser.ParseFloat(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse number %q", data)
		}

		return f, nil
	case jsonparser.String:
		return jsonparser.ParseString(data)
	case jsonparser.Array:
		return parseArray(data)
	case jsonparser.Object:
		return parseObject(data)
	default:
		return nil, errors.Newf("unexpected json value %q", data)
	}
}

func parseArray(data []byte) ([]any, error) {
	arr := make([]any, 0, 8)

	var inner error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if inner != nil {
			return
		}
		var v any
		v, inner = parseValue(dataType, value)
		arr = append(arr, v)
	})
	if inner != nil {
		return nil, inner
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse array")
	}

	return arr, nil
}

func parseObject(data []byte) (*Object, error) {
	obj := NewObject(8)
	// ObjectEach hands over keys already unescaped, in a buffer it reuses
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		v, err := parseValue(dataType, value)
		if err != nil {
			return err
		}
		obj.Set(string(key), v)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse object")
	}

	return obj, nil
}

// Marshal encodes v as compact JSON.
func Marshal(v any) ([]byte, error) {
	return marshal(v, "")
}

// MarshalSpaced encodes v on a single line with ", " and ": " separators,
// the default layout of most JSON emitters and the text a model is usually
// shown.
func MarshalSpaced(v any) ([]byte, error) {
	bb := pool.GetBuffer()
	defer pool.PutBuffer(bb)

	w := writer{buf: bb, spaced: true}
	if err := w.value(v, 0); err != nil {
		return nil, err
	}

	return bytes.Clone(bb.Bytes()), nil
}

// MarshalIndent encodes v as JSON with one indent string per nesting level.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return marshal(v, indent)
}

func marshal(v any, indent string) ([]byte, error) {
	bb := pool.GetBuffer()
	defer pool.PutBuffer(bb)

	w := writer{buf: bb, indent: indent}
	if err := w.value(v, 0); err != nil {
		return nil, err
	}

	return bytes.Clone(bb.Bytes()), nil
}

type writer struct {
	buf    *pool.ByteBuffer
	indent string
	spaced bool
	str    bytes.Buffer
	enc    *json.Encoder
}

func (w *writer) separator() {
	w.buf.WriteByte(',')
	if w.spaced {
		w.buf.WriteByte(' ')
	}
}

func (w *writer) newline(depth int) {
	if w.indent == "" {
		return
	}
	w.buf.WriteByte('\n')
	for range depth {
		w.buf.WriteString(w.indent)
	}
}

func (w *writer) value(v any, depth int) error {
	switch x := v.(type) {
	case *Object:
		if x == nil {
			w.buf.WriteString("null")
			return nil
		}

		return w.object(x, depth)
	case map[string]any:
		return w.object(ObjectFromMap(x), depth)
	case []any:
		return w.array(x, depth)
	}

	s, ok := Normalize(v)
	if !ok {
		return errors.Wrapf(errs.ErrUnsupportedValue, "type %T", v)
	}

	switch x := s.(type) {
	case nil:
		w.buf.WriteString("null")
	case bool:
		w.buf.B = strconv.AppendBool(w.buf.B, x)
	case int64:
		w.buf.B = strconv.AppendInt(w.buf.B, x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Wrapf(errs.ErrUnsupportedValue, "float %v", x)
		}
		w.buf.WriteString(FormatFloat(x))
		if x == math.Trunc(x) && math.Abs(x) < 1e21 {
			// keep the float kind visible after a JSON round trip
			w.buf.WriteString(".0")
		}
	case string:
		return w.string(x)
	}

	return nil
}

func (w *writer) object(obj *Object, depth int) error {
	w.buf.WriteByte('{')
	for i, k := range obj.keys {
		if i > 0 {
			w.separator()
		}
		w.newline(depth + 1)
		if err := w.string(k); err != nil {
			return err
		}
		w.buf.WriteByte(':')
		if w.indent != "" || w.spaced {
			w.buf.WriteByte(' ')
		}
		if err := w.value(obj.values[k], depth+1); err != nil {
			return err
		}
	}
	if len(obj.keys) > 0 {
		w.newline(depth)
	}
	w.buf.WriteByte('}')

	return nil
}

func (w *writer) array(arr []any, depth int) error {
	w.buf.WriteByte('[')
	for i, e := range arr {
		if i > 0 {
			w.separator()
		}
		w.newline(depth + 1)
		if err := w.value(e, depth+1); err != nil {
			return err
		}
	}
	if len(arr) > 0 {
		w.newline(depth)
	}
	w.buf.WriteByte(']')

	return nil
}

func (w *writer) string(s string) error {
	if w.enc == nil {
		w.enc = json.NewEncoder(&w.str)
		w.enc.SetEscapeHTML(false)
	}
	w.str.Reset()
	if err := w.enc.Encode(s); err != nil {
		return errors.Wrap(err, "encode string")
	}
	// Encode terminates every value with a newline
	w.buf.MustWrite(bytes.TrimSuffix(w.str.Bytes(), []byte{'\n'}))

	return nil
}

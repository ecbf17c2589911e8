package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/tree"
	"github.com/arloliu/coil/valuemap"
)

// columnTypes is a TypeSource that falls back to str.
type columnTypes map[string]map[string]format.TypeTag

func (c columnTypes) ColumnType(tableID, column string) (format.TypeTag, error) {
	if tag, ok := c[tableID][column]; ok {
		return tag, nil
	}

	return format.TypeStr, nil
}

func record(kv ...any) *tree.Object {
	obj := tree.NewObject(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		obj.Set(kv[i].(string), kv[i+1])
	}

	return obj
}

func asAny(records []*tree.Object) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}

	return out
}

func roundTrip(t *testing.T, records []*tree.Object) (*Candidate, []any) {
	t.Helper()

	cand, err := Encode(ID(1), records, valuemap.DefaultMinFrequency)
	require.NoError(t, err)

	decoded, err := Decode(cand.Meta, cand.Body, columnTypes{cand.TableID: cand.Types})
	require.NoError(t, err)

	return cand, decoded
}

func TestEncode_ConcreteScenario(t *testing.T) {
	records := []*tree.Object{
		record("a", int64(1), "b", "x"),
		record("a", int64(1), "b", "y"),
		record("a", int64(2), "b", "x"),
	}

	cand, decoded := roundTrip(t, records)

	require.Equal(t, "tbl_1", cand.TableID)
	require.Equal(t, []string{"a", "b"}, cand.Columns)
	require.Equal(t, map[string]format.TypeTag{"a": format.TypeInt, "b": format.TypeStr}, cand.Types)
	require.Equal(t, "META&ORDER=a,b&tid=tbl_1&vmap=V1:1;V2:x", cand.Meta)
	require.Equal(t, "BODY|table[3]{a,b}|V1,V2|V1,y|2,V2", cand.Body)

	require.Empty(t, cmp.Diff(asAny(records), decoded))
	a, _ := decoded[2].(*tree.Object).Get("a")
	require.Equal(t, int64(2), a)
}

func TestEncode_TypeFidelity(t *testing.T) {
	records := []*tree.Object{
		record("i", int64(10), "f", 1.5, "b", true, "n", nil, "s", "alpha"),
		record("i", int64(-3), "f", 2.0, "b", false, "n", nil, "s", "beta"),
	}

	cand, decoded := roundTrip(t, records)

	require.Equal(t, map[string]format.TypeTag{
		"i": format.TypeInt,
		"f": format.TypeFloat,
		"b": format.TypeBool,
		"n": format.TypeNull,
		"s": format.TypeStr,
	}, cand.Types)

	second := decoded[1].(*tree.Object)
	f, _ := second.Get("f")
	require.Equal(t, 2.0, f)
	require.IsType(t, float64(0), f)
	b, _ := second.Get("b")
	require.Equal(t, false, b)
	n, ok := second.Get("n")
	require.True(t, ok)
	require.Nil(t, n)
	i, _ := second.Get("i")
	require.Equal(t, int64(-3), i)
}

func TestEncode_MissingKeysAndMixedTypes(t *testing.T) {
	records := []*tree.Object{
		record("id", int64(1), "note", "hello, world", "score", nil),
		record("id", int64(2), "score", int64(7)),
		record("id", "three", "note", "", "extra", 1.25),
		record("id", int64(4), "note", `pipe|colon:back\slash`, "score", 7.5),
	}

	cand, decoded := roundTrip(t, records)

	require.Equal(t, []string{"extra", "id", "note", "score"}, cand.Columns)
	require.Equal(t, format.TypeNull, cand.Types["score"])
	require.Empty(t, cmp.Diff(asAny(records), decoded))

	second := decoded[1].(*tree.Object)
	require.False(t, second.Has("note"), "absent keys stay absent")
	require.False(t, second.Has("extra"))

	third := decoded[2].(*tree.Object)
	note, ok := third.Get("note")
	require.True(t, ok)
	require.Equal(t, "", note)
	id, _ := third.Get("id")
	require.Equal(t, "three", id)
}

func TestEncode_LiteralCollidingWithToken(t *testing.T) {
	records := []*tree.Object{
		record("k", "repeated"),
		record("k", "repeated"),
		record("k", "V1"),
	}

	cand, decoded := roundTrip(t, records)

	require.Equal(t, "BODY|table[3]{k}|V1|V1|\\=V1", cand.Body)
	require.Empty(t, cmp.Diff(asAny(records), decoded))
}

func TestEncode_OverrideCellsDoNotFeedValueMap(t *testing.T) {
	records := []*tree.Object{
		record("k", int64(1)),
		record("k", "dup"),
		record("k", "dup"),
	}

	cand, decoded := roundTrip(t, records)

	require.Zero(t, cand.ValueMap.Len())
	require.Equal(t, "META&ORDER=k&tid=tbl_1", cand.Meta)
	require.Equal(t, `BODY|table[3]{k}|1|\sdup|\sdup`, cand.Body)
	require.Empty(t, cmp.Diff(asAny(records), decoded))
}

func TestEncode_ReservedCharactersInKeys(t *testing.T) {
	records := []*tree.Object{
		record("a,b", "x", "c|d", "y", "e&f;g", "z"),
		record("a,b", "x", "c|d", "y", "e&f;g", "z"),
	}

	cand, decoded := roundTrip(t, records)

	require.Equal(t, []string{"a,b", "c|d", "e&f;g"}, cand.Columns)
	require.Empty(t, cmp.Diff(asAny(records), decoded))

	meta, err := ParseMeta(cand.Meta)
	require.NoError(t, err)
	require.Equal(t, cand.Columns, meta.Columns)
}

func TestEncode_ValueMapThreshold(t *testing.T) {
	records := []*tree.Object{
		record("m", "UPI", "s", "unique-1"),
		record("m", "UPI", "s", "unique-2"),
		record("m", "CARD", "s", "unique-3"),
	}

	cand, err := Encode(ID(7), records, valuemap.DefaultMinFrequency)
	require.NoError(t, err)

	_, ok := cand.ValueMap.TokenFor("UPI")
	require.True(t, ok)
	for _, v := range []string{"CARD", "unique-1", "unique-2", "unique-3"} {
		_, ok := cand.ValueMap.TokenFor(v)
		require.False(t, ok, v)
	}
	require.Equal(t, "META&ORDER=m,s&tid=tbl_7&vmap=V1:UPI", cand.Meta)
}

func TestEncode_Deterministic(t *testing.T) {
	build := func() []*tree.Object {
		return []*tree.Object{
			record("b", "x", "a", int64(1)),
			record("a", int64(1), "b", "y"),
			record("a", int64(2), "b", "x"),
		}
	}

	first, err := Encode(ID(1), build(), 2)
	require.NoError(t, err)
	second, err := Encode(ID(1), build(), 2)
	require.NoError(t, err)

	require.Equal(t, first.Encoded, second.Encoded)
	require.Equal(t, first.Types, second.Types)
}

func TestEncode_NotEligible(t *testing.T) {
	nested := []*tree.Object{
		record("a", []any{int64(1)}),
		record("a", int64(2)),
	}
	require.False(t, Eligible(nested))

	_, err := Encode(ID(1), nested, 2)
	require.ErrorIs(t, err, errs.ErrUnsupportedValue)

	empty := []*tree.Object{record(), record()}
	require.False(t, Eligible(empty))
}

func TestRecords(t *testing.T) {
	records, ok := Records([]any{map[string]any{"a": 1}, record("b", 2)})
	require.True(t, ok)
	require.Len(t, records, 2)
	require.Equal(t, []string{"a"}, records[0].Keys())

	_, ok = Records([]any{record("a", 1), "scalar"})
	require.False(t, ok)
}

func TestDecode_StructureMismatch(t *testing.T) {
	meta := "META&ORDER=a,b&tid=tbl_1"

	_, err := Decode(meta, "BODY|table[2]{a,b}|1,2|3", columnTypes{})
	require.ErrorIs(t, err, errs.ErrStructureMismatch)

	var fe *errs.FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "tbl_1", fe.TableID)
	require.Equal(t, 1, fe.Row)
	require.Equal(t, "3", fe.Raw)

	_, err = Decode(meta, "BODY|table[3]{a,b}|1,2|3,4", columnTypes{})
	require.ErrorIs(t, err, errs.ErrStructureMismatch)
}

func TestDecode_TypeCoercionFailure(t *testing.T) {
	meta := "META&ORDER=n&tid=tbl_4"
	body := "BODY|table[2]{n}|12|twelve"
	types := columnTypes{"tbl_4": {"n": format.TypeInt}}

	_, err := Decode(meta, body, types)
	require.ErrorIs(t, err, errs.ErrTypeCoercion)

	var fe *errs.FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "tbl_4", fe.TableID)
	require.Equal(t, "n", fe.Column)
	require.Equal(t, 1, fe.Row)
	require.Equal(t, "twelve", fe.Raw)
}

func TestDecode_MalformedEscape(t *testing.T) {
	_, err := Decode("META&ORDER=a&tid=tbl_1", "BODY|table[2]{a}|x|y\\", columnTypes{})
	require.ErrorIs(t, err, errs.ErrMalformedEscape)
}

func TestDecode_FallsBackToString(t *testing.T) {
	decoded, err := Decode("META&ORDER=a&tid=tbl_9", "BODY|table[2]{a}|1|2", columnTypes{})
	require.NoError(t, err)

	v, _ := decoded[0].(*tree.Object).Get("a")
	require.Equal(t, "1", v)
}

func TestDecode_NullColumnIgnoresText(t *testing.T) {
	types := columnTypes{"tbl_1": {"a": format.TypeNull}}
	decoded, err := Decode("META&ORDER=a&tid=tbl_1", "BODY|table[2]{a}|None|\\~", types)
	require.NoError(t, err)

	for _, rec := range decoded {
		v, ok := rec.(*tree.Object).Get("a")
		require.True(t, ok)
		require.Nil(t, v)
	}
}

func TestParseMeta_Invalid(t *testing.T) {
	tests := map[string]string{
		"prefix":     "ORDER=a&tid=tbl_1",
		"no order":   "META&tid=tbl_1",
		"no tid":     "META&ORDER=a",
		"bad token":  "META&ORDER=a&tid=tbl_1&vmap=X1:a",
		"no pair":    "META&ORDER=a&tid=tbl_1&vmap=V1",
		"bad escape": "META&ORDER=a\\&tid=tbl_1",
	}

	for name, meta := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMeta(meta)
			require.ErrorIs(t, err, errs.ErrInvalidMeta)
		})
	}
}

func TestParseMeta_ValueMap(t *testing.T) {
	m, err := ParseMeta(`META&ORDER=a&tid=tbl_2&vmap=V1:12\:30;V2:a\;b\&c`)
	require.NoError(t, err)

	require.Equal(t, "tbl_2", m.TableID)
	require.Equal(t, []valuemap.Entry{
		{Token: "V1", Value: "12:30"},
		{Token: "V2", Value: "a;b&c"},
	}, m.ValueMap.Entries())
}

func TestParseBody_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing prefix":   "table[1]{a}|x",
		"wrong header":     "BODY|rows[1]|x",
		"count not number": "BODY|table[x]{a}|x",
		"unclosed count":   "BODY|table[1{a}|x",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBody(body)
			require.ErrorIs(t, err, errs.ErrInvalidBody)
		})
	}
}

func TestAsEncoded(t *testing.T) {
	enc := Encoded{Meta: "META&ORDER=a&tid=tbl_1", Body: "BODY|table[2]{a}|1|2"}

	got, ok := AsEncoded(enc.Object())
	require.True(t, ok)
	require.Equal(t, enc, got)

	_, ok = AsEncoded(map[string]any{"meta": enc.Meta, "body": enc.Body})
	require.True(t, ok)

	_, ok = AsEncoded(record("meta", "author info", "body", "text"))
	require.False(t, ok, "plain fields without markers are not encoded tables")

	_, ok = AsEncoded(record("meta", enc.Meta, "body", enc.Body, "extra", int64(1)))
	require.False(t, ok)

	_, ok = AsEncoded([]any{enc.Meta})
	require.False(t, ok)
}

func TestEncoded_Text(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoded
		want string
	}{
		{
			name: "with value map",
			enc:  Encoded{Meta: "META&ORDER=a&tid=tbl_1&vmap=V1:x", Body: "BODY|table[2]{a}|V1|V1"},
			want: "META&ORDER=a&tid=tbl_1&vmap=V1:x|table[2]{a}|V1|V1",
		},
		{
			name: "absent cells",
			enc:  Encoded{Meta: "META&ORDER=a,b&tid=tbl_3", Body: "BODY|table[2]{a,b}|1,|,2"},
			want: "META&ORDER=a,b&tid=tbl_3|table[2]{a,b}|1,|,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.enc.Text())
		})
	}
}

func TestConvert(t *testing.T) {
	v, err := Convert("TRUE", format.TypeBool)
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = Convert("yes", format.TypeBool)
	require.NoError(t, err)
	require.Equal(t, false, v)

	_, err = Convert("1.5", format.TypeInt)
	require.ErrorIs(t, err, errs.ErrTypeCoercion)

	_, err = Convert("abc", format.TypeFloat)
	require.ErrorIs(t, err, errs.ErrTypeCoercion)

	v, err = Convert("anything", format.TypeNull)
	require.NoError(t, err)
	require.Nil(t, v)
}

package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coil/errs"
)

func TestTypeTag_RoundTripNames(t *testing.T) {
	for _, tag := range []TypeTag{TypeStr, TypeInt, TypeFloat, TypeBool, TypeNull} {
		text, err := tag.MarshalText()
		require.NoError(t, err)

		var got TypeTag
		require.NoError(t, got.UnmarshalText(text))
		require.Equal(t, tag, got)
	}
}

func TestParseTypeTag_LegacyNull(t *testing.T) {
	tag, err := ParseTypeTag("NoneType")
	require.NoError(t, err)
	require.Equal(t, TypeNull, tag)

	_, err = ParseTypeTag("dict")
	require.ErrorIs(t, err, errs.ErrInvalidTypeTag)
}

func TestTypeTag_MarshalInvalid(t *testing.T) {
	_, err := TypeTag(0).MarshalText()
	require.ErrorIs(t, err, errs.ErrInvalidTypeTag)
	require.False(t, TypeTag(9).Valid())
}

func TestTagOf(t *testing.T) {
	tests := []struct {
		name  string
		value any
		tag   TypeTag
		ok    bool
	}{
		{"nil", nil, TypeNull, true},
		{"string", "x", TypeStr, true},
		{"bool", false, TypeBool, true},
		{"int", 7, TypeInt, true},
		{"int64", int64(-7), TypeInt, true},
		{"uint64 fits", uint64(12), TypeInt, true},
		{"uint64 overflow", uint64(math.MaxUint64), TypeInt, false},
		{"float64", 1.5, TypeFloat, true},
		{"float32", float32(1.5), TypeFloat, true},
		{"slice", []any{}, 0, false},
		{"map", map[string]any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := TagOf(tt.value)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.tag, tag)
			}
		})
	}
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]CompressionType{
		"":     CompressionNone,
		"none": CompressionNone,
		"zstd": CompressionZstd,
		"s2":   CompressionS2,
		"lz4":  CompressionLZ4,
	} {
		t.Run("name "+name, func(t *testing.T) {
			got, err := ParseCompression(name)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
	require.Equal(t, "Unknown", CompressionType(0).String())
}

package format

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
)

type (
	// TypeTag identifies the primitive type recorded for a table column.
	TypeTag uint8
	// CompressionType identifies the codec used for persisted type registries.
	CompressionType uint8
)

const (
	TypeStr   TypeTag = 0x1 // TypeStr represents a string value.
	TypeInt   TypeTag = 0x2 // TypeInt represents a 64-bit signed integer.
	TypeFloat TypeTag = 0x3 // TypeFloat represents a 64-bit floating-point number.
	TypeBool  TypeTag = 0x4 // TypeBool represents a boolean.
	TypeNull  TypeTag = 0x5 // TypeNull represents the null value.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// legacyNullName is the null tag written by older registry files.
const legacyNullName = "NoneType"

func (t TypeTag) String() string {
	switch t {
	case TypeStr:
		return "str"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeNull:
		return "null"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the five known tags.
func (t TypeTag) Valid() bool {
	return t >= TypeStr && t <= TypeNull
}

// ParseTypeTag returns the tag for its wire name.
func ParseTypeTag(name string) (TypeTag, error) {
	switch name {
	case "str":
		return TypeStr, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "null", legacyNullName:
		return TypeNull, nil
	default:
		return 0, errors.Wrapf(errs.ErrInvalidTypeTag, "unknown type tag %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t TypeTag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.Wrapf(errs.ErrInvalidTypeTag, "tag value %d", uint8(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TypeTag) UnmarshalText(text []byte) error {
	tag, err := ParseTypeTag(string(text))
	if err != nil {
		return err
	}
	*t = tag

	return nil
}

// TagOf classifies a scalar tree value.
//
// Integer kinds are reported as TypeInt and both float kinds as TypeFloat.
// The second return value is false for anything that is not a scalar
// (objects, arrays, or unsupported Go types).
func TagOf(v any) (TypeTag, bool) {
	switch x := v.(type) {
	case nil:
		return TypeNull, true
	case string:
		return TypeStr, true
	case bool:
		return TypeBool, true
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return TypeInt, true
	case uint:
		return TypeInt, uint64(x) <= math.MaxInt64
	case uint64:
		return TypeInt, x <= math.MaxInt64
	case float32, float64:
		return TypeFloat, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-sensitive lower-case name ("none", "zstd",
// "s2", "lz4") to its CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, errors.Newf("unknown compression %q", name)
	}
}

package tree

import (
	"math"
	"strconv"
)

// Normalize converts a scalar to its canonical Go type: nil, bool, int64,
// float64 or string. It returns false for non-scalars and for unsigned
// values that overflow int64.
func Normalize(v any) (any, bool) {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, false
		}

		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return nil, false
		}

		return int64(x), true
	case float32:
		return float64(x), true
	default:
		return nil, false
	}
}

// IsScalar reports whether v is a supported scalar value.
func IsScalar(v any) bool {
	_, ok := Normalize(v)
	return ok
}

// FormatFloat returns the shortest text that parses back to f, switching to
// exponent notation for very small or very large magnitudes.
func FormatFloat(f float64) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}

	return strconv.FormatFloat(f, format, -1, 64)
}

// Package hash computes the xxHash64 digests used to fingerprint type
// registries and encoded payloads.
package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Bytes computes the xxHash64 of data.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Hex formats a digest as 16 lower-case hex digits.
func Hex(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

//go:build coil_cgozstd

package compress

import (
	"github.com/cockroachdb/errors"
	"github.com/valyala/gozstd"
)

const zstdLevel = 6

// Compress compresses the input data using the cgo Zstandard binding.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decompresses Zstd-compressed data.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decompression failed")
	}

	return out, nil
}

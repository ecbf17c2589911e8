package compress

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coil/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

// registryDocument builds a registry-like JSON document with n tables.
func registryDocument(n int) []byte {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i := 1; i <= n; i++ {
		if i > 1 {
			buf.WriteString(",\n")
		}
		fmt.Fprintf(&buf, `  "tbl_%d": {"amount": "int", "city": "str", "method": "str", "ok": "bool"}`, i)
	}
	buf.WriteString("\n}")

	return buf.Bytes()
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}

	_, err := GetCodec(format.CompressionType(0x7f))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported compression type")
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	for _, ct := range allTypes {
		for _, size := range []int{1, 10, 500} {
			t.Run(fmt.Sprintf("%s/%d", ct, size), func(t *testing.T) {
				codec, err := GetCodec(ct)
				require.NoError(t, err)

				data := registryDocument(size)
				compressed, err := codec.Compress(data)
				require.NoError(t, err)

				restored, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, data, restored)
			})
		}
	}
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			restored, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	garbage := []byte("definitely not a compressed registry \xff\xfe\xfd")

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(garbage)
			require.Error(t, err)
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := registryDocument(50)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			concurrentRoundTrips(t, codec, data)
		})
	}
}

func concurrentRoundTrips(t *testing.T, codec Codec, data []byte) {
	t.Helper()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				compressed, err := codec.Compress(data)
				if err != nil {
					t.Errorf("compress: %v", err)
					return
				}
				restored, err := codec.Decompress(compressed)
				if err != nil || !bytes.Equal(restored, data) {
					t.Errorf("round trip failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCompressWithStats(t *testing.T) {
	data := registryDocument(200)

	out, stats, err := CompressWithStats(format.CompressionZstd, data)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), stats.OriginalSize)
	require.Equal(t, int64(len(out)), stats.CompressedSize)
	require.Less(t, stats.Ratio(), 0.5, "repetitive registries compress well")
	require.Greater(t, stats.SpaceSavings(), 50.0)

	_, _, err = CompressWithStats(format.CompressionType(0), data)
	require.Error(t, err)

	require.Zero(t, Stats{}.Ratio())
}

package coil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/tree"
)

func ordersDocument(n int) []byte {
	methods := []string{"GET", "POST", "DELETE"}
	statuses := []string{"ok", "error"}

	var sb strings.Builder
	sb.WriteString(`{"service": "billing", "requests": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `{"id": %d, "method": %q, "status": %q, "latency": %d.25, "cached": %t}`,
			i, methods[i%3], statuses[i%2], i%5, i%4 == 0)
	}
	sb.WriteString(`], "meta": {"version": 3, "tags": ["a", "b"]}}`)

	return []byte(sb.String())
}

func compact(t *testing.T, data []byte) string {
	t.Helper()
	v, err := tree.Parse(data)
	require.NoError(t, err)
	out, err := tree.Marshal(v)
	require.NoError(t, err)

	return string(out)
}

func TestEncodeJSON_RoundTrip(t *testing.T) {
	doc := ordersDocument(120)

	payload, reg, err := EncodeJSON(doc)
	require.NoError(t, err)
	require.Less(t, len(payload), len(compact(t, doc)))
	require.Contains(t, string(payload), `"requests":{"meta":"META&ORDER=cached,id,latency,method,status&tid=tbl_1`)
	require.Equal(t, []string{"tbl_1"}, reg.Tables())

	restored, err := DecodeJSON(payload, reg)
	require.NoError(t, err)
	require.Equal(t, compact(t, doc), string(restored))
}

func TestEncodeJSON_Errors(t *testing.T) {
	_, _, err := EncodeJSON([]byte(`{"broken": `))
	require.Error(t, err)

	_, _, err = EncodeJSON(ordersDocument(3), codec.WithMinFrequency(0))
	require.Error(t, err)

	_, err = DecodeJSON([]byte(`[1, 2`), registry.New())
	require.Error(t, err)
}

func TestDecodeJSON_WithoutRegistry(t *testing.T) {
	payload, _, err := EncodeJSON(ordersDocument(120))
	require.NoError(t, err)

	_, err = DecodeJSON(payload, nil)
	require.ErrorIs(t, err, errs.ErrRegistryUnavailable)
}

func TestEncodeDecode_Tree(t *testing.T) {
	v, err := tree.Parse(ordersDocument(50))
	require.NoError(t, err)

	res, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, 1, res.Stats.TablesEncoded)

	out, err := Decode(res.Tree, res.Registry, codec.WithStrictRegistry(true))
	require.NoError(t, err)
	require.True(t, tree.Equal(v, out))
}

func TestDigest(t *testing.T) {
	a := Digest([]byte(`{"a":1}`))
	require.Len(t, a, 16)
	require.Equal(t, a, Digest([]byte(`{"a":1}`)))
	require.NotEqual(t, a, Digest([]byte(`{"a":2}`)))
}

func TestEncodeToDecodeFrom(t *testing.T) {
	ctx := context.Background()
	v, err := tree.Parse(ordersDocument(120))
	require.NoError(t, err)

	stores := map[string]registry.Store{
		"memory": registry.NewMemoryStore(),
		"file":   registry.NewFileStore(filepath.Join(t.TempDir(), registry.DefaultFileName)),
		"zstd":   registry.NewFileStore(filepath.Join(t.TempDir(), "types.zst"), registry.WithCompression(format.CompressionZstd)),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			encoded, err := EncodeTo(ctx, store, v)
			require.NoError(t, err)

			decoded, err := DecodeFrom(ctx, store, encoded)
			require.NoError(t, err)
			require.True(t, tree.Equal(v, decoded))
		})
	}
}

func TestDecodeFrom_EmptyStore(t *testing.T) {
	_, err := DecodeFrom(context.Background(), registry.NewMemoryStore(), map[string]any{})
	require.ErrorIs(t, err, registry.ErrNotFound)
	require.ErrorIs(t, err, errs.ErrRegistryUnavailable)
}

func TestDecodeFrom_MissingFile(t *testing.T) {
	store := registry.NewFileStore(filepath.Join(t.TempDir(), registry.DefaultFileName))

	_, err := DecodeFrom(context.Background(), store, map[string]any{})
	require.ErrorIs(t, err, errs.ErrRegistryUnavailable)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestEncodeJSONCached(t *testing.T) {
	cache, err := registry.NewCache(4)
	require.NoError(t, err)

	doc := ordersDocument(120)
	payload, key, err := EncodeJSONCached(cache, doc)
	require.NoError(t, err)
	require.Equal(t, Digest(payload), key)
	require.Equal(t, 1, cache.Len())

	restored, err := DecodeJSONCached(cache, payload)
	require.NoError(t, err)
	require.Equal(t, compact(t, doc), string(restored))

	cache.Purge()
	_, err = DecodeJSONCached(cache, payload)
	require.ErrorIs(t, err, errs.ErrRegistryUnavailable)
}

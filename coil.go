// Package coil shrinks JSON-like trees for token-billed consumers by
// rewriting arrays of similar records as compact tables, and restores them
// losslessly.
//
// An encoded table replaces the record array with a two-field object:
//
//	{
//	  "meta": "META&ORDER=a,b&tid=tbl_1&vmap=V1:1;V2:x",
//	  "body": "BODY|table[3]{a,b}|V1,V2|V1,y|2,V2"
//	}
//
// The primitive types of the columns travel separately in a type registry,
// which must be handed to the decode call for the same payload. A table is
// only encoded when its compact form is estimated to cost fewer tokens than
// its JSON text.
//
// # Basic Usage
//
//	payload, reg, err := coil.EncodeJSON(data)
//	if err != nil {
//	    return err
//	}
//	// ship payload to the consumer, keep reg
//	restored, err := coil.DecodeJSON(payload, reg)
//
// Registries can be persisted through a registry.Store:
//
//	store := registry.NewFileStore("coil_types.json")
//	encoded, err := coil.EncodeTo(ctx, store, tree)
//	...
//	decoded, err := coil.DecodeFrom(ctx, store, encoded)
//
// # Package Structure
//
// This package wraps the codec package for the common cases. Use codec
// directly to reuse one Encoder across calls or to inspect encode Stats.
package coil

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/internal/hash"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/tree"
)

// Encode encodes v with a fresh registry.
func Encode(v any, opts ...codec.EncoderOption) (*codec.Result, error) {
	enc, err := codec.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return enc.Encode(v)
}

// Decode restores v using the registry returned by the matching Encode call.
func Decode(v any, reg *registry.Registry, opts ...codec.DecoderOption) (any, error) {
	dec, err := codec.NewDecoder(reg, opts...)
	if err != nil {
		return nil, err
	}

	return dec.Decode(v)
}

// EncodeJSON encodes a JSON document and returns the compact JSON payload
// together with its registry. Object key order is preserved.
func EncodeJSON(data []byte, opts ...codec.EncoderOption) ([]byte, *registry.Registry, error) {
	v, err := tree.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	res, err := Encode(v, opts...)
	if err != nil {
		return nil, nil, err
	}

	payload, err := tree.Marshal(res.Tree)
	if err != nil {
		return nil, nil, err
	}

	return payload, res.Registry, nil
}

// DecodeJSON restores a payload produced by EncodeJSON and returns it as
// compact JSON.
func DecodeJSON(payload []byte, reg *registry.Registry, opts ...codec.DecoderOption) ([]byte, error) {
	v, err := tree.Parse(payload)
	if err != nil {
		return nil, err
	}

	out, err := Decode(v, reg, opts...)
	if err != nil {
		return nil, err
	}

	return tree.Marshal(out)
}

// Digest returns a short content key for an encoded payload, suitable for
// keying a registry.Cache.
func Digest(payload []byte) string {
	return hash.Hex(hash.Bytes(payload))
}

// EncodeTo encodes v and saves the registry to store.
func EncodeTo(ctx context.Context, store registry.Store, v any, opts ...codec.EncoderOption) (any, error) {
	res, err := Encode(v, opts...)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, res.Registry); err != nil {
		return nil, errors.Wrap(err, "save type registry")
	}

	return res.Tree, nil
}

// DecodeFrom loads the registry from store and decodes v with it.
func DecodeFrom(ctx context.Context, store registry.Store, v any, opts ...codec.DecoderOption) (any, error) {
	reg, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load type registry")
	}

	return Decode(v, reg, opts...)
}

// EncodeJSONCached encodes a JSON document and keeps its registry in cache
// under the payload Digest, which is returned as the key.
func EncodeJSONCached(cache *registry.Cache, data []byte, opts ...codec.EncoderOption) ([]byte, string, error) {
	payload, reg, err := EncodeJSON(data, opts...)
	if err != nil {
		return nil, "", err
	}

	key := Digest(payload)
	cache.Put(key, reg)

	return payload, key, nil
}

// DecodeJSONCached decodes a payload produced by EncodeJSONCached, looking
// its registry up by the payload Digest. A payload whose registry has been
// evicted decodes only if it holds no encoded tables.
func DecodeJSONCached(cache *registry.Cache, payload []byte, opts ...codec.DecoderOption) ([]byte, error) {
	reg, _ := cache.Get(Digest(payload))

	return DecodeJSON(payload, reg, opts...)
}

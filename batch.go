package coil

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/tree"
)

// EncodedDocument is one result of EncodeBatch.
type EncodedDocument struct {
	Payload  []byte
	Registry *registry.Registry
	Stats    codec.Stats
}

// EncodeBatch encodes JSON documents concurrently, running at most limit
// encodes at a time (GOMAXPROCS when limit <= 0). Every document gets its
// own registry, and results keep the input order. The first failure cancels
// the remaining documents.
func EncodeBatch(ctx context.Context, docs [][]byte, limit int, opts ...codec.EncoderOption) ([]EncodedDocument, error) {
	enc, err := codec.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	out := make([]EncodedDocument, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			v, err := tree.Parse(doc)
			if err != nil {
				return errors.Wrapf(err, "document %d", i)
			}
			res, err := enc.Encode(v)
			if err != nil {
				return errors.Wrapf(err, "document %d", i)
			}
			payload, err := tree.Marshal(res.Tree)
			if err != nil {
				return errors.Wrapf(err, "document %d", i)
			}

			out[i] = EncodedDocument{Payload: payload, Registry: res.Registry, Stats: res.Stats}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

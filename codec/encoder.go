// Package codec walks a JSON-like tree and swaps record arrays for their
// compact table form, and back.
//
// Encode visits the tree in pre-order. Every array of at least two flat
// objects becomes a table candidate with the next identifier (tbl_1,
// tbl_2, ...), and the candidate replaces the array only when the cost
// model says it is cheaper. Decode replaces every encoded table object with
// its records, using the registry produced by the matching Encode call.
//
// Object values may be *tree.Object or map[string]any; maps are visited in
// sorted key order so that table identifiers are deterministic. Output
// objects are always *tree.Object.
package codec

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/internal/options"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/table"
	"github.com/arloliu/coil/tree"
)

// Encoder encodes trees. It holds no per-call state and is safe for
// concurrent use; every Encode call builds its own registry.
type Encoder struct {
	cfg *EncoderConfig
}

// NewEncoder creates an Encoder.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg}, nil
}

// encodeState accumulates the identifier counter, registry and stats of one
// Encode call.
type encodeState struct {
	cfg    *EncoderConfig
	nextID int
	reg    *registry.Registry
	stats  Stats
}

// Encode returns v with every worthwhile table replaced by its encoded form.
// The input tree is not modified.
func (e *Encoder) Encode(v any) (*Result, error) {
	st := &encodeState{cfg: e.cfg, reg: registry.New()}

	out, err := st.walk(v)
	if err != nil {
		return nil, err
	}

	return &Result{Tree: out, Registry: st.reg, Stats: st.stats}, nil
}

func (st *encodeState) walk(v any) (any, error) {
	switch x := v.(type) {
	case *tree.Object:
		if x == nil {
			return nil, errors.Wrap(errs.ErrUnsupportedValue, "nil object")
		}

		return st.walkObject(x)
	case map[string]any:
		return st.walkObject(tree.ObjectFromMap(x))
	case []any:
		return st.walkSequence(x)
	default:
		if !tree.IsScalar(v) {
			return nil, errors.Wrapf(errs.ErrUnsupportedValue, "%T", v)
		}

		return v, nil
	}
}

func (st *encodeState) walkObject(obj *tree.Object) (any, error) {
	out := tree.NewObject(obj.Len())
	for k, val := range obj.All() {
		res, err := st.walk(val)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", k)
		}
		out.Set(k, res)
	}

	return out, nil
}

func (st *encodeState) walkSequence(seq []any) (any, error) {
	if len(seq) >= 2 {
		if records, ok := table.Records(seq); ok && table.Eligible(records) {
			encoded, accepted, err := st.encodeTable(seq, records)
			if err != nil || accepted {
				return encoded, err
			}
		}
	}

	return st.walkElements(seq)
}

func (st *encodeState) walkElements(seq []any) (any, error) {
	out := make([]any, len(seq))
	for i, e := range seq {
		res, err := st.walk(e)
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = res
	}

	return out, nil
}

// encodeTable builds the candidate for records and reports whether it was
// accepted.
func (st *encodeState) encodeTable(seq []any, records []*tree.Object) (any, bool, error) {
	st.nextID++
	id := table.ID(st.nextID)
	st.stats.TablesSeen++

	cand, err := table.Encode(id, records, st.cfg.minFrequency)
	if err != nil {
		return nil, false, err
	}

	original, err := tree.MarshalSpaced(seq)
	if err != nil {
		return nil, false, errors.Wrapf(err, "table %s", id)
	}

	decision := st.cfg.model.Evaluate(string(original), cand.Text())
	if !decision.Accepted {
		st.stats.TablesSkipped++
		st.cfg.logger.Debug("table skipped",
			slog.String("table", id),
			slog.Int("rows", len(records)),
			slog.Int("original_tokens", decision.OriginalTokens),
			slog.Int("candidate_tokens", decision.CandidateTokens))

		return nil, false, nil
	}

	st.reg.Set(id, cand.Types)
	st.stats.TablesEncoded++
	st.stats.OriginalTokens += decision.OriginalTokens
	st.stats.EncodedTokens += decision.CandidateTokens
	st.cfg.logger.Debug("table encoded",
		slog.String("table", id),
		slog.Int("rows", len(records)),
		slog.Int("columns", len(cand.Columns)),
		slog.Int("vmap", cand.ValueMap.Len()),
		slog.Int("original_tokens", decision.OriginalTokens),
		slog.Int("candidate_tokens", decision.CandidateTokens))

	return cand.Object(), true, nil
}

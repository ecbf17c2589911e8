package codec

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/internal/options"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/table"
	"github.com/arloliu/coil/tree"
)

// Decoder restores trees produced by an Encoder. It never modifies its
// registry and is safe for concurrent use.
type Decoder struct {
	reg *registry.Registry
	cfg *DecoderConfig
}

var _ table.TypeSource = (*Decoder)(nil)

// NewDecoder creates a Decoder reading column types from reg.
//
// reg may be nil for trees that hold no encoded tables; meeting an encoded
// table then fails with errs.ErrRegistryUnavailable.
func NewDecoder(reg *registry.Registry, opts ...DecoderOption) (*Decoder, error) {
	cfg := newDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{reg: reg, cfg: cfg}, nil
}

// ColumnType implements table.TypeSource. Columns missing from the registry
// decode as strings unless the decoder is strict.
func (d *Decoder) ColumnType(tableID, column string) (format.TypeTag, error) {
	if d.reg == nil {
		return 0, errors.Wrapf(errs.ErrRegistryUnavailable, "table %s", tableID)
	}

	tag, err := d.reg.ColumnType(tableID, column)
	if err == nil {
		return tag, nil
	}
	if d.cfg.strict {
		return 0, err
	}

	d.cfg.logger.Debug("column not registered, decoding as str",
		slog.String("table", tableID),
		slog.String("column", column))

	return format.TypeStr, nil
}

// Decode returns v with every encoded table replaced by its records.
func (d *Decoder) Decode(v any) (any, error) {
	switch x := v.(type) {
	case *tree.Object:
		if x == nil {
			return nil, errors.Wrap(errs.ErrUnsupportedValue, "nil object")
		}
		if enc, ok := table.AsEncoded(x); ok {
			return d.decodeTable(enc)
		}

		return d.decodeObject(x)
	case map[string]any:
		if enc, ok := table.AsEncoded(x); ok {
			return d.decodeTable(enc)
		}

		return d.decodeObject(tree.ObjectFromMap(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			res, err := d.Decode(e)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out[i] = res
		}

		return out, nil
	default:
		if !tree.IsScalar(v) {
			return nil, errors.Wrapf(errs.ErrUnsupportedValue, "%T", v)
		}

		return v, nil
	}
}

func (d *Decoder) decodeObject(obj *tree.Object) (any, error) {
	out := tree.NewObject(obj.Len())
	for k, val := range obj.All() {
		res, err := d.Decode(val)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", k)
		}
		out.Set(k, res)
	}

	return out, nil
}

func (d *Decoder) decodeTable(enc table.Encoded) (any, error) {
	records, err := table.Decode(enc.Meta, enc.Body, d)
	if err != nil {
		return nil, err
	}

	return records, nil
}

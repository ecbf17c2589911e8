package registry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/compress"
	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/internal/options"
)

// DefaultFileName is the conventional sidecar file name for a registry.
const DefaultFileName = "coil_types.json"

// Magic prefixes a compressed registry file. It is followed by one byte
// holding the format.CompressionType and then the compressed JSON document.
const Magic = "COILREG"

const defaultIndent = "  "

// PersistConfig controls how a registry is written.
type PersistConfig struct {
	compression format.CompressionType
	indent      string
}

// PersistOption configures Save and SaveFile.
type PersistOption = options.Option[*PersistConfig]

func newPersistConfig(opts ...PersistOption) (*PersistConfig, error) {
	cfg := &PersistConfig{
		compression: format.CompressionNone,
		indent:      defaultIndent,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithCompression compresses the JSON document with the given algorithm.
// format.CompressionNone (the default) writes plain, human-readable JSON.
func WithCompression(comp format.CompressionType) PersistOption {
	return options.New(func(cfg *PersistConfig) error {
		switch comp {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			cfg.compression = comp
			return nil
		default:
			return errors.Newf("invalid registry compression: %s", comp)
		}
	})
}

// WithIndent sets the JSON indentation. An empty indent writes compact JSON.
// Default is two spaces.
func WithIndent(indent string) PersistOption {
	return options.NoError(func(cfg *PersistConfig) {
		cfg.indent = indent
	})
}

// Marshal renders reg in its persisted form.
func Marshal(reg *Registry, opts ...PersistOption) ([]byte, error) {
	data, _, err := MarshalWithStats(reg, opts...)
	return data, err
}

// MarshalWithStats is Marshal reporting the JSON document size against the
// persisted size, magic header included.
func MarshalWithStats(reg *Registry, opts ...PersistOption) ([]byte, compress.Stats, error) {
	cfg, err := newPersistConfig(opts...)
	if err != nil {
		return nil, compress.Stats{}, err
	}

	doc, err := reg.MarshalJSON()
	if err != nil {
		return nil, compress.Stats{}, errors.Wrap(err, "marshal registry")
	}
	if cfg.indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc, "", cfg.indent); err != nil {
			return nil, compress.Stats{}, errors.Wrap(err, "indent registry")
		}
		doc = buf.Bytes()
	}

	if cfg.compression == format.CompressionNone {
		size := int64(len(doc))
		return doc, compress.Stats{Algorithm: format.CompressionNone, OriginalSize: size, CompressedSize: size}, nil
	}

	packed, stats, err := compress.CompressWithStats(cfg.compression, doc)
	if err != nil {
		return nil, compress.Stats{}, errors.Wrap(err, "compress registry")
	}

	out := make([]byte, 0, len(Magic)+1+len(packed))
	out = append(out, Magic...)
	out = append(out, byte(cfg.compression))
	out = append(out, packed...)
	stats.CompressedSize = int64(len(out))

	return out, stats, nil
}

// Unmarshal parses a registry in either persisted form.
func Unmarshal(data []byte) (*Registry, error) {
	if bytes.HasPrefix(data, []byte(Magic)) {
		rest := data[len(Magic):]
		if len(rest) == 0 {
			return nil, errors.Wrap(errs.ErrInvalidRegistryFile, "missing compression byte")
		}
		codec, err := compress.GetCodec(format.CompressionType(rest[0]))
		if err != nil {
			return nil, errors.Wrapf(errs.ErrInvalidRegistryFile, "%v", err)
		}
		doc, err := codec.Decompress(rest[1:])
		if err != nil {
			return nil, errors.Wrapf(errs.ErrInvalidRegistryFile, "decompress: %v", err)
		}
		data = doc
	}

	reg := New()
	if err := reg.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return reg, nil
}

// Save writes reg to w.
func Save(w io.Writer, reg *Registry, opts ...PersistOption) error {
	data, err := Marshal(reg, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write registry")
	}

	return nil
}

// Load reads a registry from r.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read registry")
	}

	return Unmarshal(data)
}

// SaveFile writes reg to path, replacing the file atomically.
func SaveFile(path string, reg *Registry, opts ...PersistOption) error {
	_, err := SaveFileWithStats(path, reg, opts...)
	return err
}

// SaveFileWithStats is SaveFile reporting the size of what was written.
func SaveFileWithStats(path string, reg *Registry, opts ...PersistOption) (compress.Stats, error) {
	data, stats, err := MarshalWithStats(reg, opts...)
	if err != nil {
		return compress.Stats{}, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return compress.Stats{}, err
	}

	return stats, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create registry file for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return errors.Wrapf(err, "write registry file %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return errors.Wrapf(err, "close registry file %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return errors.Wrapf(err, "rename registry file %s", path)
	}

	return nil
}

// LoadFile reads a registry from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry file %s", path)
	}

	reg, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	return reg, nil
}

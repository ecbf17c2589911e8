// Package registry holds the type registry: the side channel that maps each
// encoded table to the primitive types of its columns.
//
// A registry is produced by one encode call and must be handed, unchanged, to
// the decode call for the same payload. It is not shipped inside the encoded
// tree.
//
// Wire shape (JSON):
//
//	{
//	  "tbl_1": {"amount": "int", "method": "str"},
//	  "tbl_3": {"ok": "bool", "score": "float"}
//	}
//
// A Registry is not safe for concurrent mutation; concurrent encode calls
// must each use their own instance.
package registry

import (
	"encoding/json"
	"maps"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/errs"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/internal/hash"
	"github.com/arloliu/coil/tree"
)

// Registry maps table identifier → column → type tag.
type Registry struct {
	tables map[string]map[string]format.TypeTag
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tables: make(map[string]map[string]format.TypeTag)}
}

// Set records the column types of one table, replacing any previous entry.
func (r *Registry) Set(tableID string, columns map[string]format.TypeTag) {
	r.tables[tableID] = maps.Clone(columns)
}

// Table returns the column types of a table. The map must not be modified.
func (r *Registry) Table(tableID string) (map[string]format.TypeTag, bool) {
	if r == nil {
		return nil, false
	}
	cols, ok := r.tables[tableID]

	return cols, ok
}

// Lookup returns the type tag registered for one column.
func (r *Registry) Lookup(tableID, column string) (format.TypeTag, bool) {
	cols, ok := r.Table(tableID)
	if !ok {
		return 0, false
	}
	tag, ok := cols[column]

	return tag, ok
}

// ColumnType returns the tag registered for a column, or an error wrapping
// errs.ErrUnknownTable when the table or column is not registered.
func (r *Registry) ColumnType(tableID, column string) (format.TypeTag, error) {
	if r == nil {
		return 0, errs.ErrRegistryUnavailable
	}
	cols, ok := r.tables[tableID]
	if !ok {
		return 0, errors.Wrapf(errs.ErrUnknownTable, "table %s", tableID)
	}
	tag, ok := cols[column]
	if !ok {
		return 0, errors.Wrapf(errs.ErrUnknownTable, "table %s has no column %q", tableID, column)
	}

	return tag, nil
}

// Tables returns the registered table identifiers in sorted order.
func (r *Registry) Tables() []string {
	if r == nil {
		return nil
	}

	return tree.SortedKeys(r.tables)
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.tables)
}

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	c := New()
	if r == nil {
		return c
	}
	for id, cols := range r.tables {
		c.tables[id] = maps.Clone(cols)
	}

	return c
}

// Equal reports whether both registries hold the same entries.
func (r *Registry) Equal(other *Registry) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r == nil {
		return true
	}
	for id, cols := range r.tables {
		oc, ok := other.tables[id]
		if !ok || !maps.Equal(cols, oc) {
			return false
		}
	}

	return true
}

// Fingerprint returns an xxHash64 digest of the canonical JSON form. Equal
// registries have equal fingerprints.
func (r *Registry) Fingerprint() uint64 {
	data, err := r.MarshalJSON()
	if err != nil {
		return 0
	}

	return hash.Bytes(data)
}

// MarshalJSON implements json.Marshaler. Keys are written in sorted order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(r.tables)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown type tags are rejected.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrapf(errs.ErrInvalidRegistryFile, "decode type registry: %v", err)
	}

	tables := make(map[string]map[string]format.TypeTag, len(raw))
	for id, cols := range raw {
		parsed := make(map[string]format.TypeTag, len(cols))
		for col, name := range cols {
			tag, err := format.ParseTypeTag(name)
			if err != nil {
				return errors.Wrapf(err, "table %s column %q", id, col)
			}
			parsed[col] = tag
		}
		tables[id] = parsed
	}
	r.tables = tables

	return nil
}

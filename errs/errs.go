// Package errs defines the error values returned by the coil packages.
//
// Callers should compare against the sentinel values with errors.Is. Decode
// failures that can be attributed to a single cell are wrapped in a
// *FieldError carrying the table identifier, column, row index and raw field.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformedEscape is returned when a field ends with an unmatched escape marker.
	ErrMalformedEscape = errors.New("malformed escape sequence")

	// ErrTypeCoercion is returned when a field cannot be parsed as its registered type.
	ErrTypeCoercion = errors.New("type coercion failed")

	// ErrStructureMismatch is returned when a body row or record count disagrees
	// with the declared columns or header.
	ErrStructureMismatch = errors.New("structure mismatch")

	// ErrInvalidMeta is returned when an encoded table's metadata string cannot be parsed.
	ErrInvalidMeta = errors.New("invalid table metadata")

	// ErrInvalidBody is returned when an encoded table's body string cannot be parsed.
	ErrInvalidBody = errors.New("invalid table body")

	// ErrRegistryUnavailable is returned when an encoded table is decoded without a type registry.
	ErrRegistryUnavailable = errors.New("type registry unavailable")

	// ErrUnknownTable is returned in strict mode when the registry has no entry
	// for a table identifier or column.
	ErrUnknownTable = errors.New("table not found in type registry")

	// ErrUnsupportedValue is returned when the input tree contains a Go value
	// outside the supported data model.
	ErrUnsupportedValue = errors.New("unsupported tree value")

	// ErrInvalidTypeTag is returned when a registry contains an unknown type tag.
	ErrInvalidTypeTag = errors.New("invalid type tag")

	// ErrInvalidRegistryFile is returned when a persisted registry cannot be read.
	ErrInvalidRegistryFile = errors.New("invalid type registry file")
)

// FieldError describes a decode failure for a single cell of an encoded table.
type FieldError struct {
	TableID string // Table identifier from the metadata string
	Column  string // Column key, empty when the failure is row-level
	Row     int    // Zero-based row index, -1 when not applicable
	Raw     string // Raw field or row text as found in the body
	Err     error  // Underlying sentinel error
}

// NewFieldError wraps err with cell context.
func NewFieldError(tableID, column string, row int, raw string, err error) *FieldError {
	return &FieldError{
		TableID: tableID,
		Column:  column,
		Row:     row,
		Raw:     raw,
		Err:     err,
	}
}

func (e *FieldError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %s row %d: %v (raw %q)", e.TableID, e.Row, e.Err, e.Raw)
	}

	return fmt.Sprintf("table %s row %d column %q: %v (raw %q)", e.TableID, e.Row, e.Column, e.Err, e.Raw)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

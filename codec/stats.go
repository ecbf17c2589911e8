package codec

import (
	"github.com/arloliu/coil/registry"
)

// Stats summarises the table decisions of one Encode call. Token counts
// cover the encoded tables only.
type Stats struct {
	TablesSeen     int
	TablesEncoded  int
	TablesSkipped  int
	OriginalTokens int
	EncodedTokens  int
}

// Saved returns the estimated number of tokens saved.
func (s Stats) Saved() int {
	return s.OriginalTokens - s.EncodedTokens
}

// Ratio returns encoded tokens / original tokens for the encoded tables, or 1
// when nothing was encoded.
func (s Stats) Ratio() float64 {
	if s.OriginalTokens == 0 {
		return 1.0
	}

	return float64(s.EncodedTokens) / float64(s.OriginalTokens)
}

// Result is the output of one Encode call.
type Result struct {
	// Tree is the input tree with accepted tables replaced by encoded tables.
	Tree any
	// Registry holds the column types of every accepted table. It must be
	// passed to the Decoder for Tree.
	Registry *registry.Registry
	Stats    Stats
}

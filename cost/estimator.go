// Package cost estimates the token cost of text and decides whether a compact
// table encoding is worth shipping instead of the original JSON.
package cost

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by NewTiktokenEstimator when no
// name is given. It is the vocabulary of the gpt-4o model family.
const DefaultEncoding = "o200k_base"

// Estimator counts the tokens a consumer would be billed for text.
//
// Implementations must be deterministic and monotonic in the length of the
// text for the accept/reject decision to be stable.
type Estimator interface {
	Count(text string) int
	Name() string
}

// ApproxEstimator approximates tokens as ceil(chars / CharsPerToken), with a
// minimum of one token.
type ApproxEstimator struct {
	CharsPerToken int
}

var _ Estimator = ApproxEstimator{}

// NewApproxEstimator returns the default four-characters-per-token estimator.
func NewApproxEstimator() ApproxEstimator {
	return ApproxEstimator{CharsPerToken: 4}
}

// Count implements Estimator. Characters are counted as runes.
func (e ApproxEstimator) Count(text string) int {
	per := e.CharsPerToken
	if per <= 0 {
		per = 4
	}
	n := utf8.RuneCountInString(text)

	return max(1, (n+per-1)/per)
}

// Name implements Estimator.
func (e ApproxEstimator) Name() string {
	return "approx"
}

// TiktokenEstimator counts tokens with a BPE tokenizer.
type TiktokenEstimator struct {
	name string
	enc  *tiktoken.Tiktoken
}

var _ Estimator = (*TiktokenEstimator)(nil)

// NewTiktokenEstimator loads the named BPE encoding (DefaultEncoding when
// empty). Loading may fetch the vocabulary on first use, so callers usually
// fall back to ApproxEstimator on error.
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "load tokenizer %s", encoding)
	}

	return &TiktokenEstimator{name: encoding, enc: enc}, nil
}

// Count implements Estimator.
func (e *TiktokenEstimator) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// Name implements Estimator.
func (e *TiktokenEstimator) Name() string {
	return "tiktoken/" + e.name
}

// DefaultEstimator returns a tokenizer-backed estimator when the encoding can
// be loaded and the approximation otherwise.
func DefaultEstimator(encoding string) Estimator {
	if est, err := NewTiktokenEstimator(encoding); err == nil {
		return est
	}

	return NewApproxEstimator()
}

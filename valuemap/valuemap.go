// Package valuemap builds the per-table dictionary that substitutes short
// placeholder tokens for repeated value strings.
package valuemap

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// DefaultMinFrequency is the minimum number of occurrences for a value to
// receive a token.
const DefaultMinFrequency = 2

// TokenPrefix starts every placeholder token.
const TokenPrefix = "V"

// Entry associates a placeholder token with the value it replaces.
type Entry struct {
	Token string
	Value string
}

// Map is a value-map in token order (V1, V2, ...).
type Map struct {
	entries []Entry
	byValue map[string]string
	byToken map[string]string
}

// New builds a Map from entries, keeping their order.
func New(entries []Entry) *Map {
	m := &Map{
		entries: entries,
		byValue: make(map[string]string, len(entries)),
		byToken: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		m.byValue[e.Value] = e.Token
		m.byToken[e.Token] = e.Value
	}

	return m
}

// Propose counts the given value strings and assigns tokens to every value
// occurring at least minFrequency times.
//
// Candidates are ranked by frequency × length, descending, with ties broken
// by ascending value so the result does not depend on input order for equal
// scores. minFrequency values below 2 are raised to 2 since a single
// occurrence can never pay for its dictionary entry.
func Propose(values []string, minFrequency int) *Map {
	minFrequency = max(minFrequency, DefaultMinFrequency)

	freq := make(map[string]int, len(values))
	for _, v := range values {
		freq[v]++
	}

	type candidate struct {
		value string
		score int
	}
	candidates := make([]candidate, 0, len(freq))
	for v, n := range freq {
		if n >= minFrequency {
			candidates = append(candidates, candidate{value: v, score: n * len(v)})
		}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}

		return strings.Compare(a.value, b.value)
	})

	entries := make([]Entry, len(candidates))
	for i, c := range candidates {
		entries[i] = Entry{Token: Token(i + 1), Value: c.value}
	}

	return New(entries)
}

// Token returns the placeholder token for the n-th entry (1-based).
func Token(n int) string {
	return TokenPrefix + strconv.Itoa(n)
}

// IsToken reports whether s has the shape of a placeholder token.
func IsToken(s string) bool {
	digits, ok := strings.CutPrefix(s, TokenPrefix)
	if !ok || digits == "" || digits[0] == '0' {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}

	return true
}

// TokenFor returns the token assigned to value.
func (m *Map) TokenFor(value string) (string, bool) {
	if m == nil {
		return "", false
	}
	t, ok := m.byValue[value]

	return t, ok
}

// ValueOf returns the value replaced by token.
func (m *Map) ValueOf(token string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.byToken[token]

	return v, ok
}

// HasToken reports whether token is defined in the map.
func (m *Map) HasToken(token string) bool {
	_, ok := m.ValueOf(token)
	return ok
}

// Entries returns the entries in token order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}

	return m.entries
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.entries)
}

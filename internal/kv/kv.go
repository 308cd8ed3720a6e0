// Package kv parses and re-serializes the "hstore-like" embedded payload
// format (spec.md §4.2): a single cell whose string value is itself a
// set of key/value pairs, as produced by Postgres's hstore output in a
// bulk-copy CSV field.
//
// The format is deliberately not general-purpose: pairs are split on the
// literal three-byte sequence `", "` and each pair on `"=>"`, the same way
// the reference implementation's Hstore module does it. It is line-noise
// tolerant, not a parser for arbitrary nested quoting.
package kv

import "strings"

// Pair is one key/value entry. Order is preserved across Parse/Format so
// that an untouched payload round-trips byte-for-byte.
type Pair struct {
	Key   string
	Value string
}

// Map is an ordered set of key/value pairs parsed from one cell.
type Map struct {
	pairs []Pair
	index map[string]int
}

// Get returns the value bound to key and whether it was present.
func (m *Map) Get(key string) (string, bool) {
	if m == nil || m.index == nil {
		return "", false
	}
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.pairs[i].Value, true
}

// Set overwrites the value for an existing key in place, preserving its
// position, or appends a new pair if key was not already present.
func (m *Map) Set(key, value string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.pairs[i].Value = value
		return
	}
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Pairs returns the entries in their original order.
func (m *Map) Pairs() []Pair {
	return m.pairs
}

// Parse reads one hstore-like cell. A leading and trailing double quote are
// stripped once; the remainder is split on `", "` and each resulting
// segment on `"=>"`. Unlike a JSON parser this performs no unescaping: keys
// and values keep any interior escaped quotes verbatim (spec.md §4.2).
//
// ok is false when any segment lacks the `"=>"` pair separator; per
// spec.md §4.2/§7 that is a silent no-op, and callers must return the
// original cell unchanged rather than re-emit a partially parsed Map.
func Parse(s string) (m *Map, ok bool) {
	stripped := stripQuotes(s)
	m = &Map{index: make(map[string]int)}
	for _, segment := range strings.Split(stripped, `", "`) {
		key, value, found := splitOnce(segment, `"=>"`)
		if !found {
			return nil, false
		}
		m.Set(key, value)
	}
	return m, true
}

// Format re-wraps pairs with the enclosing quotes and separators the
// hstore dialect expects.
func Format(m *Map) string {
	parts := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		parts[i] = p.Key + `"=>"` + p.Value
	}
	return `"` + strings.Join(parts, `", "`) + `"`
}

func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

func splitOnce(s, sep string) (string, string, bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

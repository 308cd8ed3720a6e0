// Package jsonattr parses and re-serializes the brace-wrapped "json-like"
// embedded payload format (spec.md §4.2): a single cell whose string value
// looks like a flat JSON object, as produced verbatim by the source
// database's bulk-copy output.
//
// Like package kv, this is intentionally not a general JSON parser: a
// single leading `{` and trailing `}` are stripped, pairs are split on
// `", "`, and each pair on `": "`. It must round-trip the exact shape the
// database emits, nothing more.
package jsonattr

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

// Parse reads one brace-wrapped cell. ok is false when any pair lacks the
// `": "` separator, mirroring package kv's silent no-op contract
// (spec.md §4.2/§7): callers must return the original cell unchanged
// rather than re-emit a partially parsed Map.
func Parse(s string) (m *Map, ok bool) {
	stripped := stripQuotes(stripBraces(s))
	m = &Map{index: make(map[string]int)}
	for _, segment := range strings.Split(stripped, `", "`) {
		key, value, found := splitOnce(segment, `": "`)
		if !found {
			return nil, false
		}
		m.Set(key, value)
	}
	return m, true
}

// Format re-wraps pairs with the enclosing braces and separators the
// object dialect expects.
func Format(m *Map) string {
	parts := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		parts[i] = p.Key + `": "` + p.Value
	}
	return `{"` + strings.Join(parts, `", "`) + `"}`
}

func stripBraces(s string) string {
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	return s
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

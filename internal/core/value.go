// Package core contains the single source of truth for a captured row: the
// tagged column value, ordered column metadata, and the small immutable
// types the planner, introspector, and dump driver all share.
package core

import (
	"math/big"
	"strconv"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNumber Kind = iota
	KindFloat
	KindBoolean
	KindChar
	KindString
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Value is a tagged union over a single cell's parsed representation. Only
// the field matching Kind is meaningful. Every variant carries the source
// column's name alongside its payload, matching the original project's
// Column::<Variant>(name, payload) shape.
type Value struct {
	Name string
	Kind Kind

	Number  *big.Int
	Float   float64
	Boolean bool
	Char    rune
	Str     string
}

// NumberValue constructs a number-tagged value. n must not be nil.
func NumberValue(name string, n *big.Int) Value {
	return Value{Name: name, Kind: KindNumber, Number: n}
}

// FloatValue constructs a float-tagged value.
func FloatValue(name string, f float64) Value {
	return Value{Name: name, Kind: KindFloat, Float: f}
}

// BooleanValue constructs a boolean-tagged value.
func BooleanValue(name string, b bool) Value {
	return Value{Name: name, Kind: KindBoolean, Boolean: b}
}

// CharValue constructs a single-code-point value.
func CharValue(name string, r rune) Value {
	return Value{Name: name, Kind: KindChar, Char: r}
}

// StringValue constructs a string-tagged value.
func StringValue(name, s string) Value {
	return Value{Name: name, Kind: KindString, Str: s}
}

// NullValue constructs a null-tagged value, used by the blank transformer
// and for CSV fields that were empty.
func NullValue(name string) Value {
	return Value{Name: name, Kind: KindNull}
}

// StringVal returns the value's string payload, and reports whether Kind was
// actually KindString. Compound transformers use this to detect a child
// transformer that changed a value's tag (spec §4.3, "transformer content
// mismatch").
func (v Value) StringVal() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Raw renders the value's payload as it should appear in a CSV field,
// without any escaping; Emit is responsible for escaping.
func (v Value) Raw() string {
	switch v.Kind {
	case KindNumber:
		if v.Number == nil {
			return "0"
		}
		return v.Number.String()
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBoolean:
		if v.Boolean {
			return "t"
		}
		return "f"
	case KindChar:
		return string(v.Char)
	case KindString:
		return v.Str
	case KindNull:
		return ""
	default:
		return ""
	}
}

package transformer

import (
	"strconv"
	"strings"

	"dbsnap/internal/core"
)

// mobileNumberFormats maps a tail length (total length minus the
// country-code prefix's own length) to a space-separated digit grouping,
// carried verbatim from the original's MobileFormats module
// (transformer/mobile_number.rs) per spec.md §4.3/§8.
var mobileNumberFormats = map[int][]int{
	6:  {3, 3},
	7:  {3, 4},
	8:  {4, 4},
	9:  {3, 3, 3},
	10: {3, 3, 4},
	11: {3, 4, 4},
}

var mobileNumberFormatDefault = []int{4, 4}

// MobileNumberOptions configures the mobile-number transformer's digit
// count and country-code prefix.
type MobileNumberOptions struct {
	CountryCode int
	Length      int
}

// MobileNumberOptionsDefault matches the original's Default impl: US
// country code, 11-digit total length.
func MobileNumberOptionsDefault() MobileNumberOptions {
	return MobileNumberOptions{CountryCode: 1, Length: 11}
}

// MobileNumberTransformer replaces a string value with digits matching a
// country-code + length spec (spec.md §4.3).
type MobileNumberTransformer struct {
	base
	options MobileNumberOptions
}

func NewMobileNumber(database, table, column string, options MobileNumberOptions) *MobileNumberTransformer {
	return &MobileNumberTransformer{base: newBase(database, table, column), options: options}
}

func (t *MobileNumberTransformer) ID() string          { return IDMobileNumber }
func (t *MobileNumberTransformer) Description() string { return "Generate a mobile number (string only)." }

func (t *MobileNumberTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	prefix := strconv.Itoa(t.options.CountryCode)
	tailLength := t.options.Length - len(prefix)

	groups, ok := mobileNumberFormats[tailLength]
	if !ok {
		groups = mobileNumberFormatDefault
	}

	var sb strings.Builder
	for _, n := range groups {
		sb.WriteByte(' ')
		sb.WriteString(randomDigits(n))
	}
	return core.StringValue(v.Name, prefix+sb.String())
}

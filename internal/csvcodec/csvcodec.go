// Package csvcodec parses and emits the bulk-copy CSV dialect produced by
// the native export client: tab-delimited, no quoting, backslash escape, no
// header, flexible row width (spec.md §4.1).
//
// The dialect doesn't map onto encoding/csv, which always treats a bare `"`
// as the start of a quoted field and has no backslash-escape mode — so
// fields are scanned by hand here, the same way the original reads them
// with its CSV library configured for `double_quote(false)` plus a
// backslash escape character.
package csvcodec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"dbsnap/internal/core"
)

// maxInt128/minInt128 bound the integer-family column kind to a signed
// 128-bit range (spec.md §3), matching the original's i128::parse, which
// errors fatally on overflow rather than accepting an unbounded integer.
var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

var integerFamily = map[string]bool{
	"smallint":         true,
	"integer":          true,
	"bigint":           true,
	"decimal":          true,
	"numeric":          true,
	"real":             true,
	"double precision": true,
	"smallserial":      true,
	"serial":           true,
	"bigserial":        true,
}

// SplitFields splits one tab-delimited, backslash-escaped CSV row into its
// raw field strings. Escaping is unwound: "\\t" -> tab, "\\n" -> newline,
// "\\\\" -> backslash, and any other "\\X" -> X.
func SplitFields(row string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(row); i++ {
		c := row[i]
		if escaped {
			switch c {
			case 't':
				cur.WriteByte('\t')
			case 'n':
				cur.WriteByte('\n')
			case '\\':
				cur.WriteByte('\\')
			default:
				cur.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '\t':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// JoinFields is the inverse of SplitFields: it escapes any tab, newline, or
// backslash in each field and joins them with a single tab.
func JoinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		var b strings.Builder
		for j := 0; j < len(f); j++ {
			switch f[j] {
			case '\\':
				b.WriteString(`\\`)
			case '\t':
				b.WriteString(`\t`)
			case '\n':
				b.WriteString(`\n`)
			default:
				b.WriteByte(f[j])
			}
		}
		escaped[i] = b.String()
	}
	return strings.Join(escaped, "\t")
}

// Parse maps one bulk-copy CSV row onto columns, by ordinal, producing a
// tagged core.Value per column name. columns need not be pre-sorted; Parse
// sorts its own copy by ordinal (spec.md §4.1).
func Parse(columns core.Columns, row string) (map[string]core.Value, error) {
	sorted := columns.SortByOrdinal()
	fields := SplitFields(row)

	out := make(map[string]core.Value, len(sorted))
	for _, col := range sorted {
		idx := col.Ordinal - 1
		if idx < 0 || idx >= len(fields) {
			return nil, fmt.Errorf("column %q: ordinal %d out of range for row with %d fields", col.Name, col.Ordinal, len(fields))
		}
		raw := fields[idx]

		switch {
		case integerFamily[col.SQLType]:
			n, ok := new(big.Int).SetString(raw, 10)
			if !ok {
				return nil, fmt.Errorf("column %q: %q is not a valid integer", col.Name, raw)
			}
			if n.Cmp(maxInt128) > 0 || n.Cmp(minInt128) < 0 {
				return nil, fmt.Errorf("column %q: %q overflows a 128-bit signed integer", col.Name, raw)
			}
			out[col.Name] = core.NumberValue(col.Name, n)
		case col.SQLType == "boolean":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("column %q: %q is not a valid boolean", col.Name, raw)
			}
			out[col.Name] = core.BooleanValue(col.Name, b)
		case col.SQLType == "float" || col.SQLType == "money":
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q: %q is not a valid float", col.Name, raw)
			}
			out[col.Name] = core.FloatValue(col.Name, f)
		default:
			out[col.Name] = core.StringValue(col.Name, raw)
		}
	}
	return out, nil
}

// Emit writes values back out in ordinal order as one bulk-copy CSV row,
// given the same column metadata used to Parse it. Null values emit as the
// empty field (spec.md §4.1).
func Emit(columns core.Columns, values map[string]core.Value) (string, error) {
	sorted := columns.SortByOrdinal()
	fields := make([]string, len(sorted))
	for i, col := range sorted {
		v, ok := values[col.Name]
		if !ok {
			return "", fmt.Errorf("column %q: missing value", col.Name)
		}
		fields[i] = v.Raw()
	}
	return JoinFields(fields), nil
}

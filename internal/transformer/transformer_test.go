package transformer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsnap/internal/core"
)

func TestFirstNameTransformerOnlyChangesStrings(t *testing.T) {
	tr := NewFirstName("db", "users", "first_name")
	out := tr.Transform(core.StringValue("first_name", "Bob"))
	assert.Equal(t, core.KindString, out.Kind)
	assert.NotEmpty(t, out.Str)

	num := core.NumberValue("id", nil)
	assert.Equal(t, num, tr.Transform(num))
}

func TestRandomTransformerPreservesLength(t *testing.T) {
	tr := NewRandom("db", "users", "bio")
	out := tr.Transform(core.StringValue("bio", "hello world"))
	assert.Len(t, out.Str, len("hello world"))
}

func TestKeepFirstCharTransformer(t *testing.T) {
	tr := NewKeepFirstChar("db", "users", "name")
	out := tr.Transform(core.StringValue("name", "Alice"))
	assert.Equal(t, "A", out.Str)

	empty := tr.Transform(core.StringValue("name", ""))
	assert.Equal(t, "", empty.Str)
}

func TestRedactedTransformerFixedLengthMask(t *testing.T) {
	tr := NewRedacted("db", "users", "ssn", RedactedOptions{Character: "#", Length: 4})
	out := tr.Transform(core.StringValue("ssn", "123-45-6789"))
	assert.Equal(t, "####", out.Str)
}

func TestRedactedTransformerDefaultsOnZeroValue(t *testing.T) {
	tr := NewRedacted("db", "users", "ssn", RedactedOptions{})
	out := tr.Transform(core.StringValue("ssn", "anything"))
	assert.Equal(t, "********", out.Str)
}

// TestBlankTransformerAlwaysNulls checks spec.md §8's testable property:
// for any input column, the blank transformer's output has the null tag.
func TestBlankTransformerAlwaysNulls(t *testing.T) {
	tr := NewBlank("db", "users", "ssn")
	for _, v := range []core.Value{
		core.StringValue("ssn", "123"),
		core.NumberValue("ssn", nil),
		core.BooleanValue("ssn", true),
	} {
		out := tr.Transform(v)
		assert.Equal(t, core.KindNull, out.Kind)
	}
}

func TestTransientTransformerIsIdentity(t *testing.T) {
	tr := NewTransient("db", "users", "anything")
	v := core.StringValue("anything", "unchanged")
	assert.Equal(t, v, tr.Transform(v))
}

// TestMobileNumberTransformerGrouping checks spec.md §4.3/§8's grouping
// table for 7 <= length <= 14 (total length including the country code).
func TestMobileNumberTransformerGrouping(t *testing.T) {
	cases := []struct {
		countryCode int
		length      int
		wantGroups  int
		wantPrefix  string
	}{
		{countryCode: 1, length: 11, wantGroups: 3, wantPrefix: "1"},   // tail 10 -> {3,3,4}
		{countryCode: 61, length: 11, wantGroups: 3, wantPrefix: "61"}, // tail 9 -> {3,3,3}
		{countryCode: 1, length: 7, wantGroups: 2, wantPrefix: "1"},    // tail 6 -> {3,3}
		{countryCode: 1, length: 99, wantGroups: 2, wantPrefix: "1"},   // tail out of table -> default {4,4}
	}
	for _, c := range cases {
		tr := NewMobileNumber("db", "users", "mobile", MobileNumberOptions{CountryCode: c.countryCode, Length: c.length})
		out := tr.Transform(core.StringValue("mobile", "x"))
		fields := strings.Fields(out.Str)
		require.Equal(t, c.wantGroups+1, len(fields))
		assert.Equal(t, c.wantPrefix, fields[0])
	}
}

func TestMobileNumberTransformerOnlyChangesStrings(t *testing.T) {
	tr := NewMobileNumber("db", "users", "mobile", MobileNumberOptionsDefault())
	num := core.NumberValue("mobile", nil)
	assert.Equal(t, num, tr.Transform(num))
}

func TestHstoreAttrTransformerChangesOnlyConfiguredAttribute(t *testing.T) {
	tr := NewHstoreAttr("db", "users", "meta", HstoreAttrOptions{
		Transformers: []AttrOption{
			{Attribute: "email", Config: Config{Name: IDRedacted}},
		},
	})
	in := core.StringValue("meta", `"id"=>"1234", "email"=>"joe@x.com"`)
	out := tr.Transform(in)
	require.Equal(t, core.KindString, out.Kind)
	assert.Contains(t, out.Str, `"id"=>"1234"`)
	assert.NotContains(t, out.Str, "joe@x.com")
}

func TestHstoreAttrTransformerNoOpOnMissingSeparator(t *testing.T) {
	tr := NewHstoreAttr("db", "users", "meta", HstoreAttrOptions{
		Transformers: []AttrOption{{Attribute: "email", Config: Config{Name: IDBlank}}},
	})
	in := core.StringValue("meta", "not a kv string")
	out := tr.Transform(in)
	assert.Equal(t, in, out)
}

func TestHstoreAttrTransformerWarnsOnNonStringChild(t *testing.T) {
	var buf bytes.Buffer
	tr := NewHstoreAttr("db", "users", "meta", HstoreAttrOptions{
		Transformers: []AttrOption{{Attribute: "email", Config: Config{Name: IDBlank}}},
	})
	tr.SetWarnWriter(&buf)
	in := core.StringValue("meta", `"email"=>"joe@x.com"`)
	out := tr.Transform(in)

	// blank returns a null-tagged value, a tag mismatch for a compound
	// child, so the key is left unchanged and a warning is logged.
	assert.Equal(t, in, out)
	assert.Contains(t, buf.String(), "email")
}

func TestJSONAttrTransformerChangesOnlyConfiguredAttribute(t *testing.T) {
	tr := NewJSONAttr("db", "users", "meta", JSONAttrOptions{
		Transformers: []AttrOption{
			{Attribute: "email", Config: Config{Name: IDKeepFirstChar}},
		},
	})
	in := core.StringValue("meta", `{"id": "1234", "email": "joe.blogs@gmail.com"}`)
	out := tr.Transform(in)
	require.Equal(t, core.KindString, out.Kind)
	assert.Contains(t, out.Str, `"id": "1234"`)
	assert.Contains(t, out.Str, `"email": "j"`)
}

func TestConfigBuildUnknownFallsBackToTransient(t *testing.T) {
	cfg := Config{Name: "not-a-real-transformer"}
	tr := cfg.Build("db", "users", "col")
	assert.Equal(t, IDTransient, tr.ID())
}

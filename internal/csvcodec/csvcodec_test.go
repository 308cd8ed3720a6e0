package csvcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsnap/internal/core"
)

func testColumns() core.Columns {
	return core.Columns{
		{Name: "first_name", SQLType: "varchar", Ordinal: 1},
		{Name: "last_name", SQLType: "varchar", Ordinal: 2},
		{Name: "email", SQLType: "varchar", Ordinal: 3},
		{Name: "mobile_number", SQLType: "varchar", Ordinal: 4},
	}
}

func TestSplitFields(t *testing.T) {
	t.Run("tab delimited", func(t *testing.T) {
		assert.Equal(t, []string{"Bob", "Joe", "bob.joe@gmail.com", "61444222333"},
			SplitFields("Bob\tJoe\tbob.joe@gmail.com\t61444222333"))
	})

	t.Run("escaped tab and newline in a field", func(t *testing.T) {
		assert.Equal(t, []string{"a\tb", "c\nd"}, SplitFields(`a\tb` + "\t" + `c\nd`))
	})

	t.Run("escaped backslash", func(t *testing.T) {
		assert.Equal(t, []string{`a\b`}, SplitFields(`a\\b`))
	})
}

func TestJoinFields(t *testing.T) {
	assert.Equal(t, "Bob\tJoe", JoinFields([]string{"Bob", "Joe"}))
	assert.Equal(t, `a\tb`, JoinFields([]string{"a\tb"}))
}

func TestParseAndEmitRoundTrip(t *testing.T) {
	columns := testColumns()
	row := "Bob\tJoe\tbob.joe@gmail.com\t61444222333"

	values, err := Parse(columns, row)
	require.NoError(t, err)
	assert.Equal(t, "Bob", values["first_name"].Str)

	emitted, err := Emit(columns, values)
	require.NoError(t, err)
	assert.Equal(t, row, emitted)
}

func TestParseIntegerFamily(t *testing.T) {
	columns := core.Columns{{Name: "id", SQLType: "integer", Ordinal: 1}}
	values, err := Parse(columns, "42")
	require.NoError(t, err)
	assert.Equal(t, core.KindNumber, values["id"].Kind)
	assert.Equal(t, "42", values["id"].Number.String())
}

func TestParseInvalidInteger(t *testing.T) {
	columns := core.Columns{{Name: "id", SQLType: "integer", Ordinal: 1}}
	_, err := Parse(columns, "not-a-number")
	assert.Error(t, err)
}

func TestParseIntegerAtInt128Bounds(t *testing.T) {
	columns := core.Columns{{Name: "id", SQLType: "numeric", Ordinal: 1}}

	_, err := Parse(columns, "170141183460469231731687303715884105727") // 2^127-1
	assert.NoError(t, err)

	_, err = Parse(columns, "-170141183460469231731687303715884105728") // -2^127
	assert.NoError(t, err)
}

func TestParseIntegerOverflowsInt128(t *testing.T) {
	columns := core.Columns{{Name: "id", SQLType: "numeric", Ordinal: 1}}

	_, err := Parse(columns, "170141183460469231731687303715884105728") // 2^127
	assert.Error(t, err)

	_, err = Parse(columns, "-170141183460469231731687303715884105729") // -2^127-1
	assert.Error(t, err)
}

func TestParseBoolean(t *testing.T) {
	columns := core.Columns{{Name: "active", SQLType: "boolean", Ordinal: 1}}
	values, err := Parse(columns, "true")
	require.NoError(t, err)
	assert.True(t, values["active"].Boolean)
}

func TestParseUnsortedOrdinals(t *testing.T) {
	columns := core.Columns{
		{Name: "b", SQLType: "varchar", Ordinal: 2},
		{Name: "a", SQLType: "varchar", Ordinal: 1},
	}
	values, err := Parse(columns, "first\tsecond")
	require.NoError(t, err)
	assert.Equal(t, "first", values["a"].Str)
	assert.Equal(t, "second", values["b"].Str)
}

func TestEmitNullAsEmptyField(t *testing.T) {
	columns := core.Columns{{Name: "a", SQLType: "varchar", Ordinal: 1}}
	emitted, err := Emit(columns, map[string]core.Value{"a": core.NullValue("a")})
	require.NoError(t, err)
	assert.Equal(t, "", emitted)
}

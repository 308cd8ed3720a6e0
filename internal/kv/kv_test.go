package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("basic pairs", func(t *testing.T) {
		m, ok := Parse(`"1"=>"5", "email"=>"joe@x.com", "mobile"=>"61 466 333 222", "id"=>"1234"`)
		require.True(t, ok)
		v, ok := m.Get("email")
		require.True(t, ok)
		assert.Equal(t, "joe@x.com", v)
	})

	t.Run("missing separator is a no-op", func(t *testing.T) {
		_, ok := Parse(`not a valid kv string`)
		assert.False(t, ok)
	})

	t.Run("single pair", func(t *testing.T) {
		m, ok := Parse(`"a"=>"b"`)
		require.True(t, ok)
		assert.Equal(t, 1, len(m.Pairs()))
	})
}

func TestRoundTrip(t *testing.T) {
	original := `"1"=>"5", "email"=>"joe@x.com", "mobile"=>"61 466 333 222", "id"=>"1234"`
	m, ok := Parse(original)
	require.True(t, ok)
	assert.Equal(t, original, Format(m))
}

func TestSetPreservesOrder(t *testing.T) {
	m, ok := Parse(`"a"=>"1", "b"=>"2"`)
	require.True(t, ok)
	m.Set("a", "9")
	assert.Equal(t, `"a"=>"9", "b"=>"2"`, Format(m))
}

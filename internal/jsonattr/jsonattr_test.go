package jsonattr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("basic pairs", func(t *testing.T) {
		m, ok := Parse(`{"1": "1234", "3": "4", "a": "2", "email": "joe.blogs@gmail.com"}`)
		require.True(t, ok)
		v, ok := m.Get("email")
		require.True(t, ok)
		assert.Equal(t, "joe.blogs@gmail.com", v)
	})

	t.Run("missing separator is a no-op", func(t *testing.T) {
		_, ok := Parse(`{not valid}`)
		assert.False(t, ok)
	})
}

func TestRoundTrip(t *testing.T) {
	original := `{"1": "1234", "3": "4", "a": "2", "email": "joe.blogs@gmail.com"}`
	m, ok := Parse(original)
	require.True(t, ok)
	assert.Equal(t, original, Format(m))
}

func TestSetChangesOnlyTargetKey(t *testing.T) {
	m, ok := Parse(`{"mobile": "61 466 333 222", "id": "1234"}`)
	require.True(t, ok)
	m.Set("mobile", "61 400 000 000")
	assert.Equal(t, `{"mobile": "61 400 000 000", "id": "1234"}`, Format(m))
}

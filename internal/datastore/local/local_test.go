package local

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsnap/internal/datastore"
)

func writeSimpleDump(t *testing.T, store *Local, compress bool) {
	t.Helper()
	w, err := store.NewDump(compress)
	require.NoError(t, err)
	require.NoError(t, w.WriteBatch([]byte("orig1"), []byte("create table a (id int);\n")))
	require.NoError(t, w.WriteBatch([]byte("orig2"), []byte("1\tBob\n")))
	_, err = w.Finalize()
	require.NoError(t, err)
}

func TestNewDumpFinalizeAppearsInIndex(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	writeSimpleDump(t, store, false)

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Compressed)
	assert.False(t, entries[0].Encrypted)
	assert.Greater(t, entries[0].SizeBytes, int64(0))
}

func TestAbortNeverAppearsInIndex(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	w, err := store.NewDump(false)
	require.NoError(t, err)
	require.NoError(t, w.WriteBatch([]byte("orig"), []byte("partial\n")))
	require.NoError(t, w.Abort())

	entries, err := store.Index()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenRoundTripsPlainDump(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	writeSimpleDump(t, store, false)

	rc, err := store.Open(datastore.Latest())
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(content), "create table a")
	assert.Contains(t, string(content), "1\tBob")
}

func TestOpenRoundTripsCompressedDump(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	writeSimpleDump(t, store, true)

	rc, err := store.Open(datastore.Latest())
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(content), "create table a")

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Compressed)
}

func TestCompressedAndEncryptedDumpRoundTrips(t *testing.T) {
	store, err := New(t.TempDir(), WithEncryptionKey("correct horse battery staple"))
	require.NoError(t, err)
	writeSimpleDump(t, store, true)

	rc, err := store.Open(datastore.Latest())
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(content), "create table a")
	assert.Contains(t, string(content), "1\tBob")

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Compressed)
	assert.True(t, entries[0].Encrypted)
}

func TestEncryptedDumpRoundTrips(t *testing.T) {
	store, err := New(t.TempDir(), WithEncryptionKey("correct horse battery staple"))
	require.NoError(t, err)
	writeSimpleDump(t, store, false)

	rc, err := store.Open(datastore.Latest())
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(content), "create table a")

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Encrypted)
}

func TestOpenEncryptedDumpWithoutKeyFails(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, WithEncryptionKey("key-one"))
	require.NoError(t, err)
	writeSimpleDump(t, store, false)

	reopened, err := New(dir)
	require.NoError(t, err)
	_, err = reopened.Open(datastore.Latest())
	assert.Error(t, err)
}

func TestDeleteRemovesDumpFromIndex(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	writeSimpleDump(t, store, false)

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, store.Delete(entries[0].Directory))

	entries, err = store.Index()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteUnknownDumpFails(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, store.Delete("does-not-exist"))
}

func TestOpenNamedDump(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	writeSimpleDump(t, store, false)

	entries, err := store.Index()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rc, err := store.Open(datastore.Named(entries[0].Directory))
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(content), "create table a")
}

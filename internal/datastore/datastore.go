// Package datastore defines the streaming boundary between the dump/restore
// drivers and the persistence layer (spec.md §4.8): cloud object storage or
// a local directory, plus an index of the dumps stored there. Only the
// interfaces live here; internal/datastore/local is the one concrete
// collaborator this repository ships (cloud backends are out of scope per
// spec.md §1).
package datastore

import (
	"io"

	"dbsnap/internal/core"
)

// Writer is the streaming boundary the dump driver writes through
// (spec.md §4.8). A single Writer instance is scoped to one in-progress
// dump.
type Writer interface {
	// WriteBatch appends transformed to the current dump's byte stream,
	// preserving call order. original may be discarded or kept for audit
	// at the datastore's discretion — the core never reads it back.
	WriteBatch(original, transformed []byte) error

	// SetEncryptionKey arms encryption for subsequent writes. Optional;
	// a datastore that doesn't support encryption may return an error if
	// called.
	SetEncryptionKey(key []byte) error

	// Finalize completes the dump and appends its index entry. Called
	// only after every WriteBatch for the dump succeeded.
	Finalize() (core.DumpIndexEntry, error)

	// Abort discards whatever has been written so far for this dump.
	// Called on cancellation or any error that aborts the dump;
	// spec.md §5 requires that a partial dump never appears in the index.
	Abort() error
}

// ReadSelector picks which dump Reader.Open returns: the most recent one,
// or one named explicitly (spec.md §4.8's read_options).
type ReadSelector struct {
	Latest bool
	Name   string
}

// Latest selects the most recently created dump.
func Latest() ReadSelector { return ReadSelector{Latest: true} }

// Named selects a specific dump by its index directory name.
func Named(name string) ReadSelector { return ReadSelector{Name: name} }

// Reader is the streaming boundary the restore driver reads through.
type Reader interface {
	// Open returns the selected dump's byte stream, in write order.
	Open(selector ReadSelector) (io.ReadCloser, error)

	// Index returns every dump's metadata for listing/sorting.
	Index() ([]core.DumpIndexEntry, error)

	// Delete removes a dump and its index entry.
	Delete(name string) error
}

// Datastore is the full read/write contract a backend implements.
type Datastore interface {
	Writer
	Reader
}
